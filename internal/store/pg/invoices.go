package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tenure.app/internal/ids"
	"tenure.app/internal/property"
	"tenure.app/internal/tenancy"
)

type invoiceStore struct {
	db *sql.DB
}

const invoiceCols = `id, building_id, resident_id, unit_id, lease_id, amount, currency, due_date, status, line_items, attachments, created_at, updated_at`

func (s *invoiceStore) Create(ctx context.Context, inv *property.Invoice) error {
	if inv.ID == "" {
		inv.ID = ids.New()
	}
	now := time.Now().UTC()
	inv.CreatedAt, inv.UpdatedAt = now, now
	items, err := jsonb(inv.LineItems)
	if err != nil {
		return err
	}
	atts, err := jsonb(inv.Attachments)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into invoices(`+invoiceCols+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, inv.ID, inv.BuildingID, inv.ResidentID, inv.UnitID, inv.LeaseID,
		inv.Amount, inv.Currency, nullTime(inv.DueDate), inv.Status, items, atts,
		inv.CreatedAt, inv.UpdatedAt)
	return err
}

func scanInvoice(row interface{ Scan(...any) error }) (*property.Invoice, error) {
	var inv property.Invoice
	var due sql.NullTime
	var items, atts []byte
	err := row.Scan(&inv.ID, &inv.BuildingID, &inv.ResidentID, &inv.UnitID,
		&inv.LeaseID, &inv.Amount, &inv.Currency, &due, &inv.Status, &items,
		&atts, &inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, property.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	inv.DueDate = timePtr(due)
	if err := scanJSON(items, &inv.LineItems); err != nil {
		return nil, err
	}
	if err := scanJSON(atts, &inv.Attachments); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *invoiceStore) Find(ctx context.Context, f tenancy.Filter) (*property.Invoice, error) {
	clause, args := whereClause(f, 1)
	row := s.db.QueryRowContext(ctx, `select `+invoiceCols+` from invoices`+clause, args...)
	return scanInvoice(row)
}

func (s *invoiceStore) List(ctx context.Context, f tenancy.Filter) ([]*property.Invoice, error) {
	clause, args := whereClause(f, 1)
	rows, err := s.db.QueryContext(ctx, `select `+invoiceCols+` from invoices`+clause+` order by created_at desc`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*property.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *invoiceStore) Update(ctx context.Context, f tenancy.Filter, inv *property.Invoice) error {
	inv.UpdatedAt = time.Now().UTC()
	items, err := jsonb(inv.LineItems)
	if err != nil {
		return err
	}
	atts, err := jsonb(inv.Attachments)
	if err != nil {
		return err
	}
	clause, filterArgs := whereClause(f.With("id", inv.ID), 11)
	args := append([]any{inv.ResidentID, inv.UnitID, inv.LeaseID, inv.Amount,
		inv.Currency, nullTime(inv.DueDate), inv.Status, items, atts,
		inv.UpdatedAt}, filterArgs...)
	res, err := s.db.ExecContext(ctx, `
		update invoices
		set resident_id=$1, unit_id=$2, lease_id=$3, amount=$4, currency=$5,
		    due_date=$6, status=$7, line_items=$8, attachments=$9, updated_at=$10
	`+clause, args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *invoiceStore) Delete(ctx context.Context, f tenancy.Filter) error {
	clause, args := whereClause(f, 1)
	res, err := s.db.ExecContext(ctx, `delete from invoices`+clause, args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}
