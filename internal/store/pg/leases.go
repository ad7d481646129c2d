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

type leaseStore struct {
	db *sql.DB
}

const leaseCols = `id, building_id, unit_id, resident_id, start_date, end_date, status, rent_amount, currency, termination_reason, terminated_at, terminated_by, document, created_at, updated_at`

func (s *leaseStore) Create(ctx context.Context, l *property.Lease) error {
	if l.ID == "" {
		l.ID = ids.New()
	}
	now := time.Now().UTC()
	l.CreatedAt, l.UpdatedAt = now, now
	doc, err := jsonb(l.Document)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into leases(`+leaseCols+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`, l.ID, l.BuildingID, l.UnitID, l.ResidentID, l.StartDate, nullTime(l.EndDate),
		l.Status, l.RentAmount, l.Currency, l.TerminationReason,
		nullTime(l.TerminatedAt), l.TerminatedBy, doc, l.CreatedAt, l.UpdatedAt)
	return err
}

func scanLease(row interface{ Scan(...any) error }) (*property.Lease, error) {
	var l property.Lease
	var endDate, terminatedAt sql.NullTime
	var doc []byte
	err := row.Scan(&l.ID, &l.BuildingID, &l.UnitID, &l.ResidentID, &l.StartDate,
		&endDate, &l.Status, &l.RentAmount, &l.Currency, &l.TerminationReason,
		&terminatedAt, &l.TerminatedBy, &doc, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, property.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	l.EndDate = timePtr(endDate)
	l.TerminatedAt = timePtr(terminatedAt)
	if err := scanJSON(doc, &l.Document); err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *leaseStore) Find(ctx context.Context, f tenancy.Filter) (*property.Lease, error) {
	clause, args := whereClause(f, 1)
	row := s.db.QueryRowContext(ctx, `select `+leaseCols+` from leases`+clause, args...)
	return scanLease(row)
}

func (s *leaseStore) List(ctx context.Context, f tenancy.Filter) ([]*property.Lease, error) {
	clause, args := whereClause(f, 1)
	rows, err := s.db.QueryContext(ctx, `select `+leaseCols+` from leases`+clause+` order by created_at desc`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*property.Lease
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *leaseStore) Update(ctx context.Context, f tenancy.Filter, l *property.Lease) error {
	l.UpdatedAt = time.Now().UTC()
	doc, err := jsonb(l.Document)
	if err != nil {
		return err
	}
	clause, filterArgs := whereClause(f.With("id", l.ID), 13)
	args := append([]any{l.UnitID, l.ResidentID, l.StartDate, nullTime(l.EndDate),
		l.Status, l.RentAmount, l.Currency, l.TerminationReason,
		nullTime(l.TerminatedAt), l.TerminatedBy, doc, l.UpdatedAt}, filterArgs...)
	res, err := s.db.ExecContext(ctx, `
		update leases
		set unit_id=$1, resident_id=$2, start_date=$3, end_date=$4, status=$5,
		    rent_amount=$6, currency=$7, termination_reason=$8, terminated_at=$9,
		    terminated_by=$10, document=$11, updated_at=$12
	`+clause, args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *leaseStore) Delete(ctx context.Context, f tenancy.Filter) error {
	clause, args := whereClause(f, 1)
	res, err := s.db.ExecContext(ctx, `delete from leases`+clause, args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}
