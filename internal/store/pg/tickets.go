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

type ticketStore struct {
	db *sql.DB
}

const ticketCols = `id, building_id, resident_id, unit_id, title, description, assigned_agent_id, assigned_agent_name, status, priority, attachments, notes, completion_notes, completed_at, completed_by, due_date, created_at, updated_at`

func (s *ticketStore) Create(ctx context.Context, t *property.Ticket) error {
	if t.ID == "" {
		t.ID = ids.New()
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	atts, err := jsonb(t.Attachments)
	if err != nil {
		return err
	}
	notes, err := jsonb(t.Notes)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into tickets(`+ticketCols+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
	`, t.ID, t.BuildingID, t.ResidentID, t.UnitID, t.Title, t.Description,
		t.AssignedAgentID, t.AssignedAgentName, t.Status, t.Priority, atts, notes,
		t.CompletionNotes, nullTime(t.CompletedAt), t.CompletedBy,
		nullTime(t.DueDate), t.CreatedAt, t.UpdatedAt)
	return err
}

func scanTicket(row interface{ Scan(...any) error }) (*property.Ticket, error) {
	var t property.Ticket
	var completedAt, dueDate sql.NullTime
	var atts, notes []byte
	err := row.Scan(&t.ID, &t.BuildingID, &t.ResidentID, &t.UnitID, &t.Title,
		&t.Description, &t.AssignedAgentID, &t.AssignedAgentName, &t.Status,
		&t.Priority, &atts, &notes, &t.CompletionNotes, &completedAt,
		&t.CompletedBy, &dueDate, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, property.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.CompletedAt = timePtr(completedAt)
	t.DueDate = timePtr(dueDate)
	if err := scanJSON(atts, &t.Attachments); err != nil {
		return nil, err
	}
	if err := scanJSON(notes, &t.Notes); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *ticketStore) Find(ctx context.Context, f tenancy.Filter) (*property.Ticket, error) {
	clause, args := whereClause(f, 1)
	row := s.db.QueryRowContext(ctx, `select `+ticketCols+` from tickets`+clause, args...)
	return scanTicket(row)
}

func (s *ticketStore) List(ctx context.Context, f tenancy.Filter) ([]*property.Ticket, error) {
	clause, args := whereClause(f, 1)
	rows, err := s.db.QueryContext(ctx, `select `+ticketCols+` from tickets`+clause+` order by created_at desc`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*property.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *ticketStore) Update(ctx context.Context, f tenancy.Filter, t *property.Ticket) error {
	t.UpdatedAt = time.Now().UTC()
	atts, err := jsonb(t.Attachments)
	if err != nil {
		return err
	}
	notes, err := jsonb(t.Notes)
	if err != nil {
		return err
	}
	clause, filterArgs := whereClause(f.With("id", t.ID), 15)
	args := append([]any{t.Title, t.Description, t.AssignedAgentID,
		t.AssignedAgentName, t.Status, t.Priority, atts, notes,
		t.CompletionNotes, nullTime(t.CompletedAt), t.CompletedBy,
		nullTime(t.DueDate), t.ResidentID, t.UpdatedAt}, filterArgs...)
	res, err := s.db.ExecContext(ctx, `
		update tickets
		set title=$1, description=$2, assigned_agent_id=$3, assigned_agent_name=$4,
		    status=$5, priority=$6, attachments=$7, notes=$8, completion_notes=$9,
		    completed_at=$10, completed_by=$11, due_date=$12, resident_id=$13,
		    updated_at=$14
	`+clause, args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *ticketStore) Delete(ctx context.Context, f tenancy.Filter) error {
	clause, args := whereClause(f, 1)
	res, err := s.db.ExecContext(ctx, `delete from tickets`+clause, args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}
