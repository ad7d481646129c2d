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

type serviceAgentStore struct {
	db *sql.DB
}

const agentCols = `id, building_id, name, trade, email, phone, company, status, notes, created_at, updated_at`

func (s *serviceAgentStore) Create(ctx context.Context, a *property.ServiceAgent) error {
	if a.ID == "" {
		a.ID = ids.New()
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx, `
		insert into service_agents(`+agentCols+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, a.ID, a.BuildingID, a.Name, a.Trade, a.Email, a.Phone, a.Company,
		a.Status, a.Notes, a.CreatedAt, a.UpdatedAt)
	return err
}

func scanAgent(row interface{ Scan(...any) error }) (*property.ServiceAgent, error) {
	var a property.ServiceAgent
	err := row.Scan(&a.ID, &a.BuildingID, &a.Name, &a.Trade, &a.Email, &a.Phone,
		&a.Company, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, property.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *serviceAgentStore) Find(ctx context.Context, f tenancy.Filter) (*property.ServiceAgent, error) {
	clause, args := whereClause(f, 1)
	row := s.db.QueryRowContext(ctx, `select `+agentCols+` from service_agents`+clause, args...)
	return scanAgent(row)
}

func (s *serviceAgentStore) List(ctx context.Context, f tenancy.Filter) ([]*property.ServiceAgent, error) {
	clause, args := whereClause(f, 1)
	rows, err := s.db.QueryContext(ctx, `select `+agentCols+` from service_agents`+clause+` order by name asc`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*property.ServiceAgent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *serviceAgentStore) Update(ctx context.Context, f tenancy.Filter, a *property.ServiceAgent) error {
	a.UpdatedAt = time.Now().UTC()
	clause, filterArgs := whereClause(f.With("id", a.ID), 9)
	args := append([]any{a.Name, a.Trade, a.Email, a.Phone, a.Company, a.Status,
		a.Notes, a.UpdatedAt}, filterArgs...)
	res, err := s.db.ExecContext(ctx, `
		update service_agents
		set name=$1, trade=$2, email=$3, phone=$4, company=$5, status=$6,
		    notes=$7, updated_at=$8
	`+clause, args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *serviceAgentStore) Delete(ctx context.Context, f tenancy.Filter) error {
	clause, args := whereClause(f, 1)
	res, err := s.db.ExecContext(ctx, `delete from service_agents`+clause, args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}
