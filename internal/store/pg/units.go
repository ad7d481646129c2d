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

type unitStore struct {
	db *sql.DB
}

const unitCols = `id, building_id, number, floor, status, beds, baths, size_sqft, created_at, updated_at`

func (s *unitStore) Create(ctx context.Context, u *property.Unit) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx, `
		insert into units(`+unitCols+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, u.ID, u.BuildingID, u.Number, u.Floor, u.Status, u.Beds, u.Baths,
		u.SizeSqft, u.CreatedAt, u.UpdatedAt)
	return err
}

func scanUnit(row interface{ Scan(...any) error }) (*property.Unit, error) {
	var u property.Unit
	err := row.Scan(&u.ID, &u.BuildingID, &u.Number, &u.Floor, &u.Status,
		&u.Beds, &u.Baths, &u.SizeSqft, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, property.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *unitStore) Find(ctx context.Context, f tenancy.Filter) (*property.Unit, error) {
	clause, args := whereClause(f, 1)
	row := s.db.QueryRowContext(ctx, `select `+unitCols+` from units`+clause, args...)
	return scanUnit(row)
}

func (s *unitStore) List(ctx context.Context, f tenancy.Filter) ([]*property.Unit, error) {
	clause, args := whereClause(f, 1)
	rows, err := s.db.QueryContext(ctx, `select `+unitCols+` from units`+clause+` order by number asc`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*property.Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *unitStore) Update(ctx context.Context, f tenancy.Filter, u *property.Unit) error {
	u.UpdatedAt = time.Now().UTC()
	clause, filterArgs := whereClause(f.With("id", u.ID), 8)
	args := append([]any{u.Number, u.Floor, u.Status, u.Beds, u.Baths, u.SizeSqft, u.UpdatedAt}, filterArgs...)
	res, err := s.db.ExecContext(ctx, `
		update units
		set number=$1, floor=$2, status=$3, beds=$4, baths=$5, size_sqft=$6, updated_at=$7
	`+clause, args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *unitStore) Delete(ctx context.Context, f tenancy.Filter) error {
	clause, args := whereClause(f, 1)
	res, err := s.db.ExecContext(ctx, `delete from units`+clause, args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}
