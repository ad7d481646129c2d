package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tenure.app/internal/ids"
	"tenure.app/internal/property"
)

type buildingStore struct {
	db *sql.DB
}

const buildingCols = `id, name, code, address_line1, address_line2, city, state, postal_code, country, status, management_ids, created_at, updated_at`

func (s *buildingStore) Create(ctx context.Context, b *property.Building) error {
	if b.ID == "" {
		b.ID = ids.New()
	}
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	mgmt, err := jsonb(b.ManagementIDs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into buildings(`+buildingCols+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, b.ID, b.Name, b.Code, b.AddressLine1, b.AddressLine2, b.City, b.State,
		b.PostalCode, b.Country, b.Status, mgmt, b.CreatedAt, b.UpdatedAt)
	return err
}

func scanBuilding(row interface{ Scan(...any) error }) (*property.Building, error) {
	var b property.Building
	var mgmt []byte
	err := row.Scan(&b.ID, &b.Name, &b.Code, &b.AddressLine1, &b.AddressLine2,
		&b.City, &b.State, &b.PostalCode, &b.Country, &b.Status, &mgmt,
		&b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, property.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := scanJSON(mgmt, &b.ManagementIDs); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *buildingStore) Find(ctx context.Context, id string) (*property.Building, error) {
	row := s.db.QueryRowContext(ctx, `select `+buildingCols+` from buildings where id = $1`, id)
	return scanBuilding(row)
}

func (s *buildingStore) List(ctx context.Context) ([]*property.Building, error) {
	rows, err := s.db.QueryContext(ctx, `select `+buildingCols+` from buildings order by name asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*property.Building
	for rows.Next() {
		b, err := scanBuilding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *buildingStore) Update(ctx context.Context, b *property.Building) error {
	b.UpdatedAt = time.Now().UTC()
	mgmt, err := jsonb(b.ManagementIDs)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		update buildings
		set name=$2, code=$3, address_line1=$4, address_line2=$5, city=$6,
		    state=$7, postal_code=$8, country=$9, status=$10, management_ids=$11,
		    updated_at=$12
		where id = $1
	`, b.ID, b.Name, b.Code, b.AddressLine1, b.AddressLine2, b.City, b.State,
		b.PostalCode, b.Country, b.Status, mgmt, b.UpdatedAt)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *buildingStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from buildings where id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// requireRow maps zero affected rows to ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return property.ErrNotFound
	}
	return nil
}
