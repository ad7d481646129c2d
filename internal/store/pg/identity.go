package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"tenure.app/internal/identity"
	"tenure.app/internal/ids"
)

// IdentityStore implements identity.Store over Postgres.
type IdentityStore struct {
	db *sql.DB
}

var _ identity.Store = (*IdentityStore)(nil)

const identityCols = `id, name, email, password_hash, role, building_id, building_ids, unit_id, lease_id, bio, created_at, updated_at`

func (s *IdentityStore) Create(ctx context.Context, id *identity.Identity) error {
	if id == nil || strings.TrimSpace(id.Email) == "" {
		return identity.ErrInvalidInput
	}
	if id.ID == "" {
		id.ID = ids.New()
	}
	now := time.Now().UTC()
	id.Email = strings.ToLower(strings.TrimSpace(id.Email))
	id.CreatedAt, id.UpdatedAt = now, now
	buildings, err := jsonb(id.BuildingIDs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into identities(`+identityCols+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, id.ID, id.Name, id.Email, id.PasswordHash, id.Role.String(), id.BuildingID,
		buildings, id.UnitID, id.LeaseID, id.Bio, id.CreatedAt, id.UpdatedAt)
	if err != nil && isUniqueViolation(err) {
		return identity.ErrEmailTaken
	}
	return err
}

func scanIdentity(row interface{ Scan(...any) error }) (*identity.Identity, error) {
	var id identity.Identity
	var role string
	var buildings []byte
	err := row.Scan(&id.ID, &id.Name, &id.Email, &id.PasswordHash, &role,
		&id.BuildingID, &buildings, &id.UnitID, &id.LeaseID, &id.Bio,
		&id.CreatedAt, &id.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, identity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if parsed, perr := identity.ParseRole(role); perr == nil {
		id.Role = parsed
	}
	if err := scanJSON(buildings, &id.BuildingIDs); err != nil {
		return nil, err
	}
	return &id, nil
}

func (s *IdentityStore) Find(ctx context.Context, id string) (*identity.Identity, error) {
	row := s.db.QueryRowContext(ctx, `select `+identityCols+` from identities where id = $1`, id)
	return scanIdentity(row)
}

func (s *IdentityStore) FindByEmail(ctx context.Context, email string) (*identity.Identity, error) {
	row := s.db.QueryRowContext(ctx, `select `+identityCols+` from identities where email = $1`,
		strings.ToLower(strings.TrimSpace(email)))
	return scanIdentity(row)
}

func (s *IdentityStore) ListByBuilding(ctx context.Context, buildingID string) ([]*identity.Identity, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+identityCols+` from identities
		where building_id = $1 or building_ids @> to_jsonb(array[$1::text])
		order by name asc
	`, buildingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*identity.Identity
	for rows.Next() {
		id, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *IdentityStore) Update(ctx context.Context, id string, upd identity.Update) (*identity.Identity, error) {
	cur, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		cur.Name = *upd.Name
	}
	if upd.Email != nil {
		cur.Email = strings.ToLower(strings.TrimSpace(*upd.Email))
	}
	if upd.Password != nil {
		hash, err := identity.HashPassword(*upd.Password)
		if err != nil {
			return nil, err
		}
		cur.PasswordHash = hash
	}
	if upd.Role != nil {
		cur.Role = *upd.Role
	}
	if upd.BuildingID != nil {
		cur.BuildingID = *upd.BuildingID
	}
	if upd.BuildingIDs != nil {
		cur.BuildingIDs = append([]string(nil), upd.BuildingIDs...)
	}
	if upd.UnitID != nil {
		cur.UnitID = *upd.UnitID
	}
	if upd.LeaseID != nil {
		cur.LeaseID = *upd.LeaseID
	}
	if upd.Bio != nil {
		cur.Bio = *upd.Bio
	}
	cur.UpdatedAt = time.Now().UTC()
	buildings, err := jsonb(cur.BuildingIDs)
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, `
		update identities
		set name=$2, email=$3, password_hash=$4, role=$5, building_id=$6,
		    building_ids=$7, unit_id=$8, lease_id=$9, bio=$10, updated_at=$11
		where id = $1
	`, cur.ID, cur.Name, cur.Email, cur.PasswordHash, cur.Role.String(),
		cur.BuildingID, buildings, cur.UnitID, cur.LeaseID, cur.Bio, cur.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, identity.ErrEmailTaken
		}
		return nil, err
	}
	if err := requireRowIdentity(res); err != nil {
		return nil, err
	}
	return cur, nil
}

func (s *IdentityStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from identities where id = $1`, id)
	if err != nil {
		return err
	}
	return requireRowIdentity(res)
}

func requireRowIdentity(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return identity.ErrNotFound
	}
	return nil
}

// isUniqueViolation matches Postgres error 23505 without depending on the
// driver's error type directly.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
