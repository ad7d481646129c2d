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

type announcementStore struct {
	db *sql.DB
}

const announcementCols = `id, building_id, title, body, status, publish_at, author_id, created_at, updated_at`

func (s *announcementStore) Create(ctx context.Context, a *property.Announcement) error {
	if a.ID == "" {
		a.ID = ids.New()
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx, `
		insert into announcements(`+announcementCols+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, a.ID, a.BuildingID, a.Title, a.Body, a.Status, nullTime(a.PublishAt),
		a.AuthorID, a.CreatedAt, a.UpdatedAt)
	return err
}

func scanAnnouncement(row interface{ Scan(...any) error }) (*property.Announcement, error) {
	var a property.Announcement
	var publishAt sql.NullTime
	err := row.Scan(&a.ID, &a.BuildingID, &a.Title, &a.Body, &a.Status,
		&publishAt, &a.AuthorID, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, property.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.PublishAt = timePtr(publishAt)
	return &a, nil
}

func (s *announcementStore) Find(ctx context.Context, f tenancy.Filter) (*property.Announcement, error) {
	clause, args := whereClause(f, 1)
	row := s.db.QueryRowContext(ctx, `select `+announcementCols+` from announcements`+clause, args...)
	return scanAnnouncement(row)
}

func (s *announcementStore) List(ctx context.Context, f tenancy.Filter) ([]*property.Announcement, error) {
	clause, args := whereClause(f, 1)
	rows, err := s.db.QueryContext(ctx, `select `+announcementCols+` from announcements`+clause+` order by created_at desc`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*property.Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *announcementStore) Update(ctx context.Context, f tenancy.Filter, a *property.Announcement) error {
	a.UpdatedAt = time.Now().UTC()
	clause, filterArgs := whereClause(f.With("id", a.ID), 7)
	args := append([]any{a.Title, a.Body, a.Status, nullTime(a.PublishAt),
		a.AuthorID, a.UpdatedAt}, filterArgs...)
	res, err := s.db.ExecContext(ctx, `
		update announcements
		set title=$1, body=$2, status=$3, publish_at=$4, author_id=$5, updated_at=$6
	`+clause, args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *announcementStore) Delete(ctx context.Context, f tenancy.Filter) error {
	clause, args := whereClause(f, 1)
	res, err := s.db.ExecContext(ctx, `delete from announcements`+clause, args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}
