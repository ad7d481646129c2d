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

type threadStore struct {
	db *sql.DB
}

const threadCols = `id, building_id, subject, status, resident_id, unit_id, last_message_at, created_at, updated_at`

func (s *threadStore) Create(ctx context.Context, t *property.Thread) error {
	if t.ID == "" {
		t.ID = ids.New()
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx, `
		insert into threads(`+threadCols+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, t.ID, t.BuildingID, t.Subject, t.Status, t.ResidentID, t.UnitID,
		nullTime(t.LastMessageAt), t.CreatedAt, t.UpdatedAt)
	return err
}

func scanThread(row interface{ Scan(...any) error }) (*property.Thread, error) {
	var t property.Thread
	var lastMessageAt sql.NullTime
	err := row.Scan(&t.ID, &t.BuildingID, &t.Subject, &t.Status, &t.ResidentID,
		&t.UnitID, &lastMessageAt, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, property.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.LastMessageAt = timePtr(lastMessageAt)
	return &t, nil
}

func (s *threadStore) Find(ctx context.Context, f tenancy.Filter) (*property.Thread, error) {
	clause, args := whereClause(f, 1)
	row := s.db.QueryRowContext(ctx, `select `+threadCols+` from threads`+clause, args...)
	return scanThread(row)
}

func (s *threadStore) List(ctx context.Context, f tenancy.Filter) ([]*property.Thread, error) {
	clause, args := whereClause(f, 1)
	rows, err := s.db.QueryContext(ctx, `
		select `+threadCols+` from threads`+clause+`
		order by last_message_at desc nulls last, created_at desc
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*property.Thread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *threadStore) Update(ctx context.Context, f tenancy.Filter, t *property.Thread) error {
	t.UpdatedAt = time.Now().UTC()
	clause, filterArgs := whereClause(f.With("id", t.ID), 6)
	args := append([]any{t.Subject, t.Status, nullTime(t.LastMessageAt),
		t.ResidentID, t.UpdatedAt}, filterArgs...)
	res, err := s.db.ExecContext(ctx, `
		update threads
		set subject=$1, status=$2, last_message_at=$3, resident_id=$4, updated_at=$5
	`+clause, args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *threadStore) Delete(ctx context.Context, f tenancy.Filter) error {
	clause, args := whereClause(f, 1)
	res, err := s.db.ExecContext(ctx, `delete from threads`+clause, args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}

type messageStore struct {
	db *sql.DB
}

const messageCols = `id, building_id, thread_id, sender_id, body, attachments, created_at, updated_at`

func (s *messageStore) Create(ctx context.Context, m *property.Message) error {
	if m.ID == "" {
		m.ID = ids.New()
	}
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	atts, err := jsonb(m.Attachments)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into messages(`+messageCols+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
	`, m.ID, m.BuildingID, m.ThreadID, m.SenderID, m.Body, atts, m.CreatedAt, m.UpdatedAt)
	return err
}

func (s *messageStore) List(ctx context.Context, f tenancy.Filter) ([]*property.Message, error) {
	clause, args := whereClause(f, 1)
	rows, err := s.db.QueryContext(ctx, `select `+messageCols+` from messages`+clause+` order by created_at asc`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*property.Message
	for rows.Next() {
		var m property.Message
		var atts []byte
		if err := rows.Scan(&m.ID, &m.BuildingID, &m.ThreadID, &m.SenderID,
			&m.Body, &atts, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		if err := scanJSON(atts, &m.Attachments); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

type communityMessageStore struct {
	db *sql.DB
}

const communityCols = `id, building_id, sender_id, sender_name, body, attachments, created_at, updated_at`

func (s *communityMessageStore) Create(ctx context.Context, m *property.CommunityMessage) error {
	if m.ID == "" {
		m.ID = ids.New()
	}
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	atts, err := jsonb(m.Attachments)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into community_messages(`+communityCols+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
	`, m.ID, m.BuildingID, m.SenderID, m.SenderName, m.Body, atts, m.CreatedAt, m.UpdatedAt)
	return err
}

func (s *communityMessageStore) List(ctx context.Context, f tenancy.Filter) ([]*property.CommunityMessage, error) {
	clause, args := whereClause(f, 1)
	rows, err := s.db.QueryContext(ctx, `select `+communityCols+` from community_messages`+clause+` order by created_at asc`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*property.CommunityMessage
	for rows.Next() {
		var m property.CommunityMessage
		var atts []byte
		if err := rows.Scan(&m.ID, &m.BuildingID, &m.SenderID, &m.SenderName,
			&m.Body, &atts, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		if err := scanJSON(atts, &m.Attachments); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (s *communityMessageStore) Delete(ctx context.Context, f tenancy.Filter) error {
	clause, args := whereClause(f, 1)
	res, err := s.db.ExecContext(ctx, `delete from community_messages`+clause, args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}
