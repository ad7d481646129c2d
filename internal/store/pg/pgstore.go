// Package pg is the Postgres persistence layer. Every tenant-scoped query
// renders its tenancy filter into the WHERE clause with bound parameters;
// scope enforcement lives inside the SQL, never in Go-side post-filtering.
package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"tenure.app/internal/property"
	"tenure.app/internal/tenancy"
)

type Store struct {
	db *sql.DB
}

// Open connects and tunes the pool.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// OpenDB wraps an existing handle; tests use it with sqlmock.
func OpenDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Ping backs the readiness probe.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Stores returns the property store bundle backed by this connection.
func (s *Store) Stores() property.Stores {
	return property.Stores{
		Buildings:         &buildingStore{db: s.db},
		Units:             &unitStore{db: s.db},
		Leases:            &leaseStore{db: s.db},
		Invoices:          &invoiceStore{db: s.db},
		Tickets:           &ticketStore{db: s.db},
		Announcements:     &announcementStore{db: s.db},
		Threads:           &threadStore{db: s.db},
		Messages:          &messageStore{db: s.db},
		CommunityMessages: &communityMessageStore{db: s.db},
		ServiceAgents:     &serviceAgentStore{db: s.db},
	}
}

// Identities returns the identity store backed by this connection.
func (s *Store) Identities() *IdentityStore { return &IdentityStore{db: s.db} }

// Audit returns the audit store backed by this connection.
func (s *Store) Audit() *AuditStore { return &AuditStore{db: s.db} }

// whereClause renders a filter into "where ..." with placeholders starting
// at argStart. An empty filter produces an empty clause.
func whereClause(f tenancy.Filter, argStart int) (string, []any) {
	frag, args := f.SQL(argStart)
	if frag == "" {
		return "", nil
	}
	return " where " + frag, args
}

// jsonb marshals nested values for jsonb columns; nil stays SQL NULL.
func jsonb(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode jsonb: %w", err)
	}
	return b, nil
}

// scanJSON decodes a jsonb column into dst, tolerating NULL.
func scanJSON(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
