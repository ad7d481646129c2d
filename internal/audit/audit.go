// Package audit provides the append-only record of administrative data
// access. Entries are written exactly once and never read back, updated, or
// deduplicated by the application.
package audit

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"tenure.app/internal/ids"
	"tenure.app/internal/obs"
)

// Entry is one administrative access record.
type Entry struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actor_id"`
	Role       string    `json:"role"`
	Action     string    `json:"action"`
	Path       string    `json:"path,omitempty"`
	BuildingID string    `json:"building_id"`
	IP         string    `json:"ip,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Store appends immutable entries.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
}

// Recorder fills in entry identity and timestamps, writes through the
// durable store, and echoes a structured log line. The durable write comes
// first: if it fails, the caller's request must fail with it.
type Recorder struct {
	store Store
	now   func() time.Time
}

// NewRecorder wraps the durable store.
func NewRecorder(store Store) (*Recorder, error) {
	if store == nil {
		return nil, errors.New("audit store is required")
	}
	return &Recorder{store: store, now: time.Now}, nil
}

// Append implements Store.
func (r *Recorder) Append(ctx context.Context, entry *Entry) error {
	if entry == nil || strings.TrimSpace(entry.Action) == "" {
		return errors.New("audit action is required")
	}
	if entry.ID == "" {
		entry.ID = ids.New()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = r.now().UTC()
	}
	if err := r.store.Append(ctx, entry); err != nil {
		return err
	}
	obs.Logger().Info("audit",
		zap.String("audit_id", entry.ID),
		zap.String("actor_id", entry.ActorID),
		zap.String("role", entry.Role),
		zap.String("action", entry.Action),
		zap.String("building_id", entry.BuildingID),
		zap.String("path", entry.Path),
	)
	return nil
}
