package pg

import (
	"context"
	"database/sql"

	"tenure.app/internal/audit"
)

// AuditStore appends admin access entries. Append-only: no update or
// delete statements exist against this table.
type AuditStore struct {
	db *sql.DB
}

var _ audit.Store = (*AuditStore)(nil)

func (s *AuditStore) Append(ctx context.Context, entry *audit.Entry) error {
	_, err := s.db.ExecContext(ctx, `
		insert into audit_entries(id, actor_id, role, action, path, building_id, ip, user_agent, occurred_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, entry.ID, entry.ActorID, entry.Role, entry.Action, entry.Path,
		entry.BuildingID, entry.IP, entry.UserAgent, entry.OccurredAt)
	return err
}
