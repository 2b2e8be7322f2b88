package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/betbot/polysport/internal/domain"
	"github.com/betbot/polysport/internal/metrics"
)

// AppendAudit journals one administrative action. The table is append-only;
// nothing in this codebase updates or deletes audit rows.
func (s *Store) AppendAudit(ctx context.Context, e domain.AuditEntry) error {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO audit_log (actor_id,action,details,correlation_id,created_at)
VALUES (?,?,?,?,?)
`, e.ActorID, e.Action, e.Details, e.CorrelationID, createdAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	metrics.AuditWrites.Add(1)
	return nil
}

// RecentAudit returns the newest n audit entries, most recent first.
func (s *Store) RecentAudit(ctx context.Context, n int) ([]domain.AuditEntry, error) {
	if n <= 0 {
		n = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id,actor_id,action,details,COALESCE(correlation_id,''),created_at
FROM audit_log ORDER BY id DESC LIMIT ?
`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.Details, &e.CorrelationID, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}
