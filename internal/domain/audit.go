package domain

import "time"

// AuditEntry 管理操作的审计记录（append-only，从不修改或删除）。
type AuditEntry struct {
	ID            int64
	ActorID       string
	Action        string
	Details       string
	CorrelationID string
	CreatedAt     time.Time
}
