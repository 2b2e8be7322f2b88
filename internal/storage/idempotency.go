package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Seen reports whether key exists and has not expired. Expired rows are
// purged first so an expired key reads exactly like a never-seen one.
func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM idempotency_keys WHERE expires_at <= ?`, now); err != nil {
		return false, fmt.Errorf("purge expired keys: %w", err)
	}
	row := s.db.QueryRowContext(ctx, `SELECT 1 FROM idempotency_keys WHERE key=?`, key)
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Add upserts key with the given ttl, replacing any stale prior entry.
// The primary-key constraint gives insert-or-replace semantics in one
// statement, so concurrent adders cannot both create distinct rows.
func (s *Store) Add(ctx context.Context, key string, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO idempotency_keys (key,created_at,expires_at) VALUES (?,?,?)
ON CONFLICT(key) DO UPDATE SET created_at=excluded.created_at, expires_at=excluded.expires_at
`, key, now.Format(time.RFC3339Nano), now.Add(ttl).Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert idempotency key: %w", err)
	}
	return nil
}
