package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store is the sqlite-backed ledger: orders, idempotency keys, the audit log
// and the small singleton risk/strategy/watchlist/pnl state. Every public
// operation is a single statement with immediate commit; database/sql plus
// the single connection serializes concurrent writers.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger database and applies migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite：单连接更稳定
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`
CREATE TABLE IF NOT EXISTS orders (
  order_id TEXT PRIMARY KEY,
  market_id TEXT NOT NULL,
  outcome_id TEXT NOT NULL,
  side TEXT NOT NULL,
  price REAL NOT NULL,
  size REAL NOT NULL,
  status TEXT NOT NULL,
  strategy TEXT NOT NULL,
  created_at TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);`,
		`
CREATE TABLE IF NOT EXISTS idempotency_keys (
  key TEXT PRIMARY KEY,
  created_at TEXT NOT NULL,
  expires_at TEXT NOT NULL
);`,
		`
CREATE TABLE IF NOT EXISTS audit_log (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  actor_id TEXT NOT NULL,
  action TEXT NOT NULL,
  details TEXT NOT NULL,
  correlation_id TEXT,
  created_at TEXT NOT NULL
);`,
		`
CREATE TABLE IF NOT EXISTS risk_state (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  trading_enabled INTEGER NOT NULL DEFAULT 0,
  paper_mode INTEGER NOT NULL DEFAULT 1
);`,
		`INSERT OR IGNORE INTO risk_state (id) VALUES (1);`,
		`
CREATE TABLE IF NOT EXISTS strategy_state (
  name TEXT PRIMARY KEY,
  enabled INTEGER NOT NULL
);`,
		`
CREATE TABLE IF NOT EXISTS watchlist (
  market_id TEXT PRIMARY KEY
);`,
		`
CREATE TABLE IF NOT EXISTS daily_pnl (
  day TEXT PRIMARY KEY,
  realized REAL NOT NULL DEFAULT 0,
  unrealized REAL NOT NULL DEFAULT 0
);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
