package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Singleton process-wide flags live in the single risk_state row.

func (s *Store) TradingEnabled(ctx context.Context) (bool, error) {
	return s.flag(ctx, "trading_enabled")
}

func (s *Store) SetTradingEnabled(ctx context.Context, enabled bool) error {
	return s.setFlag(ctx, "trading_enabled", enabled)
}

func (s *Store) PaperMode(ctx context.Context) (bool, error) {
	return s.flag(ctx, "paper_mode")
}

func (s *Store) SetPaperMode(ctx context.Context, paper bool) error {
	return s.setFlag(ctx, "paper_mode", paper)
}

func (s *Store) flag(ctx context.Context, column string) (bool, error) {
	// column comes from the two call sites above, never from input
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT %s FROM risk_state WHERE id=1`, column))
	var v int
	if err := row.Scan(&v); err != nil {
		return false, fmt.Errorf("read %s: %w", column, err)
	}
	return v != 0, nil
}

func (s *Store) setFlag(ctx context.Context, column string, v bool) error {
	n := 0
	if v {
		n = 1
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`UPDATE risk_state SET %s=? WHERE id=1`, column), n); err != nil {
		return fmt.Errorf("set %s: %w", column, err)
	}
	return nil
}

// StrategyEnabled defaults to true for strategies that were never toggled.
func (s *Store) StrategyEnabled(ctx context.Context, name string) (bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT enabled FROM strategy_state WHERE name=?`, name)
	var v int
	if err := row.Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return true, nil
		}
		return false, err
	}
	return v != 0, nil
}

func (s *Store) SetStrategyEnabled(ctx context.Context, name string, enabled bool) error {
	n := 0
	if enabled {
		n = 1
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO strategy_state (name,enabled) VALUES (?,?)
ON CONFLICT(name) DO UPDATE SET enabled=excluded.enabled
`, name, n)
	if err != nil {
		return fmt.Errorf("set strategy state: %w", err)
	}
	return nil
}

func (s *Store) AddWatch(ctx context.Context, marketID string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO watchlist (market_id) VALUES (?)`, marketID)
	return err
}

func (s *Store) RemoveWatch(ctx context.Context, marketID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM watchlist WHERE market_id=?`, marketID)
	return err
}

func (s *Store) Watchlist(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT market_id FROM watchlist ORDER BY market_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// AddDailyPnL accumulates realized/unrealized deltas into the day's row.
func (s *Store) AddDailyPnL(ctx context.Context, day string, realized, unrealized float64) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO daily_pnl (day,realized,unrealized) VALUES (?,?,?)
ON CONFLICT(day) DO UPDATE SET realized=realized+excluded.realized, unrealized=unrealized+excluded.unrealized
`, day, realized, unrealized)
	if err != nil {
		return fmt.Errorf("add daily pnl: %w", err)
	}
	return nil
}

// DailyPnL reads the day's accumulators; a missing day reads as zero.
func (s *Store) DailyPnL(ctx context.Context, day string) (float64, float64, error) {
	row := s.db.QueryRowContext(ctx, `SELECT realized,unrealized FROM daily_pnl WHERE day=?`, day)
	var realized, unrealized float64
	if err := row.Scan(&realized, &unrealized); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, nil
		}
		return 0, 0, err
	}
	return realized, unrealized, nil
}
