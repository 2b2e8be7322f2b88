package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/betbot/polysport/internal/domain"
)

// SaveOrder inserts a freshly constructed order. Order ids are unique; a
// second insert with the same id is a bug upstream and surfaces as an error.
func (s *Store) SaveOrder(ctx context.Context, o *domain.ExecutionOrder) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO orders (order_id,market_id,outcome_id,side,price,size,status,strategy,created_at)
VALUES (?,?,?,?,?,?,?,?,?)
`, o.OrderID, o.MarketID, o.OutcomeID, string(o.Side), o.Price, o.Size, string(o.Status), o.Strategy,
		o.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// UpdateOrderStatus transitions an order; reports whether the id existed.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE orders SET status=? WHERE order_id=?`, string(status), orderID)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetOrder returns a single order, or nil when the id is unknown.
func (s *Store) GetOrder(ctx context.Context, orderID string) (*domain.ExecutionOrder, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT order_id,market_id,outcome_id,side,price,size,status,strategy,created_at
FROM orders WHERE order_id=?
`, orderID)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

// OpenOrders returns every order whose status is submitted, pending or paper,
// oldest first. This is a ledger query, not a cache.
func (s *Store) OpenOrders(ctx context.Context) ([]*domain.ExecutionOrder, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT order_id,market_id,outcome_id,side,price,size,status,strategy,created_at
FROM orders WHERE status IN ('submitted','pending','paper') ORDER BY created_at ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ExecutionOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.ExecutionOrder, error) {
	var o domain.ExecutionOrder
	var side, status, createdAt string
	if err := row.Scan(&o.OrderID, &o.MarketID, &o.OutcomeID, &side, &o.Price, &o.Size, &status, &o.Strategy, &createdAt); err != nil {
		return nil, err
	}
	o.Side = domain.Action(side)
	o.Status = domain.OrderStatus(status)
	o.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &o, nil
}
