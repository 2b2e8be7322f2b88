package ports

import (
	"context"
	"time"

	"github.com/betbot/polysport/internal/domain"
)

// Small capability interfaces shared across layers (execution/telegram/services).
// The execution engine depends on Ledger only, never on a concrete store.

// OrderStore persists execution orders and their status transitions.
type OrderStore interface {
	SaveOrder(ctx context.Context, order *domain.ExecutionOrder) error
	// UpdateOrderStatus reports whether an order with that id existed.
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (bool, error)
	OpenOrders(ctx context.Context) ([]*domain.ExecutionOrder, error)
}

// KeyStore is the idempotency-key set backing at-most-once submission.
// An expired key is indistinguishable from a never-seen key; Add is an upsert.
type KeyStore interface {
	Seen(ctx context.Context, key string) (bool, error)
	Add(ctx context.Context, key string, ttl time.Duration) error
}

// AuditLog is the append-only journal of administrative actions.
type AuditLog interface {
	AppendAudit(ctx context.Context, entry domain.AuditEntry) error
}

// StateStore holds the small process-wide configuration state.
type StateStore interface {
	TradingEnabled(ctx context.Context) (bool, error)
	SetTradingEnabled(ctx context.Context, enabled bool) error
	PaperMode(ctx context.Context) (bool, error)
	SetPaperMode(ctx context.Context, paper bool) error

	// StrategyEnabled defaults to true for strategies never toggled.
	StrategyEnabled(ctx context.Context, name string) (bool, error)
	SetStrategyEnabled(ctx context.Context, name string, enabled bool) error

	AddWatch(ctx context.Context, marketID string) error
	RemoveWatch(ctx context.Context, marketID string) error
	Watchlist(ctx context.Context) ([]string, error)

	// AddDailyPnL accumulates into the given day's row (day formatted 2006-01-02).
	AddDailyPnL(ctx context.Context, day string, realized, unrealized float64) error
	DailyPnL(ctx context.Context, day string) (realized, unrealized float64, err error)
}

// Ledger is the durable store behind the execution engine and the admin
// command layer.
type Ledger interface {
	OrderStore
	KeyStore
	AuditLog
	StateStore
}

// OrderPlacer submits a constructed order to the live venue. Failures must not
// roll back the already-recorded idempotency key; reconciliation is the
// caller's job.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, order *domain.ExecutionOrder) error
}

// PriceSource supplies a current price for slippage checks. Optional: when it
// has no price for a market/outcome the slippage check is skipped.
type PriceSource interface {
	CurrentPrice(ctx context.Context, marketID, outcomeID string) (float64, bool)
}
