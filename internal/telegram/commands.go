package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/betbot/polysport/internal/domain"
	"github.com/betbot/polysport/internal/execution"
	"github.com/betbot/polysport/internal/ports"
	"github.com/betbot/polysport/internal/risk"
	"github.com/betbot/polysport/internal/signals"
)

var cmdLog = logrus.WithField("component", "telegram")

// Handler routes admin commands. Every state-changing command is authorized,
// rate limited, validated and journaled to the audit log before it replies.
type Handler struct {
	auth    *Auth
	limiter *RateLimiter
	risk    *risk.Engine
	exec    *execution.Engine
	signals *signals.Engine
	ledger  ports.Ledger
}

func NewHandler(auth *Auth, limiter *RateLimiter, riskEngine *risk.Engine, exec *execution.Engine, sig *signals.Engine, ledger ports.Ledger) *Handler {
	return &Handler{
		auth:    auth,
		limiter: limiter,
		risk:    riskEngine,
		exec:    exec,
		signals: sig,
		ledger:  ledger,
	}
}

// Handle processes one command line from userID and returns the reply text.
func (h *Handler) Handle(ctx context.Context, userID int64, text string) string {
	if !h.auth.IsAdmin(userID) {
		cmdLog.WithField("user_id", userID).Warn("unauthorized command attempt")
		return "unauthorized"
	}
	if h.limiter != nil && !h.limiter.Allowed(userID) {
		return "rate limit exceeded, slow down"
	}

	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return h.help()
	}

	switch fields[0] {
	case "/trade":
		return h.handleTrade(ctx, userID, fields[1:])
	case "/paper":
		return h.handlePaper(ctx, userID, fields[1:])
	case "/strategy":
		return h.handleStrategy(ctx, userID, fields[1:])
	case "/watchlist":
		return h.handleWatchlist(ctx, userID, fields[1:])
	case "/risk":
		return h.handleRisk(ctx, userID, fields[1:])
	case "/orders":
		return h.handleOrders(ctx)
	case "/signals":
		return h.handleSignals(ctx)
	case "/status":
		return h.handleStatus(ctx)
	case "/help", "/start":
		return h.help()
	default:
		return "unknown command, try /help"
	}
}

func (h *Handler) help() string {
	return strings.Join([]string{
		"/trade on|off — global kill switch",
		"/paper on|off — paper trading mode",
		"/strategy enable|disable <name>",
		"/watchlist add|remove <market_id>",
		"/risk set <param> <value>",
		"/orders — open orders",
		"/signals — run one evaluation cycle",
		"/status — current state",
	}, "\n")
}

func (h *Handler) handleTrade(ctx context.Context, userID int64, args []string) string {
	on, ok := parseOnOff(args)
	if !ok {
		return "usage: /trade on|off"
	}
	h.risk.SetTrading(on)
	if err := h.ledger.SetTradingEnabled(ctx, on); err != nil {
		cmdLog.WithError(err).Error("persist trading flag failed")
		return "failed to persist trading state"
	}
	h.audit(ctx, userID, "set_trading", fmt.Sprintf("enabled=%v", on))
	if on {
		return "trading enabled"
	}
	return "trading disabled"
}

func (h *Handler) handlePaper(ctx context.Context, userID int64, args []string) string {
	on, ok := parseOnOff(args)
	if !ok {
		return "usage: /paper on|off"
	}
	if err := h.exec.SetPaper(ctx, on); err != nil {
		cmdLog.WithError(err).Error("persist paper mode failed")
		return "failed to persist paper mode"
	}
	h.audit(ctx, userID, "set_paper", fmt.Sprintf("paper=%v", on))
	if on {
		return "paper mode on"
	}
	return "paper mode off (live orders)"
}

func (h *Handler) handleStrategy(ctx context.Context, userID int64, args []string) string {
	if len(args) != 2 || (args[0] != "enable" && args[0] != "disable") {
		return "usage: /strategy enable|disable <name>"
	}
	name := args[1]
	if !SafeName(name) {
		return "invalid strategy name"
	}
	enable := args[0] == "enable"
	if err := h.ledger.SetStrategyEnabled(ctx, name, enable); err != nil {
		cmdLog.WithError(err).Error("set strategy state failed")
		return "failed to update strategy state"
	}
	h.audit(ctx, userID, "set_strategy", fmt.Sprintf("strategy=%s enabled=%v", name, enable))
	return fmt.Sprintf("strategy %s %sd", name, args[0])
}

func (h *Handler) handleWatchlist(ctx context.Context, userID int64, args []string) string {
	if len(args) == 0 {
		ids, err := h.ledger.Watchlist(ctx)
		if err != nil {
			return "failed to read watchlist"
		}
		if len(ids) == 0 {
			return "watchlist empty (all markets eligible)"
		}
		return "watchlist:\n" + strings.Join(ids, "\n")
	}
	if len(args) != 2 || (args[0] != "add" && args[0] != "remove") {
		return "usage: /watchlist add|remove <market_id>"
	}
	id := args[1]
	if !SafeMarketID(id) {
		return "invalid market id"
	}
	var err error
	if args[0] == "add" {
		err = h.ledger.AddWatch(ctx, id)
	} else {
		err = h.ledger.RemoveWatch(ctx, id)
	}
	if err != nil {
		cmdLog.WithError(err).Error("update watchlist failed")
		return "failed to update watchlist"
	}
	h.audit(ctx, userID, "update_watchlist", fmt.Sprintf("op=%s market=%s", args[0], id))
	return fmt.Sprintf("watchlist: %s %s", args[0], id)
}

func (h *Handler) handleRisk(ctx context.Context, userID int64, args []string) string {
	if len(args) != 3 || args[0] != "set" {
		return "usage: /risk set <param> <value>"
	}
	param := args[1]
	if !SafeParam(param) {
		return "invalid parameter name"
	}
	value, err := ValidateNumericValue(args[2], 0, 1_000_000)
	if err != nil {
		return err.Error()
	}
	if !h.risk.SetLimit(param, value) {
		return fmt.Sprintf("unknown or invalid parameter: %s", SanitizeLogMessage(param))
	}
	h.audit(ctx, userID, "set_risk_limit", fmt.Sprintf("param=%s value=%g", param, value))
	return fmt.Sprintf("%s set to %g", param, value)
}

func (h *Handler) handleOrders(ctx context.Context) string {
	orders, err := h.exec.OpenOrders(ctx)
	if err != nil {
		cmdLog.WithError(err).Error("list open orders failed")
		return "failed to list orders"
	}
	if len(orders) == 0 {
		return "no open orders"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d open order(s):\n", len(orders))
	for _, o := range orders {
		fmt.Fprintf(&b, "%s %s %s @%.4f x%.2f [%s] %s\n",
			shortID(o.OrderID), o.Side, o.MarketID, o.Price, o.Size, o.Status, o.Strategy)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (h *Handler) handleSignals(ctx context.Context) string {
	if h.signals == nil {
		return "signal engine not configured"
	}
	batch, err := h.signals.Evaluate(ctx)
	if err != nil {
		cmdLog.WithError(err).Error("signal evaluation failed")
		return "signal evaluation failed"
	}
	if len(batch.Signals) == 0 {
		return "no signals this cycle"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d signal(s):\n", len(batch.Signals))
	for _, s := range batch.Signals {
		fmt.Fprintf(&b, "%s %s %s conf=%.2f\n", s.Strategy, s.Action, s.MarketID, s.Confidence)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (h *Handler) handleStatus(ctx context.Context) string {
	orders, err := h.exec.OpenOrders(ctx)
	if err != nil {
		cmdLog.WithError(err).Error("count open orders failed")
	}
	limits := h.risk.Limits()
	var b strings.Builder
	fmt.Fprintf(&b, "trading: %v\n", h.risk.TradingEnabled())
	fmt.Fprintf(&b, "paper: %v\n", h.exec.Paper())
	fmt.Fprintf(&b, "open orders: %d\n", len(orders))
	fmt.Fprintf(&b, "max_position_size: %g\n", limits.MaxPositionSize)
	fmt.Fprintf(&b, "max_order_size: %g\n", limits.MaxOrderSize)
	fmt.Fprintf(&b, "max_open_positions: %d\n", limits.MaxOpenPositions)
	fmt.Fprintf(&b, "max_daily_loss: %g", limits.MaxDailyLoss)
	return b.String()
}

// audit journals a successful admin action; failures are logged, never block
// the reply.
func (h *Handler) audit(ctx context.Context, userID int64, action, details string) {
	entry := domain.AuditEntry{
		ActorID:       fmt.Sprintf("tg:%d", userID),
		Action:        action,
		Details:       SanitizeLogMessage(details),
		CorrelationID: uuid.NewString(),
	}
	if err := h.ledger.AppendAudit(ctx, entry); err != nil {
		cmdLog.WithError(err).WithField("action", action).Error("audit append failed")
	}
}

func parseOnOff(args []string) (bool, bool) {
	if len(args) != 1 {
		return false, false
	}
	switch args[0] {
	case "on":
		return true, true
	case "off":
		return false, true
	default:
		return false, false
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
