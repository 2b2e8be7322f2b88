package execution

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/betbot/polysport/internal/domain"
	"github.com/betbot/polysport/internal/metrics"
	"github.com/betbot/polysport/internal/ports"
	"github.com/betbot/polysport/internal/risk"
	"github.com/betbot/polysport/pkg/retry"
)

var execLog = logrus.WithField("component", "execution")

// ErrPlacementFailed 表示幂等键已消费、订单已落库，但外部下单调用失败。
// 此时禁止原样重提信号（键已被占用）：订单停留在 pending，
// 由上层对账后重试"下单"而不是重提"信号"。
var ErrPlacementFailed = fmt.Errorf("order placement failed")

// 提交结果状态。
const (
	StatusSubmitted = "submitted"
	StatusRejected  = "rejected"
	StatusDuplicate = "duplicate"
	StatusPending   = "pending"
)

// 提交结果原因码（风控原因码之外的部分）。
const (
	ReasonOK        = "ok"
	ReasonDuplicate = "idempotent_key"
)

// Result submit 的结构化结果。策略性拒绝（风控/滑点/重复）一律走
// Status/Reason，不走 error；error 只用于持久化与外部下单故障。
type Result struct {
	Order  *domain.ExecutionOrder
	Status string
	Reason string
}

// CapProvider 提供策略级单笔上限（由风控引擎实现）。
type CapProvider interface {
	CapForStrategy(strategy string) float64
}

// Options 执行引擎配置。
type Options struct {
	Sizing      Sizing
	MaxSlippage float64       // <=0 时取 DefaultMaxSlippage
	KeyTTL      time.Duration // <=0 时取 DefaultKeyTTL
	Paper       bool          // 初始纸面模式；ledger 中有持久化值时以持久化值为准
	// PlacementRetry 外部下单的重试策略；nil 表示只试一次。
	// 是否重试、哪些错误可重试由调用方决定，引擎自身不做隐式重试。
	PlacementRetry *retry.Options
}

// Engine 执行引擎：把一个已批准的信号变成一笔去重且持久化的订单。
//
// submit 管线（每步可短路）：
// 风控闸门透传 -> 幂等检查 -> 定价 -> 定量 -> 滑点 -> 记键 -> 建单 -> 落库 -> 下单。
//
// ledger 为 nil 时退化为进程内 open-orders map——只给测试/演示用，
// 不提供任何持久性保证。
type Engine struct {
	sizing         Sizing
	maxSlippage    float64
	keyTTL         time.Duration
	caps           CapProvider
	keys           ports.KeyStore
	ledger         ports.Ledger
	placer         ports.OrderPlacer
	placementRetry *retry.Options

	locks keyLock

	mu         sync.RWMutex
	paper      bool
	openOrders map[string]*domain.ExecutionOrder
}

// NewEngine 创建执行引擎。keys 为 nil 时用进程内 MemoryKeyStore；
// ledger 非 nil 时从持久化状态恢复上次配置的纸面模式。
func NewEngine(caps CapProvider, keys ports.KeyStore, ledger ports.Ledger, placer ports.OrderPlacer, opts Options) *Engine {
	if keys == nil {
		keys = NewMemoryKeyStore()
	}
	if opts.MaxSlippage <= 0 {
		opts.MaxSlippage = DefaultMaxSlippage
	}
	if opts.KeyTTL <= 0 {
		opts.KeyTTL = DefaultKeyTTL
	}
	e := &Engine{
		sizing:         opts.Sizing,
		maxSlippage:    opts.MaxSlippage,
		keyTTL:         opts.KeyTTL,
		caps:           caps,
		keys:           keys,
		ledger:         ledger,
		placer:         placer,
		placementRetry: opts.PlacementRetry,
		paper:          opts.Paper,
		openOrders:     make(map[string]*domain.ExecutionOrder),
	}
	if ledger != nil {
		if paper, err := ledger.PaperMode(context.Background()); err == nil {
			if paper != e.paper {
				execLog.WithFields(logrus.Fields{"configured": e.paper, "persisted": paper}).
					Info("persisted paper mode overrides configured value")
			}
			e.paper = paper
		} else {
			execLog.WithError(err).Warn("load persisted paper mode failed, using configured value")
		}
	}
	return e
}

// Paper 当前是否纸面模式。
func (e *Engine) Paper() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.paper
}

// SetPaper 切换纸面/实盘模式，影响之后创建的所有订单。
// 模式本身持久化，进程重启后保持最后一次配置。
func (e *Engine) SetPaper(ctx context.Context, paper bool) error {
	e.mu.Lock()
	e.paper = paper
	e.mu.Unlock()
	if e.ledger != nil {
		if err := e.ledger.SetPaperMode(ctx, paper); err != nil {
			return fmt.Errorf("persist paper mode: %w", err)
		}
	}
	return nil
}

// Submit 提交一个信号与其风控决定，返回结构化结果。
// currentPrice 非 nil 时对目标价做滑点检查。
//
// 错误语义：返回非 nil error 仅表示持久化/外部下单故障；
// 所有策略性拒绝都在 Result 里，error 为 nil。
func (e *Engine) Submit(ctx context.Context, signal *domain.Signal, decision risk.Decision, currentPrice *float64) (*Result, error) {
	if signal == nil {
		panic("execution: Submit called with nil signal")
	}

	// 1. 风控闸门：原因码原样透传
	if !decision.Approved {
		metrics.OrdersRejected.Add(1)
		return &Result{Status: StatusRejected, Reason: decision.Reason}, nil
	}

	// 同键并发 submit 必须串行通过检查-记录窗口
	key := IdempotencyKey(signal)
	unlock := e.locks.Lock(key)
	defer unlock()

	// 纸面/实盘模式只读一次：订单状态与是否外发必须出自同一个值，
	// 并发 SetPaper 不能把一笔 submit 撕成"记为纸面却发了实盘"。
	paper := e.Paper()

	// 2. 幂等检查：命中即不产生任何状态变化
	seen, err := e.keys.Seen(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("idempotency check: %w", err)
	}
	if seen {
		metrics.OrdersDuplicate.Add(1)
		execLog.WithFields(logrus.Fields{"key": key, "strategy": signal.Strategy}).
			Debug("duplicate signal dropped")
		return &Result{Status: StatusDuplicate, Reason: ReasonDuplicate}, nil
	}

	// 3. 目标价 4. 规模
	price := TargetPrice(signal)
	var strategyCap float64
	if e.caps != nil {
		strategyCap = e.caps.CapForStrategy(signal.Strategy)
	}
	size := ComputeSize(signal.Confidence, strategyCap, e.sizing)

	// 5. 滑点：拒绝时不记幂等键——换新价格重试必须是合法的
	if currentPrice != nil && !WithinSlippage(price, *currentPrice, e.maxSlippage) {
		metrics.OrdersRejected.Add(1)
		return &Result{
			Status: StatusRejected,
			Reason: fmt.Sprintf("slippage_exceeded: target=%.4f, current=%.4f", price, *currentPrice),
		}, nil
	}

	// 6. 先记键再建单：之后建单/落库失败时键已消费，
	// 崩溃重试不会对同一信号重复下单；同一逻辑交易要再来，
	// 只能换新信号或等键过期。
	if err := e.keys.Add(ctx, key, e.keyTTL); err != nil {
		return nil, fmt.Errorf("record idempotency key: %w", err)
	}

	// 7. 建单
	order := &domain.ExecutionOrder{
		OrderID:   uuid.NewString(),
		MarketID:  signal.MarketID,
		OutcomeID: signal.OutcomeID,
		Side:      signal.Action,
		Price:     price,
		Size:      size,
		Strategy:  signal.Strategy,
		CreatedAt: time.Now().UTC(),
	}
	if paper {
		order.Status = domain.OrderStatusPaper
	} else {
		order.Status = domain.OrderStatusSubmitted
	}

	// 8. 落库
	if e.ledger != nil {
		if err := e.ledger.SaveOrder(ctx, order); err != nil {
			return nil, fmt.Errorf("persist order: %w", err)
		}
	} else {
		e.mu.Lock()
		e.openOrders[order.OrderID] = order
		e.mu.Unlock()
	}

	// 实盘：外部下单。失败不回滚幂等键，订单转 pending 等待对账。
	if !paper && e.placer != nil {
		if err := e.place(ctx, order); err != nil {
			order.Status = domain.OrderStatusPending
			if e.ledger != nil {
				if _, uerr := e.ledger.UpdateOrderStatus(ctx, order.OrderID, domain.OrderStatusPending); uerr != nil {
					execLog.WithError(uerr).WithField("order_id", order.OrderID).
						Error("mark order pending failed")
				}
			}
			metrics.PlacementFailures.Add(1)
			execLog.WithError(err).WithFields(logrus.Fields{
				"order_id": order.OrderID,
				"market":   order.MarketID,
			}).Error("placement failed, order pending reconciliation")
			return &Result{Order: order, Status: StatusPending, Reason: "placement_failed"},
				fmt.Errorf("%w: %v", ErrPlacementFailed, err)
		}
	}

	metrics.OrdersSubmitted.Add(1)
	execLog.WithFields(logrus.Fields{
		"order_id": order.OrderID,
		"market":   order.MarketID,
		"side":     order.Side,
		"price":    order.Price,
		"size":     order.Size,
		"status":   order.Status,
	}).Info("order submitted")
	return &Result{Order: order, Status: StatusSubmitted, Reason: ReasonOK}, nil
}

func (e *Engine) place(ctx context.Context, order *domain.ExecutionOrder) error {
	if e.placementRetry == nil {
		return e.placer.PlaceOrder(ctx, order)
	}
	return retry.Do(ctx, func() error {
		return e.placer.PlaceOrder(ctx, order)
	}, *e.placementRetry)
}

// CancelOrder 将订单迁移到 cancelled（持久化）或从进程内兜底 map 移除。
// 返回是否找到了该订单。与幂等键无关：取消不影响提交去重。
func (e *Engine) CancelOrder(ctx context.Context, orderID string) (bool, error) {
	if e.ledger != nil {
		found, err := e.ledger.UpdateOrderStatus(ctx, orderID, domain.OrderStatusCancelled)
		if err != nil {
			return false, fmt.Errorf("cancel order: %w", err)
		}
		return found, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.openOrders[orderID]; !ok {
		return false, nil
	}
	delete(e.openOrders, orderID)
	return true, nil
}

// OpenOrders 返回所有开放状态（submitted/pending/paper）的订单。
// 配置了持久化存储时这是一次账本查询，不是缓存。
func (e *Engine) OpenOrders(ctx context.Context) ([]*domain.ExecutionOrder, error) {
	if e.ledger != nil {
		return e.ledger.OpenOrders(ctx)
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*domain.ExecutionOrder, 0, len(e.openOrders))
	for _, o := range e.openOrders {
		if o.IsOpen() {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
