package execution

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/polysport/internal/domain"
	"github.com/betbot/polysport/internal/risk"
	"github.com/betbot/polysport/internal/storage"
	"github.com/betbot/polysport/pkg/retry"
)

func retryOptions(attempts int) retry.Options {
	return retry.Options{Attempts: attempts, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
}

type fixedCaps struct{ cap float64 }

func (f fixedCaps) CapForStrategy(string) float64 { return f.cap }

type fakePlacer struct {
	calls int
	err   error
}

func (p *fakePlacer) PlaceOrder(ctx context.Context, order *domain.ExecutionOrder) error {
	p.calls++
	return p.err
}

func approved() risk.Decision {
	return risk.Decision{Approved: true, Reason: risk.ReasonApproved}
}

func buySignal() *domain.Signal {
	return &domain.Signal{
		Strategy:    "vegas_value",
		MarketID:    "market-1",
		OutcomeID:   "outcome-yes",
		Action:      domain.ActionBuy,
		Confidence:  0.8,
		Explanation: map[string]any{"edge": 0.05},
		CreatedAt:   time.Now().UTC(),
	}
}

func newTestEngine(opts Options) *Engine {
	return NewEngine(fixedCaps{cap: 50}, nil, nil, nil, opts)
}

func TestSubmitPaperOrder(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(Options{Sizing: DefaultSizing(), Paper: true})

	res, err := e.Submit(ctx, buySignal(), approved(), nil)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, res.Status)
	assert.Equal(t, ReasonOK, res.Reason)

	require.NotNil(t, res.Order)
	assert.NotEmpty(t, res.Order.OrderID)
	assert.Equal(t, domain.OrderStatusPaper, res.Order.Status)
	// edge 0.05 买入 -> 0.55
	assert.InDelta(t, 0.55, res.Order.Price, 1e-9)
	// 置信度 0.8 -> 1.25x 基础规模
	assert.Equal(t, 12.5, res.Order.Size)

	orders, err := e.OpenOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestSubmitDuplicateDropped(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(Options{Sizing: DefaultSizing(), Paper: true})

	res, err := e.Submit(ctx, buySignal(), approved(), nil)
	require.NoError(t, err)
	require.Equal(t, StatusSubmitted, res.Status)

	// 同元组重提：不下单、不报错
	res, err = e.Submit(ctx, buySignal(), approved(), nil)
	require.NoError(t, err)
	assert.Equal(t, StatusDuplicate, res.Status)
	assert.Equal(t, ReasonDuplicate, res.Reason)
	assert.Nil(t, res.Order)

	orders, err := e.OpenOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestSubmitRejectedPassThrough(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(Options{Sizing: DefaultSizing(), Paper: true})

	decision := risk.Decision{Approved: false, Reason: risk.ReasonDailyLoss}
	res, err := e.Submit(ctx, buySignal(), decision, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, res.Status)
	// 风控原因码原样透传
	assert.Equal(t, risk.ReasonDailyLoss, res.Reason)
	assert.Nil(t, res.Order)

	// 风控拒绝不消耗幂等键：批准后提交必须成功
	res, err = e.Submit(ctx, buySignal(), approved(), nil)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, res.Status)
}

func TestSubmitSlippageRejected(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(Options{Sizing: DefaultSizing(), Paper: true, MaxSlippage: 0.02})

	// 目标价 0.55，现价 0.60 -> 偏差 ~9%，拒绝
	bad := 0.60
	res, err := e.Submit(ctx, buySignal(), approved(), &bad)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, res.Status)
	assert.Contains(t, res.Reason, "slippage_exceeded")
	assert.Nil(t, res.Order)

	// 滑点拒绝不记键：价格回来后重提必须成功
	good := 0.553
	res, err = e.Submit(ctx, buySignal(), approved(), &good)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, res.Status)
}

func TestSubmitKeyExpiryAllowsResubmission(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(Options{Sizing: DefaultSizing(), Paper: true, KeyTTL: 20 * time.Millisecond})

	res, err := e.Submit(ctx, buySignal(), approved(), nil)
	require.NoError(t, err)
	require.Equal(t, StatusSubmitted, res.Status)

	time.Sleep(50 * time.Millisecond)

	res, err = e.Submit(ctx, buySignal(), approved(), nil)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, res.Status)
}

func TestSubmitLivePlacement(t *testing.T) {
	ctx := context.Background()
	placer := &fakePlacer{}
	e := NewEngine(fixedCaps{cap: 50}, nil, nil, placer, Options{Sizing: DefaultSizing()})

	res, err := e.Submit(ctx, buySignal(), approved(), nil)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, res.Status)
	assert.Equal(t, domain.OrderStatusSubmitted, res.Order.Status)
	assert.Equal(t, 1, placer.calls)
}

func TestSubmitPlacementFailure(t *testing.T) {
	ctx := context.Background()
	placer := &fakePlacer{err: errors.New("venue down")}
	e := NewEngine(fixedCaps{cap: 50}, nil, nil, placer, Options{Sizing: DefaultSizing()})

	res, err := e.Submit(ctx, buySignal(), approved(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPlacementFailed))
	require.NotNil(t, res)
	assert.Equal(t, StatusPending, res.Status)
	assert.Equal(t, domain.OrderStatusPending, res.Order.Status)

	// 键已消费：原样重提是重复，不会二次下单
	res, err = e.Submit(ctx, buySignal(), approved(), nil)
	require.NoError(t, err)
	assert.Equal(t, StatusDuplicate, res.Status)
	assert.Equal(t, 1, placer.calls)
}

func TestSubmitPlacementRetry(t *testing.T) {
	ctx := context.Background()
	placer := &fakePlacer{err: errors.New("venue down")}
	retryOpts := retryOptions(3)
	e := NewEngine(fixedCaps{cap: 50}, nil, nil, placer, Options{
		Sizing:         DefaultSizing(),
		PlacementRetry: &retryOpts,
	})

	_, err := e.Submit(ctx, buySignal(), approved(), nil)
	require.Error(t, err)
	assert.Equal(t, 3, placer.calls)
}

func TestPaperModeToggle(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(Options{Sizing: DefaultSizing(), Paper: true})
	assert.True(t, e.Paper())

	require.NoError(t, e.SetPaper(ctx, false))
	assert.False(t, e.Paper())
}

func TestCancelOrder(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(Options{Sizing: DefaultSizing(), Paper: true})

	res, err := e.Submit(ctx, buySignal(), approved(), nil)
	require.NoError(t, err)

	found, err := e.CancelOrder(ctx, res.Order.OrderID)
	require.NoError(t, err)
	assert.True(t, found)

	orders, err := e.OpenOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)

	found, err = e.CancelOrder(ctx, "no-such-order")
	require.NoError(t, err)
	assert.False(t, found)
}

type modeRecordingPlacer struct {
	mu     sync.Mutex
	placed map[string]domain.OrderStatus // order id -> 下单时刻看到的状态
}

func (p *modeRecordingPlacer) PlaceOrder(ctx context.Context, order *domain.ExecutionOrder) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.placed == nil {
		p.placed = make(map[string]domain.OrderStatus)
	}
	p.placed[order.OrderID] = order.Status
	return nil
}

func (p *modeRecordingPlacer) snapshot() map[string]domain.OrderStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]domain.OrderStatus, len(p.placed))
	for k, v := range p.placed {
		out[k] = v
	}
	return out
}

func TestSubmitPaperModeConsistentUnderToggle(t *testing.T) {
	ctx := context.Background()
	placer := &modeRecordingPlacer{}
	e := NewEngine(fixedCaps{cap: 50}, nil, nil, placer, Options{Sizing: DefaultSizing()})

	// 并发翻转纸面模式：一笔 submit 的状态标记与是否外发必须一致
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			_ = e.SetPaper(ctx, i%2 == 0)
		}
	}()

	finalStatus := make(map[string]domain.OrderStatus)
	for i := 0; i < 200; i++ {
		sig := buySignal()
		sig.MarketID = fmt.Sprintf("market-%d", i)
		res, err := e.Submit(ctx, sig, approved(), nil)
		require.NoError(t, err)
		require.NotNil(t, res.Order)
		finalStatus[res.Order.OrderID] = res.Order.Status
	}
	<-done

	placed := placer.snapshot()
	for id, status := range finalStatus {
		switch status {
		case domain.OrderStatusPaper:
			// 纸面单绝不触达实盘通道
			_, sent := placed[id]
			assert.False(t, sent, "paper order %s reached the live placer", id)
		case domain.OrderStatusSubmitted:
			// 实盘单必须外发，且外发时状态已是 submitted
			assert.Equal(t, domain.OrderStatusSubmitted, placed[id], "order %s", id)
		default:
			t.Fatalf("unexpected status %s for order %s", status, id)
		}
	}
}

func TestSubmitConcurrentDuplicates(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(Options{Sizing: DefaultSizing(), Paper: true})

	// 同键并发 submit：检查-记录窗口由键锁串行化，
	// 恰好一笔成单，其余全部判重
	const n = 16
	var wg sync.WaitGroup
	results := make([]*Result, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = e.Submit(ctx, buySignal(), approved(), nil)
		}(i)
	}
	wg.Wait()

	submitted, duplicates := 0, 0
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		switch results[i].Status {
		case StatusSubmitted:
			submitted++
		case StatusDuplicate:
			duplicates++
		default:
			t.Fatalf("unexpected status %s", results[i].Status)
		}
	}
	assert.Equal(t, 1, submitted)
	assert.Equal(t, n-1, duplicates)

	orders, err := e.OpenOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestNewEnginePersistedPaperModeWins(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	// 全新账本默认 paper_mode=1：配置的 false 被持久化值覆盖
	e := NewEngine(fixedCaps{cap: 50}, store, store, nil, Options{Sizing: DefaultSizing(), Paper: false})
	assert.True(t, e.Paper())

	// 管理命令切换后，持久化值继续跨重启生效
	require.NoError(t, e.SetPaper(ctx, false))
	e2 := NewEngine(fixedCaps{cap: 50}, store, store, nil, Options{Sizing: DefaultSizing(), Paper: true})
	assert.False(t, e2.Paper())
}

func TestSubmitNilSignalPanics(t *testing.T) {
	e := newTestEngine(Options{Sizing: DefaultSizing(), Paper: true})
	assert.Panics(t, func() {
		_, _ = e.Submit(context.Background(), nil, approved(), nil)
	})
}
