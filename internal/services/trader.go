package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/betbot/polysport/internal/execution"
	"github.com/betbot/polysport/internal/metrics"
	"github.com/betbot/polysport/internal/ports"
	"github.com/betbot/polysport/internal/risk"
	"github.com/betbot/polysport/internal/signals"
)

// Trader 交易主循环：定时评估信号 -> 组装风险状态 -> 风控 -> 执行。
// 循环本身无状态，所有持久状态都在账本里，崩溃重启后直接续跑。
type Trader struct {
	signals  *signals.Engine
	risk     *risk.Engine
	exec     *execution.Engine
	ledger   ports.Ledger
	prices   ports.PriceSource // 可为 nil，滑点检查随之跳过
	interval time.Duration
	log      *logrus.Entry
}

func NewTrader(sig *signals.Engine, riskEngine *risk.Engine, exec *execution.Engine, ledger ports.Ledger, prices ports.PriceSource, interval time.Duration) *Trader {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Trader{
		signals:  sig,
		risk:     riskEngine,
		exec:     exec,
		ledger:   ledger,
		prices:   prices,
		interval: interval,
		log:      logrus.WithField("component", "trader"),
	}
}

// Run 阻塞运行直到 ctx 取消。单轮失败只记日志，不中断循环。
func (t *Trader) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	t.log.Infof("trader loop started, interval=%s", t.interval)

	for {
		select {
		case <-ctx.Done():
			t.log.Info("trader loop stopped")
			return
		case <-ticker.C:
			if err := t.cycle(ctx); err != nil {
				t.log.WithError(err).Error("trade cycle failed")
			}
		}
	}
}

// cycle 跑一轮完整的 信号->风控->执行 管线。
func (t *Trader) cycle(ctx context.Context) error {
	metrics.SignalCycles.Add(1)

	batch, err := t.signals.Evaluate(ctx)
	if err != nil {
		return err
	}
	if len(batch.Signals) == 0 {
		return nil
	}

	state, err := t.currentState(ctx)
	if err != nil {
		return err
	}
	watch, err := t.watchSet(ctx)
	if err != nil {
		return err
	}

	decisions := t.risk.BatchEvaluate(batch.Signals, state)
	for i := range batch.Signals {
		sig := &batch.Signals[i]

		// 手动关停的策略直接跳过，不产生审计/指标噪音
		enabled, err := t.ledger.StrategyEnabled(ctx, sig.Strategy)
		if err != nil {
			t.log.WithError(err).WithField("strategy", sig.Strategy).Warn("read strategy state failed")
			continue
		}
		if !enabled {
			continue
		}
		// 非空观察列表视为白名单
		if len(watch) > 0 {
			if _, ok := watch[sig.MarketID]; !ok {
				continue
			}
		}

		var currentPrice *float64
		if t.prices != nil {
			if p, ok := t.prices.CurrentPrice(ctx, sig.MarketID, sig.OutcomeID); ok {
				currentPrice = &p
			}
		}

		result, err := t.exec.Submit(ctx, sig, decisions[i], currentPrice)
		if err != nil {
			if errors.Is(err, execution.ErrPlacementFailed) {
				// 键已消费、订单 pending，等待对账，不在本轮重试
				t.log.WithField("market", sig.MarketID).Warn("placement failed, order pending")
				continue
			}
			t.log.WithError(err).WithField("market", sig.MarketID).Error("submit failed")
			continue
		}
		if result.Status == execution.StatusRejected {
			t.log.WithFields(logrus.Fields{
				"strategy": sig.Strategy,
				"market":   sig.MarketID,
				"reason":   result.Reason,
			}).Debug("signal rejected")
		}
	}
	return nil
}

// currentState 从账本聚合出本轮评估用的风险状态快照。
func (t *Trader) currentState(ctx context.Context) (risk.State, error) {
	orders, err := t.ledger.OpenOrders(ctx)
	if err != nil {
		return risk.State{}, err
	}
	sizes := make(map[string]float64)
	for _, o := range orders {
		sizes[o.MarketID] += o.Size
	}

	day := time.Now().UTC().Format("2006-01-02")
	realized, unrealized, err := t.ledger.DailyPnL(ctx, day)
	if err != nil {
		return risk.State{}, err
	}
	return risk.State{
		CurrentPositions: len(orders),
		DailyPnL:         realized + unrealized,
		PositionSizes:    sizes,
	}, nil
}

func (t *Trader) watchSet(ctx context.Context) (map[string]struct{}, error) {
	ids, err := t.ledger.Watchlist(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
