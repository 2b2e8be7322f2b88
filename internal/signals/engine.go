package signals

import (
	"context"
	"time"

	"github.com/betbot/polysport/internal/domain"
)

// maxPriceHistory 每个结果保留的历史价格条数
const maxPriceHistory = 20

// OutcomeSnapshot 单个结果的市场快照
type OutcomeSnapshot struct {
	OutcomeID   string
	Name        string
	Price       float64
	History     []float64 // 最近的价格序列，旧在前
	BestBidSize float64
	BestAskSize float64
}

// MarketSnapshot 一个市场在某一时刻的完整视图
type MarketSnapshot struct {
	MarketID  string
	Question  string
	Outcomes  []OutcomeSnapshot
	CloseTime time.Time
}

// MarketSource 提供市场快照，由上游行情层实现
type MarketSource interface {
	Snapshots(ctx context.Context) ([]MarketSnapshot, error)
}

// Strategy 信号策略：读快照，产出交易信号
type Strategy interface {
	Name() string
	Generate(snapshots []MarketSnapshot) []domain.Signal
}

// Engine 驱动所有策略跑一轮评估，并维护价格历史
type Engine struct {
	source     MarketSource
	strategies []Strategy
	history    map[string][]float64 // marketID:outcomeID -> 价格序列
}

func NewEngine(source MarketSource, strategies []Strategy) *Engine {
	return &Engine{
		source:     source,
		strategies: strategies,
		history:    make(map[string][]float64),
	}
}

// Evaluate 拉一次快照，补充历史价格后让每个策略各自产信号。
// 没有行情源时返回空批次而不是报错，调用方照常跑下一轮。
func (e *Engine) Evaluate(ctx context.Context) (domain.SignalBatch, error) {
	if e.source == nil {
		return domain.SignalBatch{}, nil
	}
	snapshots, err := e.source.Snapshots(ctx)
	if err != nil {
		return domain.SignalBatch{}, err
	}
	e.record(snapshots)

	var batch domain.SignalBatch
	for _, s := range e.strategies {
		batch.Signals = append(batch.Signals, s.Generate(snapshots)...)
	}
	batch.CreatedAt = time.Now().UTC()
	return batch, nil
}

// record 把本轮价格追加进历史，并把历史回填到快照里供策略使用
func (e *Engine) record(snapshots []MarketSnapshot) {
	for mi := range snapshots {
		m := &snapshots[mi]
		for oi := range m.Outcomes {
			o := &m.Outcomes[oi]
			key := m.MarketID + ":" + o.OutcomeID
			h := append(e.history[key], o.Price)
			if len(h) > maxPriceHistory {
				h = h[len(h)-maxPriceHistory:]
			}
			e.history[key] = h
			o.History = append([]float64(nil), h...)
		}
	}
}
