package signals

import (
	"time"

	"github.com/betbot/polysport/internal/domain"
)

// OrderbookImbalance 盘口失衡：买卖一档挂单量比例极端时，
// 认为短期价格会被推向多的一侧。
type OrderbookImbalance struct {
	MinRatio float64 // 触发所需的最小买/卖比（或其倒数）
}

func NewOrderbookImbalance() *OrderbookImbalance {
	return &OrderbookImbalance{MinRatio: 3.0}
}

func (s *OrderbookImbalance) Name() string { return "orderbook_imbalance" }

func (s *OrderbookImbalance) Generate(snapshots []MarketSnapshot) []domain.Signal {
	var out []domain.Signal
	for _, m := range snapshots {
		for _, o := range m.Outcomes {
			if o.BestBidSize <= 0 || o.BestAskSize <= 0 {
				continue
			}
			ratio := o.BestBidSize / o.BestAskSize
			var action domain.Action
			switch {
			case ratio >= s.MinRatio:
				action = domain.ActionBuy
			case ratio <= 1/s.MinRatio:
				action = domain.ActionSell
			default:
				continue
			}
			conf := 0.65
			if ratio >= 2*s.MinRatio || ratio <= 1/(2*s.MinRatio) {
				conf = 0.8
			}
			out = append(out, domain.Signal{
				Strategy:   s.Name(),
				MarketID:   m.MarketID,
				OutcomeID:  o.OutcomeID,
				Action:     action,
				Confidence: conf,
				Explanation: map[string]any{
					"bid_ask_ratio": ratio,
					"note":          "liquidity_shock",
				},
				CreatedAt: time.Now().UTC(),
			})
		}
	}
	return out
}

// DefaultStrategies 默认启用的全部策略。
func DefaultStrategies() []Strategy {
	return []Strategy{
		NewVegasValue(),
		NewMeanReversion(),
		NewOrderbookImbalance(),
	}
}
