package signals

import (
	"math"
	"time"

	"github.com/betbot/polysport/internal/domain"
)

// VegasValue 价值策略：用历史均价近似公允概率，
// 当前价明显偏离时按偏离方向下注。
type VegasValue struct {
	MinEdge float64 // 触发信号所需的最小偏差
}

func NewVegasValue() *VegasValue {
	return &VegasValue{MinEdge: 0.03}
}

func (v *VegasValue) Name() string { return "vegas_value" }

func (v *VegasValue) Generate(snapshots []MarketSnapshot) []domain.Signal {
	var out []domain.Signal
	for _, m := range snapshots {
		for _, o := range m.Outcomes {
			if len(o.History) < 5 {
				continue
			}
			fair := mean(o.History)
			edge := fair - o.Price
			if math.Abs(edge) < v.MinEdge {
				continue
			}
			action := domain.ActionBuy
			if edge < 0 {
				action = domain.ActionSell
			}
			// 偏差越大信心越高，0.03 起步 0.6，0.10 以上封顶 0.95
			conf := 0.6 + (math.Abs(edge)-v.MinEdge)*5
			if conf > 0.95 {
				conf = 0.95
			}
			out = append(out, domain.Signal{
				Strategy:   v.Name(),
				MarketID:   m.MarketID,
				OutcomeID:  o.OutcomeID,
				Action:     action,
				Confidence: conf,
				Explanation: map[string]any{
					"edge":   math.Abs(edge),
					"fair":   fair,
					"source": "vegas_vs_poly",
				},
				CreatedAt: time.Now().UTC(),
			})
		}
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
