package signals

import (
	"math"
	"time"

	"github.com/betbot/polysport/internal/domain"
)

// MeanReversion 均值回归：价格相对近期均值的 z 分数过大时，
// 视为过度反应，向均值方向回补。
type MeanReversion struct {
	MinZ float64
}

func NewMeanReversion() *MeanReversion {
	return &MeanReversion{MinZ: 2.0}
}

func (m *MeanReversion) Name() string { return "mean_reversion" }

func (m *MeanReversion) Generate(snapshots []MarketSnapshot) []domain.Signal {
	var out []domain.Signal
	for _, mkt := range snapshots {
		for _, o := range mkt.Outcomes {
			if len(o.History) < 10 {
				continue
			}
			mu := mean(o.History)
			sd := stddev(o.History, mu)
			if sd <= 0 {
				continue
			}
			z := (o.Price - mu) / sd
			if math.Abs(z) < m.MinZ {
				continue
			}
			// 价格被推得过高则卖回，过低则买回
			action := domain.ActionSell
			if z < 0 {
				action = domain.ActionBuy
			}
			conf := 0.6 + (math.Abs(z)-m.MinZ)*0.1
			if conf > 0.9 {
				conf = 0.9
			}
			out = append(out, domain.Signal{
				Strategy:   m.Name(),
				MarketID:   mkt.MarketID,
				OutcomeID:  o.OutcomeID,
				Action:     action,
				Confidence: conf,
				Explanation: map[string]any{
					"z_score": z,
					"edge":    math.Abs(o.Price - mu),
					"note":    "overreaction",
				},
				CreatedAt: time.Now().UTC(),
			})
		}
	}
	return out
}

func stddev(xs []float64, mu float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var ss float64
	for _, x := range xs {
		d := x - mu
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
