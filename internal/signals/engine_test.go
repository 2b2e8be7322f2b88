package signals

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/polysport/internal/domain"
)

type staticSource struct {
	snapshots []MarketSnapshot
}

func (s *staticSource) Snapshots(ctx context.Context) ([]MarketSnapshot, error) {
	return s.snapshots, nil
}

func snapshotWithPrice(price float64) []MarketSnapshot {
	return []MarketSnapshot{{
		MarketID: "market-1",
		Question: "team A wins?",
		Outcomes: []OutcomeSnapshot{{OutcomeID: "yes", Name: "Yes", Price: price}},
	}}
}

func TestEvaluateNilSourceReturnsEmpty(t *testing.T) {
	e := NewEngine(nil, DefaultStrategies())
	batch, err := e.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batch.Signals)
}

func TestEngineAccumulatesHistory(t *testing.T) {
	src := &staticSource{}
	e := NewEngine(src, nil)

	for i := 0; i < 30; i++ {
		src.snapshots = snapshotWithPrice(0.5)
		_, err := e.Evaluate(context.Background())
		require.NoError(t, err)
	}
	// 历史长度封顶
	assert.Len(t, e.history["market-1:yes"], maxPriceHistory)
}

func TestVegasValueSignals(t *testing.T) {
	src := &staticSource{}
	e := NewEngine(src, []Strategy{NewVegasValue()})
	ctx := context.Background()

	// 建立 0.5 附近的历史
	for i := 0; i < 10; i++ {
		src.snapshots = snapshotWithPrice(0.5)
		_, err := e.Evaluate(ctx)
		require.NoError(t, err)
	}

	// 价格跌破均值 -> 低估，买入
	src.snapshots = snapshotWithPrice(0.40)
	batch, err := e.Evaluate(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, batch.Signals)

	sig := batch.Signals[0]
	assert.Equal(t, "vegas_value", sig.Strategy)
	assert.Equal(t, domain.ActionBuy, sig.Action)
	assert.GreaterOrEqual(t, sig.Confidence, 0.6)

	edge, ok := (&sig).ExplanationFloat("edge")
	require.True(t, ok)
	assert.Greater(t, edge, 0.0)
}

func TestVegasValueQuietMarketNoSignal(t *testing.T) {
	src := &staticSource{}
	e := NewEngine(src, []Strategy{NewVegasValue()})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		src.snapshots = snapshotWithPrice(0.5)
		batch, err := e.Evaluate(ctx)
		require.NoError(t, err)
		assert.Empty(t, batch.Signals)
	}
}

func TestMeanReversionNeedsDispersion(t *testing.T) {
	src := &staticSource{}
	e := NewEngine(src, []Strategy{NewMeanReversion()})
	ctx := context.Background()

	// 波动为零时不触发（标准差为 0 直接跳过）
	for i := 0; i < 15; i++ {
		src.snapshots = snapshotWithPrice(0.5)
		batch, err := e.Evaluate(ctx)
		require.NoError(t, err)
		assert.Empty(t, batch.Signals)
	}
}

func TestOrderbookImbalance(t *testing.T) {
	s := NewOrderbookImbalance()

	snaps := []MarketSnapshot{{
		MarketID: "market-1",
		Outcomes: []OutcomeSnapshot{{
			OutcomeID:   "yes",
			Price:       0.5,
			BestBidSize: 900,
			BestAskSize: 100,
		}},
	}}
	out := s.Generate(snaps)
	require.Len(t, out, 1)
	assert.Equal(t, domain.ActionBuy, out[0].Action)

	ratio, ok := (&out[0]).ExplanationFloat("bid_ask_ratio")
	require.True(t, ok)
	assert.InDelta(t, 9.0, ratio, 1e-9)

	// 均衡盘口无信号
	snaps[0].Outcomes[0].BestAskSize = 800
	assert.Empty(t, s.Generate(snaps))
}
