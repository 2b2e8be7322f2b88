package execution

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/polysport/internal/domain"
)

func TestIdempotencyKeyDerivation(t *testing.T) {
	sig := &domain.Signal{
		Strategy:  "vegas_value",
		MarketID:  "market-1",
		OutcomeID: "outcome-yes",
		Action:    domain.ActionBuy,
	}
	assert.Equal(t, "vegas_value:market-1:outcome-yes:buy", IdempotencyKey(sig))

	// size/price 不参与身份：同元组不同置信度派生同一个键
	other := *sig
	other.Confidence = 0.99
	assert.Equal(t, IdempotencyKey(sig), IdempotencyKey(&other))

	// 方向不同则键不同
	other = *sig
	other.Action = domain.ActionSell
	assert.NotEqual(t, IdempotencyKey(sig), IdempotencyKey(&other))
}

func TestMemoryKeyStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryKeyStore()

	seen, err := s.Seen(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, s.Add(ctx, "k1", time.Hour))
	seen, err = s.Seen(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestMemoryKeyStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryKeyStore()

	require.NoError(t, s.Add(ctx, "k1", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	// 过期键与从未见过不可区分
	seen, err := s.Seen(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, seen)

	// 过期后可重新记录
	require.NoError(t, s.Add(ctx, "k1", time.Hour))
	seen, err = s.Seen(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, seen)
}
