package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/betbot/polysport/internal/domain"
)

func TestWithinSlippage(t *testing.T) {
	// 无偏差
	assert.True(t, WithinSlippage(0.50, 0.50, 0.02))
	// 正好在边界上（1%/2%）
	assert.True(t, WithinSlippage(0.50, 0.505, 0.02))
	// 超出容忍度
	assert.False(t, WithinSlippage(0.50, 0.60, 0.02))
	// 双向对称
	assert.False(t, WithinSlippage(0.50, 0.40, 0.02))
	assert.True(t, WithinSlippage(0.50, 0.495, 0.02))
}

func TestWithinSlippageNonPositiveExpected(t *testing.T) {
	assert.False(t, WithinSlippage(0, 0.5, 0.02))
	assert.False(t, WithinSlippage(-0.1, 0.5, 0.02))
}

func TestTargetPrice(t *testing.T) {
	// 显式 target_price 优先
	sig := &domain.Signal{
		Action:      domain.ActionBuy,
		Explanation: map[string]any{"target_price": 0.62, "edge": 0.10},
	}
	assert.Equal(t, 0.62, TargetPrice(sig))

	// edge 折算：买入 0.5+edge
	sig = &domain.Signal{Action: domain.ActionBuy, Explanation: map[string]any{"edge": 0.05}}
	assert.InDelta(t, 0.55, TargetPrice(sig), 1e-9)

	// 卖出 0.5-edge
	sig = &domain.Signal{Action: domain.ActionSell, Explanation: map[string]any{"edge": 0.05}}
	assert.InDelta(t, 0.45, TargetPrice(sig), 1e-9)

	// 什么都没有 -> 0.5
	sig = &domain.Signal{Action: domain.ActionBuy}
	assert.Equal(t, 0.5, TargetPrice(sig))
}
