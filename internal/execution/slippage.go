package execution

import "math"

// DefaultMaxSlippage 默认滑点容忍度（2%）。
const DefaultMaxSlippage = 0.02

// WithinSlippage 实际价相对期望价的偏差是否在容忍度内。
// expected <= 0 时相对滑点无定义，直接判失败。
func WithinSlippage(expected, actual, maxSlippage float64) bool {
	if expected <= 0 {
		return false
	}
	return math.Abs(actual-expected)/expected <= maxSlippage
}
