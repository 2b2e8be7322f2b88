package domain

import "time"

// Action 信号方向
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Signal 策略产生的一次交易建议（创建后不可变）。
// Explanation 为开放的诊断字段，值为数值或字符串，
// 常见字段：edge（相对公允值的偏差）、target_price（显式目标价）。
type Signal struct {
	Strategy    string
	MarketID    string
	OutcomeID   string
	Action      Action
	Confidence  float64
	Explanation map[string]any
	CreatedAt   time.Time
}

// ExplanationFloat 读取 Explanation 中的数值字段。
func (s *Signal) ExplanationFloat(key string) (float64, bool) {
	if s == nil || s.Explanation == nil {
		return 0, false
	}
	switch v := s.Explanation[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// SignalBatch 一次评估周期产生的全部信号。
type SignalBatch struct {
	Signals   []Signal
	CreatedAt time.Time
}
