package risk

// Limits 风控限额配置。归风控引擎独占，只能通过 Engine.SetLimit 修改。
type Limits struct {
	MaxPositionSize  float64
	MaxOrderSize     float64
	MaxOpenPositions int
	MaxDailyLoss     float64
	// StrategyCaps 策略级单笔上限；缺省时回落到 MaxOrderSize。
	StrategyCaps map[string]float64
}

// DefaultLimits 默认限额。
func DefaultLimits() Limits {
	return Limits{
		MaxPositionSize:  100.0,
		MaxOrderSize:     50.0,
		MaxOpenPositions: 10,
		MaxDailyLoss:     100.0,
	}
}

// CapForStrategy 返回策略专属单笔上限，未配置时取 MaxOrderSize。
func (l Limits) CapForStrategy(strategy string) float64 {
	if cap, ok := l.StrategyCaps[strategy]; ok {
		return cap
	}
	return l.MaxOrderSize
}

func (l Limits) clone() Limits {
	out := l
	if l.StrategyCaps != nil {
		out.StrategyCaps = make(map[string]float64, len(l.StrategyCaps))
		for k, v := range l.StrategyCaps {
			out.StrategyCaps[k] = v
		}
	}
	return out
}

// limitSetters 参数名到 setter 的显式映射：未知名字查不到即失败，
// 整型字段截断取整。不走反射。
var limitSetters = map[string]func(*Limits, float64){
	"max_position_size":  func(l *Limits, v float64) { l.MaxPositionSize = v },
	"max_order_size":     func(l *Limits, v float64) { l.MaxOrderSize = v },
	"max_open_positions": func(l *Limits, v float64) { l.MaxOpenPositions = int(v) },
	"max_daily_loss":     func(l *Limits, v float64) { l.MaxDailyLoss = v },
}
