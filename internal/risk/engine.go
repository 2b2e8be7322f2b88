package risk

import (
	"strings"
	"sync"

	"github.com/betbot/polysport/internal/domain"
)

// MinConfidence 审批通过要求的最低信号置信度。
const MinConfidence = 0.6

// 拒绝原因码。检查顺序固定，第一个失败的检查决定原因码，
// 调用方可以依赖这一点做确定性诊断。
const (
	ReasonApproved      = "approved"
	ReasonKillSwitch    = "global_kill_switch"
	ReasonDailyLoss     = "max_daily_loss_exceeded"
	ReasonOrderSize     = "order_size_exceeded"
	ReasonPositionSize  = "max_position_size_exceeded"
	ReasonOpenPositions = "max_open_positions"
	ReasonStrategyCap   = "strategy_cap_exceeded"
	ReasonLowConfidence = "confidence_below_threshold"
)

// Decision 一次评估的结果。不单独持久化，随执行结果/审计记录落库。
type Decision struct {
	Approved bool
	Reason   string
}

// State 每次评估由调用方提供的实时风险状态快照。
// 引擎不持有它：仓位/盈亏由上层追踪，每次调用传入最新值。
type State struct {
	CurrentPositions int
	DailyPnL         float64
	PositionSizes    map[string]float64
}

// PositionSize 指定市场的当前持仓规模，未知市场为 0。
func (s State) PositionSize(marketID string) float64 {
	return s.PositionSizes[marketID]
}

// Engine 风控引擎。除 kill switch 与限额外对输入无状态；
// 二者用读写锁保护：评估路径读，管理命令写。几毫秒的读旧值可以接受，
// 撕裂读（半更新的限额结构）不可接受。
//
// kill switch 的初始状态固定为关闭（fail-safe）：
// 未经管理命令显式开启前，任何订单都不会被批准。
type Engine struct {
	mu             sync.RWMutex
	limits         Limits
	tradingEnabled bool
}

// NewEngine 创建风控引擎，交易默认关闭。
func NewEngine(limits Limits) *Engine {
	return &Engine{limits: limits.clone()}
}

// TradingEnabled 当前 kill switch 状态。
func (e *Engine) TradingEnabled() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tradingEnabled
}

// SetTrading 开关全局交易。
func (e *Engine) SetTrading(enabled bool) {
	e.mu.Lock()
	e.tradingEnabled = enabled
	e.mu.Unlock()
}

// Limits 返回当前限额的副本。
func (e *Engine) Limits() Limits {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.limits.clone()
}

// CapForStrategy 策略级单笔上限（供执行引擎定量时使用）。
func (e *Engine) CapForStrategy(strategy string) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.limits.CapForStrategy(strategy)
}

// SetLimit 按名字设置限额。返回 false 表示输入非法或名字未知，此时不产生
// 任何修改；坏输入是正常可报告的结果，不是故障。
//
// 形如 strategy.<name> 的参数设置该策略的单笔上限（name 为空拒绝），
// 其余名字走 limitSetters 的显式映射。
func (e *Engine) SetLimit(param string, value float64) bool {
	if value < 0 {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if strings.HasPrefix(param, "strategy.") {
		name := strings.TrimPrefix(param, "strategy.")
		if name == "" {
			return false
		}
		if e.limits.StrategyCaps == nil {
			e.limits.StrategyCaps = make(map[string]float64)
		}
		e.limits.StrategyCaps[name] = value
		return true
	}

	set, ok := limitSetters[param]
	if !ok {
		return false
	}
	set(&e.limits, value)
	return true
}

// Evaluate 将一个信号和实时风险状态对照限额评估。
// orderSize 为拟下单规模；评估时未知可传 0，相关检查跳过。
//
// 检查管线（短路，顺序即契约）：
//  1. kill switch
//  2. 当日亏损
//  3. 单笔规模
//  4. 持仓规模（现有 + 新单）
//  5. 开放仓位数
//  6. 策略级上限
//  7. 置信度阈值
func (e *Engine) Evaluate(signal *domain.Signal, state State, orderSize float64) Decision {
	if signal == nil {
		panic("risk: Evaluate called with nil signal")
	}

	e.mu.RLock()
	enabled := e.tradingEnabled
	limits := e.limits.clone()
	e.mu.RUnlock()

	if !enabled {
		return Decision{Approved: false, Reason: ReasonKillSwitch}
	}
	if state.DailyPnL <= -limits.MaxDailyLoss {
		return Decision{Approved: false, Reason: ReasonDailyLoss}
	}
	if orderSize > 0 && orderSize > limits.MaxOrderSize {
		return Decision{Approved: false, Reason: ReasonOrderSize}
	}
	if state.PositionSize(signal.MarketID)+orderSize > limits.MaxPositionSize {
		return Decision{Approved: false, Reason: ReasonPositionSize}
	}
	if state.CurrentPositions >= limits.MaxOpenPositions {
		return Decision{Approved: false, Reason: ReasonOpenPositions}
	}
	if orderSize > 0 && orderSize > limits.CapForStrategy(signal.Strategy) {
		return Decision{Approved: false, Reason: ReasonStrategyCap}
	}
	if signal.Confidence < MinConfidence {
		return Decision{Approved: false, Reason: ReasonLowConfidence}
	}
	return Decision{Approved: true, Reason: ReasonApproved}
}

// BatchEvaluate 用同一份状态快照按输入顺序独立评估一批信号。
// 信号之间没有交互；跨信号的影响由调用方自行编码进 State。
func (e *Engine) BatchEvaluate(signals []domain.Signal, state State) []Decision {
	decisions := make([]Decision, len(signals))
	for i := range signals {
		decisions[i] = e.Evaluate(&signals[i], state, 0)
	}
	return decisions
}
