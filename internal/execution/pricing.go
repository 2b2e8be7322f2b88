package execution

import "github.com/betbot/polysport/internal/domain"

// TargetPrice 目标价推导：
//  1. 信号带显式 target_price 时直接使用；
//  2. 否则由 edge 以 0.5 公允值折算：买入 0.5+edge，卖出 0.5-edge；
//  3. 都没有时取 0.5。
//
// 0.5 公允值是当前的显式定价策略（双向结果市场围绕 0.5 对称），
// 换更一般的公允值模型时只改这一处。
func TargetPrice(sig *domain.Signal) float64 {
	if v, ok := sig.ExplanationFloat("target_price"); ok {
		return v
	}
	if edge, ok := sig.ExplanationFloat("edge"); ok {
		if sig.Action == domain.ActionSell {
			return 0.5 - edge
		}
		return 0.5 + edge
	}
	return 0.5
}
