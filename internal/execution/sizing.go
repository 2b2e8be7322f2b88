package execution

import "github.com/shopspring/decimal"

// Sizing 下单规模配置（每个执行引擎实例固定不变）。
type Sizing struct {
	BaseSize          float64
	ConfidenceScaling bool
	MinSize           float64
	MaxSize           float64
}

// DefaultSizing 默认规模配置。
func DefaultSizing() Sizing {
	return Sizing{
		BaseSize:          10.0,
		ConfidenceScaling: true,
		MinSize:           1.0,
		MaxSize:           100.0,
	}
}

// confidenceFactor 置信度缩放因子：在 [0.6, 1.0] 上从 0.5x 线性到 2.0x，
// 域外截断到 [0.5, 2.0]（低于 0.6 不外推为负，截断到 0.5x）。
func confidenceFactor(confidence float64) float64 {
	f := 0.5 + (confidence-0.6)*3.75
	if f < 0.5 {
		return 0.5
	}
	if f > 2.0 {
		return 2.0
	}
	return f
}

// ComputeSize 纯函数：信号置信度 + 策略上限 -> 有界下单规模，保留两位小数。
// 越界输入一律截断，从不失败——拒绝是风控引擎的职责，不是这里的。
func ComputeSize(confidence float64, strategyCap float64, cfg Sizing) float64 {
	size := cfg.BaseSize
	if cfg.ConfidenceScaling {
		size *= confidenceFactor(confidence)
	}
	if strategyCap > 0 && size > strategyCap {
		size = strategyCap
	}
	if size < cfg.MinSize {
		size = cfg.MinSize
	}
	if size > cfg.MaxSize {
		size = cfg.MaxSize
	}
	rounded, _ := decimal.NewFromFloat(size).Round(2).Float64()
	return rounded
}
