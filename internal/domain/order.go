package domain

import "time"

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderStatusPaper     OrderStatus = "paper"     // 纸面单（不发真实交易所）
	OrderStatusSubmitted OrderStatus = "submitted" // 已提交
	OrderStatusPending   OrderStatus = "pending"   // 已落库但外部下单未确认，等待对账
	OrderStatusCancelled OrderStatus = "cancelled" // 已取消
	OrderStatusFilled    OrderStatus = "filled"    // 已成交
)

// ExecutionOrder 一笔已提交订单的持久化记录。
// 每个被接受的信号恰好生成一条（由幂等键保证）；
// 只通过状态迁移修改，从不删除。
type ExecutionOrder struct {
	OrderID   string
	MarketID  string
	OutcomeID string
	Side      Action
	Price     float64
	Size      float64
	Status    OrderStatus
	Strategy  string
	CreatedAt time.Time
}

// IsOpen 订单是否仍处于开放状态（submitted/pending/paper）。
func (o *ExecutionOrder) IsOpen() bool {
	if o == nil {
		return false
	}
	switch o.Status {
	case OrderStatusSubmitted, OrderStatusPending, OrderStatusPaper:
		return true
	}
	return false
}
