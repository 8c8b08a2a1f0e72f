package model

import "time"

type OrderEventType string

const (
	OrderEventPaid          OrderEventType = "order.paid"
	OrderEventCancelled     OrderEventType = "order.cancelled"
	OrderEventPaymentFailed OrderEventType = "order.payment_failed"
)

// 決済通知で注文ステータスが変わったときに外へ流すイベント
type OrderEvent struct {
	Type        OrderEventType `json:"type"`
	OrderID     string         `json:"order_id"`
	PublicCode  string         `json:"public_code"`
	Status      OrderStatus    `json:"status"`
	MPPaymentID string         `json:"mp_payment_id,omitempty"`
	Reason      string         `json:"reason"`
	OccurredAt  time.Time      `json:"occurred_at"`
}
