package model

import "time"

type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	OrderStatusPaid           OrderStatus = "PAID"
	OrderStatusReadyForPickup OrderStatus = "READY_FOR_PICKUP"
	OrderStatusCompleted      OrderStatus = "COMPLETED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
	OrderStatusPaymentFailed  OrderStatus = "PAYMENT_FAILED"
)

// 通貨は現状ARSのみ
const CurrencyARS = "ARS"

// 1回の購入。金額はすべてセント（整数）で持つ
type Order struct {
	ID               string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	PublicCode       string      `gorm:"type:varchar(32);not null;uniqueIndex" json:"public_code"`
	Status           OrderStatus `gorm:"type:varchar(32);not null;index" json:"status"`
	CustomerName     string      `gorm:"type:varchar(120);not null" json:"customer_name"`
	CustomerEmail    string      `gorm:"type:varchar(255);not null" json:"customer_email"`
	CustomerWhatsapp string      `gorm:"type:varchar(40);not null" json:"customer_whatsapp"`
	PickupNotes      string      `gorm:"type:varchar(400)" json:"pickup_notes"`
	Currency         string      `gorm:"type:varchar(3);not null" json:"currency"`
	SubtotalAmount   int64       `gorm:"not null" json:"subtotal_amount"`
	TotalAmount      int64       `gorm:"not null" json:"total_amount"`

	// Mercado Pago側の参照
	MPPaymentID    *string `gorm:"type:varchar(64);index" json:"mp_payment_id"`
	MPPreferenceID *string `gorm:"type:varchar(128)" json:"mp_preference_id"`

	PaidAt    *time.Time  `json:"paid_at"`
	Items     []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time   `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 明細の合計
func (o Order) ItemsTotal() int64 {
	var sum int64
	for _, it := range o.Items {
		sum += it.LineTotal
	}
	return sum
}
