package model

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentProcessStatus string

const (
	PaymentEventReceived  PaymentProcessStatus = "RECEIVED"
	PaymentEventProcessed PaymentProcessStatus = "PROCESSED"
	PaymentEventIgnored   PaymentProcessStatus = "IGNORED"
	PaymentEventError     PaymentProcessStatus = "ERROR"
)

const PaymentProviderMercadoPago = "MERCADO_PAGO"

// 決済プロバイダから届いた通知1件。
// external_event_idでユニーク。再送は行を増やさず上書きする
type PaymentEvent struct {
	ID              string               `gorm:"type:varchar(36);primaryKey" json:"id"`
	Provider        string               `gorm:"type:varchar(32);not null" json:"provider"`
	ExternalEventID string               `gorm:"type:varchar(191);not null;uniqueIndex" json:"external_event_id"`
	EventType       string               `gorm:"type:varchar(64);not null" json:"event_type"`
	PayloadJSON     datatypes.JSON       `gorm:"not null" json:"payload_json"`
	ProcessStatus   PaymentProcessStatus `gorm:"type:varchar(16);not null;index" json:"process_status"`
	Reason          string               `gorm:"type:varchar(191)" json:"reason"`

	// 再処理のたびに+1（取り合いの判定に使う）
	Attempts int `gorm:"not null" json:"attempts"`

	OrderID     *string    `gorm:"type:varchar(36);index" json:"order_id"`
	ProcessedAt *time.Time `json:"processed_at"`
	CreatedAt   time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}
