package usecase

import (
	"context"

	"storefront/internal/domain/model"
)

// 決済プロバイダ側の支払い情報（必要な項目だけ）
type Payment struct {
	ID                string
	Status            string
	StatusDetail      string
	ExternalReference string
	Metadata          map[string]interface{}
}

type PreferenceItem struct {
	Title      string
	Quantity   int64
	UnitPrice  float64
	CurrencyID string
}

type BackURLs struct {
	Success string
	Failure string
	Pending string
}

type PreferenceInput struct {
	ExternalReference string
	Items             []PreferenceItem
	PayerName         string
	PayerEmail        string
	BackURLs          BackURLs
	NotificationURL   string
	Metadata          map[string]interface{}
}

type Preference struct {
	ID               string
	InitPoint        string
	SandboxInitPoint string
}

// Mercado Pago APIの約束
type PaymentGateway interface {
	GetPayment(ctx context.Context, paymentID string) (Payment, error)
	CreatePreference(ctx context.Context, in PreferenceInput) (Preference, error)
}

// 注文イベントの送信先（Kafkaなど）
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, ev model.OrderEvent) error
}
