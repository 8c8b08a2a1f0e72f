package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type PaymentEventInput struct {
	Provider        string
	ExternalEventID string
	EventType       string
	Payload         []byte
}

// 登録結果。
// Duplicate=false: 初見 / Duplicate&&Reprocessed: 再処理する / Duplicate&&!Reprocessed: 処理しない
type EventRegistration struct {
	Duplicate   bool
	Reprocessed bool
	PriorStatus model.PaymentProcessStatus
}

// 決済通知の受付台帳（external_event_idでユニーク）
type PaymentEventRepository interface {
	RegisterOrUpdate(ctx context.Context, in PaymentEventInput) (EventRegistration, error)
	MarkProcessed(ctx context.Context, externalEventID string, status model.PaymentProcessStatus, reason string, orderID *string) error
	FindByExternalID(ctx context.Context, externalEventID string) (model.PaymentEvent, error)
}
