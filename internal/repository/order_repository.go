package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/model"
)

// public_codeの衝突
var ErrDuplicatePublicCode = errors.New("duplicate public code")

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	From   *time.Time
	To     *time.Time
}

// 取得系はすべて明細(items)込みで返す
type OrderRepository interface {
	//明細ごと作成（IDは呼び出し側で採番）
	Create(ctx context.Context, order *model.Order) error

	FindByID(ctx context.Context, orderID string) (model.Order, error)
	//行ロックをとって取得（Tx内で使う）
	FindByIDForUpdate(ctx context.Context, orderID string) (model.Order, error)
	FindByPublicCode(ctx context.Context, publicCode string) (model.Order, error)

	UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) error
	//決済IDだけ付ける
	AttachPayment(ctx context.Context, orderID string, mpPaymentID string) error
	UpdateStatusWithPayment(ctx context.Context, orderID string, status model.OrderStatus, mpPaymentID string) error
	MarkPaid(ctx context.Context, orderID string, mpPaymentID string, paidAt time.Time) error
	SetPreferenceID(ctx context.Context, orderID string, preferenceID string) error

	//PENDING_PAYMENTの間だけ削除できる
	DeleteIfPending(ctx context.Context, orderID string) (bool, error)

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}
