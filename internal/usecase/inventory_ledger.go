package usecase

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/google/uuid"
)

type MovementInput struct {
	OrderItemID string
	ProductID   string
	Type        model.InventoryMovementType
	Quantity    int64
	Reason      string
	AdminID     *string
}

// 注文明細に紐づく在庫の増減。
// 明細×種別の履歴がすでにあれば何もしない（二重減算・二重戻しを防ぐ）
type InventoryLedger struct {
	now func() time.Time
}

func NewInventoryLedger() *InventoryLedger {
	return &InventoryLedger{now: time.Now}
}

func (l *InventoryLedger) HasMovement(ctx context.Context, r repo.TxRepos, orderItemID string, t model.InventoryMovementType) (bool, error) {
	return r.Inventory().HasMovement(ctx, orderItemID, t)
}

// 適用したらtrue、適用済みならfalse。
// 在庫不足はErrInsufficientStock（呼び出し側でTxごと巻き戻す）
func (l *InventoryLedger) Apply(ctx context.Context, r repo.TxRepos, in MovementInput) (bool, error) {
	if in.Quantity <= 0 {
		return false, fmt.Errorf("invalid movement quantity %d for item %s", in.Quantity, in.OrderItemID)
	}

	exists, err := l.HasMovement(ctx, r, in.OrderItemID, in.Type)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	var delta int64
	switch in.Type {
	case model.MovementOrderConfirm:
		ok, err := r.Inventory().DecreaseStockIfEnough(ctx, in.ProductID, in.Quantity)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, fmt.Errorf("%w: product %s item %s", ErrInsufficientStock, in.ProductID, in.OrderItemID)
		}
		delta = -in.Quantity
	case model.MovementOrderCancelRestore:
		if err := r.Inventory().IncreaseStock(ctx, in.ProductID, in.Quantity); err != nil {
			return false, fmt.Errorf("restore stock for product %s: %w", in.ProductID, err)
		}
		delta = in.Quantity
	default:
		return false, fmt.Errorf("unsupported movement type %s", in.Type)
	}

	itemID := in.OrderItemID
	err = r.Inventory().CreateMovement(ctx, model.InventoryMovement{
		ID:               uuid.NewString(),
		ProductID:        in.ProductID,
		OrderItemID:      &itemID,
		Type:             in.Type,
		Delta:            delta,
		Reason:           in.Reason,
		CreatedByAdminID: in.AdminID,
		CreatedAt:        l.now(),
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// 商品参照のある明細すべてに適用。適用した件数を返す
func (l *InventoryLedger) ApplyOrder(ctx context.Context, r repo.TxRepos, order model.Order, t model.InventoryMovementType, reason string, adminID *string) (int, error) {
	applied := 0
	for _, it := range order.Items {
		if !it.HasProduct() {
			continue
		}
		ok, err := l.Apply(ctx, r, MovementInput{
			OrderItemID: it.ID,
			ProductID:   *it.ProductID,
			Type:        t,
			Quantity:    it.Quantity,
			Reason:      reason,
			AdminID:     adminID,
		})
		if err != nil {
			return applied, err
		}
		if ok {
			applied++
		}
	}
	return applied, nil
}
