package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type InventoryRepository interface {
	// 在庫の現在値を設定し、変更前の値を返す
	SetStock(ctx context.Context, productID string, newStock int64) (int64, error)

	// 在庫が足りるときだけ減算（条件付きUPDATE1回）
	DecreaseStockIfEnough(ctx context.Context, productID string, qty int64) (bool, error)

	// 在庫戻し（キャンセルなど）
	IncreaseStock(ctx context.Context, productID string, qty int64) error

	// 明細×種別の履歴があるか
	HasMovement(ctx context.Context, orderItemID string, movementType model.InventoryMovementType) (bool, error)

	// 履歴作成
	CreateMovement(ctx context.Context, movement model.InventoryMovement) error

	ListMovementsByOrderItem(ctx context.Context, orderItemID string) ([]model.InventoryMovement, error)
}
