package model

import "time"

type InventoryMovementType string

const (
	// 決済承認時の在庫減算
	MovementOrderConfirm InventoryMovementType = "ORDER_CONFIRM"
	// キャンセル・返金時の在庫戻し
	MovementOrderCancelRestore InventoryMovementType = "ORDER_CANCEL_RESTORE"
	// 管理者による在庫の手動設定
	MovementManualAdjustment InventoryMovementType = "MANUAL_ADJUSTMENT"
)

// 在庫の増減履歴（追記のみ、更新・削除しない）。
// (order_item_id, type) の行があれば、その在庫調整は適用済み。
type InventoryMovement struct {
	ID          string                `gorm:"type:varchar(36);primaryKey" json:"id"`
	ProductID   string                `gorm:"type:varchar(36);not null;index" json:"product_id"`
	OrderItemID *string               `gorm:"type:varchar(36);uniqueIndex:ux_inventory_movements_item_type,priority:1" json:"order_item_id"`
	Type        InventoryMovementType `gorm:"type:varchar(32);not null;uniqueIndex:ux_inventory_movements_item_type,priority:2" json:"type"`
	Delta       int64                 `gorm:"not null" json:"delta"`
	Reason      string                `gorm:"type:varchar(255);not null" json:"reason"`

	CreatedByAdminID *string   `gorm:"type:varchar(36);index" json:"created_by_admin_id"`
	CreatedAt        time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
