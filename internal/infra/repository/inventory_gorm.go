package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 論理削除済みの商品も在庫は動かす（既存注文の戻しがあるため）
func (r *InventoryGormRepository) products(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Unscoped().Model(&model.Product{})
}

// 在庫の現在値を設定し、変更前の値を返す
func (r *InventoryGormRepository) SetStock(ctx context.Context, productID string, newStock int64) (int64, error) {
	var before int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", productID).
			First(&p).Error; err != nil {
			if isNotFound(err) {
				return repo.ErrNotFound
			}
			return err
		}
		before = p.Stock

		return tx.Model(&model.Product{}).
			Where("id = ?", productID).
			Update("stock", newStock).Error
	})
	if err != nil {
		return 0, err
	}
	return before, nil
}

// 在庫が足りるときだけ減らす
func (r *InventoryGormRepository) DecreaseStockIfEnough(ctx context.Context, productID string, qty int64) (bool, error) {
	res := r.products(ctx).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

// 在庫戻し（キャンセル）
func (r *InventoryGormRepository) IncreaseStock(ctx context.Context, productID string, qty int64) error {
	res := r.products(ctx).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", qty))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *InventoryGormRepository) HasMovement(ctx context.Context, orderItemID string, movementType model.InventoryMovementType) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.InventoryMovement{}).
		Where("order_item_id = ? AND type = ?", orderItemID, movementType).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// 履歴作成
func (r *InventoryGormRepository) CreateMovement(ctx context.Context, movement model.InventoryMovement) error {
	if err := r.db.WithContext(ctx).Create(&movement).Error; err != nil {
		return err
	}
	return nil
}

func (r *InventoryGormRepository) ListMovementsByOrderItem(ctx context.Context, orderItemID string) ([]model.InventoryMovement, error) {
	var out []model.InventoryMovement
	err := r.db.WithContext(ctx).
		Where("order_item_id = ?", orderItemID).
		Order("created_at asc").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
