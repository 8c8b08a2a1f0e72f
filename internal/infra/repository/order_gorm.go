package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("created_at asc").Order("id asc")
}

func (r *OrderGormRepository) Create(ctx context.Context, order *model.Order) error {
	err := r.db.WithContext(ctx).Create(order).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repo.ErrDuplicatePublicCode
	}
	return err
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", orderID))
}

func (r *OrderGormRepository) FindByIDForUpdate(ctx context.Context, orderID string) (model.Order, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", orderID))
}

func (r *OrderGormRepository) FindByPublicCode(ctx context.Context, publicCode string) (model.Order, error) {
	return r.first(r.db.WithContext(ctx).Where("public_code = ?", publicCode))
}

func (r *OrderGormRepository) first(q *gorm.DB) (model.Order, error) {
	var o model.Order
	err := q.Preload("Items", preloadItems).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	return r.update(ctx, orderID, map[string]interface{}{
		"status": status,
	})
}

func (r *OrderGormRepository) AttachPayment(ctx context.Context, orderID string, mpPaymentID string) error {
	return r.update(ctx, orderID, map[string]interface{}{
		"mp_payment_id": mpPaymentID,
	})
}

func (r *OrderGormRepository) UpdateStatusWithPayment(ctx context.Context, orderID string, status model.OrderStatus, mpPaymentID string) error {
	return r.update(ctx, orderID, map[string]interface{}{
		"status":        status,
		"mp_payment_id": mpPaymentID,
	})
}

func (r *OrderGormRepository) MarkPaid(ctx context.Context, orderID string, mpPaymentID string, paidAt time.Time) error {
	return r.update(ctx, orderID, map[string]interface{}{
		"status":        model.OrderStatusPaid,
		"paid_at":       paidAt,
		"mp_payment_id": mpPaymentID,
	})
}

func (r *OrderGormRepository) SetPreferenceID(ctx context.Context, orderID string, preferenceID string) error {
	return r.update(ctx, orderID, map[string]interface{}{
		"mp_preference_id": preferenceID,
	})
}

func (r *OrderGormRepository) update(ctx context.Context, orderID string, values map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(values)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 明細ごと削除。PENDING_PAYMENT以外なら何もしない
func (r *OrderGormRepository) DeleteIfPending(ctx context.Context, orderID string) (bool, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o model.Order
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND status = ?", orderID, model.OrderStatusPendingPayment).
			First(&o).Error
		if err != nil {
			return err
		}

		// 明細が注文を参照しているので先に消す
		if err := tx.Where("order_id = ?", orderID).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Order{}, "id = ?", orderID).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Order{})

	//status 絞り込み
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	//期間絞り込み
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (f.Page - 1) * f.Limit
	if err := q.Preload("Items", preloadItems).
		Order("created_at desc").Order("id desc").
		Limit(f.Limit).Offset(offset).
		Find(&items).Error; err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}
