package repository_test

import (
	"context"
	"testing"

	"storefront/internal/domain/model"
	infraRepo "storefront/internal/infra/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedProduct(t *testing.T, db *gorm.DB, name string, price, stock int64) model.Product {
	t.Helper()
	p := model.Product{
		ID:       uuid.NewString(),
		Name:     name,
		Price:    price,
		Stock:    stock,
		IsActive: true,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

// 商品IDごとに指定数量の明細を持つPENDING_PAYMENTの注文
func seedOrder(t *testing.T, db *gorm.DB, qty map[string]int64) model.Order {
	t.Helper()
	code, err := model.GeneratePublicOrderCode()
	require.NoError(t, err)

	o := model.Order{
		ID:               uuid.NewString(),
		PublicCode:       code,
		Status:           model.OrderStatusPendingPayment,
		CustomerName:     "Ana",
		CustomerEmail:    "ana@example.com",
		CustomerWhatsapp: "+5491100000000",
		Currency:         model.CurrencyARS,
	}
	for productID, q := range qty {
		pid := productID
		o.Items = append(o.Items, model.OrderItem{
			ID:                  uuid.NewString(),
			ProductID:           &pid,
			ProductNameSnapshot: "item",
			UnitPriceSnapshot:   100,
			Quantity:            q,
			LineTotal:           100 * q,
		})
	}
	o.SubtotalAmount = o.ItemsTotal()
	o.TotalAmount = o.SubtotalAmount

	require.NoError(t, infraRepo.NewOrderGormRepository(db).Create(context.Background(), &o))
	return o
}

func stockOf(t *testing.T, db *gorm.DB, productID string) int64 {
	t.Helper()
	var p model.Product
	require.NoError(t, db.Unscoped().Where("id = ?", productID).First(&p).Error)
	return p.Stock
}
