package repository_test

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain/model"
	infraRepo "storefront/internal/infra/repository"
	repo "storefront/internal/repository"
	"storefront/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderRepository_CreateAndFind(t *testing.T) {
	db := testutil.NewDB(t)
	r := infraRepo.NewOrderGormRepository(db)
	ctx := context.Background()
	p := seedProduct(t, db, "Alfajor", 100, 5)
	o := seedOrder(t, db, map[string]int64{p.ID: 2})

	got, err := r.FindByPublicCode(ctx, o.PublicCode)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(2), got.Items[0].Quantity)

	got, err = r.FindByIDForUpdate(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPendingPayment, got.Status)

	_, err = r.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestOrderRepository_DuplicatePublicCode(t *testing.T) {
	db := testutil.NewDB(t)
	r := infraRepo.NewOrderGormRepository(db)
	ctx := context.Background()
	o := seedOrder(t, db, nil)

	dup := model.Order{
		ID:               uuid.NewString(),
		PublicCode:       o.PublicCode,
		Status:           model.OrderStatusPendingPayment,
		CustomerName:     "Beto",
		CustomerEmail:    "beto@example.com",
		CustomerWhatsapp: "+5491100000001",
		Currency:         model.CurrencyARS,
	}
	assert.ErrorIs(t, r.Create(ctx, &dup), repo.ErrDuplicatePublicCode)
}

func TestOrderRepository_Updates(t *testing.T) {
	db := testutil.NewDB(t)
	r := infraRepo.NewOrderGormRepository(db)
	ctx := context.Background()
	o := seedOrder(t, db, nil)

	paidAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, r.MarkPaid(ctx, o.ID, "mp-1", paidAt))
	require.NoError(t, r.SetPreferenceID(ctx, o.ID, "pref-1"))

	got, err := r.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, got.Status)
	require.NotNil(t, got.MPPaymentID)
	assert.Equal(t, "mp-1", *got.MPPaymentID)
	require.NotNil(t, got.MPPreferenceID)
	assert.Equal(t, "pref-1", *got.MPPreferenceID)
	require.NotNil(t, got.PaidAt)
	assert.True(t, paidAt.Equal(*got.PaidAt))

	require.NoError(t, r.UpdateStatusWithPayment(ctx, o.ID, model.OrderStatusCancelled, "mp-2"))
	got, err = r.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, got.Status)
	assert.Equal(t, "mp-2", *got.MPPaymentID)

	assert.ErrorIs(t, r.UpdateStatus(ctx, "missing", model.OrderStatusPaid), repo.ErrNotFound)
}

func TestOrderRepository_DeleteIfPending(t *testing.T) {
	db := testutil.NewDB(t)
	r := infraRepo.NewOrderGormRepository(db)
	ctx := context.Background()
	p := seedProduct(t, db, "Alfajor", 100, 5)

	pending := seedOrder(t, db, map[string]int64{p.ID: 1})
	deleted, err := r.DeleteIfPending(ctx, pending.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = r.FindByID(ctx, pending.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	var items int64
	require.NoError(t, db.Model(&model.OrderItem{}).Where("order_id = ?", pending.ID).Count(&items).Error)
	assert.Zero(t, items)

	// 支払い済みは消さない
	paid := seedOrder(t, db, map[string]int64{p.ID: 1})
	require.NoError(t, r.UpdateStatus(ctx, paid.ID, model.OrderStatusPaid))
	deleted, err = r.DeleteIfPending(ctx, paid.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
	_, err = r.FindByID(ctx, paid.ID)
	assert.NoError(t, err)
}

func TestOrderRepository_ListAdmin(t *testing.T) {
	db := testutil.NewDB(t)
	r := infraRepo.NewOrderGormRepository(db)
	ctx := context.Background()

	first := seedOrder(t, db, nil)
	second := seedOrder(t, db, nil)
	require.NoError(t, db.Model(&model.Order{}).Where("id = ?", first.ID).
		Update("created_at", time.Now().Add(-time.Hour)).Error)
	require.NoError(t, r.UpdateStatus(ctx, second.ID, model.OrderStatusPaid))

	all, total, err := r.ListAdmin(ctx, repo.AdminOrderListFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	paid, total, err := r.ListAdmin(ctx, repo.AdminOrderListFilter{Page: 1, Limit: 10, Status: string(model.OrderStatusPaid)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, paid, 1)
	assert.Equal(t, second.ID, paid[0].ID)
}
