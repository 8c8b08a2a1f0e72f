package repository_test

import (
	"context"
	"testing"

	"storefront/internal/domain/model"
	infraRepo "storefront/internal/infra/repository"
	repo "storefront/internal/repository"
	"storefront/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryRepository_DecreaseStockIfEnough(t *testing.T) {
	db := testutil.NewDB(t)
	r := infraRepo.NewInventoryGormRepository(db)
	ctx := context.Background()
	p := seedProduct(t, db, "Alfajor", 100, 3)

	ok, err := r.DecreaseStockIfEnough(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1), stockOf(t, db, p.ID))

	// 足りないときは何もしない
	ok, err = r.DecreaseStockIfEnough(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(1), stockOf(t, db, p.ID))
}

func TestInventoryRepository_WorksOnSoftDeletedProduct(t *testing.T) {
	db := testutil.NewDB(t)
	r := infraRepo.NewInventoryGormRepository(db)
	ctx := context.Background()
	p := seedProduct(t, db, "Mate", 100, 1)

	require.NoError(t, infraRepo.NewProductGormRepository(db).SoftDelete(ctx, p.ID))

	require.NoError(t, r.IncreaseStock(ctx, p.ID, 4))
	assert.Equal(t, int64(5), stockOf(t, db, p.ID))

	assert.ErrorIs(t, r.IncreaseStock(ctx, "missing", 1), repo.ErrNotFound)
}

func TestInventoryRepository_SetStockReturnsBefore(t *testing.T) {
	db := testutil.NewDB(t)
	r := infraRepo.NewInventoryGormRepository(db)
	ctx := context.Background()
	p := seedProduct(t, db, "Yerba", 100, 7)

	before, err := r.SetStock(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(7), before)
	assert.Equal(t, int64(2), stockOf(t, db, p.ID))

	_, err = r.SetStock(ctx, "missing", 1)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestInventoryRepository_MovementUniquePerItemAndType(t *testing.T) {
	db := testutil.NewDB(t)
	r := infraRepo.NewInventoryGormRepository(db)
	ctx := context.Background()
	p := seedProduct(t, db, "Dulce", 100, 5)
	o := seedOrder(t, db, map[string]int64{p.ID: 1})
	itemID := o.Items[0].ID

	has, err := r.HasMovement(ctx, itemID, model.MovementOrderConfirm)
	require.NoError(t, err)
	assert.False(t, has)

	mv := model.InventoryMovement{
		ID:          uuid.NewString(),
		ProductID:   p.ID,
		OrderItemID: &itemID,
		Type:        model.MovementOrderConfirm,
		Delta:       -1,
		Reason:      "confirm",
	}
	require.NoError(t, r.CreateMovement(ctx, mv))

	has, err = r.HasMovement(ctx, itemID, model.MovementOrderConfirm)
	require.NoError(t, err)
	assert.True(t, has)

	// 同じ明細×種別の2件目はDBが拒否する
	mv.ID = uuid.NewString()
	assert.Error(t, r.CreateMovement(ctx, mv))

	// 別種別はOK
	mv.ID = uuid.NewString()
	mv.Type = model.MovementOrderCancelRestore
	mv.Delta = 1
	require.NoError(t, r.CreateMovement(ctx, mv))

	list, err := r.ListMovementsByOrderItem(ctx, itemID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
