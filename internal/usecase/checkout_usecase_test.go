package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"storefront/internal/domain/model"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/testutil"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newCheckoutUC(t *testing.T, db *gorm.DB, gw *fakeGateway) *usecase.CheckoutUsecase {
	t.Helper()
	return usecase.NewCheckoutUsecase(
		infraRepo.NewProductGormRepository(db),
		infraRepo.NewOrderGormRepository(db),
		gw,
		validator.NewCheckoutValidator(),
		"https://shop.example/",
		zaptest.NewLogger(t),
	)
}

func checkoutInput(items ...usecase.CheckoutItemInput) usecase.CheckoutInput {
	return usecase.CheckoutInput{
		CustomerName:     " Ana Pérez ",
		CustomerEmail:    "ana@example.com",
		CustomerWhatsapp: "+5491122334455",
		PickupNotes:      "Paso a la tarde",
		Items:            items,
	}
}

func countOrders(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.Order{}).Count(&n).Error)
	return n
}

func TestCheckout_CreatesPendingOrderAndPreference(t *testing.T) {
	db := testutil.NewDB(t)
	gw := newFakeGateway()
	a := seedProduct(t, db, "Alfajor", 1550, 5)
	b := seedProduct(t, db, "Mate", 9900, 2)

	out, err := newCheckoutUC(t, db, gw).CreatePreference(context.Background(), checkoutInput(
		usecase.CheckoutItemInput{ProductID: a.ID, Quantity: 1},
		usecase.CheckoutItemInput{ProductID: b.ID, Quantity: 2},
		// 同じ商品はまとめる
		usecase.CheckoutItemInput{ProductID: a.ID, Quantity: 2},
	))
	require.NoError(t, err)
	assert.True(t, model.IsPublicOrderCode(out.OrderPublicCode))
	assert.Equal(t, "https://mp.example/init/"+out.OrderPublicCode, out.InitPoint)
	require.NotNil(t, out.SandboxInitPoint)

	o, err := infraRepo.NewOrderGormRepository(db).FindByPublicCode(context.Background(), out.OrderPublicCode)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPendingPayment, o.Status)
	assert.Equal(t, "Ana Pérez", o.CustomerName)
	assert.Equal(t, int64(1550*3+9900*2), o.TotalAmount)
	assert.Equal(t, o.SubtotalAmount, o.TotalAmount)
	require.Len(t, o.Items, 2)
	require.NotNil(t, o.MPPreferenceID)
	assert.Equal(t, "pref-"+out.OrderPublicCode, *o.MPPreferenceID)

	qty := map[string]int64{}
	for _, it := range o.Items {
		qty[*it.ProductID] = it.Quantity
		assert.Equal(t, it.UnitPriceSnapshot*it.Quantity, it.LineTotal)
	}
	assert.Equal(t, map[string]int64{a.ID: 3, b.ID: 2}, qty)

	// 在庫は決済承認まで引かない
	assert.Equal(t, int64(5), stockOf(t, db, a.ID))
	assert.Equal(t, int64(2), stockOf(t, db, b.ID))

	require.Len(t, gw.prefs, 1)
	pref := gw.prefs[0]
	assert.Equal(t, out.OrderPublicCode, pref.ExternalReference)
	assert.Equal(t, "https://shop.example/api/webhooks/mercadopago", pref.NotificationURL)
	assert.Equal(t, "https://shop.example/checkout/success?order="+out.OrderPublicCode, pref.BackURLs.Success)
	assert.Equal(t, out.OrderPublicCode, pref.Metadata["orderPublicCode"])
	assert.InDelta(t, 15.5, pref.Items[0].UnitPrice, 0.0001)
}

func TestCheckout_Rejections(t *testing.T) {
	db := testutil.NewDB(t)
	gw := newFakeGateway()
	uc := newCheckoutUC(t, db, gw)
	active := seedProduct(t, db, "Alfajor", 1500, 2)
	hidden := seedProduct(t, db, "Oculto", 1500, 10)
	require.NoError(t, db.Model(&model.Product{}).Where("id = ?", hidden.ID).Update("is_active", false).Error)

	t.Run("invalid input", func(t *testing.T) {
		in := checkoutInput(usecase.CheckoutItemInput{ProductID: active.ID, Quantity: 1})
		in.CustomerEmail = "nope"
		_, err := uc.CreatePreference(context.Background(), in)
		assertHTTPStatus(t, err, http.StatusBadRequest)
	})

	t.Run("inactive product", func(t *testing.T) {
		_, err := uc.CreatePreference(context.Background(), checkoutInput(usecase.CheckoutItemInput{ProductID: hidden.ID, Quantity: 1}))
		assertHTTPStatus(t, err, http.StatusBadRequest)
		assertErrContains(t, err, "no longer available")
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := uc.CreatePreference(context.Background(), checkoutInput(usecase.CheckoutItemInput{ProductID: "missing", Quantity: 1}))
		assertHTTPStatus(t, err, http.StatusBadRequest)
	})

	t.Run("not enough stock after merging", func(t *testing.T) {
		_, err := uc.CreatePreference(context.Background(), checkoutInput(
			usecase.CheckoutItemInput{ProductID: active.ID, Quantity: 2},
			usecase.CheckoutItemInput{ProductID: active.ID, Quantity: 1},
		))
		assertHTTPStatus(t, err, http.StatusConflict)
		assertErrContains(t, err, "Stock insuficiente para Alfajor")
	})

	assert.Zero(t, countOrders(t, db))
	assert.Empty(t, gw.prefs)
}

func TestCheckout_PreferenceFailureDiscardsOrder(t *testing.T) {
	db := testutil.NewDB(t)
	gw := newFakeGateway()
	gw.prefErr = errors.New("mercadopago: 500")
	a := seedProduct(t, db, "Alfajor", 1500, 2)

	_, err := newCheckoutUC(t, db, gw).CreatePreference(context.Background(), checkoutInput(usecase.CheckoutItemInput{ProductID: a.ID, Quantity: 1}))
	assertHTTPStatus(t, err, http.StatusBadGateway)

	assert.Zero(t, countOrders(t, db))
	var items int64
	require.NoError(t, db.Model(&model.OrderItem{}).Count(&items).Error)
	assert.Zero(t, items)
	assert.Len(t, gw.prefs, 1)
}

func TestOrderUsecase_GetByPublicCode(t *testing.T) {
	db := testutil.NewDB(t)
	a := seedProduct(t, db, "Alfajor", 1500, 2)
	o := seedOrder(t, db, model.OrderStatusPaid, line{a, 2})
	uc := usecase.NewOrderUsecase(infraRepo.NewOrderGormRepository(db))

	// 小文字・前後の空白は許す
	out, err := uc.GetByPublicCode(context.Background(), "  "+strings.ToLower(o.PublicCode)+" ")
	require.NoError(t, err)
	assert.Equal(t, o.ID, out.ID)
	assert.Equal(t, "PAID", out.Status)
	assert.Equal(t, "Pagado", out.StatusLabel)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "Alfajor", out.Items[0].Name)
	assert.Equal(t, int64(3000), out.Items[0].LineTotal)

	_, err = uc.GetByPublicCode(context.Background(), "not-a-code")
	assertHTTPStatus(t, err, http.StatusNotFound)

	_, err = uc.GetByPublicCode(context.Background(), model.PublicCodePrefix+"ABCDEFGH")
	assertHTTPStatus(t, err, http.StatusNotFound)
}
