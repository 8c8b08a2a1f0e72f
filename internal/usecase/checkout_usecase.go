package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/metrics"
	repo "storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// public_codeが衝突したときの作り直し回数
const maxPublicCodeAttempts = 5

type CheckoutItemInput struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

type CheckoutInput struct {
	CustomerName     string              `json:"customerName"`
	CustomerEmail    string              `json:"customerEmail"`
	CustomerWhatsapp string              `json:"customerWhatsapp"`
	PickupNotes      string              `json:"pickupNotes"`
	Items            []CheckoutItemInput `json:"items"`
}

type CheckoutOutput struct {
	InitPoint        string  `json:"initPoint"`
	SandboxInitPoint *string `json:"sandboxInitPoint"`
	OrderPublicCode  string  `json:"orderPublicCode"`
}

// 入力チェックの約束（validatorパッケージが実装）
type CheckoutValidator interface {
	ValidateCheckout(in CheckoutInput) error
}

type CheckoutUsecase struct {
	products  repo.ProductRepository
	orders    repo.OrderRepository
	payments  PaymentGateway
	validator CheckoutValidator
	appURL    string
	log       *zap.Logger

	newPublicCode func() (string, error)
	now           func() time.Time
}

func NewCheckoutUsecase(
	products repo.ProductRepository,
	orders repo.OrderRepository,
	payments PaymentGateway,
	validator CheckoutValidator,
	appURL string,
	log *zap.Logger,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		products:      products,
		orders:        orders,
		payments:      payments,
		validator:     validator,
		appURL:        strings.TrimRight(appURL, "/"),
		log:           log,
		newPublicCode: model.GeneratePublicOrderCode,
		now:           time.Now,
	}
}

// 注文をPENDING_PAYMENTで作り、Mercado Pagoの決済設定を作る。
// 決済設定の作成に失敗したら注文は消す（まだ通知が来ていないので安全）
func (u *CheckoutUsecase) CreatePreference(ctx context.Context, in CheckoutInput) (CheckoutOutput, error) {
	if err := u.validator.ValidateCheckout(in); err != nil {
		return CheckoutOutput{}, err
	}

	// 同じ商品はまとめる（入力順は保つ）
	quantityByProduct := map[string]int64{}
	var productIDs []string
	for _, it := range in.Items {
		if _, ok := quantityByProduct[it.ProductID]; !ok {
			productIDs = append(productIDs, it.ProductID)
		}
		quantityByProduct[it.ProductID] += it.Quantity
	}

	products, err := u.products.FindActiveByIDs(ctx, productIDs)
	if err != nil {
		return CheckoutOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if len(products) != len(productIDs) {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "Some products are no longer available.")
	}

	productByID := make(map[string]model.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	orderID := uuid.NewString()
	now := u.now()
	items := make([]model.OrderItem, 0, len(productIDs))
	var subtotal int64

	for _, id := range productIDs {
		p, ok := productByID[id]
		if !ok {
			return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "Invalid product in cart.")
		}
		qty := quantityByProduct[id]
		// ここでは確認だけ。実際の減算は決済承認時
		if qty > p.Stock {
			return CheckoutOutput{}, NewHTTPError(http.StatusConflict, fmt.Sprintf("Stock insuficiente para %s.", p.Name))
		}

		productID := p.ID
		items = append(items, model.OrderItem{
			ID:                  uuid.NewString(),
			OrderID:             orderID,
			ProductID:           &productID,
			ProductNameSnapshot: p.Name,
			UnitPriceSnapshot:   p.Price,
			Quantity:            qty,
			LineTotal:           p.Price * qty,
			CreatedAt:           now,
		})
		subtotal += p.Price * qty
	}

	order := model.Order{
		ID:               orderID,
		Status:           model.OrderStatusPendingPayment,
		CustomerName:     strings.TrimSpace(in.CustomerName),
		CustomerEmail:    strings.TrimSpace(in.CustomerEmail),
		CustomerWhatsapp: strings.TrimSpace(in.CustomerWhatsapp),
		PickupNotes:      strings.TrimSpace(in.PickupNotes),
		Currency:         model.CurrencyARS,
		SubtotalAmount:   subtotal,
		TotalAmount:      subtotal,
		Items:            items,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := u.createWithPublicCode(ctx, &order); err != nil {
		u.log.Error("failed to create order", zap.Error(err))
		return CheckoutOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	metrics.OrdersCreatedTotal.Inc()

	pref, err := u.payments.CreatePreference(ctx, u.preferenceInput(order))
	if err != nil {
		u.log.Error("failed to create payment preference",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
		u.discardPendingOrder(ctx, order.ID)
		return CheckoutOutput{}, NewHTTPError(http.StatusBadGateway, "No se pudo iniciar el pago con Mercado Pago.")
	}

	if err := u.orders.SetPreferenceID(ctx, order.ID, pref.ID); err != nil {
		u.log.Error("failed to store preference id",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
		u.discardPendingOrder(ctx, order.ID)
		return CheckoutOutput{}, NewHTTPError(http.StatusBadGateway, "No se pudo iniciar el pago con Mercado Pago.")
	}

	out := CheckoutOutput{
		InitPoint:       pref.InitPoint,
		OrderPublicCode: order.PublicCode,
	}
	if pref.SandboxInitPoint != "" {
		sandbox := pref.SandboxInitPoint
		out.SandboxInitPoint = &sandbox
	}
	return out, nil
}

func (u *CheckoutUsecase) createWithPublicCode(ctx context.Context, order *model.Order) error {
	var lastErr error
	for i := 0; i < maxPublicCodeAttempts; i++ {
		code, err := u.newPublicCode()
		if err != nil {
			return err
		}
		order.PublicCode = code

		lastErr = u.orders.Create(ctx, order)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, repo.ErrDuplicatePublicCode) {
			return lastErr
		}
	}
	return fmt.Errorf("public code collision after %d attempts: %w", maxPublicCodeAttempts, lastErr)
}

// 通知がすでに来て状態が進んでいれば消さない
func (u *CheckoutUsecase) discardPendingOrder(ctx context.Context, orderID string) {
	deleted, err := u.orders.DeleteIfPending(ctx, orderID)
	if err != nil {
		u.log.Error("failed to delete pending order", zap.String("order_id", orderID), zap.Error(err))
		return
	}
	if !deleted {
		u.log.Warn("order left in place, no longer pending", zap.String("order_id", orderID))
	}
}

func (u *CheckoutUsecase) preferenceInput(o model.Order) PreferenceInput {
	items := make([]PreferenceItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, PreferenceItem{
			Title:      it.ProductNameSnapshot,
			Quantity:   it.Quantity,
			UnitPrice:  float64(it.UnitPriceSnapshot) / 100,
			CurrencyID: model.CurrencyARS,
		})
	}

	return PreferenceInput{
		ExternalReference: o.PublicCode,
		Items:             items,
		PayerName:         o.CustomerName,
		PayerEmail:        o.CustomerEmail,
		BackURLs: BackURLs{
			Success: u.appURL + "/checkout/success?order=" + o.PublicCode,
			Failure: u.appURL + "/checkout/failure?order=" + o.PublicCode,
			Pending: u.appURL + "/checkout/success?order=" + o.PublicCode,
		},
		// パネル側のwebhookと重複しても external_event_id で弾かれる
		NotificationURL: u.appURL + "/api/webhooks/mercadopago",
		Metadata: map[string]interface{}{
			"orderId":         o.ID,
			"orderPublicCode": o.PublicCode,
		},
	}
}
