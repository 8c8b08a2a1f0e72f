package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// 公開の注文照会（public_codeで引く）
type OrderUsecase struct {
	orders repo.OrderRepository
}

func NewOrderUsecase(orders repo.OrderRepository) *OrderUsecase {
	return &OrderUsecase{orders: orders}
}

type OrderItemOutput struct {
	ID        string  `json:"id"`
	ProductID *string `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice int64   `json:"unit_price"`
	Quantity  int64   `json:"quantity"`
	LineTotal int64   `json:"line_total"`
}

type OrderOutput struct {
	ID               string            `json:"id"`
	PublicCode       string            `json:"public_code"`
	Status           string            `json:"status"`
	StatusLabel      string            `json:"status_label"`
	CustomerName     string            `json:"customer_name"`
	CustomerEmail    string            `json:"customer_email"`
	CustomerWhatsapp string            `json:"customer_whatsapp"`
	PickupNotes      string            `json:"pickup_notes"`
	Currency         string            `json:"currency"`
	SubtotalAmount   int64             `json:"subtotal_amount"`
	TotalAmount      int64             `json:"total_amount"`
	MPPaymentID      *string           `json:"mp_payment_id"`
	PaidAt           *time.Time        `json:"paid_at"`
	CreatedAt        time.Time         `json:"created_at"`
	Items            []OrderItemOutput `json:"items"`
}

func (u *OrderUsecase) GetByPublicCode(ctx context.Context, publicCode string) (OrderOutput, error) {
	code := strings.ToUpper(strings.TrimSpace(publicCode))
	if !model.IsPublicOrderCode(code) {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	o, err := u.orders.FindByPublicCode(ctx, code)
	if err == repo.ErrNotFound {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toOrderOutput(o), nil
}

func toOrderOutput(o model.Order) OrderOutput {
	items := make([]OrderItemOutput, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemOutput{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			UnitPrice: it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal,
		})
	}

	return OrderOutput{
		ID:               o.ID,
		PublicCode:       o.PublicCode,
		Status:           string(o.Status),
		StatusLabel:      o.Status.Label(),
		CustomerName:     o.CustomerName,
		CustomerEmail:    o.CustomerEmail,
		CustomerWhatsapp: o.CustomerWhatsapp,
		PickupNotes:      o.PickupNotes,
		Currency:         o.Currency,
		SubtotalAmount:   o.SubtotalAmount,
		TotalAmount:      o.TotalAmount,
		MPPaymentID:      o.MPPaymentID,
		PaidAt:           o.PaidAt,
		CreatedAt:        o.CreatedAt,
		Items:            items,
	}
}
