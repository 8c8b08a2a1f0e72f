package handler

import (
	"errors"
	"io"
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// 通知bodyの上限。超えたものは切り詰めずに413で拒否する
const maxWebhookBody = "1M"

type WebhookHandler struct {
	uc *usecase.WebhookUsecase
}

func NewWebhookHandler(uc *usecase.WebhookUsecase) *WebhookHandler {
	return &WebhookHandler{uc: uc}
}

func (h *WebhookHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/webhooks/mercadopago", h.mercadopago, echomw.BodyLimit(maxWebhookBody))
}

// 受付台帳に記録できた通知には常に200を返す（結果はreasonで返す）
func (h *WebhookHandler) mercadopago(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if errors.Is(err, echo.ErrStatusRequestEntityTooLarge) {
		return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "body too large"})
	}
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	res, err := h.uc.Handle(c.Request().Context(), usecase.WebhookRequest{
		Query:           c.QueryParams(),
		Body:            body,
		SignatureHeader: c.Request().Header.Get("x-signature"),
		RequestIDHeader: c.Request().Header.Get("x-request-id"),
	})
	if err != nil {
		// 記録できなかったので再送してもらう
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}

	return c.JSON(http.StatusOK, res)
}
