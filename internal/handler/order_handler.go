package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 購入者向け。ログイン不要で公開コードから引く
type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/orders/:publicCode", h.detail)
}

func (h *OrderHandler) detail(c echo.Context) error {
	out, err := h.uc.GetByPublicCode(c.Request().Context(), c.Param("publicCode"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
