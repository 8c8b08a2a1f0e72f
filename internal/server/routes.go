package server

import (
	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/repository"

	"github.com/labstack/echo/v4"
)

// Handlers はルート登録に必要なhandlerの束
type Handlers struct {
	Health       *handler.HealthHandler
	Webhook      *handler.WebhookHandler
	Checkout     *handler.CheckoutHandler
	Order        *handler.OrderHandler
	Product      *handler.ProductHandler
	Auth         *handler.AuthHandler
	AdminOrder   *handler.AdminOrderHandler
	AdminProduct *handler.AdminProductHandler
	AdminUser    *handler.AdminUserHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository, h Handlers) {
	h.Health.RegisterRoutes(e)

	//公開API
	h.Webhook.RegisterRoutes(e)
	h.Checkout.RegisterRoutes(e)
	h.Order.RegisterRoutes(e)
	h.Product.RegisterRoutes(e)

	//管理API（JWT + token_version + ADMIN）
	h.Auth.RegisterRoutes(e, cfg, userRepo)
	h.AdminOrder.RegisterRoutes(e, cfg, userRepo)
	h.AdminProduct.RegisterRoutes(e, cfg, userRepo)
	h.AdminUser.RegisterRoutes(e)
}
