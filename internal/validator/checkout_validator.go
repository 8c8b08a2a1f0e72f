package validator

import (
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"storefront/internal/usecase"
)

var whatsappPattern = regexp.MustCompile(`^\+?[0-9]{6,32}$`)

type checkoutValidator struct{}

// Usecaseは interface を依存注入
func NewCheckoutValidator() usecase.CheckoutValidator {
	return &checkoutValidator{}
}

// チェックアウトの入力を検証（最初に見つかった不備だけ返す）
func (v *checkoutValidator) ValidateCheckout(in usecase.CheckoutInput) error {
	name := strings.TrimSpace(in.CustomerName)
	if n := utf8.RuneCountInString(name); n < 2 || n > 120 {
		return usecase.NewHTTPError(http.StatusBadRequest, "customerName must be 2..120 characters")
	}

	if !isEmailLike(strings.TrimSpace(in.CustomerEmail)) {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid customerEmail")
	}

	if !whatsappPattern.MatchString(strings.TrimSpace(in.CustomerWhatsapp)) {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid customerWhatsapp")
	}

	if utf8.RuneCountInString(in.PickupNotes) > 400 {
		return usecase.NewHTTPError(http.StatusBadRequest, "pickupNotes too long")
	}

	if len(in.Items) == 0 {
		return usecase.NewHTTPError(http.StatusBadRequest, "items required")
	}
	for _, it := range in.Items {
		if strings.TrimSpace(it.ProductID) == "" {
			return usecase.NewHTTPError(http.StatusBadRequest, "productId required")
		}
		if it.Quantity <= 0 {
			return usecase.NewHTTPError(http.StatusBadRequest, "quantity must be > 0")
		}
	}

	return nil
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// 簡易メール形式をチェック
func isEmailLike(s string) bool {
	if s == "" || len(s) > 255 {
		return false
	}
	if !emailPattern.MatchString(s) {
		return false
	}
	_, err := mail.ParseAddress(s)
	return err == nil
}
