package validator

import (
	"net/http"
	"strings"

	"storefront/internal/usecase"
)

// ログインの入力を検証
func ValidateLogin(email string, password string) error {
	email = strings.TrimSpace(email)

	// 必須チェック
	if email == "" || password == "" {
		return usecase.NewHTTPError(http.StatusBadRequest, "email and password required")
	}

	// email形式
	if !isEmailLike(email) {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid email")
	}

	if len(password) < 6 || len(password) > 128 {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid password")
	}

	return nil
}
