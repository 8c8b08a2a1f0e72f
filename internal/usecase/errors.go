package usecase

import (
	"errors"
	"fmt"
	"net/http"

	"storefront/internal/domain/model"
)

type HTTPError struct {
	Status  int
	Message string
	// 原因（errors.Isで判定したいとき用）
	Err error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 条件付き減算が0件だった（在庫不足）
var ErrInsufficientStock = errors.New("insufficient stock")

// 遷移表にない変更
var ErrTransitionNotAllowed = errors.New("transition not allowed")

func transitionError(current, next model.OrderStatus) error {
	return &HTTPError{
		Status:  http.StatusConflict,
		Message: fmt.Sprintf("cannot transition from %s to %s", current, next),
		Err:     ErrTransitionNotAllowed,
	}
}
