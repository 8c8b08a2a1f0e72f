package model

// 管理画面から許可する遷移。決済通知側はこの表を使わない（usecase参照）
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPendingPayment: {OrderStatusCancelled},
	OrderStatusPaid:           {OrderStatusReadyForPickup, OrderStatusCancelled},
	OrderStatusReadyForPickup: {OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusCompleted:      {},
	OrderStatusCancelled:      {},
	OrderStatusPaymentFailed:  {OrderStatusCancelled},
}

var orderStatusLabels = map[OrderStatus]string{
	OrderStatusPendingPayment: "Pago pendiente",
	OrderStatusPaid:           "Pagado",
	OrderStatusReadyForPickup: "Listo para retirar",
	OrderStatusCompleted:      "Completado",
	OrderStatusCancelled:      "Cancelado",
	OrderStatusPaymentFailed:  "Pago fallido",
}

// 全ステータス（表示順）
var AllOrderStatuses = []OrderStatus{
	OrderStatusPendingPayment,
	OrderStatusPaid,
	OrderStatusReadyForPickup,
	OrderStatusCompleted,
	OrderStatusCancelled,
	OrderStatusPaymentFailed,
}

func IsValidOrderStatus(s OrderStatus) bool {
	_, ok := orderTransitions[s]
	return ok
}

// 同じステータスへの遷移は常にOK（何もしない）
func CanTransitionOrderStatus(current, next OrderStatus) bool {
	if current == next {
		return true
	}
	for _, s := range orderTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

func AllowedTransitions(current OrderStatus) []OrderStatus {
	out := make([]OrderStatus, len(orderTransitions[current]))
	copy(out, orderTransitions[current])
	return out
}

func (s OrderStatus) Label() string {
	if l, ok := orderStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

// 在庫がすでに引かれている状態か
func (s OrderStatus) HasDiscountedStock() bool {
	switch s {
	case OrderStatusPaid, OrderStatusReadyForPickup, OrderStatusCompleted:
		return true
	}
	return false
}
