package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/metrics"
	repo "storefront/internal/repository"
	"storefront/internal/webhook"

	"go.uber.org/zap"
)

const (
	reasonDuplicateProcessed = "duplicate_already_processed"
	reasonDuplicateInFlight  = "duplicate_in_flight"
	reasonMissingPaymentID   = "missing_payment_id"
	reasonMissingPublicCode  = "missing_public_code"
	reasonOrderNotFound      = "order_not_found"
	reasonOrderNotFoundOnCxl = "order_not_found_on_cancel"
	reasonAlreadyFinalized   = "approved_order_already_finalized"
	reasonMarkedPaid         = "approved_order_marked_paid"
	reasonStockConflict      = "stock_conflict_cancelled"
	reasonException          = "exception_processing_payment"
)

const finalWriteTimeout = 5 * time.Second

// 決済通知1件分の入力（HTTPに依存しない形）
type WebhookRequest struct {
	Query           url.Values
	Body            []byte
	SignatureHeader string
	RequestIDHeader string
}

// プロバイダには常に200で返し、結果はreasonに載せる
type WebhookResponse struct {
	OK            bool   `json:"ok"`
	Duplicate     bool   `json:"duplicate"`
	Reprocessed   bool   `json:"reprocessed"`
	Reason        string `json:"reason,omitempty"`
	Ignored       bool   `json:"ignored,omitempty"`
	StockConflict bool   `json:"stockConflict,omitempty"`
}

type WebhookConfig struct {
	Secret string
	Policy webhook.Policy
}

type WebhookUsecase struct {
	cfg       WebhookConfig
	events    repo.PaymentEventRepository
	orders    repo.OrderRepository
	tx        repo.TransactionManager
	payments  PaymentGateway
	ledger    *InventoryLedger
	publisher OrderEventPublisher
	log       *zap.Logger
	now       func() time.Time
}

func NewWebhookUsecase(
	cfg WebhookConfig,
	events repo.PaymentEventRepository,
	orders repo.OrderRepository,
	tx repo.TransactionManager,
	payments PaymentGateway,
	publisher OrderEventPublisher,
	log *zap.Logger,
) *WebhookUsecase {
	return &WebhookUsecase{
		cfg:       cfg,
		events:    events,
		orders:    orders,
		tx:        tx,
		payments:  payments,
		ledger:    NewInventoryLedger(),
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// 1件の処理結果。台帳に書く内容とcommit後に流すイベント
type webhookOutcome struct {
	status        model.PaymentProcessStatus
	reason        string
	orderID       *string
	stockConflict bool
	event         *model.OrderEvent
}

// Handle は通知1件を処理する。
// errorを返すのは台帳への登録自体に失敗したときだけ（何も記録できていないので500でリトライさせる）
func (u *WebhookUsecase) Handle(ctx context.Context, req WebhookRequest) (WebhookResponse, error) {
	payload := webhook.DecodePayload(req.Body)
	n := webhook.ParseNotification(req.Query, payload)
	sig := webhook.VerifySignature(req.SignatureHeader, req.RequestIDHeader, n.PaymentID, u.cfg.Secret)

	// 署名の判定より先に登録する（処理済みの再送は署名を見ずに返す）
	reg, err := u.events.RegisterOrUpdate(ctx, repo.PaymentEventInput{
		Provider:        model.PaymentProviderMercadoPago,
		ExternalEventID: n.ExternalEventID,
		EventType:       n.EventType,
		Payload:         payload.JSON(),
	})
	if err != nil {
		u.log.Error("failed to register payment event",
			zap.String("external_event_id", n.ExternalEventID),
			zap.Error(err),
		)
		return WebhookResponse{}, fmt.Errorf("register payment event %s: %w", n.ExternalEventID, err)
	}

	res := WebhookResponse{
		OK:          true,
		Duplicate:   reg.Duplicate,
		Reprocessed: reg.Reprocessed,
	}

	if reg.Duplicate && !reg.Reprocessed {
		res.Reason = reasonDuplicateInFlight
		if reg.PriorStatus == model.PaymentEventProcessed {
			res.Reason = reasonDuplicateProcessed
		}
		metrics.WebhookDuplicatesTotal.WithLabelValues(string(reg.PriorStatus)).Inc()
		u.logOutcome(n, reg.PriorStatus, res)
		return res, nil
	}

	if d := webhook.Evaluate(u.cfg.Policy, sig, n.IsLegacyFormat); !d.Accepted {
		res.Ignored = true
		return u.finish(ctx, n, res, webhookOutcome{status: d.Status, reason: d.Reason}), nil
	}

	if !n.IsPaymentEvent || n.PaymentID == "" {
		reason := "ignored_event_type:" + n.EventType
		if n.PaymentID == "" {
			reason = reasonMissingPaymentID
		}
		res.Ignored = true
		return u.finish(ctx, n, res, webhookOutcome{status: model.PaymentEventIgnored, reason: reason}), nil
	}

	out := u.reconcileSafely(ctx, n.PaymentID)
	res.StockConflict = out.stockConflict
	return u.finish(ctx, n, res, out), nil
}

// 支払い取得以降の失敗はすべてここで受けてERRORにする
func (u *WebhookUsecase) reconcileSafely(ctx context.Context, paymentID string) (out webhookOutcome) {
	defer func() {
		if rec := recover(); rec != nil {
			u.log.Error("panic while reconciling payment",
				zap.String("payment_id", paymentID),
				zap.Any("panic", rec),
				zap.Stack("stack"),
			)
			out = webhookOutcome{status: model.PaymentEventError, reason: reasonException}
		}
	}()

	out, err := u.reconcile(ctx, paymentID)
	if err != nil {
		u.log.Error("payment reconciliation failed",
			zap.String("payment_id", paymentID),
			zap.Error(err),
		)
		return webhookOutcome{status: model.PaymentEventError, reason: reasonException}
	}
	return out
}

func (u *WebhookUsecase) reconcile(ctx context.Context, paymentID string) (webhookOutcome, error) {
	start := time.Now()
	payment, err := u.payments.GetPayment(ctx, paymentID)
	metrics.PaymentFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return webhookOutcome{}, fmt.Errorf("fetch payment %s: %w", paymentID, err)
	}

	mpPaymentID := payment.ID
	if mpPaymentID == "" {
		mpPaymentID = paymentID
	}

	publicCode := resolvePublicCode(payment)
	if publicCode == "" {
		return webhookOutcome{status: model.PaymentEventError, reason: reasonMissingPublicCode}, nil
	}

	order, err := u.orders.FindByPublicCode(ctx, publicCode)
	if errors.Is(err, repo.ErrNotFound) {
		return webhookOutcome{status: model.PaymentEventError, reason: reasonOrderNotFound}, nil
	}
	if err != nil {
		return webhookOutcome{}, fmt.Errorf("load order %s: %w", publicCode, err)
	}

	switch {
	case payment.Status == "approved":
		return u.applyApproved(ctx, order, mpPaymentID)
	case isReversalStatus(payment.Status):
		return u.applyReversal(ctx, order, mpPaymentID, payment.Status)
	default:
		orderID := order.ID
		return webhookOutcome{
			status:  model.PaymentEventIgnored,
			reason:  "payment_status_" + payment.Status + "_ignored",
			orderID: &orderID,
		}, nil
	}
}

func (u *WebhookUsecase) applyApproved(ctx context.Context, order model.Order, mpPaymentID string) (webhookOutcome, error) {
	orderID := order.ID
	finalized := false

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 支払い取得の間に状態が変わっている可能性があるので、ロックして読み直す
		current, err := r.Orders().FindByIDForUpdate(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("reload order %s: %w", order.ID, err)
		}

		if isFinalizedForApproval(current.Status) {
			finalized = true
			return r.Orders().AttachPayment(ctx, current.ID, mpPaymentID)
		}

		reason := fmt.Sprintf("Pago aprobado MP #%s", mpPaymentID)
		if _, err := u.ledger.ApplyOrder(ctx, r, current, model.MovementOrderConfirm, reason, nil); err != nil {
			return err
		}
		return r.Orders().MarkPaid(ctx, current.ID, mpPaymentID, u.now())
	})

	if errors.Is(err, ErrInsufficientStock) {
		// Txは巻き戻っている。注文を宙ぶらりんにしないようキャンセルする
		return u.cancelAfterStockConflict(ctx, order, mpPaymentID)
	}
	if err != nil {
		return webhookOutcome{}, err
	}

	if finalized {
		return webhookOutcome{status: model.PaymentEventProcessed, reason: reasonAlreadyFinalized, orderID: &orderID}, nil
	}
	return webhookOutcome{
		status:  model.PaymentEventProcessed,
		reason:  reasonMarkedPaid,
		orderID: &orderID,
		event:   u.orderEvent(model.OrderEventPaid, order, model.OrderStatusPaid, mpPaymentID, reasonMarkedPaid),
	}, nil
}

// ロールバックとキャンセルの間に別の承認が確定していたら、そちらを残す
func (u *WebhookUsecase) cancelAfterStockConflict(ctx context.Context, order model.Order, mpPaymentID string) (webhookOutcome, error) {
	ctx, cancel := detach(ctx)
	defer cancel()

	orderID := order.ID
	finalized := false

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		current, err := r.Orders().FindByIDForUpdate(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("reload order %s: %w", order.ID, err)
		}
		if isFinalizedForApproval(current.Status) {
			finalized = true
			return r.Orders().AttachPayment(ctx, current.ID, mpPaymentID)
		}
		return r.Orders().UpdateStatusWithPayment(ctx, current.ID, model.OrderStatusCancelled, mpPaymentID)
	})
	if err != nil {
		return webhookOutcome{}, fmt.Errorf("cancel order %s after stock conflict: %w", order.ID, err)
	}
	if finalized {
		return webhookOutcome{status: model.PaymentEventProcessed, reason: reasonAlreadyFinalized, orderID: &orderID}, nil
	}

	metrics.WebhookStockConflictsTotal.Inc()
	return webhookOutcome{
		status:        model.PaymentEventError,
		reason:        reasonStockConflict,
		orderID:       &orderID,
		stockConflict: true,
		event:         u.orderEvent(model.OrderEventCancelled, order, model.OrderStatusCancelled, mpPaymentID, reasonStockConflict),
	}, nil
}

func (u *WebhookUsecase) applyReversal(ctx context.Context, order model.Order, mpPaymentID string, paymentStatus string) (webhookOutcome, error) {
	orderID := order.ID
	reason := "payment_status_" + paymentStatus
	missing := false
	var event *model.OrderEvent

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		current, err := r.Orders().FindByIDForUpdate(ctx, order.ID)
		if errors.Is(err, repo.ErrNotFound) {
			missing = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("reload order %s: %w", order.ID, err)
		}

		switch current.Status {
		case model.OrderStatusCancelled, model.OrderStatusCompleted:
			return r.Orders().AttachPayment(ctx, current.ID, mpPaymentID)

		case model.OrderStatusPaid, model.OrderStatusReadyForPickup:
			// 在庫は引き済みなので戻す
			note := fmt.Sprintf("Pago revertido MP #%s (%s)", mpPaymentID, paymentStatus)
			if _, err := u.ledger.ApplyOrder(ctx, r, current, model.MovementOrderCancelRestore, note, nil); err != nil {
				return err
			}
			if err := r.Orders().UpdateStatusWithPayment(ctx, current.ID, model.OrderStatusCancelled, mpPaymentID); err != nil {
				return err
			}
			event = u.orderEvent(model.OrderEventCancelled, current, model.OrderStatusCancelled, mpPaymentID, reason)
			return nil

		default:
			// まだ在庫を引いていない
			if err := r.Orders().UpdateStatusWithPayment(ctx, current.ID, model.OrderStatusPaymentFailed, mpPaymentID); err != nil {
				return err
			}
			event = u.orderEvent(model.OrderEventPaymentFailed, current, model.OrderStatusPaymentFailed, mpPaymentID, reason)
			return nil
		}
	})
	if err != nil {
		return webhookOutcome{}, err
	}
	if missing {
		return webhookOutcome{status: model.PaymentEventError, reason: reasonOrderNotFoundOnCxl, orderID: &orderID}, nil
	}

	return webhookOutcome{
		status:  model.PaymentEventProcessed,
		reason:  reason,
		orderID: &orderID,
		event:   event,
	}, nil
}

// 台帳への最終書き込み → ログ → イベント送信
func (u *WebhookUsecase) finish(ctx context.Context, n webhook.Notification, res WebhookResponse, out webhookOutcome) WebhookResponse {
	res.Reason = out.reason

	ctx, cancel := detach(ctx)
	defer cancel()

	if err := u.events.MarkProcessed(ctx, n.ExternalEventID, out.status, out.reason, out.orderID); err != nil {
		// 次の再送でreprocessedとして拾われる
		u.log.Error("failed to mark payment event",
			zap.String("external_event_id", n.ExternalEventID),
			zap.String("status", string(out.status)),
			zap.Error(err),
		)
	}

	metrics.WebhookEventsTotal.WithLabelValues(string(out.status), metricReason(out.reason)).Inc()
	u.logOutcome(n, out.status, res)

	if out.event != nil && u.publisher != nil {
		if err := u.publisher.PublishOrderEvent(ctx, *out.event); err != nil {
			u.log.Warn("failed to publish order event",
				zap.String("order_id", out.event.OrderID),
				zap.String("type", string(out.event.Type)),
				zap.Error(err),
			)
		}
	}
	return res
}

// 台帳の最終更新はリクエストの切断やタイムアウトでは止めない
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), finalWriteTimeout)
}

func (u *WebhookUsecase) logOutcome(n webhook.Notification, final model.PaymentProcessStatus, res WebhookResponse) {
	u.log.Info("mercadopago-webhook",
		zap.String("external_event_id", n.ExternalEventID),
		zap.String("payment_id", n.PaymentID),
		zap.String("event_type", n.EventType),
		zap.String("process_status_final", string(final)),
		zap.String("reason", res.Reason),
		zap.Bool("duplicate", res.Duplicate),
		zap.Bool("reprocessed", res.Reprocessed),
	)
}

func (u *WebhookUsecase) orderEvent(t model.OrderEventType, o model.Order, status model.OrderStatus, mpPaymentID, reason string) *model.OrderEvent {
	return &model.OrderEvent{
		Type:        t,
		OrderID:     o.ID,
		PublicCode:  o.PublicCode,
		Status:      status,
		MPPaymentID: mpPaymentID,
		Reason:      reason,
		OccurredAt:  u.now(),
	}
}

// external_reference → metadata.orderPublicCode → metadata.order_public_code
func resolvePublicCode(p Payment) string {
	if s, ok := webhook.StringValue(p.ExternalReference); ok {
		return s
	}
	for _, k := range []string{"orderPublicCode", "order_public_code"} {
		if s, ok := webhook.StringValue(p.Metadata[k]); ok {
			return s
		}
	}
	return ""
}

func isReversalStatus(s string) bool {
	switch s {
	case "rejected", "cancelled", "refunded", "charged_back":
		return true
	}
	return false
}

// 承認通知で在庫を触らない状態
func isFinalizedForApproval(s model.OrderStatus) bool {
	switch s {
	case model.OrderStatusPaid, model.OrderStatusReadyForPickup, model.OrderStatusCompleted, model.OrderStatusCancelled:
		return true
	}
	return false
}

// ラベルの種類を増やしすぎない
func metricReason(reason string) string {
	if i := strings.Index(reason, ":"); i >= 0 {
		return reason[:i]
	}
	return reason
}
