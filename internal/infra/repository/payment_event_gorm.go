package repository

import (
	"context"
	"time"
	"unicode/utf8"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentEventGormRepository struct {
	db *gorm.DB

	// RECEIVEDのままこの時間が経った行は、処理中のプロセスが落ちたとみなす
	inflightLease time.Duration
	now           func() time.Time
}

func NewPaymentEventGormRepository(db *gorm.DB, inflightLease time.Duration) *PaymentEventGormRepository {
	return &PaymentEventGormRepository{
		db:            db,
		inflightLease: inflightLease,
		now:           time.Now,
	}
}

// 受付台帳への登録。
// 初見ならINSERT、既存ならステータスを見て「重複」か「再処理」かを決める
func (r *PaymentEventGormRepository) RegisterOrUpdate(ctx context.Context, in repo.PaymentEventInput) (repo.EventRegistration, error) {
	now := r.now()
	payload := datatypes.JSON(in.Payload)
	if len(payload) == 0 {
		payload = datatypes.JSON("{}")
	}

	ev := model.PaymentEvent{
		ID:              uuid.NewString(),
		Provider:        in.Provider,
		ExternalEventID: in.ExternalEventID,
		EventType:       in.EventType,
		PayloadJSON:     payload,
		ProcessStatus:   model.PaymentEventReceived,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// 同時に届いても1件しか入らない
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_event_id"}},
			DoNothing: true,
		}).
		Create(&ev)
	if res.Error != nil {
		return repo.EventRegistration{}, res.Error
	}
	if res.RowsAffected == 1 {
		return repo.EventRegistration{}, nil
	}

	existing, err := r.FindByExternalID(ctx, in.ExternalEventID)
	if err != nil {
		return repo.EventRegistration{}, err
	}

	switch existing.ProcessStatus {
	case model.PaymentEventProcessed:
		return repo.EventRegistration{Duplicate: true, PriorStatus: existing.ProcessStatus}, nil
	case model.PaymentEventReceived:
		if now.Sub(existing.UpdatedAt) < r.inflightLease {
			return repo.EventRegistration{Duplicate: true, PriorStatus: existing.ProcessStatus}, nil
		}
	}

	// attemptsが読んだ時と同じときだけ取り直せる（取り合いは1人だけ勝つ）
	res = r.db.WithContext(ctx).Model(&model.PaymentEvent{}).
		Where("external_event_id = ? AND attempts = ? AND process_status = ?",
			in.ExternalEventID, existing.Attempts, existing.ProcessStatus).
		Updates(map[string]interface{}{
			"event_type":     in.EventType,
			"payload_json":   payload,
			"process_status": model.PaymentEventReceived,
			"reason":         "",
			"processed_at":   nil,
			"attempts":       gorm.Expr("attempts + ?", 1),
			"updated_at":     now,
		})
	if res.Error != nil {
		return repo.EventRegistration{}, res.Error
	}
	if res.RowsAffected == 0 {
		return repo.EventRegistration{Duplicate: true, PriorStatus: model.PaymentEventReceived}, nil
	}

	return repo.EventRegistration{
		Duplicate:   true,
		Reprocessed: true,
		PriorStatus: existing.ProcessStatus,
	}, nil
}

// 処理結果を記録。orderIDがnilなら既存の値は変えない
func (r *PaymentEventGormRepository) MarkProcessed(ctx context.Context, externalEventID string, status model.PaymentProcessStatus, reason string, orderID *string) error {
	now := r.now()
	values := map[string]interface{}{
		"process_status": status,
		"reason":         truncate(reason, 191),
		"processed_at":   now,
		"updated_at":     now,
	}
	if orderID != nil {
		values["order_id"] = *orderID
	}

	res := r.db.WithContext(ctx).Model(&model.PaymentEvent{}).
		Where("external_event_id = ?", externalEventID).
		Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *PaymentEventGormRepository) FindByExternalID(ctx context.Context, externalEventID string) (model.PaymentEvent, error) {
	var ev model.PaymentEvent
	err := r.db.WithContext(ctx).
		Where("external_event_id = ?", externalEventID).
		First(&ev).Error
	if isNotFound(err) {
		return model.PaymentEvent{}, repo.ErrNotFound
	}
	if err != nil {
		return model.PaymentEvent{}, err
	}
	return ev, nil
}

// nバイト以内に収める。マルチバイト文字の途中では切らない
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
