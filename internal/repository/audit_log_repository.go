package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

// 管理画面の監査ログ一覧の条件。空文字は絞り込まない
type AuditLogFilter struct {
	Page         int
	Limit        int
	ActorUserID  string
	Action       model.AuditAction
	ResourceType model.AuditResourceType
	ResourceID   string
	From         *time.Time
	To           *time.Time
}

type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error

	// 新しい順。totalはページング前の件数
	List(ctx context.Context, f AuditLogFilter) ([]model.AuditLog, int64, error)
}
