package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestAuditLogUsecase_List_Validation(t *testing.T) {
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)

	cases := []struct {
		name string
		f    repo.AuditLogFilter
		want string
	}{
		{"page 0", repo.AuditLogFilter{Page: 0, Limit: 20}, "invalid page"},
		{"limit 0", repo.AuditLogFilter{Page: 1, Limit: 0}, "invalid limit"},
		{"limit 101", repo.AuditLogFilter{Page: 1, Limit: 101}, "invalid limit"},
		{"unknown action", repo.AuditLogFilter{Page: 1, Limit: 20, Action: "DELETE_EVERYTHING"}, "invalid action"},
		{"unknown resource", repo.AuditLogFilter{Page: 1, Limit: 20, ResourceType: "user"}, "invalid resource_type"},
		{"from after to", repo.AuditLogFilter{Page: 1, Limit: 20, From: &from, To: &to}, "from must be before to"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := new(TxManagerMock)
			_, err := usecase.NewAuditLogUsecase(tx).List(context.Background(), tc.f)
			assertErrContains(t, err, tc.want)
			assertHTTPStatus(t, err, http.StatusBadRequest)
			tx.AssertNotCalled(t, "WithinTx", mock.Anything)
		})
	}
}

func TestAuditLogUsecase_List_NormalizesFilter(t *testing.T) {
	tx := new(TxManagerMock)
	audit := new(AuditRepoMock)
	tx.Repos = &TxReposMock{auditLogs: audit}
	tx.On("WithinTx", mock.Anything).Return(nil)

	want := repo.AuditLogFilter{
		Page:         2,
		Limit:        10,
		Action:       model.AuditActionUpdateOrderStatus,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   "o-1",
	}
	logs := []model.AuditLog{{ID: 7, Action: model.AuditActionUpdateOrderStatus, ResourceID: "o-1"}}
	audit.On("List", mock.Anything, want).Return(logs, int64(11), nil)

	out, err := usecase.NewAuditLogUsecase(tx).List(context.Background(), repo.AuditLogFilter{
		Page:         2,
		Limit:        10,
		Action:       " update_order_status ",
		ResourceType: "ORDER",
		ResourceID:   "o-1",
	})
	assert.NoError(t, err)
	assert.Equal(t, logs, out.Items)
	assert.Equal(t, int64(11), out.Total)
	assert.Equal(t, 2, out.Page)
	assert.Equal(t, 10, out.Limit)

	audit.AssertExpectations(t)
}

func TestAuditLogUsecase_List_DBError(t *testing.T) {
	tx := new(TxManagerMock)
	audit := new(AuditRepoMock)
	tx.Repos = &TxReposMock{auditLogs: audit}
	tx.On("WithinTx", mock.Anything).Return(nil)
	audit.On("List", mock.Anything, mock.Anything).Return(nil, int64(0), errors.New("db down"))

	_, err := usecase.NewAuditLogUsecase(tx).List(context.Background(), repo.AuditLogFilter{Page: 1, Limit: 20})
	assertHTTPStatus(t, err, http.StatusInternalServerError)
}
