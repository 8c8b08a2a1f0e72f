package usecase_test

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"testing"

	"storefront/internal/domain/model"
	infraRepo "storefront/internal/infra/repository"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Mercado Pago APIの代わり
type fakeGateway struct {
	mu       sync.Mutex
	payments map[string]usecase.Payment
	err      error
	panicMsg string

	prefErr error
	prefs   []usecase.PreferenceInput
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{payments: map[string]usecase.Payment{}}
}

func (g *fakeGateway) setPayment(p usecase.Payment) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payments[p.ID] = p
}

func (g *fakeGateway) setErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

func (g *fakeGateway) GetPayment(ctx context.Context, paymentID string) (usecase.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.panicMsg != "" {
		panic(g.panicMsg)
	}
	if g.err != nil {
		return usecase.Payment{}, g.err
	}
	p, ok := g.payments[paymentID]
	if !ok {
		return usecase.Payment{}, fmt.Errorf("payment %s not found", paymentID)
	}
	return p, nil
}

func (g *fakeGateway) CreatePreference(ctx context.Context, in usecase.PreferenceInput) (usecase.Preference, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prefs = append(g.prefs, in)
	if g.prefErr != nil {
		return usecase.Preference{}, g.prefErr
	}
	return usecase.Preference{
		ID:               "pref-" + in.ExternalReference,
		InitPoint:        "https://mp.example/init/" + in.ExternalReference,
		SandboxInitPoint: "https://sandbox.mp.example/init/" + in.ExternalReference,
	}, nil
}

// 送られた注文イベントを記録する
type recordingPublisher struct {
	mu     sync.Mutex
	events []model.OrderEvent
	err    error
}

func (p *recordingPublisher) PublishOrderEvent(ctx context.Context, ev model.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) all() []model.OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.OrderEvent, len(p.events))
	copy(out, p.events)
	return out
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price, stock int64) model.Product {
	t.Helper()
	p := model.Product{
		ID:       uuid.NewString(),
		Name:     name,
		Price:    price,
		Stock:    stock,
		IsActive: true,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

type line struct {
	product model.Product
	qty     int64
}

func seedOrder(t *testing.T, db *gorm.DB, status model.OrderStatus, lines ...line) model.Order {
	t.Helper()
	code, err := model.GeneratePublicOrderCode()
	require.NoError(t, err)

	o := model.Order{
		ID:               uuid.NewString(),
		PublicCode:       code,
		Status:           status,
		CustomerName:     "Ana",
		CustomerEmail:    "ana@example.com",
		CustomerWhatsapp: "+5491100000000",
		Currency:         model.CurrencyARS,
	}
	for _, l := range lines {
		pid := l.product.ID
		o.Items = append(o.Items, model.OrderItem{
			ID:                  uuid.NewString(),
			ProductID:           &pid,
			ProductNameSnapshot: l.product.Name,
			UnitPriceSnapshot:   l.product.Price,
			Quantity:            l.qty,
			LineTotal:           l.product.Price * l.qty,
		})
	}
	o.SubtotalAmount = o.ItemsTotal()
	o.TotalAmount = o.SubtotalAmount

	require.NoError(t, infraRepo.NewOrderGormRepository(db).Create(context.Background(), &o))
	return o
}

func reloadOrder(t *testing.T, db *gorm.DB, id string) model.Order {
	t.Helper()
	o, err := infraRepo.NewOrderGormRepository(db).FindByID(context.Background(), id)
	require.NoError(t, err)
	return o
}

func stockOf(t *testing.T, db *gorm.DB, productID string) int64 {
	t.Helper()
	var p model.Product
	require.NoError(t, db.Unscoped().Where("id = ?", productID).First(&p).Error)
	return p.Stock
}

func movementCount(t *testing.T, db *gorm.DB, orderItemID string, typ model.InventoryMovementType) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.InventoryMovement{}).
		Where("order_item_id = ? AND type = ?", orderItemID, typ).
		Count(&n).Error)
	return n
}

// 新形式の支払い通知（署名なし）
func paymentNotification(paymentID string) usecase.WebhookRequest {
	return usecase.WebhookRequest{
		Query: url.Values{"type": {"payment"}, "data.id": {paymentID}},
		Body:  []byte(`{"type":"payment","data":{"id":"` + paymentID + `"}}`),
	}
}

// 支払い取得中に呼び出し元のctxが切れる（HTTPタイムアウト・切断）
type cancellingGateway struct {
	*fakeGateway
	cancel context.CancelFunc
}

func (g *cancellingGateway) GetPayment(ctx context.Context, paymentID string) (usecase.Payment, error) {
	g.cancel()
	<-ctx.Done()
	return usecase.Payment{}, ctx.Err()
}

// n回目のWithinTxの直前にbeforeを呼ぶ
type hookedTxManager struct {
	repo.TransactionManager

	mu     sync.Mutex
	calls  int
	before func(call int)
}

func (m *hookedTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.mu.Lock()
	m.calls++
	n := m.calls
	m.mu.Unlock()

	if m.before != nil {
		m.before(n)
	}
	return m.TransactionManager.WithinTx(ctx, fn)
}
