package transaction

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"github.com/fatflowers/extpay/internal/app/service/credential"
	"github.com/fatflowers/extpay/internal/app/service/events"
	"github.com/fatflowers/extpay/internal/app/service/paymentmethod"
	"github.com/fatflowers/extpay/internal/models"
	"github.com/fatflowers/extpay/internal/platform/bus"
	"github.com/fatflowers/extpay/internal/platform/db/dbtest"
	"github.com/fatflowers/extpay/pkg/config"
	"github.com/fatflowers/extpay/pkg/metrics"
	"github.com/fatflowers/extpay/pkg/types"
)

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) Handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordedEvents) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

type fixture struct {
	db       *gorm.DB
	recorder *Recorder
	events   *recordedEvents
	logs     *observer.ObservedLogs
	shop     *models.ShopInstallation
	method   *models.ShopPaymentMethod
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := dbtest.NewSQLite(t)
	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core).Sugar()

	shops := credential.New(gdb, log)
	shop := &models.ShopInstallation{Shop: "lic1", ShopURL: "https://shop.example.com", AuthCode: "c"}
	require.NoError(t, shops.SaveInstallation(context.Background(), shop))

	registry := paymentmethod.New(&config.Config{}, gdb, shops, paymentmethod.NopCache{}, log)
	method, err := registry.Register(context.Background(), shop, 42)
	require.NoError(t, err)

	rec := &recordedEvents{}
	dispatcher := events.NewDispatcher(log, rec)
	recorder := NewRecorder(gdb, NewRepository(gdb), shops, dispatcher, metrics.NewBusiness(prometheus.NewRegistry()), log)
	return &fixture{db: gdb, recorder: recorder, events: rec, logs: logs, shop: shop, method: method}
}

func webhookMessage(t *testing.T, webhookType types.WebhookType, license string, payload string) bus.Message {
	t.Helper()
	var p map[string]any
	require.NoError(t, json.Unmarshal([]byte(payload), &p))
	raw, err := json.Marshal(ProcessWebhook{WebhookType: webhookType, ShopLicense: license, WebhookID: "id1", Payload: p})
	require.NoError(t, err)
	return bus.Message{ID: "m1", Name: MessageProcessWebhook, Payload: raw, Attempt: 1}
}

const scenarioPayload = `{"order_id":"o1","payment_id":"42","transaction_id":"t1","currency_id":"PLN","currency_value":"10.00"}`

func (f *fixture) transactionCount(t *testing.T, externalID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Transaction{}).Where("external_transaction_id = ?", externalID).Count(&n).Error)
	return n
}

func TestRecorder_CreatesPendingTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.recorder.HandleProcessWebhook(ctx, webhookMessage(t, types.WebhookTypeOrderTransactionCreate, "lic1", scenarioPayload)))

	txn, err := NewRepository(f.db).FindByExternalTransactionID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "10.00", txn.CurrencyValue.String())
	require.NotNil(t, txn.Status)
	assert.Equal(t, "pending", *txn.Status)
	assert.Equal(t, f.method.ID, txn.PaymentMethodID)
	assert.Equal(t, types.WebhookTypeOrderTransactionCreate, txn.Type)
	assert.Equal(t, "o1", *txn.OrderID)
	assert.NotNil(t, txn.TransactionDate)

	evs := f.events.all()
	require.Len(t, evs, 1)
	created, ok := evs[0].(events.TransactionCreated)
	require.True(t, ok)
	assert.Equal(t, txn.ID, created.TransactionID)
	assert.Equal(t, f.method.ID, created.PaymentMethodID)
	assert.Equal(t, f.shop.ID, created.ShopID)
}

func TestRecorder_ReplayIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	msg := webhookMessage(t, types.WebhookTypeOrderTransactionCreate, "lic1", scenarioPayload)

	require.NoError(t, f.recorder.HandleProcessWebhook(ctx, msg))
	require.NoError(t, f.recorder.HandleProcessWebhook(ctx, msg))

	assert.Equal(t, int64(1), f.transactionCount(t, "t1"))
	assert.Len(t, f.events.all(), 1, "replay emits no event")
	assert.Equal(t, 1, f.logs.FilterMessage("transaction_already_recorded").Len())
}

func TestRecorder_ConcurrentDuplicateInsertIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := NewRepository(f.db)

	first := &models.Transaction{PaymentMethodID: f.method.ID, Type: types.WebhookTypeOrderTransactionCreate, ExternalTransactionID: "t9", CurrencyID: "PLN", CurrencyValue: mustAmount(t, "1")}
	require.NoError(t, repo.Create(ctx, first))
	second := &models.Transaction{PaymentMethodID: f.method.ID, Type: types.WebhookTypeOrderTransactionCreate, ExternalTransactionID: "t9", CurrencyID: "PLN", CurrencyValue: mustAmount(t, "1")}
	assert.ErrorIs(t, repo.Create(ctx, second), ErrDuplicateTransaction)
}

func TestRecorder_PaymentMethodNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payload := `{"order_id":"o1","payment_id":"7","transaction_id":"t2","currency_id":"PLN","currency_value":"10"}`

	require.NoError(t, f.recorder.HandleProcessWebhook(ctx, webhookMessage(t, types.WebhookTypeOrderTransactionCreate, "lic1", payload)))

	assert.Zero(t, f.transactionCount(t, "t2"))
	evs := f.events.all()
	require.Len(t, evs, 1)
	failed, ok := evs[0].(events.TransactionFailed)
	require.True(t, ok)
	assert.Equal(t, events.ReasonPaymentMethodNotFound, failed.Reason)
	assert.Equal(t, "t2", failed.ExternalTransactionID)
	assert.Equal(t, "lic1", failed.ShopLicense)
}

func TestRecorder_RemovedPaymentMethodIsNotActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.db.Model(f.method).Update("removed_at", time.Now()).Error)

	require.NoError(t, f.recorder.HandleProcessWebhook(ctx, webhookMessage(t, types.WebhookTypeOrderTransactionCreate, "lic1", scenarioPayload)))

	assert.Zero(t, f.transactionCount(t, "t1"))
	evs := f.events.all()
	require.Len(t, evs, 1)
	assert.Equal(t, events.ReasonPaymentMethodNotFound, evs[0].(events.TransactionFailed).Reason)
}

func TestRecorder_ShopNotFound(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.recorder.HandleProcessWebhook(context.Background(), webhookMessage(t, types.WebhookTypeOrderTransactionCreate, "unknown", scenarioPayload)))

	assert.Zero(t, f.transactionCount(t, "t1"))
	evs := f.events.all()
	require.Len(t, evs, 1)
	assert.Equal(t, events.ReasonShopNotFound, evs[0].(events.TransactionFailed).Reason)
}

func TestRecorder_InvalidPayloadIsSwallowed(t *testing.T) {
	f := newFixture(t)

	err := f.recorder.HandleProcessWebhook(context.Background(), webhookMessage(t, types.WebhookTypeOrderTransactionCreate, "lic1", `{"order_id":"o1","payment_id":"abc","currency_value":"x"}`))
	require.NoError(t, err)

	assert.Empty(t, f.events.all())
	entries := f.logs.FilterMessage("webhook_process_failed").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["error"], "transaction_id is required")
}

func TestRecorder_UnknownTypeIsAcknowledged(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.recorder.HandleProcessWebhook(context.Background(), webhookMessage(t, "order.cancelled", "lic1", scenarioPayload)))

	assert.Zero(t, f.transactionCount(t, "t1"))
	entries := f.logs.FilterMessage("webhook_process_failed").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["error"], ErrUnknownWebhookType.Error())
}

func TestRecorder_RefundIsStub(t *testing.T) {
	f := newFixture(t)
	payload := `{"transaction_id":"r1","refund_id":"rf1","currency_value":"5"}`

	require.NoError(t, f.recorder.HandleProcessWebhook(context.Background(), webhookMessage(t, types.WebhookTypeOrderRefundCreate, "lic1", payload)))

	assert.Zero(t, f.transactionCount(t, "r1"))
	assert.Empty(t, f.events.all())
	assert.Equal(t, 1, f.logs.FilterMessage("refund webhook processing is not fully implemented").Len())

	require.NoError(t, f.recorder.HandleProcessWebhook(context.Background(), webhookMessage(t, types.WebhookTypeOrderRefundCreate, "nobody", payload)))
	evs := f.events.all()
	require.Len(t, evs, 1)
	assert.Equal(t, events.ReasonShopNotFound, evs[0].(events.TransactionFailed).Reason)
}

func TestRecorder_MalformedMessageIsAcknowledged(t *testing.T) {
	f := newFixture(t)

	err := f.recorder.HandleProcessWebhook(context.Background(), bus.Message{ID: "m", Payload: []byte("not json")})
	require.NoError(t, err)
	assert.Equal(t, 1, f.logs.FilterMessage("webhook_process_decode_failed").Len())
}

func mustAmount(t *testing.T, s string) types.Amount {
	t.Helper()
	a, err := types.ParseAmount(s)
	require.NoError(t, err)
	return a
}
