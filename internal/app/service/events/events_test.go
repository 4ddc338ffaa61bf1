package events

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fatflowers/extpay/internal/app/service/webhooklog"
	"github.com/fatflowers/extpay/internal/models"
	"github.com/fatflowers/extpay/internal/platform/db/dbtest"
	"github.com/fatflowers/extpay/pkg/metrics"
	"github.com/fatflowers/extpay/pkg/types"
)

func TestDispatcher_CallsListenersInOrder(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	d := NewDispatcher(zap.New(core).Sugar())

	var calls []string
	d.Subscribe(ListenerFunc(func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("listener broke")
	}))
	d.Subscribe(ListenerFunc(func(_ context.Context, e Event) error {
		calls = append(calls, "second:"+e.EventName())
		return nil
	}))

	d.Dispatch(context.Background(), TransactionCreated{TransactionID: 1})

	assert.Equal(t, []string{"first", "second:" + NameTransactionCreated}, calls)
	require.Equal(t, 1, logs.FilterMessage("event_listener_failed").Len())
}

func TestLoggingListener(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := LoggingListener(zap.New(core).Sugar())

	require.NoError(t, l.Handle(context.Background(), TransactionFailed{Reason: ReasonPaymentMethodNotFound, ExternalTransactionID: "t1"}))
	entries := logs.FilterMessage("transaction_failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, ReasonPaymentMethodNotFound, entries[0].ContextMap()["reason"])
}

func TestMetricsListener(t *testing.T) {
	m := metrics.NewBusiness(prometheus.NewRegistry())
	l := MetricsListener(m)
	ctx := context.Background()

	require.NoError(t, l.Handle(ctx, TransactionCreated{}))
	require.NoError(t, l.Handle(ctx, TransactionFailed{Reason: ReasonShopNotFound}))
	require.NoError(t, l.Handle(ctx, TransactionFailed{Reason: ReasonShopNotFound}))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransactionEvents.WithLabelValues(NameTransactionCreated, "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TransactionEvents.WithLabelValues(NameTransactionFailed, ReasonShopNotFound)))
	require.NoError(t, MetricsListener(nil).Handle(ctx, TransactionCreated{}))
}

func TestWebhookLogListener(t *testing.T) {
	wl := webhooklog.New(dbtest.NewSQLite(t), zap.NewNop().Sugar())
	l := WebhookLogListener(wl)
	ctx := context.Background()

	require.NoError(t, l.Handle(ctx, TransactionFailed{
		Reason:                ReasonPaymentMethodNotFound,
		ExternalTransactionID: "t1",
		ShopLicense:           "lic1",
		WebhookID:             "id1",
		WebhookType:           types.WebhookTypeOrderTransactionCreate,
	}))
	wl.Wait()

	rows, err := wl.ByWebhookID(ctx, "id1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.WebhookLogStatusHandleFailed, rows[0].Status)
	assert.Equal(t, "lic1", rows[0].ShopLicense)
	require.NotNil(t, rows[0].Result)
	assert.Contains(t, string(*rows[0].Result), ReasonPaymentMethodNotFound)
}
