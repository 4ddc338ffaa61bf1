package events

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/extpay/internal/app/service/webhooklog"
	"github.com/fatflowers/extpay/internal/models"
	"github.com/fatflowers/extpay/pkg/logctx"
	"github.com/fatflowers/extpay/pkg/metrics"
)

// LoggingListener writes every event to the log.
func LoggingListener(log *zap.SugaredLogger) Listener {
	return ListenerFunc(func(ctx context.Context, e Event) error {
		lg := logctx.FromCtx(ctx, log)
		switch ev := e.(type) {
		case TransactionCreated:
			lg.Infow("transaction_created",
				"transaction_id", ev.TransactionID,
				"payment_method_id", ev.PaymentMethodID,
				"shop_id", ev.ShopID,
				"external_transaction_id", ev.ExternalTransactionID)
		case TransactionFailed:
			lg.Warnw("transaction_failed",
				"reason", ev.Reason,
				"external_transaction_id", ev.ExternalTransactionID,
				"shop_license", ev.ShopLicense,
				"webhook_type", ev.WebhookType)
		default:
			lg.Infow("domain_event", "event", e.EventName())
		}
		return nil
	})
}

// MetricsListener counts events by name and failure reason.
func MetricsListener(m *metrics.Business) Listener {
	return ListenerFunc(func(_ context.Context, e Event) error {
		if m == nil {
			return nil
		}
		reason := ""
		if ev, ok := e.(TransactionFailed); ok {
			reason = ev.Reason
		}
		m.TransactionEvents.WithLabelValues(e.EventName(), reason).Inc()
		return nil
	})
}

// WebhookLogListener records the processing outcome against the webhook id.
func WebhookLogListener(wl *webhooklog.Service) Listener {
	return ListenerFunc(func(ctx context.Context, e Event) error {
		entry := &models.WebhookLog{Result: resultJSON(e)}
		switch ev := e.(type) {
		case TransactionCreated:
			entry.WebhookID = ev.WebhookID
			entry.WebhookType = string(ev.WebhookType)
			entry.ExternalTransactionID = ev.ExternalTransactionID
			entry.Status = models.WebhookLogStatusHandled
		case TransactionFailed:
			entry.WebhookID = ev.WebhookID
			entry.WebhookType = string(ev.WebhookType)
			entry.ShopLicense = ev.ShopLicense
			entry.ExternalTransactionID = ev.ExternalTransactionID
			entry.Status = models.WebhookLogStatusHandleFailed
		default:
			return nil
		}
		wl.Save(ctx, entry)
		return nil
	})
}

func resultJSON(e Event) *datatypes.JSON {
	j := webhooklog.JSON(map[string]any{"event": e.EventName(), "payload": e})
	return &j
}

func newDispatcher(log *zap.SugaredLogger, m *metrics.Business, wl *webhooklog.Service) *Dispatcher {
	return NewDispatcher(log, LoggingListener(log), MetricsListener(m), WebhookLogListener(wl))
}

var Module = fx.Options(
	fx.Provide(newDispatcher),
)
