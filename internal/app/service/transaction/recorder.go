package transaction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/extpay/internal/app/service/credential"
	"github.com/fatflowers/extpay/internal/app/service/events"
	"github.com/fatflowers/extpay/internal/app/service/paymentmethod"
	"github.com/fatflowers/extpay/internal/models"
	"github.com/fatflowers/extpay/internal/platform/bus"
	"github.com/fatflowers/extpay/pkg/logctx"
	"github.com/fatflowers/extpay/pkg/metrics"
	"github.com/fatflowers/extpay/pkg/types"
)

var ErrUnknownWebhookType = errors.New("unknown webhook type")

// Recorder turns accepted webhooks into transaction rows.
type Recorder struct {
	db      *gorm.DB
	repo    *Repository
	shops   *credential.Store
	events  *events.Dispatcher
	metrics *metrics.Business
	log     *zap.SugaredLogger
	now     func() time.Time
}

func NewRecorder(db *gorm.DB, repo *Repository, shops *credential.Store, ev *events.Dispatcher, m *metrics.Business, log *zap.SugaredLogger) *Recorder {
	return &Recorder{db: db, repo: repo, shops: shops, events: ev, metrics: m, log: log, now: time.Now}
}

// HandleProcessWebhook is the bus handler for MessageProcessWebhook. Every
// failure is logged and the message acknowledged: a poison webhook must not
// be redelivered forever.
func (r *Recorder) HandleProcessWebhook(ctx context.Context, msg bus.Message) error {
	start := time.Now()
	lg := logctx.FromCtx(ctx, r.log).With("message_id", msg.ID)

	var m ProcessWebhook
	dec := json.NewDecoder(bytes.NewReader(msg.Payload))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		lg.Errorw("webhook_process_decode_failed", "error", err.Error())
		return nil
	}
	lg = lg.With("webhook_id", m.WebhookID, "webhook_type", m.WebhookType, "shop_license", m.ShopLicense)
	ctx = logctx.WithLogger(ctx, lg)
	defer r.metrics.ObserveSince("webhook", string(m.WebhookType), start)

	var err error
	switch m.WebhookType {
	case types.WebhookTypeOrderTransactionCreate:
		err = r.recordTransaction(ctx, &m)
	case types.WebhookTypeOrderRefundCreate:
		err = r.recordRefund(ctx, &m)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownWebhookType, m.WebhookType)
	}
	if err != nil {
		lg.Errorw("webhook_process_failed", "error", err.Error(), "attempt", msg.Attempt)
	}
	return nil
}

func (r *Recorder) recordTransaction(ctx context.Context, m *ProcessWebhook) error {
	lg := logctx.FromCtx(ctx, r.log)

	p, err := ParseTransactionPayload(m.Payload)
	if err != nil {
		return err
	}
	lg = lg.With("external_transaction_id", p.TransactionID, "payment_id", p.PaymentID)

	if _, err := r.repo.FindByExternalTransactionID(ctx, p.TransactionID); err == nil {
		lg.Infow("transaction_already_recorded")
		return nil
	} else if !errors.Is(err, ErrTransactionNotFound) {
		return err
	}

	shop, err := r.shops.FindByCode(ctx, m.ShopLicense)
	if errors.Is(err, credential.ErrShopNotFound) {
		r.fail(ctx, m, p.TransactionID, events.ReasonShopNotFound)
		return nil
	}
	if err != nil {
		return err
	}

	var created *models.Transaction
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pm, err := paymentmethod.FindActive(tx, shop.ID, p.PaymentID)
		if err != nil {
			return err
		}
		txn := p.Model(pm.ID, r.now())
		if err := r.repo.WithTx(tx).Create(ctx, txn); err != nil {
			return err
		}
		created = txn
		return nil
	})
	switch {
	case errors.Is(err, paymentmethod.ErrNotFound):
		r.fail(ctx, m, p.TransactionID, events.ReasonPaymentMethodNotFound)
		return nil
	case errors.Is(err, ErrDuplicateTransaction):
		lg.Infow("transaction_recorded_concurrently")
		return nil
	case err != nil:
		return err
	}

	r.events.Dispatch(ctx, events.TransactionCreated{
		TransactionID:         created.ID,
		PaymentMethodID:       created.PaymentMethodID,
		ShopID:                shop.ID,
		ExternalTransactionID: created.ExternalTransactionID,
		WebhookID:             m.WebhookID,
		WebhookType:           m.WebhookType,
	})
	return nil
}

// recordRefund checks idempotency and resolves the shop; linking the refund
// to its original transaction is not implemented.
func (r *Recorder) recordRefund(ctx context.Context, m *ProcessWebhook) error {
	lg := logctx.FromCtx(ctx, r.log)

	p, err := ParseRefundPayload(m.Payload)
	if err != nil {
		return err
	}
	lg = lg.With("external_transaction_id", p.TransactionID, "refund_id", p.RefundID)

	if _, err := r.repo.FindByExternalTransactionID(ctx, p.TransactionID); err == nil {
		lg.Infow("refund_already_recorded")
		return nil
	} else if !errors.Is(err, ErrTransactionNotFound) {
		return err
	}

	shop, err := r.shops.FindByCode(ctx, m.ShopLicense)
	if errors.Is(err, credential.ErrShopNotFound) {
		r.fail(ctx, m, p.TransactionID, events.ReasonShopNotFound)
		return nil
	}
	if err != nil {
		return err
	}

	lg.Warnw("refund webhook processing is not fully implemented", "shop_id", shop.ID)
	return nil
}

func (r *Recorder) fail(ctx context.Context, m *ProcessWebhook, externalID, reason string) {
	r.events.Dispatch(ctx, events.TransactionFailed{
		Reason:                reason,
		ExternalTransactionID: externalID,
		ShopLicense:           m.ShopLicense,
		WebhookID:             m.WebhookID,
		WebhookType:           m.WebhookType,
	})
}
