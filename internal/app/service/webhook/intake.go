// Package webhook accepts payment webhooks and hands them to the bus.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/extpay/internal/app/service/signature"
	"github.com/fatflowers/extpay/internal/app/service/transaction"
	"github.com/fatflowers/extpay/internal/app/service/webhooklog"
	"github.com/fatflowers/extpay/internal/models"
	"github.com/fatflowers/extpay/internal/platform/bus"
	"github.com/fatflowers/extpay/pkg/apperr"
	"github.com/fatflowers/extpay/pkg/logctx"
	"github.com/fatflowers/extpay/pkg/metrics"
	"github.com/fatflowers/extpay/pkg/types"
)

var (
	ErrInvalidPayload   = apperr.BadRequest("invalid content type/payload")
	ErrPayloadNotObject = apperr.BadRequest("payload must be a JSON object")
	ErrInvalidSignature = apperr.BadRequest("invalid signature")
)

// Dispatcher enqueues bus messages.
type Dispatcher interface {
	Dispatch(ctx context.Context, name, key string, payload any) error
}

// Request is an incoming webhook delivery as read from HTTP.
type Request struct {
	ContentType string
	ShopLicense string
	WebhookType string
	WebhookID   string
	Signature   string
	// Body holds the raw request bytes; the signature covers them verbatim.
	Body []byte
}

type Intake struct {
	verifier *signature.Verifier
	bus      Dispatcher
	logs     *webhooklog.Service
	metrics  *metrics.Business
	log      *zap.SugaredLogger
}

func NewIntake(v *signature.Verifier, b Dispatcher, logs *webhooklog.Service, m *metrics.Business, log *zap.SugaredLogger) *Intake {
	return &Intake{verifier: v, bus: b, logs: logs, metrics: m, log: log}
}

// Accept validates req and enqueues it for processing. Returned errors carry
// an apperr kind; anything else is an infrastructure failure.
func (s *Intake) Accept(ctx context.Context, req *Request) (err error) {
	lg := logctx.FromCtx(ctx, s.log).With("webhook_id", req.WebhookID, "webhook_type", req.WebhookType, "shop_license", req.ShopLicense)

	var payload map[string]any
	defer func() {
		outcome := "accepted"
		status := models.WebhookLogStatusAccepted
		var result any
		if err != nil {
			outcome = "rejected"
			status = models.WebhookLogStatusRejected
			result = map[string]any{"error": err.Error()}
		}
		s.count(req.WebhookType, outcome)
		s.record(ctx, req, payload, status, result)
	}()

	payload, err = decodePayload(req)
	if err != nil {
		lg.Warnw("webhook_rejected", "error", err.Error())
		return err
	}
	if err = validateHeaders(req); err != nil {
		lg.Warnw("webhook_rejected", "error", err.Error())
		return err
	}
	if s.verifier.Verify(ctx, req.WebhookID, req.Body, req.Signature) != nil {
		err = ErrInvalidSignature
		return err
	}

	msg := transaction.ProcessWebhook{
		WebhookType: types.WebhookType(req.WebhookType),
		ShopLicense: req.ShopLicense,
		WebhookID:   req.WebhookID,
		Payload:     payload,
	}
	if err = s.bus.Dispatch(ctx, transaction.MessageProcessWebhook, req.ShopLicense, msg); err != nil {
		err = fmt.Errorf("failed to enqueue webhook: %w", err)
		return err
	}
	lg.Infow("webhook_accepted")
	return nil
}

func decodePayload(req *Request) (map[string]any, error) {
	mediaType, _, err := mime.ParseMediaType(req.ContentType)
	if err != nil || mediaType != "application/json" || !json.Valid(req.Body) {
		return nil, ErrInvalidPayload
	}
	dec := json.NewDecoder(bytes.NewReader(req.Body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, ErrInvalidPayload
	}
	obj, ok := v.(map[string]any)
	if !ok || obj == nil {
		return nil, ErrPayloadNotObject
	}
	return obj, nil
}

func validateHeaders(req *Request) error {
	v := &apperr.ValidationError{}
	if req.ShopLicense == "" {
		v.Add(types.HeaderShopLicense + " header is required")
	}
	switch {
	case req.WebhookType == "":
		v.Add(types.HeaderWebhookName + " header is required")
	case !types.WebhookType(req.WebhookType).Valid():
		v.Add(fmt.Sprintf("%s header has unsupported value %q", types.HeaderWebhookName, req.WebhookType))
	}
	if req.WebhookID == "" {
		v.Add(types.HeaderWebhookID + " header is required")
	}
	if req.Signature == "" {
		v.Add(types.HeaderWebhookSHA1 + " header is required")
	}
	return v.Err()
}

func (s *Intake) record(ctx context.Context, req *Request, payload map[string]any, status models.WebhookLogStatus, result any) {
	if s.logs == nil {
		return
	}
	entry := &models.WebhookLog{
		WebhookID:   req.WebhookID,
		WebhookType: req.WebhookType,
		ShopLicense: req.ShopLicense,
		Status:      status,
	}
	if payload != nil {
		entry.Data = webhooklog.JSON(payload)
	} else {
		entry.Data = webhooklog.JSON(map[string]any{"raw": string(req.Body)})
	}
	if result != nil {
		j := webhooklog.JSON(result)
		entry.Result = &j
	}
	s.logs.Save(ctx, entry)
}

func (s *Intake) count(webhookType, outcome string) {
	if s.metrics == nil {
		return
	}
	if !types.WebhookType(webhookType).Valid() {
		webhookType = "unknown"
	}
	s.metrics.WebhookIntake.WithLabelValues(webhookType, outcome).Inc()
}

func newDispatcher(b *bus.Bus) Dispatcher { return b }

var Module = fx.Options(
	fx.Provide(NewIntake, newDispatcher),
)
