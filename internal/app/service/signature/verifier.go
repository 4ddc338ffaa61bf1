// Package signature authenticates payment webhooks.
package signature

import (
	"context"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/extpay/pkg/config"
	"github.com/fatflowers/extpay/pkg/logctx"
)

var ErrInvalidSignature = errors.New("invalid signature")

// Verifier checks sha1(webhookID:secret:body) against the x-webhook-sha1
// header. The body must be the raw request bytes.
type Verifier struct {
	secret string
	log    *zap.SugaredLogger
}

func New(cfg *config.Config, log *zap.SugaredLogger) *Verifier {
	return NewWithSecret(cfg.Webhook.Secret, log)
}

func NewWithSecret(secret string, log *zap.SugaredLogger) *Verifier {
	return &Verifier{secret: secret, log: log}
}

// Sign returns the hex digest a sender is expected to put in x-webhook-sha1.
func (v *Verifier) Sign(webhookID string, rawBody []byte) string {
	h := sha1.New()
	h.Write([]byte(webhookID))
	h.Write([]byte(":"))
	h.Write([]byte(v.secret))
	h.Write([]byte(":"))
	h.Write(rawBody)
	return hex.EncodeToString(h.Sum(nil))
}

func (v *Verifier) Verify(ctx context.Context, webhookID string, rawBody []byte, provided string) error {
	expected := v.Sign(webhookID, rawBody)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(provided)))) == 1 {
		return nil
	}
	logctx.FromCtx(ctx, v.log).Warnw("webhook_signature_mismatch", "webhook_id", webhookID, "body_size", len(rawBody))
	return ErrInvalidSignature
}

var Module = fx.Options(
	fx.Provide(New),
)
