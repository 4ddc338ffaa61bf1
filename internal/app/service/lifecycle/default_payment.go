package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatflowers/extpay/internal/app/service/apierror"
	"github.com/fatflowers/extpay/internal/app/service/credential"
	"github.com/fatflowers/extpay/internal/platform/bus"
	"github.com/fatflowers/extpay/internal/platform/shoper"
	"github.com/fatflowers/extpay/pkg/logctx"
)

const MessageCreateDefaultPayment = "payment.create_default"

// CreateDefaultPayment asks for the external payment to be created on a
// freshly installed shop.
type CreateDefaultPayment struct {
	ShopID int64  `json:"shop_id"`
	Shop   string `json:"shop"`
}

// HandleCreateDefaultPayment creates the payment on the shop and registers
// it. Upstream failures are classified so that transient ones are retried by
// the bus.
func (s *Service) HandleCreateDefaultPayment(ctx context.Context, msg bus.Message) error {
	var m CreateDefaultPayment
	if err := msg.Decode(&m); err != nil {
		return err
	}
	lg := logctx.FromCtx(ctx, s.log).With("shop", m.Shop, "attempt", msg.Attempt)

	shop, err := s.shops.FindByID(ctx, m.ShopID)
	if errors.Is(err, credential.ErrShopNotFound) {
		return err
	}
	if err != nil {
		return bus.Retry(err)
	}

	active, err := s.registry.ListActive(ctx, shop.ID)
	if err != nil {
		return bus.Retry(err)
	}
	if len(active) > 0 {
		lg.Infow("default_payment_exists", "payment_method_id", active[0].PaymentMethodID)
		return nil
	}

	sess, err := s.auth.Authenticate(ctx, shop)
	if err != nil {
		return classifyAuthError(err)
	}

	cfg := s.cfg.DefaultPayment
	payment := &shoper.Payment{
		Active:     true,
		Visible:    true,
		Notify:     cfg.Notify,
		Currencies: cfg.Currencies,
		Translations: map[string]shoper.PaymentTranslation{
			cfg.Locale: {Title: cfg.Title, Description: cfg.Description, Active: true},
		},
	}
	paymentID, err := s.api.InsertPayment(ctx, sess.Auth(), payment)
	if err != nil {
		return apierror.Classify(fmt.Errorf("insert default payment: %w", err))
	}

	if _, err := s.registry.Register(ctx, shop, paymentID); err != nil {
		lg.Errorw("default_payment_register_failed", "payment_method_id", paymentID, "error", err.Error())
		return bus.Retry(err)
	}
	lg.Infow("default_payment_created", "payment_method_id", paymentID)
	return nil
}

// classifyAuthError keeps the upstream classification made by the
// authenticator and treats every other failure, such as a credential store
// error, as transient.
func classifyAuthError(err error) error {
	var tmp *apierror.TemporaryPaymentAPIError
	var perm *apierror.PaymentAPIError
	if errors.As(err, &tmp) || errors.As(err, &perm) {
		return err
	}
	return bus.Retry(err)
}
