// Package lifecycle handles App Store install, upgrade and uninstall
// callbacks.
package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/extpay/internal/app/service/credential"
	"github.com/fatflowers/extpay/internal/app/service/oauth"
	"github.com/fatflowers/extpay/internal/app/service/paymentmethod"
	"github.com/fatflowers/extpay/internal/models"
	"github.com/fatflowers/extpay/internal/platform/bus"
	"github.com/fatflowers/extpay/internal/platform/shoper"
	"github.com/fatflowers/extpay/pkg/config"
	"github.com/fatflowers/extpay/pkg/logctx"
	"github.com/fatflowers/extpay/pkg/types"
)

// Dispatcher enqueues bus messages.
type Dispatcher interface {
	Dispatch(ctx context.Context, name, key string, payload any) error
}

type Service struct {
	cfg      *config.Config
	shops    *credential.Store
	auth     *oauth.Authenticator
	registry *paymentmethod.Registry
	api      *shoper.Client
	bus      Dispatcher
	log      *zap.SugaredLogger
}

func New(cfg *config.Config, shops *credential.Store, auth *oauth.Authenticator, registry *paymentmethod.Registry, api *shoper.Client, b Dispatcher, log *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, shops: shops, auth: auth, registry: registry, api: api, bus: b, log: log}
}

func (s *Service) Handle(ctx context.Context, e *Event) error {
	lg := logctx.FromCtx(ctx, s.log).With("action", e.Action, "shop", e.Shop, "version", e.ApplicationVersion)
	ctx = logctx.WithLogger(ctx, lg)

	var err error
	switch e.Action {
	case types.LifecycleActionInstall:
		err = s.install(ctx, e)
	case types.LifecycleActionUpgrade:
		err = s.upgrade(ctx, e)
	case types.LifecycleActionUninstall:
		err = s.uninstall(ctx, e)
	default:
		err = fmt.Errorf("unsupported lifecycle action %q", e.Action)
	}
	if err != nil {
		lg.Errorw("app_store_event_failed", "error", err.Error())
		return err
	}
	lg.Infow("app_store_event_handled")
	return nil
}

func (s *Service) install(ctx context.Context, e *Event) error {
	shop := &models.ShopInstallation{
		Shop:               e.Shop,
		ShopURL:            e.ShopURL,
		ApplicationVersion: e.ApplicationVersion,
		AuthCode:           e.AuthCode,
	}
	if _, err := s.auth.Install(ctx, shop); err != nil {
		return fmt.Errorf("failed to authenticate shop: %w", err)
	}

	if err := s.bus.Dispatch(ctx, MessageCreateDefaultPayment, shop.Shop, CreateDefaultPayment{ShopID: shop.ID, Shop: shop.Shop}); err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("default_payment_dispatch_failed", "error", err.Error())
	}
	return nil
}

// upgrade persists a refreshed token before touching the version so a
// failed version update cannot lose it.
func (s *Service) upgrade(ctx context.Context, e *Event) error {
	shop, err := s.shops.FindByCode(ctx, e.Shop)
	if err != nil {
		return err
	}
	if _, err := s.auth.Authenticate(ctx, shop); err != nil {
		return fmt.Errorf("failed to authenticate shop: %w", err)
	}
	return s.shops.UpdateVersion(ctx, shop.ID, e.ApplicationVersion)
}

func (s *Service) uninstall(ctx context.Context, e *Event) error {
	shop, err := s.shops.FindByCode(ctx, e.Shop)
	if errors.Is(err, credential.ErrShopNotFound) {
		logctx.FromCtx(ctx, s.log).Infow("app_store_uninstall_unknown_shop")
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.shops.DeactivateTokens(ctx, shop.ID); err != nil {
		return err
	}
	removed, err := s.registry.RemoveAll(ctx, shop)
	if err != nil {
		return err
	}
	logctx.FromCtx(ctx, s.log).Infow("app_store_uninstalled", "removed_payment_methods", removed)
	return nil
}

func newDispatcher(b *bus.Bus) Dispatcher { return b }

func registerHandlers(router *bus.Router, s *Service) {
	router.Register(MessageCreateDefaultPayment, s.HandleCreateDefaultPayment)
}

var Module = fx.Options(
	fx.Provide(newDispatcher, New),
	fx.Invoke(registerHandlers),
)
