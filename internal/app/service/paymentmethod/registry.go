// Package paymentmethod keeps the local registrations of shop payment methods.
package paymentmethod

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/extpay/internal/app/service/credential"
	"github.com/fatflowers/extpay/internal/models"
	"github.com/fatflowers/extpay/pkg/apperr"
	"github.com/fatflowers/extpay/pkg/config"
	"github.com/fatflowers/extpay/pkg/logctx"
	"github.com/fatflowers/extpay/pkg/tool"
)

var ErrNotFound = apperr.NotFound("payment method not found")

const defaultCacheTTL = 5 * time.Minute

// VerifyResult is returned to storefront scripts.
type VerifyResult struct {
	IsSupported bool   `json:"isSupported"`
	ShopCode    string `json:"shopCode"`
}

type Registry struct {
	db       *gorm.DB
	shops    *credential.Store
	cache    VerifyCache
	cacheTTL time.Duration
	log      *zap.SugaredLogger
	now      func() time.Time
}

func New(cfg *config.Config, db *gorm.DB, shops *credential.Store, cache VerifyCache, log *zap.SugaredLogger) *Registry {
	ttl := cfg.Verify.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Registry{db: db, shops: shops, cache: cache, cacheTTL: ttl, log: log, now: time.Now}
}

// Register activates paymentMethodID for the shop. A removed registration is
// reactivated instead of inserting a second row.
func (r *Registry) Register(ctx context.Context, shop *models.ShopInstallation, paymentMethodID int) (*models.ShopPaymentMethod, error) {
	var out models.ShopPaymentMethod
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.ShopPaymentMethod
		err := tx.Where("shop_id = ? AND payment_method_id = ?", shop.ID, paymentMethodID).
			Order("removed_at IS NULL DESC, created_at DESC").
			Take(&existing).Error
		switch {
		case err == nil && existing.IsActive():
			out = existing
			return nil
		case err == nil:
			if err := tx.Model(&existing).Update("removed_at", nil).Error; err != nil {
				return err
			}
			existing.RemovedAt = nil
			out = existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			out = models.ShopPaymentMethod{
				ID:              tool.GenerateUUIDV7(),
				ShopID:          shop.ID,
				PaymentMethodID: paymentMethodID,
				CreatedAt:       r.now(),
			}
			return tx.Create(&out).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register payment method: %w", err)
	}
	r.invalidate(ctx, shop.ShopURL)
	logctx.FromCtx(ctx, r.log).Infow("payment_method_registered", "shop", shop.Shop, "payment_method_id", paymentMethodID, "registration_id", out.ID)
	return &out, nil
}

// Remove soft-deletes the active registration.
func (r *Registry) Remove(ctx context.Context, shop *models.ShopInstallation, paymentMethodID int) error {
	res := r.db.WithContext(ctx).Model(&models.ShopPaymentMethod{}).
		Where("shop_id = ? AND payment_method_id = ? AND removed_at IS NULL", shop.ID, paymentMethodID).
		Update("removed_at", r.now())
	if res.Error != nil {
		return fmt.Errorf("failed to remove payment method: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	r.invalidate(ctx, shop.ShopURL)
	logctx.FromCtx(ctx, r.log).Infow("payment_method_removed", "shop", shop.Shop, "payment_method_id", paymentMethodID)
	return nil
}

// RemoveAll soft-deletes every active registration of the shop.
func (r *Registry) RemoveAll(ctx context.Context, shop *models.ShopInstallation) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.ShopPaymentMethod{}).
		Where("shop_id = ? AND removed_at IS NULL", shop.ID).
		Update("removed_at", r.now())
	if res.Error != nil {
		return 0, fmt.Errorf("failed to remove payment methods: %w", res.Error)
	}
	r.invalidate(ctx, shop.ShopURL)
	return res.RowsAffected, nil
}

func (r *Registry) FindActive(ctx context.Context, shopID int64, paymentMethodID int) (*models.ShopPaymentMethod, error) {
	return FindActive(r.db.WithContext(ctx), shopID, paymentMethodID)
}

// FindActive looks up the active registration using db, which may be a
// transaction.
func FindActive(db *gorm.DB, shopID int64, paymentMethodID int) (*models.ShopPaymentMethod, error) {
	var pm models.ShopPaymentMethod
	err := db.Where("shop_id = ? AND payment_method_id = ? AND removed_at IS NULL", shopID, paymentMethodID).
		Order("created_at DESC").
		Take(&pm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payment method: %w", err)
	}
	return &pm, nil
}

func (r *Registry) ListActive(ctx context.Context, shopID int64) ([]models.ShopPaymentMethod, error) {
	var rows []models.ShopPaymentMethod
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND removed_at IS NULL", shopID).
		Order("payment_method_id").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}
	return rows, nil
}

// Verify reports whether paymentMethodID is active for the shop at shopURL.
func (r *Registry) Verify(ctx context.Context, shopURL string, paymentMethodID int) (*VerifyResult, error) {
	normalized, err := credential.NormalizeShopURL(shopURL)
	if err != nil {
		return nil, err
	}
	lg := logctx.FromCtx(ctx, r.log)

	if cached, ok, err := r.cache.Get(ctx, normalized, paymentMethodID); err != nil {
		lg.Warnw("verify_cache_read_failed", "error", err.Error())
	} else if ok {
		return cached, nil
	}

	shop, err := r.shops.FindByURL(ctx, normalized)
	if err != nil {
		return nil, err
	}
	res := &VerifyResult{ShopCode: shop.Shop}
	_, err = r.FindActive(ctx, shop.ID, paymentMethodID)
	switch {
	case err == nil:
		res.IsSupported = true
	case errors.Is(err, ErrNotFound):
	default:
		return nil, err
	}

	if err := r.cache.Set(ctx, normalized, paymentMethodID, res, r.cacheTTL); err != nil {
		lg.Warnw("verify_cache_write_failed", "error", err.Error())
	}
	return res, nil
}

func (r *Registry) invalidate(ctx context.Context, shopURL string) {
	if err := r.cache.InvalidateShop(ctx, shopURL); err != nil {
		logctx.FromCtx(ctx, r.log).Warnw("verify_cache_invalidate_failed", "shop_url", shopURL, "error", err.Error())
	}
}

var Module = fx.Options(
	fx.Provide(NewVerifyCache, New),
)
