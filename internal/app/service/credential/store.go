// Package credential persists shop installations and their OAuth tokens.
package credential

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/extpay/internal/models"
	"github.com/fatflowers/extpay/pkg/apperr"
	"github.com/fatflowers/extpay/pkg/logctx"
)

var (
	ErrShopNotFound  = apperr.NotFound("shop not found")
	ErrTokenNotFound = apperr.NotFound("active token not found")
	ErrInvalidURL    = apperr.BadRequest("invalid shop url")
)

type Store struct {
	db  *gorm.DB
	log *zap.SugaredLogger
	now func() time.Time
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Store {
	return &Store{db: db, log: log, now: time.Now}
}

// NormalizeShopURL reduces a shop URL to lowercase scheme://host[:port].
// A missing scheme defaults to https.
func NormalizeShopURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidURL
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", ErrInvalidURL
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", ErrInvalidURL
	}
	return scheme + "://" + strings.ToLower(u.Host), nil
}

func (s *Store) FindByCode(ctx context.Context, code string) (*models.ShopInstallation, error) {
	return s.findOne(ctx, "shop = ?", code)
}

func (s *Store) FindByURL(ctx context.Context, rawURL string) (*models.ShopInstallation, error) {
	normalized, err := NormalizeShopURL(rawURL)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, "shop_url = ?", normalized)
}

func (s *Store) FindByID(ctx context.Context, id int64) (*models.ShopInstallation, error) {
	return s.findOne(ctx, "id = ?", id)
}

func (s *Store) findOne(ctx context.Context, query string, args ...any) (*models.ShopInstallation, error) {
	var shop models.ShopInstallation
	err := s.db.WithContext(ctx).Where(query, args...).Take(&shop).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrShopNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load shop: %w", err)
	}
	return &shop, nil
}

// SaveInstallation creates the installation or updates the one with the same
// shop code. inst.ID is populated on return.
func (s *Store) SaveInstallation(ctx context.Context, inst *models.ShopInstallation) error {
	normalized, err := NormalizeShopURL(inst.ShopURL)
	if err != nil {
		return err
	}
	inst.ShopURL = normalized
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = s.now()
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shop"}},
		DoUpdates: clause.AssignmentColumns([]string{"shop_url", "application_version", "auth_code"}),
	}).Omit(clause.Associations).Create(inst).Error
	if err != nil {
		return fmt.Errorf("failed to save shop installation: %w", err)
	}

	// upsert does not report the id of an updated row on every driver
	saved, err := s.FindByCode(ctx, inst.Shop)
	if err != nil {
		return err
	}
	inst.ID = saved.ID
	inst.CreatedAt = saved.CreatedAt
	return nil
}

// Install saves the installation and makes token its only active token in
// one DB transaction.
func (s *Store) Install(ctx context.Context, inst *models.ShopInstallation, token *models.ShopToken) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st := &Store{db: tx, log: s.log, now: s.now}
		if err := st.SaveInstallation(ctx, inst); err != nil {
			return err
		}
		return st.RotateToken(ctx, inst.ID, token)
	})
}

// RotateToken deactivates every active token of the shop and stores token as
// the only active one.
func (s *Store) RotateToken(ctx context.Context, shopID int64, token *models.ShopToken) error {
	token.ShopAppInstallationID = shopID
	token.IsActive = true
	if token.CreatedAt.IsZero() {
		token.CreatedAt = s.now()
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ShopToken{}).
			Where("shop_app_installation_id = ? AND is_active = ?", shopID, true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
	if err != nil {
		return fmt.Errorf("failed to rotate token: %w", err)
	}
	logctx.FromCtx(ctx, s.log).Infow("shop_token_rotated", "shop_id", shopID, "expires_at", token.ExpiresAt)
	return nil
}

func (s *Store) ActiveToken(ctx context.Context, shopID int64) (*models.ShopToken, error) {
	var token models.ShopToken
	err := s.db.WithContext(ctx).
		Where("shop_app_installation_id = ? AND is_active = ?", shopID, true).
		Order("id DESC").
		Take(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active token: %w", err)
	}
	return &token, nil
}

func (s *Store) DeactivateTokens(ctx context.Context, shopID int64) error {
	err := s.db.WithContext(ctx).Model(&models.ShopToken{}).
		Where("shop_app_installation_id = ? AND is_active = ?", shopID, true).
		Update("is_active", false).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate tokens: %w", err)
	}
	return nil
}

func (s *Store) UpdateVersion(ctx context.Context, shopID int64, version int) error {
	res := s.db.WithContext(ctx).Model(&models.ShopInstallation{}).
		Where("id = ?", shopID).
		Update("application_version", version)
	if res.Error != nil {
		return fmt.Errorf("failed to update application version: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrShopNotFound
	}
	return nil
}

var Module = fx.Options(
	fx.Provide(New),
)
