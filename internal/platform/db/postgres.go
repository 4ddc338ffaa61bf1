package db

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fatflowers/extpay/internal/models"
	cfgpkg "github.com/fatflowers/extpay/pkg/config"
	gormzap "github.com/fatflowers/extpay/pkg/gormlog"
)

func NewDB(l *zap.SugaredLogger, cfg *cfgpkg.Config) (*gorm.DB, error) {
	if cfg.Database.DSN == "" {
		l.Error("database DSN is empty")
		return nil, gorm.ErrInvalidDB
	}
	level := gormlogger.Warn
	if cfg.IsDev() {
		level = gormlogger.Info
	}
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), GormConfig(gormzap.New(l, level)))
	if err != nil {
		l.Errorf("failed to connect database: %v", err)
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// webhook bursts and bus workers share the pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	l.Infow("connected to postgres via DSN")
	return db, nil
}

// GormConfig is shared by every driver. TranslateError turns unique
// violations into gorm.ErrDuplicatedKey, which the idempotent inserts rely on.
func GormConfig(logger gormlogger.Interface) *gorm.Config {
	return &gorm.Config{Logger: logger, TranslateError: true}
}

var Module = fx.Options(
	fx.Provide(NewDB),
	fx.Invoke(AutoMigrate),
	fx.Invoke(registerDBClose),
)

// Models lists every persisted model in dependency order.
func Models() []any {
	return []any{
		&models.ShopInstallation{},
		&models.ShopToken{},
		&models.ShopPaymentMethod{},
		&models.Transaction{},
		&models.WebhookLog{},
	}
}

// AutoMigrate runs GORM migrations on startup
func AutoMigrate(l *zap.SugaredLogger, db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		l.Errorf("automigrate failed: %v", err)
		return err
	}
	l.Infow("automigrate completed")
	return nil
}

// registerDBClose ensures the underlying *sql.DB is closed on shutdown
func registerDBClose(lc fx.Lifecycle, l *zap.SugaredLogger, gdb *gorm.DB) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				l.Warnw("gorm: get sql.DB failed", "err", err)
				return nil
			}
			l.Infow("closing postgres connection pool")
			return sqlDB.Close()
		},
	})
}
