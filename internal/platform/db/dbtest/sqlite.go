// Package dbtest opens throwaway databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fatflowers/extpay/internal/platform/db"
	gormzap "github.com/fatflowers/extpay/pkg/gormlog"
)

// NewSQLite returns a migrated sqlite database stored in t.TempDir().
func NewSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	gdb, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on&_busy_timeout=5000"), db.GormConfig(gormzap.New(zap.NewNop().Sugar(), gormlogger.Silent)))
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(zap.NewNop().Sugar(), gdb))
	return gdb
}
