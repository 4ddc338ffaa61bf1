package dbtest

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fatflowers/extpay/internal/models"
	"github.com/fatflowers/extpay/pkg/tool"
	"github.com/fatflowers/extpay/pkg/types"
)

type foreignKey struct {
	Table    string `gorm:"column:table"`
	From     string `gorm:"column:from"`
	To       string `gorm:"column:to"`
	OnDelete string `gorm:"column:on_delete"`
}

func foreignKeys(t *testing.T, gdb *gorm.DB, table string) []foreignKey {
	t.Helper()
	var fks []foreignKey
	require.NoError(t, gdb.Raw("PRAGMA foreign_key_list(" + table + ")").Scan(&fks).Error)
	return fks
}

func TestNewSQLite_ForeignKeyDirection(t *testing.T) {
	gdb := NewSQLite(t)

	assert.Equal(t, []foreignKey{{Table: "shop_payment_methods", From: "payment_method_id", To: "id", OnDelete: "CASCADE"}},
		foreignKeys(t, gdb, "transactions"))
	assert.Equal(t, []foreignKey{{Table: "shop_app_installations", From: "shop_id", To: "id", OnDelete: "CASCADE"}},
		foreignKeys(t, gdb, "shop_payment_methods"))
	assert.Equal(t, []foreignKey{{Table: "shop_app_installations", From: "shop_app_installation_id", To: "id", OnDelete: "CASCADE"}},
		foreignKeys(t, gdb, "shop_app_tokens"))
}

func TestNewSQLite_PaymentMethodWithoutTransactions(t *testing.T) {
	gdb := NewSQLite(t)

	shop := &models.ShopInstallation{Shop: "lic-1", ShopURL: "https://shop.example", AuthCode: "code"}
	require.NoError(t, gdb.Create(shop).Error)
	pm := &models.ShopPaymentMethod{ID: tool.GenerateUUIDV7(), ShopID: shop.ID, PaymentMethodID: 4242}
	require.NoError(t, gdb.Create(pm).Error)

	amount, err := types.ParseAmount("10")
	require.NoError(t, err)
	txn := &models.Transaction{
		PaymentMethodID:       pm.ID,
		Type:                  types.WebhookTypeOrderTransactionCreate,
		ExternalTransactionID: "t1",
		CurrencyID:            "PLN",
		CurrencyValue:         amount,
		Status:                lo.ToPtr(string(types.TransactionStatusPending)),
		TransactionDate:       lo.ToPtr(time.Now()),
	}
	require.NoError(t, gdb.Create(txn).Error)

	orphan := *txn
	orphan.ID = 0
	orphan.ExternalTransactionID = "t2"
	orphan.PaymentMethodID = tool.GenerateUUIDV7()
	assert.Error(t, gdb.Create(&orphan).Error, "transaction must reference an existing registration")

	require.NoError(t, gdb.Delete(pm).Error)
	var count int64
	require.NoError(t, gdb.Model(&models.Transaction{}).Count(&count).Error)
	assert.Zero(t, count, "transactions are removed with their registration")
}
