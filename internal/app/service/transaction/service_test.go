package transaction

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatflowers/extpay/internal/models"
	"github.com/fatflowers/extpay/pkg/apperr"
	"github.com/fatflowers/extpay/pkg/tool"
	"github.com/fatflowers/extpay/pkg/types"
)

func TestRepository_Scan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := NewRepository(f.db)

	for i := 1; i <= 5; i++ {
		require.NoError(t, repo.Create(ctx, &models.Transaction{
			PaymentMethodID:       f.method.ID,
			Type:                  types.WebhookTypeOrderTransactionCreate,
			ExternalTransactionID: fmt.Sprintf("t%d", i),
			CurrencyID:            "PLN",
			CurrencyValue:         mustAmount(t, fmt.Sprint(i)),
		}))
	}

	other := &models.ShopInstallation{Shop: "lic2", ShopURL: "https://other.example.com", AuthCode: "c"}
	require.NoError(t, f.db.Create(other).Error)
	otherMethod := &models.ShopPaymentMethod{ID: tool.GenerateUUIDV7(), ShopID: other.ID, PaymentMethodID: 42}
	require.NoError(t, f.db.Create(otherMethod).Error)
	require.NoError(t, repo.Create(ctx, &models.Transaction{PaymentMethodID: otherMethod.ID, Type: types.WebhookTypeOrderTransactionCreate, ExternalTransactionID: "x1", CurrencyID: "PLN"}))

	res, err := repo.Scan(ctx, f.shop.ID, &ScanTransactionsRequest{Size: 2, SortBy: "external_transaction_id", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.Total)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "t1", res.Items[0].ExternalTransactionID)

	res, err = repo.Scan(ctx, f.shop.ID, &ScanTransactionsRequest{
		Filters: []*types.CommonFilter{{Field: "external_transaction_id", Operator: types.CommonFilterOperatorIn, Values: []any{"t2", "t4", "x1"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)

	_, err = repo.Scan(ctx, f.shop.ID, &ScanTransactionsRequest{
		Filters: []*types.CommonFilter{{Field: "payment_method_id; DROP TABLE transactions", Operator: types.CommonFilterOperatorEq, Values: []any{1}}},
		SortBy:  "nope",
	})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Violations, 2)
}
