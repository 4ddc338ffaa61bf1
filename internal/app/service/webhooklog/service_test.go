package webhooklog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/extpay/internal/models"
	"github.com/fatflowers/extpay/internal/platform/db/dbtest"
	"github.com/fatflowers/extpay/pkg/logctx"
)

func TestService_SaveAndQuery(t *testing.T) {
	s := New(dbtest.NewSQLite(t), zap.NewNop().Sugar())
	ctx := logctx.WithTraceID(context.Background(), "trace-1")

	s.Save(ctx, &models.WebhookLog{WebhookID: "id1", WebhookType: "order-transaction.create", Status: models.WebhookLogStatusAccepted, Data: JSON(map[string]string{"order_id": "o1"})})
	s.Wait()
	s.Save(ctx, &models.WebhookLog{WebhookID: "id1", Status: models.WebhookLogStatusHandled})
	s.Save(ctx, nil)
	s.Wait()

	rows, err := s.ByWebhookID(context.Background(), "id1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.WebhookLogStatusAccepted, rows[0].Status)
	assert.Equal(t, "trace-1", rows[0].TraceID)
	assert.NotEmpty(t, rows[0].ID)
	assert.JSONEq(t, `{"order_id":"o1"}`, string(rows[0].Data))
	assert.Equal(t, models.WebhookLogStatusHandled, rows[1].Status)
}

func TestJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, string(JSON(map[string]int{"a": 1})))
	assert.Equal(t, "null", string(JSON(make(chan int))))
}
