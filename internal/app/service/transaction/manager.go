package transaction

import (
	"github.com/fatflowers/extpay/internal/models"
	"github.com/fatflowers/extpay/pkg/types"
)

// MessageProcessWebhook is the bus message produced by webhook intake.
const MessageProcessWebhook = "webhook.process"

// ProcessWebhook carries an accepted payment webhook to the recorder.
type ProcessWebhook struct {
	WebhookType types.WebhookType `json:"webhook_type"`
	ShopLicense string            `json:"shop_license"`
	WebhookID   string            `json:"webhook_id"`
	Payload     map[string]any    `json:"payload"`
}

// ScanTransactionsRequest is the admin listing query.
type ScanTransactionsRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanTransactionsResponse struct {
	Items []*models.Transaction `json:"items"`
	Total int64                 `json:"total"`
}

// ScannableFields are the columns admin filters and sorting may reference.
var ScannableFields = []string{
	"id",
	"type",
	"order_id",
	"external_payment_id",
	"external_transaction_id",
	"refund_id",
	"currency_id",
	"currency_value",
	"status",
	"created_at",
	"transaction_date",
}
