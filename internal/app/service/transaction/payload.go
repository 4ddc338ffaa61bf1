package transaction

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"gorm.io/datatypes"

	"github.com/fatflowers/extpay/internal/models"
	"github.com/fatflowers/extpay/pkg/apperr"
	"github.com/fatflowers/extpay/pkg/types"
)

// TransactionPayload is the validated body of an order-transaction.create
// webhook.
type TransactionPayload struct {
	OrderID       string
	PaymentID     int
	TransactionID string
	CurrencyID    string
	CurrencyValue types.Amount
	PaymentData   datatypes.JSON
	SuccessLink   string
	FailLink      string
	Comment       string
}

// RefundPayload is the validated body of an order-refund.create webhook.
type RefundPayload struct {
	TransactionID string
	RefundID      string
	OrderID       string
	CurrencyValue *types.Amount
}

// ParseTransactionPayload validates every field and reports all violations
// at once.
func ParseTransactionPayload(p map[string]any) (*TransactionPayload, error) {
	verr := &apperr.ValidationError{}
	out := &TransactionPayload{
		OrderID:       requiredString(p, "order_id", verr),
		TransactionID: requiredString(p, "transaction_id", verr),
		CurrencyID:    requiredString(p, "currency_id", verr),
		SuccessLink:   optionalString(p, "success_link"),
		FailLink:      optionalString(p, "fail_link"),
		Comment:       optionalString(p, "comment"),
	}

	if raw := requiredString(p, "payment_id", verr); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			verr.Add("payment_id must be a positive integer")
		}
		out.PaymentID = id
	}

	if raw := requiredString(p, "currency_value", verr); raw != "" {
		amount, err := types.ParseAmount(raw)
		if err != nil {
			verr.Add("currency_value must be a decimal number")
		}
		out.CurrencyValue = amount
	}

	if v, ok := p["payment_data"]; ok && v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			verr.Add("payment_data must be valid JSON")
		}
		out.PaymentData = datatypes.JSON(b)
	}

	if err := verr.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func ParseRefundPayload(p map[string]any) (*RefundPayload, error) {
	verr := &apperr.ValidationError{}
	out := &RefundPayload{
		TransactionID: requiredString(p, "transaction_id", verr),
		RefundID:      optionalString(p, "refund_id"),
		OrderID:       optionalString(p, "order_id"),
	}
	if raw := optionalString(p, "currency_value"); raw != "" {
		amount, err := types.ParseAmount(raw)
		if err != nil {
			verr.Add("currency_value must be a decimal number")
		}
		out.CurrencyValue = &amount
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Model builds the pending transaction row for the registration.
func (p *TransactionPayload) Model(paymentMethodID string, now time.Time) *models.Transaction {
	return &models.Transaction{
		PaymentMethodID:       paymentMethodID,
		Type:                  types.WebhookTypeOrderTransactionCreate,
		OrderID:               lo.ToPtr(p.OrderID),
		ExternalPaymentID:     lo.ToPtr(strconv.Itoa(p.PaymentID)),
		ExternalTransactionID: p.TransactionID,
		CurrencyID:            p.CurrencyID,
		CurrencyValue:         p.CurrencyValue,
		PaymentData:           p.PaymentData,
		SuccessLink:           lo.EmptyableToPtr(p.SuccessLink),
		FailLink:              lo.EmptyableToPtr(p.FailLink),
		Status:                lo.ToPtr(string(types.TransactionStatusPending)),
		Comment:               lo.EmptyableToPtr(p.Comment),
		CreatedAt:             now,
		TransactionDate:       lo.ToPtr(now),
	}
}

func requiredString(p map[string]any, key string, verr *apperr.ValidationError) string {
	s := optionalString(p, key)
	if s == "" {
		verr.Add(key + " is required")
	}
	return s
}

// optionalString accepts JSON strings and numbers.
func optionalString(p map[string]any, key string) string {
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
