package models

import (
	"time"

	"github.com/fatflowers/extpay/pkg/types"

	"gorm.io/datatypes"
)

// Transaction is a payment or refund reported by the payment provider.
// ExternalTransactionID is the idempotency key and is unique system-wide.
type Transaction struct {
	ID                    int64             `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	PaymentMethodID       string            `gorm:"column:payment_method_id;type:uuid;not null;index" json:"payment_method_id"`
	Type                  types.WebhookType `gorm:"column:type;type:varchar(64);not null;index" json:"type"`
	OrderID               *string           `gorm:"column:order_id;type:varchar(64)" json:"order_id"`
	ExternalPaymentID     *string           `gorm:"column:external_payment_id;type:varchar(64)" json:"external_payment_id"`
	ExternalTransactionID string            `gorm:"column:external_transaction_id;type:varchar(128);not null;uniqueIndex:unique_transactions_external_transaction_id" json:"external_transaction_id"`
	RefundID              *string           `gorm:"column:refund_id;type:varchar(64)" json:"refund_id"`
	CurrencyID            string            `gorm:"column:currency_id;type:varchar(16);not null" json:"currency_id"`
	CurrencyValue         types.Amount      `gorm:"column:currency_value;type:decimal(10,2);not null" json:"currency_value"`
	PaymentData           datatypes.JSON    `gorm:"column:payment_data;type:jsonb" json:"payment_data,omitempty"`
	SuccessLink           *string           `gorm:"column:success_link;type:varchar(1024)" json:"success_link"`
	FailLink              *string           `gorm:"column:fail_link;type:varchar(1024)" json:"fail_link"`
	Status                *string           `gorm:"column:status;type:varchar(32)" json:"status"`
	Comment               *string           `gorm:"column:comment;type:text" json:"comment"`
	CreatedAt             time.Time         `gorm:"column:created_at" json:"created_at"`
	TransactionDate       *time.Time        `gorm:"column:transaction_date;default:null" json:"transaction_date"`
}

func (Transaction) TableName() string { return "transactions" }
