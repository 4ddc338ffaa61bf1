package models

import (
	"time"

	"gorm.io/datatypes"
)

type WebhookLogStatus string

const (
	WebhookLogStatusRejected     WebhookLogStatus = "rejected"
	WebhookLogStatusAccepted     WebhookLogStatus = "accepted"
	WebhookLogStatusHandled      WebhookLogStatus = "handled"
	WebhookLogStatusHandleFailed WebhookLogStatus = "handle_failed"
)

// WebhookLog is an append-only audit trail of payment webhook deliveries.
type WebhookLog struct {
	ID                    string           `gorm:"column:id;type:uuid;primary_key" json:"id"`
	WebhookID             string           `gorm:"column:webhook_id;type:varchar(128);index" json:"webhook_id"`
	WebhookType           string           `gorm:"column:webhook_type;type:varchar(64)" json:"webhook_type"`
	ShopLicense           string           `gorm:"column:shop_license;type:varchar(128);index" json:"shop_license"`
	TraceID               string           `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	ExternalTransactionID string           `gorm:"column:external_transaction_id;type:varchar(128)" json:"external_transaction_id"`
	Data                  datatypes.JSON   `gorm:"column:data;type:jsonb" json:"data"`
	Result                *datatypes.JSON  `gorm:"column:result;type:jsonb" json:"result"`
	Status                WebhookLogStatus `gorm:"column:status;type:varchar(64);not null" json:"status"`
	CreatedAt             time.Time        `json:"created_at"`
}

func (WebhookLog) TableName() string { return "webhook_log" }
