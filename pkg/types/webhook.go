package types

import "github.com/samber/lo"

type WebhookType string

const (
	WebhookTypeOrderTransactionCreate WebhookType = "order-transaction.create"
	WebhookTypeOrderRefundCreate      WebhookType = "order-refund.create"
)

var WebhookTypes = []WebhookType{
	WebhookTypeOrderTransactionCreate,
	WebhookTypeOrderRefundCreate,
}

func (t WebhookType) Valid() bool {
	return lo.Contains(WebhookTypes, t)
}

// Webhook request headers set by the payment provider.
const (
	HeaderShopLicense = "x-shop-license"
	HeaderWebhookName = "x-webhook-name"
	HeaderWebhookID   = "x-webhook-id"
	HeaderWebhookSHA1 = "x-webhook-sha1"
)

type LifecycleAction string

const (
	LifecycleActionInstall   LifecycleAction = "install"
	LifecycleActionUpgrade   LifecycleAction = "upgrade"
	LifecycleActionUninstall LifecycleAction = "uninstall"
)

var LifecycleActions = []LifecycleAction{
	LifecycleActionInstall,
	LifecycleActionUpgrade,
	LifecycleActionUninstall,
}

func (a LifecycleAction) Valid() bool {
	return lo.Contains(LifecycleActions, a)
}

type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending"
)
