// Package events dispatches transaction domain events to in-process listeners.
package events

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/fatflowers/extpay/pkg/logctx"
	"github.com/fatflowers/extpay/pkg/types"
)

const (
	NameTransactionCreated = "transaction.created"
	NameTransactionFailed  = "transaction.failed"

	ReasonShopNotFound          = "Shop not found"
	ReasonPaymentMethodNotFound = "Payment method not found"
)

type Event interface {
	EventName() string
}

// TransactionCreated is emitted after the transaction row is committed.
type TransactionCreated struct {
	TransactionID         int64             `json:"transactionId"`
	PaymentMethodID       string            `json:"paymentMethodId"`
	ShopID                int64             `json:"shopId"`
	ExternalTransactionID string            `json:"externalTransactionId"`
	WebhookID             string            `json:"webhookId,omitempty"`
	WebhookType           types.WebhookType `json:"webhookType"`
}

func (TransactionCreated) EventName() string { return NameTransactionCreated }

// TransactionFailed is emitted when a webhook cannot be recorded.
type TransactionFailed struct {
	Reason                string            `json:"reason"`
	ExternalTransactionID string            `json:"externalTransactionId"`
	ShopLicense           string            `json:"shopLicense"`
	WebhookID             string            `json:"webhookId,omitempty"`
	WebhookType           types.WebhookType `json:"webhookType"`
}

func (TransactionFailed) EventName() string { return NameTransactionFailed }

type Listener interface {
	Handle(ctx context.Context, e Event) error
}

type ListenerFunc func(ctx context.Context, e Event) error

func (f ListenerFunc) Handle(ctx context.Context, e Event) error { return f(ctx, e) }

// Dispatcher calls listeners synchronously in subscription order. A failing
// listener is logged and does not stop the others.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners []Listener
	log       *zap.SugaredLogger
}

func NewDispatcher(log *zap.SugaredLogger, listeners ...Listener) *Dispatcher {
	return &Dispatcher{listeners: listeners, log: log}
}

func (d *Dispatcher) Subscribe(l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, l)
}

func (d *Dispatcher) Dispatch(ctx context.Context, e Event) {
	d.mu.RLock()
	listeners := append([]Listener(nil), d.listeners...)
	d.mu.RUnlock()

	for _, l := range listeners {
		if err := l.Handle(ctx, e); err != nil {
			logctx.FromCtx(ctx, d.log).Errorw("event_listener_failed", "event", e.EventName(), "error", err.Error())
		}
	}
}
