// Package bus decouples request acceptance from processing. Messages are
// delivered at least once to the handler registered for their name; handler
// errors that are Retryable are redelivered with exponential backoff until
// MaxAttempts, everything else is dead-lettered.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fatflowers/extpay/pkg/config"
	"github.com/fatflowers/extpay/pkg/logctx"
	"github.com/fatflowers/extpay/pkg/metrics"
	"github.com/fatflowers/extpay/pkg/tool"
)

var ErrNoHandler = errors.New("no handler registered for message")

// Message is the envelope carried by every transport.
type Message struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Key       string          `json:"key,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	TraceID   string          `json:"trace_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v any) error {
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", m.Name, err)
	}
	return nil
}

type Handler func(ctx context.Context, msg Message) error

// Router maps message names to handlers.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRouter() *Router {
	return &Router{handlers: map[string]Handler{}}
}

func (r *Router) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

func (r *Router) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Retryable is implemented by errors that should be redelivered.
type Retryable interface {
	Retryable() bool
}

func IsRetryable(err error) bool {
	var r Retryable
	return errors.As(err, &r) && r.Retryable()
}

type retryError struct{ err error }

func (e *retryError) Error() string   { return e.err.Error() }
func (e *retryError) Unwrap() error   { return e.err }
func (e *retryError) Retryable() bool { return true }

// Retry marks err as retryable.
func Retry(err error) error {
	if err == nil {
		return nil
	}
	return &retryError{err: err}
}

// Transport moves messages between Dispatch and the consumer loop.
type Transport interface {
	// Send enqueues msg, delivering it no earlier than delay from now.
	Send(ctx context.Context, msg Message, delay time.Duration) error
	DeadLetter(ctx context.Context, msg Message, cause error) error
	// Consume blocks, calling deliver for each message, until ctx is done.
	// A non-nil error from deliver leaves the message unacknowledged.
	Consume(ctx context.Context, deliver func(ctx context.Context, msg Message) error) error
	Close() error
}

type RetryPolicy struct {
	MaxAttempts int
	BackoffBase time.Duration
	MaxBackoff  time.Duration
}

// Backoff returns the delay before redelivering a message that failed on
// attempt: base * 2^(attempt-1), capped at MaxBackoff.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BackoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

func PolicyFromConfig(cfg *config.Config) RetryPolicy {
	p := RetryPolicy{MaxAttempts: cfg.Bus.MaxAttempts, BackoffBase: cfg.Bus.BackoffBase, MaxBackoff: 5 * time.Minute}
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BackoffBase <= 0 {
		p.BackoffBase = time.Second
	}
	return p
}

type Bus struct {
	transport Transport
	router    *Router
	policy    RetryPolicy
	log       *zap.SugaredLogger
	metrics   *metrics.Business
}

func New(t Transport, router *Router, policy RetryPolicy, log *zap.SugaredLogger, m *metrics.Business) *Bus {
	return &Bus{transport: t, router: router, policy: policy, log: log, metrics: m}
}

// Dispatch enqueues payload under name. key groups related messages on
// transports that partition (e.g. the shop license).
func (b *Bus) Dispatch(ctx context.Context, name, key string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", name, err)
	}
	msg := Message{
		ID:        tool.GenerateUUIDV7(),
		Name:      name,
		Key:       key,
		Payload:   raw,
		Attempt:   1,
		TraceID:   logctx.TraceID(ctx),
		CreatedAt: time.Now().UTC(),
	}
	if err := b.transport.Send(ctx, msg, 0); err != nil {
		return fmt.Errorf("failed to dispatch %s: %w", name, err)
	}
	logctx.FromCtx(ctx, b.log).Debugw("bus_message_dispatched", "name", name, "message_id", msg.ID)
	return nil
}

// Run consumes messages until ctx is done.
func (b *Bus) Run(ctx context.Context) error {
	return b.transport.Consume(ctx, b.deliver)
}

func (b *Bus) deliver(ctx context.Context, msg Message) error {
	if msg.TraceID != "" {
		ctx = logctx.WithTraceID(ctx, msg.TraceID)
	}
	lg := logctx.FromCtx(ctx, b.log).With("message_id", msg.ID, "name", msg.Name, "attempt", msg.Attempt)

	h, ok := b.router.Lookup(msg.Name)
	if !ok {
		lg.Errorw("bus_message_unroutable")
		b.count(msg.Name, "dead_letter")
		return b.transport.DeadLetter(ctx, msg, ErrNoHandler)
	}

	start := time.Now()
	err := h(ctx, msg)
	b.metrics.ObserveSince("bus", msg.Name, start)
	if err == nil {
		b.count(msg.Name, "handled")
		return nil
	}

	if IsRetryable(err) && msg.Attempt < b.policy.MaxAttempts {
		delay := b.policy.Backoff(msg.Attempt)
		lg.Warnw("bus_message_retry", "error", err.Error(), "backoff", delay.String(), "max_attempts", b.policy.MaxAttempts)
		next := msg
		next.Attempt++
		b.count(msg.Name, "retried")
		return b.transport.Send(ctx, next, delay)
	}

	lg.Errorw("bus_message_failed", "error", err.Error(), "retryable", IsRetryable(err))
	b.count(msg.Name, "dead_letter")
	return b.transport.DeadLetter(ctx, msg, err)
}

func (b *Bus) count(name, outcome string) {
	if b.metrics == nil {
		return
	}
	b.metrics.BusMessages.WithLabelValues(name, outcome).Inc()
}

func (b *Bus) Close() error {
	return b.transport.Close()
}

// DeadLetterEntry is a message that exhausted its attempts or failed
// permanently.
type DeadLetterEntry struct {
	Message  Message   `json:"message"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

func newDeadLetterEntry(msg Message, cause error) DeadLetterEntry {
	e := DeadLetterEntry{Message: msg, FailedAt: time.Now().UTC()}
	if cause != nil {
		e.Error = cause.Error()
	}
	return e
}
