package bus

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrTransportClosed = errors.New("bus transport closed")

// MemoryTransport runs the bus inside the process: a buffered queue served by
// a fixed number of workers. Messages do not survive a restart.
type MemoryTransport struct {
	queue   chan Message
	workers int
	done    chan struct{}
	once    sync.Once
	log     *zap.SugaredLogger

	inflight sync.WaitGroup

	mu   sync.Mutex
	dead []DeadLetterEntry
}

func NewMemoryTransport(workers, buffer int, log *zap.SugaredLogger) *MemoryTransport {
	if workers < 1 {
		workers = 1
	}
	if buffer < 1 {
		buffer = 1
	}
	return &MemoryTransport{
		queue:   make(chan Message, buffer),
		workers: workers,
		done:    make(chan struct{}),
		log:     log,
	}
}

func (t *MemoryTransport) Send(ctx context.Context, msg Message, delay time.Duration) error {
	select {
	case <-t.done:
		return ErrTransportClosed
	default:
	}
	t.inflight.Add(1)
	if delay <= 0 {
		return t.push(ctx, msg)
	}
	time.AfterFunc(delay, func() {
		if err := t.push(context.Background(), msg); err != nil {
			t.log.Warnw("bus_delayed_message_dropped", "message_id", msg.ID, "error", err.Error())
		}
	})
	return nil
}

func (t *MemoryTransport) push(ctx context.Context, msg Message) error {
	select {
	case t.queue <- msg:
		return nil
	case <-t.done:
		t.inflight.Done()
		return ErrTransportClosed
	case <-ctx.Done():
		t.inflight.Done()
		return ctx.Err()
	}
}

func (t *MemoryTransport) DeadLetter(_ context.Context, msg Message, cause error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dead = append(t.dead, newDeadLetterEntry(msg, cause))
	return nil
}

// DeadLetters returns a copy of the dead-lettered messages.
func (t *MemoryTransport) DeadLetters() []DeadLetterEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]DeadLetterEntry(nil), t.dead...)
}

func (t *MemoryTransport) Consume(ctx context.Context, deliver func(ctx context.Context, msg Message) error) error {
	var wg sync.WaitGroup
	for i := 0; i < t.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.done:
					return
				case msg := <-t.queue:
					if err := deliver(ctx, msg); err != nil {
						t.log.Errorw("bus_delivery_failed", "message_id", msg.ID, "name", msg.Name, "error", err.Error())
					}
					t.inflight.Done()
				}
			}
		}()
	}
	wg.Wait()
	return nil
}

// Wait blocks until every sent message, including scheduled retries, has
// been delivered.
func (t *MemoryTransport) Wait() {
	t.inflight.Wait()
}

func (t *MemoryTransport) Close() error {
	t.once.Do(func() { close(t.done) })
	return nil
}
