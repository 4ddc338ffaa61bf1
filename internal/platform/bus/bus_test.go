package bus

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/extpay/pkg/metrics"
)

type tempErr struct{}

func (tempErr) Error() string   { return "upstream unavailable" }
func (tempErr) Retryable() bool { return true }

func newTestBus(t *testing.T, maxAttempts int) (*Bus, *MemoryTransport, *Router) {
	t.Helper()
	transport := NewMemoryTransport(2, 16, zap.NewNop().Sugar())
	router := NewRouter()
	policy := RetryPolicy{MaxAttempts: maxAttempts, BackoffBase: time.Millisecond, MaxBackoff: 10 * time.Millisecond}
	b := New(transport, router, policy, zap.NewNop().Sugar(), metrics.NewBusiness(prometheus.NewRegistry()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = b.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = b.Close()
	})
	return b, transport, router
}

func TestBus_DeliversPayload(t *testing.T) {
	b, transport, router := newTestBus(t, 3)

	type payload struct {
		Shop string `json:"shop"`
	}
	got := make(chan payload, 1)
	router.Register("greet", func(_ context.Context, msg Message) error {
		var p payload
		require.NoError(t, msg.Decode(&p))
		assert.Equal(t, 1, msg.Attempt)
		got <- p
		return nil
	})

	require.NoError(t, b.Dispatch(context.Background(), "greet", "shop-1", payload{Shop: "shop-1"}))
	transport.Wait()

	select {
	case p := <-got:
		assert.Equal(t, "shop-1", p.Shop)
	default:
		t.Fatal("handler was not called")
	}
	assert.Empty(t, transport.DeadLetters())
}

func TestBus_RetriesRetryableErrors(t *testing.T) {
	b, transport, router := newTestBus(t, 3)

	var calls atomic.Int32
	router.Register("flaky", func(_ context.Context, msg Message) error {
		if calls.Add(1) < 3 {
			return tempErr{}
		}
		assert.Equal(t, 3, msg.Attempt)
		return nil
	})

	require.NoError(t, b.Dispatch(context.Background(), "flaky", "", map[string]int{"n": 1}))
	transport.Wait()

	assert.Equal(t, int32(3), calls.Load())
	assert.Empty(t, transport.DeadLetters())
}

func TestBus_DeadLettersAfterMaxAttempts(t *testing.T) {
	b, transport, router := newTestBus(t, 2)

	var calls atomic.Int32
	router.Register("down", func(context.Context, Message) error {
		calls.Add(1)
		return tempErr{}
	})

	require.NoError(t, b.Dispatch(context.Background(), "down", "", struct{}{}))
	transport.Wait()

	assert.Equal(t, int32(2), calls.Load())
	dead := transport.DeadLetters()
	require.Len(t, dead, 1)
	assert.Equal(t, 2, dead[0].Message.Attempt)
	assert.Equal(t, "upstream unavailable", dead[0].Error)
}

func TestBus_PermanentErrorIsNotRetried(t *testing.T) {
	b, transport, router := newTestBus(t, 5)

	var calls atomic.Int32
	router.Register("broken", func(context.Context, Message) error {
		calls.Add(1)
		return errors.New("invalid payment data")
	})

	require.NoError(t, b.Dispatch(context.Background(), "broken", "", struct{}{}))
	transport.Wait()

	assert.Equal(t, int32(1), calls.Load())
	require.Len(t, transport.DeadLetters(), 1)
}

func TestBus_RetryWrapper(t *testing.T) {
	b, transport, router := newTestBus(t, 2)

	var calls atomic.Int32
	router.Register("wrapped", func(context.Context, Message) error {
		if calls.Add(1) == 1 {
			return Retry(errors.New("lock timeout"))
		}
		return nil
	})

	require.NoError(t, b.Dispatch(context.Background(), "wrapped", "", struct{}{}))
	transport.Wait()

	assert.Equal(t, int32(2), calls.Load())
	assert.Nil(t, Retry(nil))
}

func TestBus_UnroutableMessageIsDeadLettered(t *testing.T) {
	b, transport, _ := newTestBus(t, 3)

	require.NoError(t, b.Dispatch(context.Background(), "nobody.listens", "", struct{}{}))
	transport.Wait()

	dead := transport.DeadLetters()
	require.Len(t, dead, 1)
	assert.Equal(t, ErrNoHandler.Error(), dead[0].Error)
}

func TestMemoryTransport_SendAfterClose(t *testing.T) {
	transport := NewMemoryTransport(1, 1, zap.NewNop().Sugar())
	require.NoError(t, transport.Close())
	require.NoError(t, transport.Close())

	err := transport.Send(context.Background(), Message{ID: "1", Name: "x"}, 0)
	assert.ErrorIs(t, err, ErrTransportClosed)
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 10, BackoffBase: time.Second, MaxBackoff: 10 * time.Second}

	assert.Equal(t, time.Second, p.Backoff(0))
	assert.Equal(t, time.Second, p.Backoff(1))
	assert.Equal(t, 2*time.Second, p.Backoff(2))
	assert.Equal(t, 4*time.Second, p.Backoff(3))
	assert.Equal(t, 8*time.Second, p.Backoff(4))
	assert.Equal(t, 10*time.Second, p.Backoff(5))
	assert.Equal(t, 10*time.Second, p.Backoff(40))
}

func TestKafkaMessageCodec(t *testing.T) {
	msg := Message{ID: "m-1", Name: "payment.create_default", Key: "lic-1", Payload: []byte(`{"shop":"lic-1"}`), Attempt: 2}

	km, err := encodeKafkaMessage(msg, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "lic-1", string(km.Key))
	assert.Equal(t, "payment.create_default", headerValue(km, headerMessageName))
	assert.Equal(t, "2", headerValue(km, headerAttempt))

	decoded, notBefore, err := decodeKafkaMessage(km)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, decoded.ID)
	assert.Equal(t, msg.Attempt, decoded.Attempt)
	assert.JSONEq(t, `{"shop":"lic-1"}`, string(decoded.Payload))
	assert.WithinDuration(t, time.Now().Add(time.Minute), notBefore, 5*time.Second)

	km, err = encodeKafkaMessage(Message{ID: "m-2", Name: "x"}, 0)
	require.NoError(t, err)
	assert.Equal(t, "m-2", string(km.Key))
	_, notBefore, err = decodeKafkaMessage(km)
	require.NoError(t, err)
	assert.True(t, notBefore.IsZero())

	km.Value = []byte("not json")
	_, _, err = decodeKafkaMessage(km)
	assert.Error(t, err)
}

func TestRetryUntilDone_RetriesSameOperation(t *testing.T) {
	policy := RetryPolicy{BackoffBase: time.Millisecond, MaxBackoff: 2 * time.Millisecond}

	var calls, reported int
	ok := retryUntilDone(context.Background(), policy, func(context.Context) error {
		calls++
		if calls < 4 {
			return errors.New("dlq writer unavailable")
		}
		return nil
	}, func(attempt int, err error) {
		reported++
		assert.Equal(t, reported, attempt)
	})

	assert.True(t, ok)
	assert.Equal(t, 4, calls)
	assert.Equal(t, 3, reported)
}

func TestRetryUntilDone_StopsWhenContextEnds(t *testing.T) {
	policy := RetryPolicy{BackoffBase: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	done := make(chan bool, 1)
	go func() {
		done <- retryUntilDone(ctx, policy, func(context.Context) error {
			calls++
			return errors.New("broker down")
		}, func(int, error) { cancel() })
	}()

	select {
	case ok := <-done:
		assert.False(t, ok)
		assert.Equal(t, 1, calls)
	case <-time.After(5 * time.Second):
		t.Fatal("retry loop did not stop on cancel")
	}
}

func TestSleepCtx(t *testing.T) {
	assert.True(t, sleepCtx(context.Background(), 0))
	assert.True(t, sleepCtx(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepCtx(ctx, time.Hour))
	assert.False(t, sleepCtx(ctx, 0))
}
