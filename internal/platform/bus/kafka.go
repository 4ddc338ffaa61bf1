package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fatflowers/extpay/pkg/config"
)

const (
	headerMessageName = "x-message-name"
	headerAttempt     = "x-attempt"
	headerNotBefore   = "x-not-before"
	headerError       = "x-error"
)

// KafkaTransport publishes messages to a topic and consumes them through a
// consumer group. Offsets are committed only once a message is handled,
// re-enqueued for retry or dead-lettered.
type KafkaTransport struct {
	writer    *kafka.Writer
	dlqWriter *kafka.Writer
	reader    kafka.ReaderConfig
	// stall paces retries of broker operations that block the partition.
	stall RetryPolicy
	log   *zap.SugaredLogger
}

func NewKafkaTransport(cfg config.KafkaConfig, log *zap.SugaredLogger) (*KafkaTransport, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("bus.kafka.brokers is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("bus.kafka.topic is required")
	}
	dlqTopic := cfg.DLQTopic
	if dlqTopic == "" {
		dlqTopic = cfg.Topic + ".dlq"
	}
	groupID := cfg.GroupID
	if groupID == "" {
		groupID = "extpay-worker"
	}
	return &KafkaTransport{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		dlqWriter: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        dlqTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		reader: kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			GroupID:  groupID,
			Topic:    cfg.Topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		},
		stall: RetryPolicy{BackoffBase: 500 * time.Millisecond, MaxBackoff: 30 * time.Second},
		log:   log,
	}, nil
}

func (t *KafkaTransport) Send(ctx context.Context, msg Message, delay time.Duration) error {
	km, err := encodeKafkaMessage(msg, delay)
	if err != nil {
		return err
	}
	if err := t.writer.WriteMessages(ctx, km); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

func (t *KafkaTransport) DeadLetter(ctx context.Context, msg Message, cause error) error {
	value, err := json.Marshal(newDeadLetterEntry(msg, cause))
	if err != nil {
		return fmt.Errorf("failed to encode dead letter: %w", err)
	}
	km := kafka.Message{
		Key:   []byte(messageKey(msg)),
		Value: value,
		Headers: []kafka.Header{
			{Key: headerMessageName, Value: []byte(msg.Name)},
		},
	}
	if cause != nil {
		km.Headers = append(km.Headers, kafka.Header{Key: headerError, Value: []byte(cause.Error())})
	}
	if err := t.dlqWriter.WriteMessages(ctx, km); err != nil {
		return fmt.Errorf("failed to write dead letter to kafka: %w", err)
	}
	return nil
}

// Consume handles one message at a time. A message whose delivery or dead
// letter write fails is retried in place until it succeeds or ctx ends: the
// reader must not move past it, or the next commit would skip it.
func (t *KafkaTransport) Consume(ctx context.Context, deliver func(ctx context.Context, msg Message) error) error {
	reader := kafka.NewReader(t.reader)
	defer reader.Close()

	t.log.Infow("bus_kafka_consumer_started", "topic", t.reader.Topic, "group_id", t.reader.GroupID)
	defer t.log.Infow("bus_kafka_consumer_stopped")

	fetchFailures := 0
	for {
		km, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fetchFailures++
			t.log.Errorw("bus_kafka_fetch_failed", "error", err.Error(), "failures", fetchFailures)
			if !sleepCtx(ctx, t.stall.Backoff(fetchFailures)) {
				return nil
			}
			continue
		}
		fetchFailures = 0

		msg, notBefore, err := decodeKafkaMessage(km)
		if err != nil {
			t.log.Errorw("bus_kafka_message_malformed", "partition", km.Partition, "offset", km.Offset, "error", err.Error())
			raw := Message{Name: headerValue(km, headerMessageName), Payload: json.RawMessage(strconv.Quote(string(km.Value)))}
			cause := err
			ok := retryUntilDone(ctx, t.stall, func(ctx context.Context) error {
				return t.DeadLetter(ctx, raw, cause)
			}, func(attempt int, err error) {
				t.log.Errorw("bus_kafka_dead_letter_failed", "offset", km.Offset, "attempt", attempt, "error", err.Error())
			})
			if !ok {
				return nil
			}
			t.commit(ctx, reader, km)
			continue
		}

		if !sleepCtx(ctx, time.Until(notBefore)) {
			return nil
		}

		ok := retryUntilDone(ctx, t.stall, func(ctx context.Context) error {
			return deliver(ctx, msg)
		}, func(attempt int, err error) {
			t.log.Errorw("bus_delivery_failed", "message_id", msg.ID, "name", msg.Name, "offset", km.Offset, "attempt", attempt, "error", err.Error())
		})
		if !ok {
			return nil
		}
		t.commit(ctx, reader, km)
	}
}

// retryUntilDone runs op until it succeeds, waiting policy.Backoff(n) after
// the n-th failure. It returns false when ctx ends first.
func retryUntilDone(ctx context.Context, policy RetryPolicy, op func(ctx context.Context) error, onErr func(attempt int, err error)) bool {
	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		onErr(attempt, err)
		if !sleepCtx(ctx, policy.Backoff(attempt)) {
			return false
		}
	}
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (t *KafkaTransport) commit(ctx context.Context, reader *kafka.Reader, km kafka.Message) {
	if err := reader.CommitMessages(ctx, km); err != nil {
		t.log.Errorw("bus_kafka_commit_failed", "partition", km.Partition, "offset", km.Offset, "error", err.Error())
	}
}

func (t *KafkaTransport) Close() error {
	return errors.Join(t.writer.Close(), t.dlqWriter.Close())
}

func messageKey(msg Message) string {
	if msg.Key != "" {
		return msg.Key
	}
	return msg.ID
}

func encodeKafkaMessage(msg Message, delay time.Duration) (kafka.Message, error) {
	value, err := json.Marshal(msg)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode message: %w", err)
	}
	km := kafka.Message{
		Key:   []byte(messageKey(msg)),
		Value: value,
		Headers: []kafka.Header{
			{Key: headerMessageName, Value: []byte(msg.Name)},
			{Key: headerAttempt, Value: []byte(strconv.Itoa(msg.Attempt))},
		},
	}
	if delay > 0 {
		notBefore := time.Now().Add(delay).UTC().Format(time.RFC3339Nano)
		km.Headers = append(km.Headers, kafka.Header{Key: headerNotBefore, Value: []byte(notBefore)})
	}
	return km, nil
}

func decodeKafkaMessage(km kafka.Message) (Message, time.Time, error) {
	var msg Message
	if err := json.Unmarshal(km.Value, &msg); err != nil {
		return Message{}, time.Time{}, fmt.Errorf("failed to decode message: %w", err)
	}
	if msg.Name == "" {
		return Message{}, time.Time{}, errors.New("message has no name")
	}
	var notBefore time.Time
	if v := headerValue(km, headerNotBefore); v != "" {
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			notBefore = ts
		}
	}
	return msg, notBefore, nil
}

func headerValue(km kafka.Message, key string) string {
	for _, h := range km.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
