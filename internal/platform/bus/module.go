package bus

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/extpay/pkg/config"
	"github.com/fatflowers/extpay/pkg/metrics"
)

func NewTransport(cfg *config.Config, log *zap.SugaredLogger) (Transport, error) {
	switch cfg.Bus.Driver {
	case config.BusDriverKafka:
		return NewKafkaTransport(cfg.Bus.Kafka, log)
	case config.BusDriverMemory, "":
		return NewMemoryTransport(cfg.Bus.Workers, cfg.Bus.BufferSize, log), nil
	default:
		return nil, fmt.Errorf("unknown bus driver %q", cfg.Bus.Driver)
	}
}

func newBus(lc fx.Lifecycle, t Transport, router *Router, cfg *config.Config, log *zap.SugaredLogger, m *metrics.Business) *Bus {
	b := New(t, router, PolicyFromConfig(cfg), log, m)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return b.Close() },
	})
	return b
}

// RunConsumer starts the consumer loop for the lifetime of the fx app.
func RunConsumer(lc fx.Lifecycle, b *Bus, log *zap.SugaredLogger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				if err := b.Run(ctx); err != nil {
					log.Errorw("bus_consumer_stopped", "error", err.Error())
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}

// RunInProcessConsumer consumes in the API process when the memory driver is
// configured; kafka deployments consume in cmd/worker.
func RunInProcessConsumer(lc fx.Lifecycle, b *Bus, cfg *config.Config, log *zap.SugaredLogger) {
	if cfg.Bus.Driver == config.BusDriverKafka {
		return
	}
	RunConsumer(lc, b, log)
}

var Module = fx.Options(
	fx.Provide(NewRouter, NewTransport, newBus),
)
