package app

import (
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/extpay/internal/app/api/server"
	"github.com/fatflowers/extpay/internal/app/service/credential"
	"github.com/fatflowers/extpay/internal/app/service/events"
	"github.com/fatflowers/extpay/internal/app/service/lifecycle"
	"github.com/fatflowers/extpay/internal/app/service/oauth"
	"github.com/fatflowers/extpay/internal/app/service/paymentmethod"
	"github.com/fatflowers/extpay/internal/app/service/signature"
	"github.com/fatflowers/extpay/internal/app/service/transaction"
	"github.com/fatflowers/extpay/internal/app/service/webhook"
	"github.com/fatflowers/extpay/internal/app/service/webhooklog"
	"github.com/fatflowers/extpay/internal/platform/bus"
	"github.com/fatflowers/extpay/internal/platform/db"
	"github.com/fatflowers/extpay/internal/platform/shoper"
	"github.com/fatflowers/extpay/pkg/config"
	"github.com/fatflowers/extpay/pkg/logger"
	"github.com/fatflowers/extpay/pkg/metrics"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

// Core is shared by the API and worker processes: persistence, the shop
// client, the bus and every bus handler.
var Core = fx.Options(
	logger.Module,
	config.Module,
	metrics.Module,
	db.Module,
	shoper.Module,
	bus.Module,
	credential.Module,
	oauth.Module,
	paymentmethod.Module,
	webhooklog.Module,
	events.Module,
	transaction.Module,
	lifecycle.Module,
)

// Module is the HTTP API. With the memory bus driver it also consumes.
var Module = fx.Options(
	Core,
	signature.Module,
	webhook.Module,
	server.Module,
	fx.Invoke(bus.RunInProcessConsumer),
)

// WorkerModule consumes bus messages without serving HTTP.
var WorkerModule = fx.Options(
	Core,
	fx.Invoke(bus.RunConsumer),
	fx.Invoke(serveWorkerMetrics),
)

func serveWorkerMetrics(cfg *config.Config, log *zap.SugaredLogger) {
	if cfg.MetricsAddr == "" {
		return
	}
	p := metrics.NewPrometheus(metrics.NewPrometheusOptions{Logger: log})
	p.SetListenAddress(cfg.MetricsAddr)
	p.Serve()
}
