package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var HistogramBuckets = []float64{
	// --- Fast responses (0 - 500ms) ---
	25, 50, 75, 100, 150, 200, 300, 400, 500,

	// --- Medium responses around 700ms (500ms - 2s) ---
	750, 1000, 1250, 1500, 1750, 2000,

	// --- Slow responses (2s - 15s) ---
	2500, 3000, 4000, 5000, 7500, 10000, 15000,

	// --- Extended range: covers 60000ms+ (15s - 75s) ---
	20000,  // 20s
	30000,  // 30s
	45000,  // 45s
	60000,  // 60s
	75000,  // 75s
	90000,  // 90s
	120000, // 120s
}

// Metric is a definition for the name, description, type, ID, and
// prometheus.Collector type (i.e. CounterVec, Summary, etc) of each metric
type Metric struct {
	MetricCollector prometheus.Collector
	ID              string
	Name            string
	Description     string
	Type            string
	Args            []string
}

// NewMetric associates prometheus.Collector based on Metric.Type
func NewMetric(m *Metric, subsystem string) prometheus.Collector {
	var metric prometheus.Collector
	switch m.Type {
	case "counter_vec":
		metric = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
			m.Args,
		)
	case "counter":
		metric = prometheus.NewCounter(
			prometheus.CounterOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
		)
	case "gauge_vec":
		metric = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
			m.Args,
		)
	case "gauge":
		metric = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
		)
	case "histogram_vec":
		metric = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
				Buckets:   HistogramBuckets,
			},
			m.Args,
		)
	case "histogram":
		metric = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
				Buckets:   HistogramBuckets,
			},
		)
	case "summary_vec":
		metric = prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
			m.Args,
		)
	case "summary":
		metric = prometheus.NewSummary(
			prometheus.SummaryOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
		)
	}
	return metric
}

var MetricsBusinessProcess = &Metric{
	ID:          "bpDur",
	Name:        "bp_dur",
	Description: "process latency in milliseconds",
	Type:        "histogram_vec",
	Args:        []string{"type", "subtype"},
}

var MetricsWebhookIntake = &Metric{
	ID:          "webhookIntake",
	Name:        "webhook_intake_total",
	Description: "Payment webhooks received, partitioned by webhook type and outcome.",
	Type:        "counter_vec",
	Args:        []string{"type", "outcome"},
}

var MetricsBusMessages = &Metric{
	ID:          "busMessages",
	Name:        "bus_messages_total",
	Description: "Bus messages handled, partitioned by message name and outcome.",
	Type:        "counter_vec",
	Args:        []string{"name", "outcome"},
}

var MetricsTransactionEvents = &Metric{
	ID:          "transactionEvents",
	Name:        "transaction_events_total",
	Description: "Transaction domain events, partitioned by event and reason.",
	Type:        "counter_vec",
	Args:        []string{"event", "reason"},
}

const (
	RefererKey = "X-Referer"

	Subsystem = "extpay"
)

// Business holds the application level collectors.
type Business struct {
	ProcessDuration   *prometheus.HistogramVec
	WebhookIntake     *prometheus.CounterVec
	BusMessages       *prometheus.CounterVec
	TransactionEvents *prometheus.CounterVec
}

// NewBusiness registers the business collectors with reg. Collectors that are
// already registered are reused so several instances can share a registry.
func NewBusiness(reg prometheus.Registerer) *Business {
	return &Business{
		ProcessDuration:   register(reg, MetricsBusinessProcess).(*prometheus.HistogramVec),
		WebhookIntake:     register(reg, MetricsWebhookIntake).(*prometheus.CounterVec),
		BusMessages:       register(reg, MetricsBusMessages).(*prometheus.CounterVec),
		TransactionEvents: register(reg, MetricsTransactionEvents).(*prometheus.CounterVec),
	}
}

func register(reg prometheus.Registerer, m *Metric) prometheus.Collector {
	c := NewMetric(m, Subsystem)
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

// ObserveSince records the latency of a business process step.
func (b *Business) ObserveSince(kind, subtype string, start time.Time) {
	if b == nil {
		return
	}
	b.ProcessDuration.WithLabelValues(kind, subtype).Observe(MillisecondsSince(start))
}

func NewDefaultBusiness() *Business {
	return NewBusiness(prometheus.DefaultRegisterer)
}

var Module = fx.Options(
	fx.Provide(NewDefaultBusiness),
)
