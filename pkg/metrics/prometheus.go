package metrics

/* based on https://github.com/zsais/go-gin-prometheus
edits:
- logger interface instead of the std logger
- no push gateway, no basic auth variants
- metrics served from a dedicated listener
*/

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var reqCnt = &Metric{
	ID:          "reqCnt",
	Name:        "req_total",
	Description: "How many HTTP requests processed, partitioned by status code and HTTP method.",
	Type:        "counter_vec",
	Args:        []string{"code", "method", "url", "ref"}}

var reqDur = &Metric{
	ID:          "reqDur",
	Name:        "req_dur_ms",
	Description: "The HTTP request latencies in milliseconds.",
	Type:        "histogram_vec",
	Args:        []string{"code", "method", "url", "ref"},
}

var resSz = &Metric{
	ID:          "resSz",
	Name:        "resp_sz_bytes",
	Description: "The HTTP response sizes in bytes.",
	Type:        "summary_vec",
	Args:        []string{"code", "method", "url", "ref"},
}

var reqSz = &Metric{
	ID:          "reqSz",
	Name:        "req_sz_bytes",
	Description: "The HTTP request sizes in bytes.",
	Type:        "summary_vec",
	Args:        []string{"code", "method", "url", "ref"},
}

var defaultMetricPath = "/metrics"

type Logger interface {
	Errorf(format string, v ...interface{})
	Infow(msg string, keysAndValues ...interface{})
}

// RequestCounterURLLabelMappingFn controls the cardinality of the "url" label.
type RequestCounterURLLabelMappingFn func(c *gin.Context) string

// Prometheus contains the HTTP metrics gathered by the instance and its path.
type Prometheus struct {
	reqCnt       *prometheus.CounterVec
	reqDur       *prometheus.HistogramVec
	reqSz, resSz *prometheus.SummaryVec

	listenAddress string
	MetricsPath   string

	ReqCntURLLabelMappingFn RequestCounterURLLabelMappingFn

	logger Logger
}

type NewPrometheusOptions struct {
	Registerer              prometheus.Registerer
	MetricsPath             string
	ReqCntURLLabelMappingFn func(c *gin.Context) string
	Logger                  Logger
}

// NewPrometheus registers the standard HTTP metrics.
func NewPrometheus(options NewPrometheusOptions) *Prometheus {
	p := &Prometheus{
		MetricsPath: options.MetricsPath,
		logger:      options.Logger,
	}
	if p.MetricsPath == "" {
		p.MetricsPath = defaultMetricPath
	}
	p.ReqCntURLLabelMappingFn = options.ReqCntURLLabelMappingFn
	if p.ReqCntURLLabelMappingFn == nil {
		p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
			if fp := c.FullPath(); fp != "" {
				return fp
			}
			return c.Request.URL.Path
		}
	}
	reg := options.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	p.reqCnt = register(reg, reqCnt).(*prometheus.CounterVec)
	p.reqDur = register(reg, reqDur).(*prometheus.HistogramVec)
	p.reqSz = register(reg, reqSz).(*prometheus.SummaryVec)
	p.resSz = register(reg, resSz).(*prometheus.SummaryVec)
	return p
}

// SetListenAddress exposes metrics on a dedicated address so scrapes stay out
// of the access log.
func (p *Prometheus) SetListenAddress(address string) {
	p.listenAddress = address
}

// Use adds the middleware to a gin engine and starts the metrics listener.
func (p *Prometheus) Use(e *gin.Engine) {
	e.Use(p.HandlerFunc())
	if p.listenAddress == "" {
		e.GET(p.MetricsPath, gin.WrapH(promhttp.Handler()))
		return
	}
	p.runServer()
}

// Serve starts only the metrics listener, for processes without a gin engine.
func (p *Prometheus) Serve() {
	if p.listenAddress != "" {
		p.runServer()
	}
}

func (p *Prometheus) runServer() {
	mux := http.NewServeMux()
	mux.Handle(p.MetricsPath, promhttp.Handler())
	srv := &http.Server{Addr: p.listenAddress, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed && p.logger != nil {
			p.logger.Errorf("metrics server error: %v", err)
		}
	}()
	if p.logger != nil {
		p.logger.Infow("metrics started", "addr", p.listenAddress)
	}
}

// HandlerFunc defines handler function for middleware
func (p *Prometheus) HandlerFunc() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == p.MetricsPath {
			c.Next()
			return
		}

		start := time.Now()
		reqSz := computeApproximateRequestSize(c.Request)

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		elapsed := MillisecondsSince(start)
		resSz := float64(c.Writer.Size())
		url := p.ReqCntURLLabelMappingFn(c)
		ref := c.Request.Header.Get(RefererKey)

		p.reqDur.WithLabelValues(status, c.Request.Method, url, ref).Observe(elapsed)
		p.reqCnt.WithLabelValues(status, c.Request.Method, url, ref).Inc()
		p.reqSz.WithLabelValues(status, c.Request.Method, url, ref).Observe(float64(reqSz))
		p.resSz.WithLabelValues(status, c.Request.Method, url, ref).Observe(resSz)
	}
}

// MillisecondsSince returns the elapsed time in fractional milliseconds.
func MillisecondsSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

func computeApproximateRequestSize(r *http.Request) int {
	s := 0
	if r.URL != nil {
		s = len(r.URL.Path)
	}
	s += len(r.Method)
	s += len(r.Proto)
	for name, values := range r.Header {
		s += len(name)
		for _, value := range values {
			s += len(value)
		}
	}
	s += len(r.Host)
	if r.ContentLength != -1 {
		s += int(r.ContentLength)
	}
	return s
}
