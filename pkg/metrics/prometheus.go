package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "stockpull"

// Recorder implements domain.repository.Metrics using Prometheus. Each
// Recorder owns its registry.
type Recorder struct {
	reg *prometheus.Registry

	barsWritten  *prometheus.CounterVec
	commits      *prometheus.CounterVec
	rollbacks    *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	tickers      *prometheus.CounterVec
	lastPrice    *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
	kafkaMsgs    *prometheus.CounterVec
	kafkaBytes   *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates a recorder. withRuntime adds Go runtime and process
// collectors, which long-running servers want and batch jobs do not.
func New(withRuntime bool) *Recorder {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	f := promauto.With(reg)

	return &Recorder{
		reg: reg,
		barsWritten: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "bars_written_total",
			Help: "Bars durably committed to storage",
		}, []string{"backend"}),
		commits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "commits_total",
			Help: "Durability commits issued",
		}, []string{"backend"}),
		rollbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "rollbacks_total",
			Help: "Rollbacks of uncommitted bars",
		}, []string{"backend"}),
		errorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "errors_total",
			Help: "Errors by kind",
		}, []string{"type"}),
		tickers: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "ticker_results_total",
			Help: "Per-ticker outcomes of ingestion runs",
		}, []string{"source", "result"}),
		lastPrice: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_sale_price",
			Help: "Last ingested sale price for a ticker",
		}, []string{"ticker"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "operation_duration_seconds",
			Help:    "Duration of operations in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		kafkaMsgs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "kafka", Name: "messages_total",
			Help: "Messages published to Kafka",
		}, []string{"topic", "result"}),
		kafkaBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "kafka", Name: "bytes_total",
			Help: "Payload bytes published to Kafka",
		}, []string{"topic"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests served",
		}, []string{"route", "method", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "method"}),
	}
}

func (r *Recorder) RecordBarsWritten(backend string, n int) {
	r.barsWritten.WithLabelValues(backend).Add(float64(n))
}

func (r *Recorder) RecordCommit(backend string) {
	r.commits.WithLabelValues(backend).Inc()
}

func (r *Recorder) RecordRollback(backend string) {
	r.rollbacks.WithLabelValues(backend).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordTicker records the outcome (ok, empty, failed) of one ticker.
func (r *Recorder) RecordTicker(source, result string) {
	r.tickers.WithLabelValues(source, result).Inc()
}

// RecordLastPrice records the last sale price for a ticker.
func (r *Recorder) RecordLastPrice(ticker string, price float64) {
	r.lastPrice.WithLabelValues(ticker).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// ObservePublish implements kafka.Observer.
func (r *Recorder) ObservePublish(topic string, messages int, bytes int64, took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		r.RecordError("kafka_publish")
	}
	r.kafkaMsgs.WithLabelValues(topic, result).Add(float64(messages))
	r.kafkaBytes.WithLabelValues(topic).Add(float64(bytes))
	r.RecordLatency("kafka_publish", took.Seconds())
}

// ObserveHTTP records one served request. route should be the templated path.
func (r *Recorder) ObserveHTTP(route, method string, status int, took time.Duration) {
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route, method).Observe(took.Seconds())
}

// Registry exposes the underlying registry for tests and custom collectors.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Push sends the registry to a Pushgateway under job. Batch commands call
// it once before exiting.
func (r *Recorder) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(r.reg).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
