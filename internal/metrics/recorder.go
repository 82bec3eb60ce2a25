// Package metrics records HTTP and pipeline metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Query outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeFailed  = "failed"
)

// Upstream names.
const (
	UpstreamNews   = "news"
	UpstreamOllama = "ollama"
	UpstreamStore  = "store"
)

// Recorder receives measurements from the server and the agent pipeline.
type Recorder interface {
	ObserveRequest(method, route string, status int, d time.Duration)
	ObserveQuery(outcome, promptKind string, keywords int, d time.Duration)
	IncUpstreamError(upstream string)
	Handler() http.Handler
}

// PrometheusRecorder is a Prometheus implementation of Recorder.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	queriesTotal   *prometheus.CounterVec
	queryDuration  *prometheus.HistogramVec
	queryKeywords  prometheus.Histogram
	upstreamErrors *prometheus.CounterVec
}

var _ Recorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder creates a recorder backed by its own registry.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "searchagent_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "searchagent_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		queriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "searchagent_queries_total",
			Help: "Keyword pipeline runs by outcome and prompt kind.",
		}, []string{"outcome", "prompt_kind"}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "searchagent_query_duration_seconds",
			Help:    "Keyword pipeline latency, LLM included.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"outcome"}),
		queryKeywords: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "searchagent_query_keywords",
			Help:    "Number of keywords returned per successful run.",
			Buckets: prometheus.LinearBuckets(0, 5, 8),
		}),
		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "searchagent_upstream_errors_total",
			Help: "Failed calls to upstream dependencies.",
		}, []string{"upstream"}),
	}

	registry.MustRegister(r.requestsTotal)
	registry.MustRegister(r.requestDuration)
	registry.MustRegister(r.queriesTotal)
	registry.MustRegister(r.queryDuration)
	registry.MustRegister(r.queryKeywords)
	registry.MustRegister(r.upstreamErrors)

	return r
}

// Registry returns the Prometheus registry.
func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *PrometheusRecorder) ObserveRequest(method, route string, status int, d time.Duration) {
	r.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (r *PrometheusRecorder) ObserveQuery(outcome, promptKind string, keywords int, d time.Duration) {
	r.queriesTotal.WithLabelValues(outcome, promptKind).Inc()
	r.queryDuration.WithLabelValues(outcome).Observe(d.Seconds())
	if outcome == OutcomeOK {
		r.queryKeywords.Observe(float64(keywords))
	}
}

func (r *PrometheusRecorder) IncUpstreamError(upstream string) {
	r.upstreamErrors.WithLabelValues(upstream).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

var _ Recorder = NoopRecorder{}

func (NoopRecorder) ObserveRequest(string, string, int, time.Duration) {}
func (NoopRecorder) ObserveQuery(string, string, int, time.Duration)   {}
func (NoopRecorder) IncUpstreamError(string)                           {}
func (NoopRecorder) Handler() http.Handler                             { return http.NotFoundHandler() }
