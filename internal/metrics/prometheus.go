package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/wonny/investiq/internal/contracts"
)

const namespace = "investiq"

// Recorder records decision engine and API metrics using Prometheus.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry   *prometheus.Registry
	verdicts   *prometheus.CounterVec
	errorsTot  *prometheus.CounterVec
	confidence prometheus.Histogram
	latency    *prometheus.HistogramVec
	requests   *prometheus.CounterVec
	reqLatency *prometheus.HistogramVec
}

// New creates a recorder on its own registry (Go/process collectors included)
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		verdicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "verdicts_total",
				Help:      "Total number of verdicts by recommendation and deciding rule",
			},
			[]string{"recommendation", "rule"},
		),
		errorsTot: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analysis_errors_total",
				Help:      "Total number of failed analyses by error kind",
			},
			[]string{"kind"},
		),
		confidence: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "verdict_confidence",
				Help:      "Confidence of produced verdicts (percent)",
				Buckets:   prometheus.LinearBuckets(30, 5, 14), // 30 ~ 95
			},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		reqLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method"},
		),
	}
}

// Registry returns the registry backing the recorder (for promhttp)
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RecordVerdict records one produced verdict
func (r *Recorder) RecordVerdict(v *contracts.CombinedVerdict) {
	if r == nil || v == nil {
		return
	}
	r.verdicts.WithLabelValues(string(v.Recommendation), string(v.Rule)).Inc()
	r.confidence.Observe(v.Confidence)
}

// RecordError records a failed analysis
func (r *Recorder) RecordError(kind string) {
	if r == nil {
		return
	}
	r.errorsTot.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency
func (r *Recorder) RecordLatency(op string, d time.Duration) {
	if r == nil {
		return
	}
	r.latency.WithLabelValues(op).Observe(d.Seconds())
}

// RecordRequest records one HTTP request; route should be the route template
func (r *Recorder) RecordRequest(route, method string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.reqLatency.WithLabelValues(route, method).Observe(d.Seconds())
}
