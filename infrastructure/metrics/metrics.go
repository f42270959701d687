// Package metrics wires the request pipeline's behaviors to
// Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters and histograms the pipeline's behaviors
// record against. A nil *Metrics is safe to call methods on: every
// method no-ops, so tests and tools that don't care about metrics
// don't need a registry.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errors          *prometheus.CounterVec
}

// New registers the Trellis collectors against reg and returns the
// handle the pipeline's behaviors record through.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trellis_requests_total",
			Help: "Total LDP requests processed, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trellis_request_duration_seconds",
			Help:    "LDP request latency, by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trellis_errors_total",
			Help: "Errors returned by the request pipeline, by error type.",
		}, []string{"operation", "error_type"}),
	}
	reg.MustRegister(m.requests, m.requestDuration, m.errors)
	return m
}

func (m *Metrics) RecordRequest(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.requests.WithLabelValues(operation, outcome).Inc()
	m.requestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *Metrics) RecordError(operation, errorType string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(operation, errorType).Inc()
}
