// Package metrics exposes Prometheus counters for the resource lifecycle.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"smarterd/internal/apperrors"
)

// Metrics holds the lifecycle metrics.
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	RejectionsTotal   *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates the metrics and registers them on registry. A nil registry
// gets a fresh one.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smarterd_operations_total",
				Help: "Total number of lifecycle operations",
			},
			[]string{"resource", "operation", "status"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "smarterd_operation_duration_seconds",
				Help:    "Lifecycle operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"resource", "operation"},
		),
		RejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smarterd_rejections_total",
				Help: "Total number of rejected operations by kind",
			},
			[]string{"resource", "kind"},
		),
		registry: registry,
	}

	registry.MustRegister(m.OperationsTotal, m.OperationDuration, m.RejectionsTotal)
	return m
}

// Observe records the outcome of one operation started at start. It is a
// no-op on a nil receiver.
func (m *Metrics) Observe(resource, operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
		kind := apperrors.KindOf(err)
		if kind == "" {
			kind = "INTERNAL"
		}
		m.RejectionsTotal.WithLabelValues(resource, string(kind)).Inc()
	}
	m.OperationsTotal.WithLabelValues(resource, operation, status).Inc()
	m.OperationDuration.WithLabelValues(resource, operation).Observe(time.Since(start).Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
