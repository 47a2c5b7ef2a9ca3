// Package observability exposes the application's prometheus metrics.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every collector the application records into.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DedupChecks          prometheus.Counter
	DedupDuplicatesFound prometheus.Counter
	DedupCheckDuration   prometheus.Histogram
	DedupFailures        prometheus.Counter

	PaymentCharges *prometheus.CounterVec
}

// NewMetrics builds a metrics set on its own registry, including the
// standard Go and process collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "eventhub_http_requests_total",
			Help: "HTTP requests by method, path and status code.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eventhub_http_request_duration_seconds",
			Help:    "HTTP request latency by method and path.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		DedupChecks: factory.NewCounter(prometheus.CounterOpts{
			Name: "eventhub_dedup_checks_total",
			Help: "Duplicate checks performed.",
		}),
		DedupDuplicatesFound: factory.NewCounter(prometheus.CounterOpts{
			Name: "eventhub_dedup_duplicates_found_total",
			Help: "Duplicate checks that found at least one duplicate.",
		}),
		DedupCheckDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "eventhub_dedup_check_duration_seconds",
			Help:    "Duplicate-check latency including the candidate query.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		DedupFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "eventhub_dedup_failures_total",
			Help: "Duplicate checks that failed and fell open.",
		}),
		PaymentCharges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "eventhub_payment_charges_total",
			Help: "Payment charges by outcome.",
		}, []string{"status"}),
	}
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
