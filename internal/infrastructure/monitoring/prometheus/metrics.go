// Package prometheus registers the application metrics and exposes the
// /metrics handler for the query surface.
package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every instrument the application emits. A single instance is
// constructed at startup and injected into the ingest and query services.
type Metrics struct {
	registry *prometheus.Registry

	// Ingestion
	IngestRowsTotal prometheus.Counter
	IngestBatches   *prometheus.CounterVec // label: outcome (ok|error)
	IngestFailures  *prometheus.CounterVec // label: code
	IngestDuration  prometheus.Histogram
	FamilyRowsGauge prometheus.Gauge

	// NL query surface
	NLQueriesTotal    *prometheus.CounterVec // label: intent
	NLQueryDuration   prometheus.Histogram
	SuspiciousSlots   prometheus.Counter
	HTTPRequestsTotal *prometheus.CounterVec // labels: path, status
}

// NewMetrics builds and registers all instruments on a fresh registry.
// A dedicated registry (rather than prometheus.DefaultRegisterer) keeps tests
// free of duplicate-registration panics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		IngestRowsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "patentbase_ingest_rows_total",
			Help: "Publications written to the local store across all ingest batches.",
		}),
		IngestBatches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "patentbase_ingest_batches_total",
			Help: "Ingest batches by outcome.",
		}, []string{"outcome"}),
		IngestFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "patentbase_ingest_failures_total",
			Help: "Ingest failures by error code.",
		}, []string{"code"}),
		IngestDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "patentbase_ingest_duration_seconds",
			Help:    "Wall-clock duration of complete ingest batches.",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}),
		FamilyRowsGauge: f.NewGauge(prometheus.GaugeOpts{
			Name: "patentbase_family_rows",
			Help: "Rows in patent_families after the most recent rebuild.",
		}),

		NLQueriesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "patentbase_nl_queries_total",
			Help: "Natural-language queries by applied intent.",
		}, []string{"intent"}),
		NLQueryDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "patentbase_nl_query_duration_seconds",
			Help:    "Translate-and-execute latency of natural-language queries.",
			Buckets: prometheus.DefBuckets,
		}),
		SuspiciousSlots: f.NewCounter(prometheus.CounterOpts{
			Name: "patentbase_nl_suspicious_slots_total",
			Help: "Slot values flagged by injection screening; values are always bound, never interpolated.",
		}),
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "patentbase_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"path", "status"}),
	}
}

// Handler returns the exposition handler for the registry backing m.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the backing registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
