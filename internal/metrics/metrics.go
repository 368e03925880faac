// Package metrics provides Prometheus metrics for the roster service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Curation outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeUnavailable = "unavailable"
	OutcomeRejected    = "rejected"
)

// Export triggers.
const (
	TriggerHTTP      = "http"
	TriggerScheduled = "scheduled"
	TriggerCLI       = "cli"
)

// Metrics holds every collector, registered on its own registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	CurationsTotal      *prometheus.CounterVec
	CurationDuration    *prometheus.HistogramVec
	SourceFetchFailures *prometheus.CounterVec
	SnapshotRecords     *prometheus.GaugeVec
	ExportsTotal        *prometheus.CounterVec
	CheckinsTotal       *prometheus.CounterVec
	RateLimitedTotal    prometheus.Counter
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates and registers all metrics on a fresh registry, together with
// the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.CurationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollcall_curations_total",
			Help: "Total number of curation requests by table and outcome",
		},
		[]string{"table", "outcome"},
	)

	m.CurationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rollcall_curation_duration_seconds",
			Help:    "Time spent filtering and sorting a snapshot",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"table"},
	)

	m.SourceFetchFailures = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollcall_source_fetch_failures_total",
			Help: "Snapshot fetches that failed",
		},
		[]string{"table"},
	)

	m.SnapshotRecords = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rollcall_snapshot_records",
			Help: "Record count of the most recently fetched snapshot",
		},
		[]string{"table"},
	)

	m.ExportsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollcall_exports_total",
			Help: "CSV exports produced by table and trigger",
		},
		[]string{"table", "trigger"},
	)

	m.CheckinsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollcall_checkins_total",
			Help: "Check-in attempts by result",
		},
		[]string{"result"},
	)

	m.RateLimitedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "rollcall_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollcall_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rollcall_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// TrackSessions publishes count() as the active session gauge.
func (m *Metrics) TrackSessions(count func() int) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "rollcall_active_sessions",
			Help: "Curation sessions currently held in memory",
		},
		func() float64 { return float64(count()) },
	))
}

// ObserveCuration records one curation and its duration.
func (m *Metrics) ObserveCuration(table, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.CurationsTotal.WithLabelValues(table, outcome).Inc()
	if outcome == OutcomeOK {
		m.CurationDuration.WithLabelValues(table).Observe(d.Seconds())
	}
}

// FetchFailed counts a failed snapshot fetch.
func (m *Metrics) FetchFailed(table string) {
	if m == nil {
		return
	}
	m.SourceFetchFailures.WithLabelValues(table).Inc()
}

// SnapshotLoaded records the size of a fetched snapshot.
func (m *Metrics) SnapshotLoaded(table string, records int) {
	if m == nil {
		return
	}
	m.SnapshotRecords.WithLabelValues(table).Set(float64(records))
}

// Exported counts a finished export.
func (m *Metrics) Exported(table, trigger string) {
	if m == nil {
		return
	}
	m.ExportsTotal.WithLabelValues(table, trigger).Inc()
}

// CheckIn counts a check-in attempt.
func (m *Metrics) CheckIn(result string) {
	if m == nil {
		return
	}
	m.CheckinsTotal.WithLabelValues(result).Inc()
}

// RateLimited counts a rejected request.
func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.RateLimitedTotal.Inc()
}

// ObserveHTTP records a served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
