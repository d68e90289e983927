// Package metrics exposes the gateway's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Gate metrics
	GateDecisionsTotal *prometheus.CounterVec

	// Refresh metrics
	RefreshAttemptsTotal *prometheus.CounterVec

	// Manifest cache metrics
	ManifestLookupsTotal *prometheus.CounterVec

	// Policy metrics
	PolicyReloadsTotal *prometheus.CounterVec
}

// New creates and registers all metrics on a fresh registry, together with
// the Go runtime and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portalgate_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portalgate_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		GateDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portalgate_gate_decisions_total",
				Help: "Access gate decisions by route class and outcome",
			},
			[]string{"class", "outcome"},
		),

		RefreshAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portalgate_refresh_attempts_total",
				Help: "Refresh credential exchanges by outcome",
			},
			[]string{"outcome", "shared"},
		),

		ManifestLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portalgate_manifest_lookups_total",
				Help: "Capability manifest lookups by result (hit, miss, error)",
			},
			[]string{"result"},
		),

		PolicyReloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portalgate_policy_reloads_total",
				Help: "Route policy reload attempts by result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.GateDecisionsTotal,
		m.RefreshAttemptsTotal,
		m.ManifestLookupsTotal,
		m.PolicyReloadsTotal,
	)

	return m
}

// Registry is the registry every gateway collector lives on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) GateDecision(class, outcome string) {
	m.GateDecisionsTotal.WithLabelValues(class, outcome).Inc()
}

func (m *Metrics) RefreshAttempt(outcome string, shared bool) {
	m.RefreshAttemptsTotal.WithLabelValues(outcome, strconv.FormatBool(shared)).Inc()
}

func (m *Metrics) ManifestLookup(result string) {
	m.ManifestLookupsTotal.WithLabelValues(result).Inc()
}

// PolicyReload records one policy watcher reload attempt.
func (m *Metrics) PolicyReload(err error) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	m.PolicyReloadsTotal.WithLabelValues(result).Inc()
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// HTTPMiddleware instruments requests. The route label is the matched
// ServeMux pattern so that proxied paths do not explode cardinality.
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
