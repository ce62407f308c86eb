// Package observability exposes Prometheus metrics for the HTTP API and the
// ledger workflow.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	transitions     *prometheus.CounterVec
	blocked         *prometheus.CounterVec
	periodsClosed   prometheus.Counter
	closingEntries  prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bookkeeper_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bookkeeper_http_request_duration_seconds",
		Help:    "HTTP request duration by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bookkeeper_status_transitions_total",
		Help: "Transaction status transitions applied.",
	}, []string{"from", "to"})
	blocked := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bookkeeper_status_transitions_blocked_total",
		Help: "Transaction status transitions refused by a guard.",
	}, []string{"to"})
	periodsClosed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bookkeeper_periods_closed_total",
		Help: "Accounting periods locked.",
	})
	closingEntries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bookkeeper_closing_entries_total",
		Help: "Closing journal entries created.",
	})
	registry.MustRegister(requests, duration, transitions, blocked, periodsClosed, closingEntries)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		transitions:     transitions,
		blocked:         blocked,
		periodsClosed:   periodsClosed,
		closingEntries:  closingEntries,
	}
}

// Handler serves /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records a count and a duration for every request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := RoutePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.Status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) Transition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) Blocked(to string) {
	if m == nil {
		return
	}
	m.blocked.WithLabelValues(to).Inc()
}

func (m *Metrics) PeriodClosed() {
	if m == nil {
		return
	}
	m.periodsClosed.Inc()
}

func (m *Metrics) ClosingEntries(n int) {
	if m == nil {
		return
	}
	m.closingEntries.Add(float64(n))
}

// StatusRecorder captures the status code written by a handler.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *StatusRecorder) WriteHeader(status int) {
	r.Status = status
	r.ResponseWriter.WriteHeader(status)
}

// RoutePattern returns the chi route pattern, which keeps label cardinality
// bounded by the route table instead of by ids in the path.
func RoutePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
