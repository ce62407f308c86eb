package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	m := NewMetrics()
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/api/v1/periods/{id}/close")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/periods/abc/close", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusConflict, rr.Code)

	body := scrape(t, m)
	assert.Contains(t, body, `bookkeeper_http_requests_total{code="409",route="/api/v1/periods/{id}/close"} 1`)
	assert.Contains(t, body, `bookkeeper_http_request_duration_seconds_bucket{route="/api/v1/periods/{id}/close"`)
}

func TestDomainCounters(t *testing.T) {
	m := NewMetrics()
	m.Transition("pending", "completed")
	m.Transition("pending", "completed")
	m.Blocked("reconciled")
	m.PeriodClosed()
	m.ClosingEntries(3)

	body := scrape(t, m)
	assert.Contains(t, body, `bookkeeper_status_transitions_total{from="pending",to="completed"} 2`)
	assert.Contains(t, body, `bookkeeper_status_transitions_blocked_total{to="reconciled"} 1`)
	assert.Contains(t, body, "bookkeeper_periods_closed_total 1")
	assert.Contains(t, body, "bookkeeper_closing_entries_total 3")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Transition("a", "b")
	m.PeriodClosed()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
