package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quantpit/pitboss/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatheredNames(t *testing.T, reg *metrics.Registry) map[string]bool {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func TestRegistry_BusinessMetricsRegistered(t *testing.T) {
	reg := metrics.NewRegistry()

	reg.RecordSignal("claude", "BUY")
	reg.RecordRiskDecision("approved")
	reg.RecordTrade("EXECUTED")
	reg.SetQueueDepth(3)
	reg.SetPortfolio(2500, -120, 2)
	reg.RecordScanCycle(4.2)
	reg.SetWatchlistSize(10)

	names := gatheredNames(t, reg)
	for _, want := range []string{
		"pitboss_signals_generated_total",
		"pitboss_risk_decisions_total",
		"pitboss_trades_total",
		"pitboss_queue_depth",
		"pitboss_exposure_dollars",
		"pitboss_daily_pnl_dollars",
		"pitboss_open_positions",
		"pitboss_scan_cycles_total",
		"pitboss_scan_duration_seconds",
		"pitboss_watchlist_symbols",
	} {
		assert.True(t, names[want], "missing metric %s", want)
	}
}

func TestRegistry_IncludesRuntimeCollectors(t *testing.T) {
	names := gatheredNames(t, metrics.NewRegistry())
	assert.True(t, names["go_goroutines"])
}

func TestHTTPMiddleware_CountsRequests(t *testing.T) {
	reg := metrics.NewRegistry()

	handler := metrics.HTTPMiddleware(reg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)

	names := gatheredNames(t, reg)
	assert.True(t, names["http_requests_total"])
	assert.True(t, names["http_request_duration_seconds"])
}
