package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/quantpit/pitboss/internal/api"
	"github.com/quantpit/pitboss/internal/core"
	"github.com/quantpit/pitboss/internal/events"
	"github.com/quantpit/pitboss/internal/executor"
	"github.com/quantpit/pitboss/internal/ledger"
	"github.com/quantpit/pitboss/internal/metrics"
	"github.com/quantpit/pitboss/internal/queue"
	"github.com/quantpit/pitboss/internal/report"
	"github.com/quantpit/pitboss/internal/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeControl satisfies api.Control with canned behavior.
type fakeControl struct {
	queue       *queue.Queue
	ledger      *ledger.Ledger
	scanEnabled bool
	autoTrading bool
	watchlist   []string
	ranOnce     bool
	approveErr  error
	rejected    []string
}

func newFakeControl() *fakeControl {
	return &fakeControl{
		queue:     queue.New(nil),
		ledger:    ledger.New(0),
		watchlist: []string{"AAPL", "MSFT"},
	}
}

func (f *fakeControl) Status() map[string]any {
	return map[string]any{"running": true}
}
func (f *fakeControl) Queue() *queue.Queue    { return f.queue }
func (f *fakeControl) Ledger() *ledger.Ledger { return f.ledger }

func (f *fakeControl) ApproveTrade(ctx context.Context, id string) (executor.Result, error) {
	if f.approveErr != nil {
		return executor.Result{}, f.approveErr
	}
	return executor.Result{TradeID: id, Success: true, OrderID: "order-1"}, nil
}

func (f *fakeControl) ApproveAll(ctx context.Context) (executor.BatchResult, error) {
	return executor.BatchResult{Succeeded: 2}, nil
}

func (f *fakeControl) RejectTrade(id string) error {
	if f.approveErr != nil {
		return f.approveErr
	}
	f.rejected = append(f.rejected, id)
	return nil
}

func (f *fakeControl) ClearQueue() int             { return f.queue.Clear() }
func (f *fakeControl) RunOnce(ctx context.Context) { f.ranOnce = true }
func (f *fakeControl) SetScanEnabled(enabled bool) { f.scanEnabled = enabled }
func (f *fakeControl) ScanEnabled() bool           { return f.scanEnabled }

func (f *fakeControl) SetAutoTrading(enabled bool) int {
	f.autoTrading = enabled
	if enabled {
		return f.queue.Clear()
	}
	return 0
}
func (f *fakeControl) AutoTrading() bool { return f.autoTrading }

func (f *fakeControl) Watchlist() []string           { return f.watchlist }
func (f *fakeControl) SetWatchlist(symbols []string) { f.watchlist = symbols }

func (f *fakeControl) GenerateReport(ctx context.Context, trigger report.Trigger) (report.Report, error) {
	return report.Report{Date: "2026-08-24", Trigger: trigger}, nil
}

func newTestServer(t *testing.T, bot api.Control, bus *events.Bus, reg *metrics.Registry) http.Handler {
	t.Helper()
	server := api.NewServer(api.Config{Host: "127.0.0.1", Port: 0, MetricsPath: "/metrics"}, bot, bus, reg, nil)
	return server.Handler()
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func data(t *testing.T, envelope map[string]any) map[string]any {
	t.Helper()
	d, ok := envelope["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %v", envelope)
	return d
}

func TestHealth(t *testing.T) {
	handler := newTestServer(t, newFakeControl(), nil, nil)

	rec, body := doJSON(t, handler, http.MethodGet, "/api/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", data(t, body)["status"])
}

func TestStatus(t *testing.T) {
	handler := newTestServer(t, newFakeControl(), nil, nil)

	rec, body := doJSON(t, handler, http.MethodGet, "/api/status", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, data(t, body)["running"])
}

func TestQueueList(t *testing.T) {
	bot := newFakeControl()
	bot.queue.Add(core.Signal{Symbol: "AAPL", Action: core.ActionBuy}, risk.Decision{Approved: true, ApprovedQuantity: 10})
	handler := newTestServer(t, bot, nil, nil)

	rec, body := doJSON(t, handler, http.MethodGet, "/api/queue", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), data(t, body)["count"])
}

func TestApprove_Success(t *testing.T) {
	handler := newTestServer(t, newFakeControl(), nil, nil)

	rec, body := doJSON(t, handler, http.MethodPost, "/api/queue/abc123/approve", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc123", data(t, body)["trade_id"])
	assert.Equal(t, true, data(t, body)["success"])
}

func TestApprove_NotFoundMapsTo404(t *testing.T) {
	bot := newFakeControl()
	bot.approveErr = core.ErrNotFound
	handler := newTestServer(t, bot, nil, nil)

	rec, body := doJSON(t, handler, http.MethodPost, "/api/queue/missing/approve", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", errObj["code"])
}

func TestReject(t *testing.T) {
	bot := newFakeControl()
	handler := newTestServer(t, bot, nil, nil)

	rec, body := doJSON(t, handler, http.MethodPost, "/api/queue/abc123/reject", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, data(t, body)["rejected"])
	assert.Equal(t, []string{"abc123"}, bot.rejected)
}

func TestQueueClear(t *testing.T) {
	bot := newFakeControl()
	bot.queue.Add(core.Signal{Symbol: "AAPL", Action: core.ActionBuy}, risk.Decision{Approved: true})
	handler := newTestServer(t, bot, nil, nil)

	rec, body := doJSON(t, handler, http.MethodPost, "/api/queue/clear", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), data(t, body)["cleared"])
	assert.Zero(t, bot.queue.Len())
}

func TestPositions(t *testing.T) {
	bot := newFakeControl()
	bot.ledger.RecordFill("AAPL", "BUY", 10, 100, 85, "claude")
	handler := newTestServer(t, bot, nil, nil)

	rec, body := doJSON(t, handler, http.MethodGet, "/api/positions", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1000), data(t, body)["exposure"])
	positions, ok := data(t, body)["positions"].([]any)
	require.True(t, ok)
	assert.Len(t, positions, 1)
}

func TestWatchlist_GetAndPut(t *testing.T) {
	bot := newFakeControl()
	handler := newTestServer(t, bot, nil, nil)

	rec, body := doJSON(t, handler, http.MethodGet, "/api/watchlist", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), data(t, body)["count"])

	rec, _ = doJSON(t, handler, http.MethodPut, "/api/watchlist", `{"symbols": ["NVDA", "AMD", "TSLA"]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"NVDA", "AMD", "TSLA"}, bot.watchlist)
}

func TestWatchlist_PutEmptyRejected(t *testing.T) {
	handler := newTestServer(t, newFakeControl(), nil, nil)

	rec, _ := doJSON(t, handler, http.MethodPut, "/api/watchlist", `{"symbols": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScan_StartStopOnce(t *testing.T) {
	bot := newFakeControl()
	handler := newTestServer(t, bot, nil, nil)

	rec, _ := doJSON(t, handler, http.MethodPost, "/api/scan/start", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bot.scanEnabled)

	rec, _ = doJSON(t, handler, http.MethodPost, "/api/scan/stop", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, bot.scanEnabled)

	rec, _ = doJSON(t, handler, http.MethodPost, "/api/scan/once", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bot.ranOnce)
}

func TestMode_EnablingAutoClearsQueue(t *testing.T) {
	bot := newFakeControl()
	bot.queue.Add(core.Signal{Symbol: "AAPL", Action: core.ActionBuy}, risk.Decision{Approved: true})
	handler := newTestServer(t, bot, nil, nil)

	rec, body := doJSON(t, handler, http.MethodPost, "/api/mode", `{"auto_trading": true}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, data(t, body)["auto_trading"])
	assert.Equal(t, float64(1), data(t, body)["queue_cleared"])
	assert.True(t, bot.autoTrading)
}

func TestMode_MalformedBodyRejected(t *testing.T) {
	handler := newTestServer(t, newFakeControl(), nil, nil)

	rec, _ := doJSON(t, handler, http.MethodPost, "/api/mode", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReport_ManualTrigger(t *testing.T) {
	handler := newTestServer(t, newFakeControl(), nil, nil)

	rec, body := doJSON(t, handler, http.MethodPost, "/api/report", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "manual", data(t, body)["trigger"])
}

func TestRecentEvents(t *testing.T) {
	bus := events.NewBus(10)
	bus.Publish(events.Event{Type: events.TypeSignal, Symbol: "AAPL"})
	handler := newTestServer(t, newFakeControl(), bus, nil)

	rec, body := doJSON(t, handler, http.MethodGet, "/api/events/recent", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), data(t, body)["count"])
}

func TestRecentEvents_NoBus(t *testing.T) {
	handler := newTestServer(t, newFakeControl(), nil, nil)

	rec, body := doJSON(t, handler, http.MethodGet, "/api/events/recent", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	evts, ok := data(t, body)["events"].([]any)
	require.True(t, ok)
	assert.Empty(t, evts)
}

func TestMetricsEndpoint_Exposed(t *testing.T) {
	reg := metrics.NewRegistry()
	handler := newTestServer(t, newFakeControl(), nil, reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
