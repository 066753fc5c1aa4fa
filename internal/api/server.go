// Package api is the control surface: queue approvals, portfolio views,
// scan control and the live event stream.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/quantpit/pitboss/internal/api/response"
	"github.com/quantpit/pitboss/internal/core"
	"github.com/quantpit/pitboss/internal/events"
	"github.com/quantpit/pitboss/internal/executor"
	"github.com/quantpit/pitboss/internal/ledger"
	"github.com/quantpit/pitboss/internal/metrics"
	"github.com/quantpit/pitboss/internal/queue"
	"github.com/quantpit/pitboss/internal/report"
	"go.uber.org/zap"
)

// Control is the slice of the orchestrator the server drives.
type Control interface {
	Status() map[string]any
	Queue() *queue.Queue
	Ledger() *ledger.Ledger
	ApproveTrade(ctx context.Context, id string) (executor.Result, error)
	ApproveAll(ctx context.Context) (executor.BatchResult, error)
	RejectTrade(id string) error
	ClearQueue() int
	RunOnce(ctx context.Context)
	SetScanEnabled(enabled bool)
	ScanEnabled() bool
	SetAutoTrading(enabled bool) int
	AutoTrading() bool
	Watchlist() []string
	SetWatchlist(symbols []string)
	GenerateReport(ctx context.Context, trigger report.Trigger) (report.Report, error)
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	MetricsPath string
}

// Server represents the control HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	bot        Control
	bus        *events.Bus
}

// NewServer creates the control server. metricsReg and bus may be nil.
func NewServer(cfg Config, bot Control, bus *events.Bus, metricsReg *metrics.Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()

	var handler http.Handler = mux
	if metricsReg != nil {
		handler = metrics.HTTPMiddleware(metricsReg)(mux)
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		mux:    mux,
		bot:    bot,
		bus:    bus,
	}

	s.setupRoutes(cfg.MetricsPath, metricsReg)
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(metricsPath string, metricsReg *metrics.Registry) {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)

	s.mux.HandleFunc("GET /api/queue", s.handleQueueList)
	s.mux.HandleFunc("POST /api/queue/clear", s.handleQueueClear)
	s.mux.HandleFunc("POST /api/queue/approve_all", s.handleApproveAll)
	s.mux.HandleFunc("POST /api/queue/{id}/approve", s.handleApprove)
	s.mux.HandleFunc("POST /api/queue/{id}/reject", s.handleReject)

	s.mux.HandleFunc("GET /api/positions", s.handlePositions)
	s.mux.HandleFunc("GET /api/history", s.handleHistory)

	s.mux.HandleFunc("GET /api/watchlist", s.handleWatchlistGet)
	s.mux.HandleFunc("PUT /api/watchlist", s.handleWatchlistPut)

	s.mux.HandleFunc("POST /api/scan/start", s.handleScanStart)
	s.mux.HandleFunc("POST /api/scan/stop", s.handleScanStop)
	s.mux.HandleFunc("POST /api/scan/once", s.handleScanOnce)
	s.mux.HandleFunc("POST /api/mode", s.handleMode)

	s.mux.HandleFunc("POST /api/report", s.handleReport)

	s.mux.HandleFunc("GET /api/events/recent", s.handleRecentEvents)
	s.mux.HandleFunc("GET /api/events", s.handleEventStream)

	if metricsReg != nil {
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		s.mux.Handle("GET "+metricsPath,
			promhttp.HandlerFor(metricsReg.Registry, promhttp.HandlerOpts{}))
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting control server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down control server")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, s.bot.Status())
}

func (s *Server) handleQueueList(w http.ResponseWriter, r *http.Request) {
	trades := s.bot.Queue().List()
	response.JSON(w, http.StatusOK, map[string]any{
		"trades": trades,
		"count":  len(trades),
	})
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	result, err := s.bot.ApproveTrade(r.Context(), id)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

func (s *Server) handleApproveAll(w http.ResponseWriter, r *http.Request) {
	batch, err := s.bot.ApproveAll(r.Context())
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, batch)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.bot.RejectTrade(id); err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"id":       id,
		"rejected": true,
	})
}

func (s *Server) handleQueueClear(w http.ResponseWriter, r *http.Request) {
	cleared := s.bot.ClearQueue()
	response.JSON(w, http.StatusOK, map[string]any{"cleared": cleared})
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	l := s.bot.Ledger()
	response.JSON(w, http.StatusOK, map[string]any{
		"positions":      l.OpenPositions(),
		"exposure":       l.CurrentExposure(),
		"daily_pnl":      l.DailyPnL(),
		"unrealized_pnl": l.TotalUnrealizedPnL(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	trades := s.bot.Ledger().History()
	response.JSON(w, http.StatusOK, map[string]any{
		"trades": trades,
		"count":  len(trades),
	})
}

func (s *Server) handleWatchlistGet(w http.ResponseWriter, r *http.Request) {
	symbols := s.bot.Watchlist()
	response.JSON(w, http.StatusOK, map[string]any{
		"symbols": symbols,
		"count":   len(symbols),
	})
}

func (s *Server) handleWatchlistPut(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbols []string `json:"symbols"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrConfigInvalid, err))
		return
	}
	if len(req.Symbols) == 0 {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigMissing, fmt.Errorf("symbols required")))
		return
	}
	s.bot.SetWatchlist(req.Symbols)
	response.JSON(w, http.StatusOK, map[string]any{"count": len(req.Symbols)})
}

func (s *Server) handleScanStart(w http.ResponseWriter, r *http.Request) {
	s.bot.SetScanEnabled(true)
	response.JSON(w, http.StatusOK, map[string]any{"scan_enabled": true})
}

func (s *Server) handleScanStop(w http.ResponseWriter, r *http.Request) {
	s.bot.SetScanEnabled(false)
	response.JSON(w, http.StatusOK, map[string]any{"scan_enabled": false})
}

func (s *Server) handleScanOnce(w http.ResponseWriter, r *http.Request) {
	s.bot.RunOnce(r.Context())
	response.JSON(w, http.StatusOK, map[string]any{"scanned": true})
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AutoTrading bool `json:"auto_trading"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrConfigInvalid, err))
		return
	}
	cleared := s.bot.SetAutoTrading(req.AutoTrading)
	response.JSON(w, http.StatusOK, map[string]any{
		"auto_trading":  req.AutoTrading,
		"queue_cleared": cleared,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.bot.GenerateReport(r.Context(), report.TriggerManual)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, rep)
}

func (s *Server) handleRecentEvents(w http.ResponseWriter, r *http.Request) {
	if s.bus == nil {
		response.JSON(w, http.StatusOK, map[string]any{"events": []events.Event{}})
		return
	}
	recent := s.bus.Recent(100)
	response.JSON(w, http.StatusOK, map[string]any{
		"events": recent,
		"count":  len(recent),
	})
}
