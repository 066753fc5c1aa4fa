// Package app wires the decision pipeline together: scan loop, market
// data, reasoning, risk gate, approval queue and execution.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/quantpit/pitboss/internal/broker"
	"github.com/quantpit/pitboss/internal/config"
	"github.com/quantpit/pitboss/internal/core"
	"github.com/quantpit/pitboss/internal/events"
	"github.com/quantpit/pitboss/internal/executor"
	"github.com/quantpit/pitboss/internal/ledger"
	"github.com/quantpit/pitboss/internal/marketdata"
	"github.com/quantpit/pitboss/internal/metrics"
	"github.com/quantpit/pitboss/internal/notify"
	"github.com/quantpit/pitboss/internal/queue"
	"github.com/quantpit/pitboss/internal/reason"
	"github.com/quantpit/pitboss/internal/report"
	"github.com/quantpit/pitboss/internal/risk"
	"go.uber.org/zap"
)

// Deps are the collaborators the bot orchestrates. Bus, Notifiers,
// Reports and Metrics may be nil; the bot degrades to not publishing.
type Deps struct {
	Data      marketdata.Provider
	Reasoner  reason.Reasoner
	Risk      *risk.Engine
	Ledger    *ledger.Ledger
	Queue     *queue.Queue
	Executor  *executor.Manager
	Brokerage broker.Brokerage
	Bus       *events.Bus
	Notifiers *notify.Registry
	Reports   *report.Generator
	Metrics   *metrics.Registry
}

// Bot is the main application orchestrator.
type Bot struct {
	cfg    *config.Config
	logger *zap.Logger

	data      marketdata.Provider
	reasoner  reason.Reasoner
	risk      *risk.Engine
	ledger    *ledger.Ledger
	queue     *queue.Queue
	executor  *executor.Manager
	brokerage broker.Brokerage
	bus       *events.Bus
	notifiers *notify.Registry
	reports   *report.Generator
	metrics   *metrics.Registry

	mu          sync.RWMutex
	running     bool
	scanEnabled bool
	cycleActive bool
	autoTrading bool
	watchlist   []string
	cancel      context.CancelFunc
}

// New creates the orchestrator from config and collaborators.
func New(cfg *config.Config, deps Deps, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		cfg:         cfg,
		logger:      logger,
		data:        deps.Data,
		reasoner:    deps.Reasoner,
		risk:        deps.Risk,
		ledger:      deps.Ledger,
		queue:       deps.Queue,
		executor:    deps.Executor,
		brokerage:   deps.Brokerage,
		bus:         deps.Bus,
		notifiers:   deps.Notifiers,
		reports:     deps.Reports,
		metrics:     deps.Metrics,
		scanEnabled: true,
		autoTrading: cfg.Risk.EnableAutoTrading,
		watchlist:   append([]string(nil), cfg.Scan.Watchlist...),
	}
}

// Start connects the brokerage, seeds the ledger and blocks in the scan
// loop until ctx is cancelled or Stop is called.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return fmt.Errorf("bot already running")
	}
	b.running = true
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
	}()

	if err := b.brokerage.Connect(ctx); err != nil {
		return core.WrapError(core.ErrBrokerFailed,
			fmt.Errorf("connecting %s: %w", b.brokerage.Name(), err))
	}
	defer b.brokerage.Disconnect()

	if err := b.reconcileLedger(ctx); err != nil {
		b.logger.Warn("ledger seed failed, starting flat", zap.Error(err))
	}

	b.logger.Info("pitboss starting",
		zap.Int("watchlist_count", len(b.Watchlist())),
		zap.Duration("interval", b.cfg.Scan.Interval),
		zap.Bool("auto_trading", b.AutoTrading()),
		zap.String("broker", b.brokerage.Name()),
	)
	if b.metrics != nil {
		b.metrics.SetWatchlistSize(len(b.Watchlist()))
	}

	if b.reports != nil && b.cfg.Reports.Enabled {
		if _, err := b.reports.Generate(ctx, report.TriggerMarketOpen); err != nil {
			b.logger.Warn("opening report failed", zap.Error(err))
		}
	}

	// Initial cycle, then tick.
	b.RunOnce(ctx)

	ticker := time.NewTicker(b.cfg.Scan.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("pitboss shutting down")
			if b.reports != nil && b.cfg.Reports.Enabled {
				// Shutdown report uses a fresh context; ctx is already dead.
				rctx, rcancel := context.WithTimeout(context.Background(), 10*time.Second)
				if _, err := b.reports.Generate(rctx, report.TriggerMarketClose); err != nil {
					b.logger.Warn("closing report failed", zap.Error(err))
				}
				rcancel()
			}
			return ctx.Err()
		case <-ticker.C:
			b.RunOnce(ctx)
		}
	}
}

// Stop cancels the scan loop.
func (b *Bot) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
	}
}

// RunOnce performs a single scan cycle. Cycles never overlap: a tick
// that arrives while one is in flight is dropped.
func (b *Bot) RunOnce(ctx context.Context) {
	b.mu.Lock()
	if !b.scanEnabled || b.cycleActive {
		b.mu.Unlock()
		return
	}
	b.cycleActive = true
	symbols := append([]string(nil), b.watchlist...)
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.cycleActive = false
		b.mu.Unlock()
	}()

	if len(symbols) == 0 {
		b.logger.Debug("watchlist empty, nothing to scan")
		return
	}

	if b.cfg.Scan.MarketHoursOnly {
		open, err := b.brokerage.IsMarketOpen(ctx)
		if err != nil {
			b.logger.Warn("market clock unavailable, scanning anyway", zap.Error(err))
		} else if !open {
			b.logger.Debug("market closed, skipping cycle")
			return
		}
	}

	start := time.Now()
	b.logger.Debug("scan cycle starting", zap.Int("symbols", len(symbols)))

	for _, symbol := range symbols {
		if ctx.Err() != nil {
			return
		}
		if !b.ScanEnabled() {
			b.logger.Info("scan disabled mid-cycle, stopping")
			break
		}
		b.scanSymbol(ctx, symbol)
	}

	elapsed := time.Since(start)
	if b.metrics != nil {
		b.metrics.RecordScanCycle(elapsed.Seconds())
		b.metrics.SetQueueDepth(b.queue.Len())
		b.metrics.SetPortfolio(b.ledger.CurrentExposure(), b.ledger.DailyPnL(), b.ledger.OpenPositionCount())
	}
	b.publish(events.TypeScanCycle, "", fmt.Sprintf("scanned %d symbols in %s", len(symbols), elapsed.Round(time.Millisecond)), nil)
}

// scanSymbol runs one symbol through snapshot, reasoning, the risk gate
// and routing. Any per-symbol failure means no trade this cycle, never a
// fatal scan error.
func (b *Bot) scanSymbol(ctx context.Context, symbol string) {
	snapshot, err := b.data.Snapshot(ctx, symbol)
	if err != nil {
		b.logger.Debug("snapshot unavailable",
			zap.String("symbol", symbol),
			zap.Error(err),
		)
		return
	}
	b.ledger.MarkPrice(symbol, snapshot.Price)

	signal, err := b.reasoner.Analyze(ctx, *snapshot, b.portfolioContext(symbol))
	if err != nil {
		b.logger.Warn("reasoning unavailable",
			zap.String("symbol", symbol),
			zap.Error(err),
		)
		return
	}

	if b.metrics != nil {
		b.metrics.RecordSignal(signal.Source, string(signal.Action))
	}
	b.publish(events.TypeSignal, symbol, fmt.Sprintf("%s (confidence %.0f)", signal.Action, signal.Confidence), signal)

	if !signal.IsActionable() {
		b.logger.Debug("holding",
			zap.String("symbol", symbol),
			zap.String("rationale", signal.Rationale),
		)
		return
	}
	if signal.Confidence < b.cfg.Scan.MinConfidence {
		b.logger.Debug("confidence below floor",
			zap.String("symbol", symbol),
			zap.Float64("confidence", signal.Confidence),
			zap.Float64("floor", b.cfg.Scan.MinConfidence),
		)
		return
	}

	decision := b.risk.Evaluate(signal, b.ledger)
	if !decision.Approved {
		if b.metrics != nil {
			b.metrics.RecordRiskDecision("blocked")
		}
		b.publish(events.TypeRiskBlocked, symbol, decision.Reason, decision)
		b.logger.Info("trade blocked",
			zap.String("symbol", symbol),
			zap.String("action", string(signal.Action)),
			zap.String("reason", decision.Reason),
		)
		return
	}
	if b.metrics != nil {
		b.metrics.RecordRiskDecision("approved")
	}
	b.publish(events.TypeRiskApproved, symbol,
		fmt.Sprintf("%s x%d", signal.Action, decision.ApprovedQuantity), decision)

	b.route(ctx, signal, decision)
}

// route sends an approved signal to the executor (auto mode) or the
// approval queue (manual mode).
func (b *Bot) route(ctx context.Context, signal core.Signal, decision risk.Decision) {
	if b.AutoTrading() {
		trade := queue.NewApproved(signal, decision)
		result := b.executor.Execute(ctx, trade)
		b.recordOutcome(trade, result.Success)
		return
	}

	trade := b.queue.Add(signal, decision)
	b.logger.Info("trade queued for approval",
		zap.String("id", trade.ID),
		zap.String("symbol", signal.Symbol),
		zap.String("action", string(signal.Action)),
		zap.Int64("quantity", decision.ApprovedQuantity),
	)
	b.notifyAll(notify.FromSignal(signal))
}

// ApproveTrade approves one queued trade and executes it immediately.
func (b *Bot) ApproveTrade(ctx context.Context, id string) (executor.Result, error) {
	trade, err := b.queue.Approve(id)
	if err != nil {
		return executor.Result{}, err
	}
	result := b.executor.Execute(ctx, trade)
	b.recordOutcome(trade, result.Success)
	return result, nil
}

// ApproveAll approves every queued trade and executes them as one paced
// batch.
func (b *Bot) ApproveAll(ctx context.Context) (executor.BatchResult, error) {
	pending := b.queue.List()
	trades := make([]*queue.PendingTrade, 0, len(pending))
	for _, p := range pending {
		trade, err := b.queue.Approve(p.ID)
		if err != nil {
			// Raced with another approver; skip.
			continue
		}
		trades = append(trades, trade)
	}

	batch := b.executor.ExecuteBatch(ctx, trades)
	for i, trade := range trades {
		b.recordOutcome(trade, batch.Results[i].Success)
	}
	return batch, nil
}

// RejectTrade rejects one queued trade.
func (b *Bot) RejectTrade(id string) error {
	trade, err := b.queue.Reject(id)
	if err != nil {
		return err
	}
	if b.metrics != nil {
		b.metrics.RecordTrade(string(queue.StateRejected))
	}
	b.notifyAll(notify.FromTrade(trade.Signal.Symbol, string(queue.StateRejected),
		int(trade.Decision.ApprovedQuantity), trade.Signal.EntryPrice, time.Now()))
	return nil
}

// ClearQueue discards all pending trades, returning the count.
func (b *Bot) ClearQueue() int {
	return b.queue.Clear()
}

// SetAutoTrading flips the trading mode. Enabling auto mode clears the
// approval queue; stale entries must not execute under the new mode.
func (b *Bot) SetAutoTrading(enabled bool) int {
	b.mu.Lock()
	was := b.autoTrading
	b.autoTrading = enabled
	b.mu.Unlock()

	if enabled && !was {
		return b.queue.Clear()
	}
	return 0
}

// AutoTrading reports the current trading mode.
func (b *Bot) AutoTrading() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.autoTrading
}

// SetScanEnabled pauses or resumes the scan loop without stopping the
// process. A paused bot still serves the control surface.
func (b *Bot) SetScanEnabled(enabled bool) {
	b.mu.Lock()
	changed := b.scanEnabled != enabled
	b.scanEnabled = enabled
	b.mu.Unlock()

	if !changed {
		return
	}
	if enabled {
		b.publish(events.TypeScanStarted, "", "scanning resumed", nil)
	} else {
		b.publish(events.TypeScanStopped, "", "scanning paused", nil)
	}
}

// ScanEnabled reports whether the scan loop is active.
func (b *Bot) ScanEnabled() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.scanEnabled
}

// Watchlist returns a copy of the scanned symbols.
func (b *Bot) Watchlist() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.watchlist...)
}

// SetWatchlist replaces the scanned symbols.
func (b *Bot) SetWatchlist(symbols []string) {
	b.mu.Lock()
	b.watchlist = append([]string(nil), symbols...)
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.SetWatchlistSize(len(symbols))
	}
}

// GenerateReport builds and archives a report on demand.
func (b *Bot) GenerateReport(ctx context.Context, trigger report.Trigger) (report.Report, error) {
	if b.reports == nil {
		return report.Report{}, fmt.Errorf("reports not configured")
	}
	return b.reports.Generate(ctx, trigger)
}

// Status returns a point-in-time view for the control surface.
func (b *Bot) Status() map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return map[string]any{
		"running":        b.running,
		"scan_enabled":   b.scanEnabled,
		"auto_trading":   b.autoTrading,
		"watchlist":      len(b.watchlist),
		"queue_depth":    b.queue.Len(),
		"open_positions": b.ledger.OpenPositionCount(),
		"exposure":       b.ledger.CurrentExposure(),
		"daily_pnl":      b.ledger.DailyPnL(),
		"broker":         b.brokerage.Name(),
		"reasoner":       b.reasoner.Name(),
	}
}

// Ledger exposes the portfolio ledger to the control surface.
func (b *Bot) Ledger() *ledger.Ledger { return b.ledger }

// Queue exposes the approval queue to the control surface.
func (b *Bot) Queue() *queue.Queue { return b.queue }

// reconcileLedger seeds positions from the brokerage so restart never
// loses portfolio state.
func (b *Bot) reconcileLedger(ctx context.Context) error {
	positions, err := b.brokerage.GetPositions(ctx)
	if err != nil {
		return err
	}

	seed := make([]ledger.Position, 0, len(positions))
	for _, p := range positions {
		seed = append(seed, ledger.Position{
			Symbol:       p.Symbol,
			Quantity:     p.Quantity,
			EntryPrice:   p.AvgEntryPrice,
			CurrentPrice: p.CurrentPrice,
			OpenedAt:     time.Now(),
		})
	}
	b.ledger.Seed(seed)

	b.logger.Info("ledger seeded from brokerage",
		zap.Int("positions", len(seed)),
	)
	return nil
}

func (b *Bot) portfolioContext(symbol string) reason.PortfolioContext {
	return reason.PortfolioContext{
		Positions:   b.ledger.OpenPositions(),
		Exposure:    b.ledger.CurrentExposure(),
		DailyPnL:    b.ledger.DailyPnL(),
		SymbolStats: b.ledger.SymbolHistory(symbol),
	}
}

// recordOutcome updates metrics and notifiers after an execution attempt.
func (b *Bot) recordOutcome(trade *queue.PendingTrade, success bool) {
	if b.metrics != nil {
		b.metrics.RecordTrade(string(trade.State))
		b.metrics.SetPortfolio(b.ledger.CurrentExposure(), b.ledger.DailyPnL(), b.ledger.OpenPositionCount())
		b.metrics.SetQueueDepth(b.queue.Len())
	}
	b.notifyAll(notify.FromTrade(trade.Signal.Symbol, string(trade.State),
		int(trade.Decision.ApprovedQuantity), trade.Signal.EntryPrice, time.Now()))
	if !success {
		b.logger.Warn("execution attempt failed",
			zap.String("id", trade.ID),
			zap.String("symbol", trade.Signal.Symbol),
		)
	}
}

func (b *Bot) notifyAll(notice notify.Notice) {
	if b.notifiers == nil {
		return
	}
	for name, err := range b.notifiers.NotifyAll(notice) {
		b.logger.Warn("notifier delivery failed",
			zap.String("notifier", name),
			zap.Error(err),
		)
	}
}

func (b *Bot) publish(typ events.Type, symbol, message string, payload any) {
	if b.bus == nil {
		return
	}
	b.bus.Publish(events.Event{
		Type:    typ,
		Symbol:  symbol,
		Message: message,
		Payload: payload,
	})
}
