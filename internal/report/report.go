// Package report builds daily portfolio reports and persists them as
// JSON through a storage backend.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/quantpit/pitboss/internal/ledger"
	"github.com/quantpit/pitboss/internal/storage"
	"go.uber.org/zap"
)

// Trigger names what caused a report snapshot.
type Trigger string

const (
	TriggerMarketOpen  Trigger = "market_open"
	TriggerMarketClose Trigger = "market_close"
	TriggerManual      Trigger = "manual"
)

// Report is one portfolio snapshot with the day's trading record.
type Report struct {
	Date          string               `json:"date"`
	Trigger       Trigger              `json:"trigger"`
	GeneratedAt   time.Time            `json:"generated_at"`
	Positions     []ledger.Position    `json:"positions"`
	Exposure      float64              `json:"exposure"`
	DailyPnL      float64              `json:"daily_pnl"`
	UnrealizedPnL float64              `json:"unrealized_pnl"`
	Trades        []ledger.TradeRecord `json:"trades"`
	TradeCount    int                  `json:"trade_count"`
	Wins          int                  `json:"wins"`
	Losses        int                  `json:"losses"`
	WinRate       float64              `json:"win_rate"`
}

// Generator builds reports from the ledger and archives them.
type Generator struct {
	ledger  *ledger.Ledger
	backend storage.Backend
	logger  *zap.Logger
	now     func() time.Time
}

// NewGenerator creates a report generator. The backend may be nil, in
// which case reports are generated but not persisted.
func NewGenerator(l *ledger.Ledger, backend storage.Backend, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{ledger: l, backend: backend, logger: logger, now: time.Now}
}

// SetClock overrides the generator's clock for tests.
func (g *Generator) SetClock(now func() time.Time) {
	g.now = now
}

// Build assembles a report from the current ledger state. Win rate
// counts only closing fills, the ones that realized a P&L.
func (g *Generator) Build(trigger Trigger) Report {
	now := g.now()
	day := now.Format("2006-01-02")

	all := g.ledger.History()
	var trades []ledger.TradeRecord
	wins, losses := 0, 0
	for _, tr := range all {
		if tr.Timestamp.Format("2006-01-02") != day {
			continue
		}
		trades = append(trades, tr)
		if tr.RealizedPnL == nil {
			continue
		}
		if *tr.RealizedPnL > 0 {
			wins++
		} else if *tr.RealizedPnL < 0 {
			losses++
		}
	}

	winRate := 0.0
	if wins+losses > 0 {
		winRate = float64(wins) / float64(wins+losses)
	}

	return Report{
		Date:          day,
		Trigger:       trigger,
		GeneratedAt:   now,
		Positions:     g.ledger.OpenPositions(),
		Exposure:      g.ledger.CurrentExposure(),
		DailyPnL:      g.ledger.DailyPnL(),
		UnrealizedPnL: g.ledger.TotalUnrealizedPnL(),
		Trades:        trades,
		TradeCount:    len(trades),
		Wins:          wins,
		Losses:        losses,
		WinRate:       winRate,
	}
}

// Generate builds a report and persists it when a backend is configured.
func (g *Generator) Generate(ctx context.Context, trigger Trigger) (Report, error) {
	rep := g.Build(trigger)

	if g.backend == nil {
		return rep, nil
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return rep, fmt.Errorf("marshaling report: %w", err)
	}

	key := Key(rep.Date, trigger)
	if err := g.backend.Put(ctx, key, data); err != nil {
		return rep, fmt.Errorf("archiving report %s: %w", key, err)
	}

	g.logger.Info("report archived",
		zap.String("key", key),
		zap.Int("trades", rep.TradeCount),
		zap.Float64("daily_pnl", rep.DailyPnL),
	)
	return rep, nil
}

// Load reads a previously archived report.
func (g *Generator) Load(ctx context.Context, date string, trigger Trigger) (Report, error) {
	if g.backend == nil {
		return Report{}, fmt.Errorf("no report backend configured")
	}
	data, err := g.backend.Get(ctx, Key(date, trigger))
	if err != nil {
		return Report{}, err
	}
	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return Report{}, fmt.Errorf("decoding report: %w", err)
	}
	return rep, nil
}

// Key returns the archive key for a report.
func Key(date string, trigger Trigger) string {
	return fmt.Sprintf("reports/%s/%s.json", date, trigger)
}
