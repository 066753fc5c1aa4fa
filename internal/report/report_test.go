package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/quantpit/pitboss/internal/ledger"
	"github.com/quantpit/pitboss/internal/report"
	"github.com/quantpit/pitboss/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tradingDay() time.Time {
	return time.Date(2026, 8, 24, 15, 30, 0, 0, time.UTC)
}

func seededLedger(day time.Time) *ledger.Ledger {
	l := ledger.New(0)
	l.SetClock(func() time.Time { return day })

	l.RecordFill("AAPL", "BUY", 10, 100, 85, "claude")
	l.RecordFill("AAPL", "SELL", 5, 110, 80, "claude") // +50
	l.RecordFill("TSLA", "BUY", 5, 200, 75, "claude")
	l.RecordFill("TSLA", "SELL", 5, 190, 70, "claude") // -50
	return l
}

func TestBuild_CountsOnlyClosingFills(t *testing.T) {
	day := tradingDay()
	gen := report.NewGenerator(seededLedger(day), nil, nil)
	gen.SetClock(func() time.Time { return day })

	rep := gen.Build(report.TriggerManual)

	assert.Equal(t, "2026-08-24", rep.Date)
	assert.Equal(t, report.TriggerManual, rep.Trigger)
	assert.Equal(t, 4, rep.TradeCount)
	assert.Equal(t, 1, rep.Wins)
	assert.Equal(t, 1, rep.Losses)
	assert.InDelta(t, 0.5, rep.WinRate, 0.001)
	assert.InDelta(t, 0.0, rep.DailyPnL, 0.001)
	require.Len(t, rep.Positions, 1)
	assert.Equal(t, "AAPL", rep.Positions[0].Symbol)
}

func TestBuild_ExcludesOtherDays(t *testing.T) {
	day := tradingDay()
	l := seededLedger(day)
	gen := report.NewGenerator(l, nil, nil)

	// Report built the next day sees no trades for that date.
	gen.SetClock(func() time.Time { return day.AddDate(0, 0, 1) })

	rep := gen.Build(report.TriggerMarketOpen)
	assert.Zero(t, rep.TradeCount)
	assert.Zero(t, rep.Wins)
	assert.Zero(t, rep.WinRate)
}

func TestGenerate_PersistsAndLoads(t *testing.T) {
	day := tradingDay()
	backend, err := storage.NewLocalFS(t.TempDir())
	require.NoError(t, err)

	gen := report.NewGenerator(seededLedger(day), backend, nil)
	gen.SetClock(func() time.Time { return day })

	ctx := context.Background()
	rep, err := gen.Generate(ctx, report.TriggerMarketClose)
	require.NoError(t, err)

	ok, err := backend.Exists(ctx, report.Key("2026-08-24", report.TriggerMarketClose))
	require.NoError(t, err)
	assert.True(t, ok)

	loaded, err := gen.Load(ctx, "2026-08-24", report.TriggerMarketClose)
	require.NoError(t, err)
	assert.Equal(t, rep.TradeCount, loaded.TradeCount)
	assert.Equal(t, rep.Wins, loaded.Wins)
	assert.InDelta(t, rep.Exposure, loaded.Exposure, 0.001)
}

func TestGenerate_NoBackendStillBuilds(t *testing.T) {
	day := tradingDay()
	gen := report.NewGenerator(seededLedger(day), nil, nil)
	gen.SetClock(func() time.Time { return day })

	rep, err := gen.Generate(context.Background(), report.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 4, rep.TradeCount)
}

func TestLoad_NoBackendFails(t *testing.T) {
	gen := report.NewGenerator(ledger.New(0), nil, nil)

	_, err := gen.Load(context.Background(), "2026-08-24", report.TriggerManual)
	assert.Error(t, err)
}

func TestKey_Layout(t *testing.T) {
	assert.Equal(t, "reports/2026-08-24/manual.json",
		report.Key("2026-08-24", report.TriggerManual))
}
