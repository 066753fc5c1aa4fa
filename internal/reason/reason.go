// Package reason turns market snapshots into trading signals by
// delegating to an LLM provider. Two reasoning modes implement one
// interface: a single analysis call, and a bull/bear/judge debate.
package reason

import (
	"context"

	"github.com/quantpit/pitboss/internal/core"
	"github.com/quantpit/pitboss/internal/ledger"
	"github.com/quantpit/pitboss/internal/marketdata"
)

// PortfolioContext is the portfolio state rendered into prompts so the
// reasoning service can weigh existing exposure and track record.
type PortfolioContext struct {
	Positions   []ledger.Position
	Exposure    float64
	DailyPnL    float64
	SymbolStats ledger.SymbolStats
}

// Reasoner produces a signal for one symbol from a snapshot. A malformed
// provider response yields a HOLD signal, never an error; errors are
// reserved for the provider being unreachable.
type Reasoner interface {
	Name() string
	Analyze(ctx context.Context, snapshot marketdata.Snapshot, portfolio PortfolioContext) (core.Signal, error)
}

// Options tunes reasoning calls.
type Options struct {
	MaxTokens   int
	Temperature float64
}

func (o Options) withDefaults() Options {
	if o.MaxTokens <= 0 {
		o.MaxTokens = 2000
	}
	if o.Temperature <= 0 {
		o.Temperature = 0.3
	}
	return o
}
