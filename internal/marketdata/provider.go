// Package marketdata defines the snapshot contract the orchestrator
// consumes per symbol per scan cycle.
package marketdata

import (
	"context"
	"time"
)

// Snapshot is the per-symbol view handed to the reasoning service.
type Snapshot struct {
	Symbol          string             `json:"symbol"`
	Price           float64            `json:"price"`
	Volume          int64              `json:"volume"`
	Indicators      map[string]float64 `json:"indicators"`
	RecentHeadlines []string           `json:"recent_headlines,omitempty"`
	Time            time.Time          `json:"time"`
}

// Provider produces snapshots. A failed fetch means "no signal for this
// symbol this cycle", never a fatal scan error.
type Provider interface {
	Name() string
	Snapshot(ctx context.Context, symbol string) (*Snapshot, error)
}

// NewsSource supplies recent headlines for a symbol. Optional: providers
// without one return snapshots with no headlines.
type NewsSource interface {
	RecentHeadlines(ctx context.Context, symbol string, max int) ([]string, error)
}
