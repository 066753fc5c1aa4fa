// Package notify delivers trade lifecycle notices to external channels.
package notify

import (
	"fmt"
	"time"

	"github.com/quantpit/pitboss/internal/core"
)

// Config holds notifier configuration
type Config struct {
	Type   string         `mapstructure:"type"`
	Params map[string]any `mapstructure:"params"`
}

// Notice is one event worth telling a human about.
type Notice struct {
	Kind   string         `json:"kind"`
	Symbol string         `json:"symbol,omitempty"`
	Title  string         `json:"title"`
	Body   string         `json:"body,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
	Time   time.Time      `json:"time"`
}

// Notice kinds.
const (
	KindSignal = "signal"
	KindTrade  = "trade"
	KindReport = "report"
	KindAlert  = "alert"
)

// Notifier defines the interface for notice delivery
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Init initializes the notifier with configuration
	Init(cfg Config) error

	// Send delivers a single notice
	Send(notice Notice) error

	// SendBatch delivers multiple notices
	SendBatch(notices []Notice) error
}

// FromSignal builds a notice announcing a generated signal.
func FromSignal(sig core.Signal) Notice {
	return Notice{
		Kind:   KindSignal,
		Symbol: sig.Symbol,
		Title:  fmt.Sprintf("%s %s (confidence %.0f)", sig.Action, sig.Symbol, sig.Confidence),
		Body:   sig.Rationale,
		Fields: map[string]any{
			"action":      string(sig.Action),
			"confidence":  sig.Confidence,
			"entry_price": sig.EntryPrice,
			"stop_loss":   sig.StopLoss,
			"take_profit": sig.TakeProfit,
			"source":      sig.Source,
		},
		Time: sig.GeneratedAt,
	}
}

// FromTrade builds a notice announcing a trade state change.
func FromTrade(symbol, state string, quantity int, price float64, when time.Time) Notice {
	return Notice{
		Kind:   KindTrade,
		Symbol: symbol,
		Title:  fmt.Sprintf("%s %s: %d @ %.2f", symbol, state, quantity, price),
		Fields: map[string]any{
			"state":    state,
			"quantity": quantity,
			"price":    price,
		},
		Time: when,
	}
}
