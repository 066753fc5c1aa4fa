// Package risk validates candidate signals against configured limits and
// current portfolio state, and computes approved quantities via dynamic
// position sizing.
package risk

import (
	"fmt"
	"math"

	"github.com/quantpit/pitboss/internal/core"
)

// Rejection reasons. Exposed as constants so callers and tests can match
// decisions without parsing formatted text.
const (
	ReasonShortSellingDisabled    = "short selling disabled"
	ReasonDailyLossLimitReached   = "daily loss limit reached"
	ReasonPositionLimitReached    = "position limit reached"
	ReasonExposureLimitReached    = "exposure limit reached"
	ReasonInsufficientBuyingPower = "insufficient buying power"

	// WarningShortSell is attached, non-blocking, when an approved SELL
	// opens a new short position.
	WarningShortSell = "short sell - no existing position"
)

// Limits holds the process-wide risk configuration, loaded once at startup
// and read-only thereafter.
type Limits struct {
	MaxPositionSize            float64
	MaxTotalExposure           float64
	MaxOpenPositions           int
	MaxDailyLoss               float64
	MaxPositionExposurePercent float64 // (0,1]
	EnableShortSelling         bool
	EnableAutoTrading          bool
}

// Decision is the engine's verdict on one candidate signal.
type Decision struct {
	Approved         bool     `json:"approved"`
	Reason           string   `json:"reason,omitempty"`
	ApprovedQuantity int64    `json:"approved_quantity"` // 0 iff not approved
	Warnings         []string `json:"warnings,omitempty"`
}

// PortfolioView is the read-only ledger state the engine evaluates against.
type PortfolioView interface {
	OpenPositionCount() int
	HasPosition(symbol string) bool
	HeldQuantity(symbol string) int64
	CurrentExposure() float64
	DailyPnL() float64
}

// Engine evaluates signals against limits and a portfolio view.
type Engine struct {
	limits Limits
}

// NewEngine creates a risk engine with the given limits.
func NewEngine(limits Limits) *Engine {
	return &Engine{limits: limits}
}

// Limits returns the configured limits.
func (e *Engine) Limits() Limits {
	return e.limits
}

// Evaluate validates a signal against the limits and portfolio state.
// Checks run in order and short-circuit on the first failure. Evaluation
// is pure with respect to the view: re-evaluating with unchanged state
// yields an identical decision.
func (e *Engine) Evaluate(signal core.Signal, view PortfolioView) Decision {
	switch signal.Action {
	case core.ActionBuy:
		return e.evaluateBuy(signal, view)
	case core.ActionSell:
		return e.evaluateSell(signal, view)
	default:
		return Decision{
			Approved: false,
			Reason:   fmt.Sprintf("action %s is not tradable", signal.Action),
		}
	}
}

func (e *Engine) evaluateBuy(signal core.Signal, view PortfolioView) Decision {
	if view.DailyPnL() <= -e.limits.MaxDailyLoss {
		return Decision{Approved: false, Reason: ReasonDailyLossLimitReached}
	}
	if view.OpenPositionCount() >= e.limits.MaxOpenPositions {
		return Decision{Approved: false, Reason: ReasonPositionLimitReached}
	}
	exposure := view.CurrentExposure()
	if exposure >= e.limits.MaxTotalExposure {
		return Decision{Approved: false, Reason: ReasonExposureLimitReached}
	}

	qty := e.sizeOpen(signal.EntryPrice, exposure, view.OpenPositionCount())
	if qty <= 0 {
		return Decision{Approved: false, Reason: ReasonInsufficientBuyingPower}
	}

	return Decision{Approved: true, ApprovedQuantity: qty}
}

func (e *Engine) evaluateSell(signal core.Signal, view PortfolioView) Decision {
	if !view.HasPosition(signal.Symbol) {
		if !e.limits.EnableShortSelling {
			return Decision{Approved: false, Reason: ReasonShortSellingDisabled}
		}
		// Opening a short: sized like any new exposure, flagged for the
		// approval step but never blocking.
		exposure := view.CurrentExposure()
		if exposure >= e.limits.MaxTotalExposure {
			return Decision{Approved: false, Reason: ReasonExposureLimitReached}
		}
		qty := e.sizeOpen(signal.EntryPrice, exposure, view.OpenPositionCount())
		if qty <= 0 {
			return Decision{Approved: false, Reason: ReasonInsufficientBuyingPower}
		}
		return Decision{
			Approved:         true,
			ApprovedQuantity: qty,
			Warnings:         []string{WarningShortSell},
		}
	}

	// Closing or reducing an existing position is never blocked by
	// exposure or loss limits; only sizing applies.
	held := view.HeldQuantity(signal.Symbol)
	if held < 0 {
		held = -held
	}
	qty := hintQuantity(signal.SizeHint, held)
	if qty > held {
		qty = held
	}
	return Decision{Approved: true, ApprovedQuantity: qty}
}

// sizeOpen computes the approved quantity for a new exposure using
// dynamic position sizing: the notional is the smallest of the
// per-position cap, the remaining exposure budget, and a fair share of
// the budget across remaining position slots.
func (e *Engine) sizeOpen(entryPrice, exposure float64, openCount int) int64 {
	if entryPrice <= 0 {
		return 0
	}

	perPositionCap := math.Min(
		e.limits.MaxPositionSize,
		e.limits.MaxPositionExposurePercent*e.limits.MaxTotalExposure,
	)
	remainingBudget := e.limits.MaxTotalExposure - exposure
	remainingSlots := e.limits.MaxOpenPositions - openCount
	if remainingSlots < 1 {
		remainingSlots = 1
	}
	fairShare := remainingBudget / float64(remainingSlots)

	allowed := math.Min(perPositionCap, math.Min(remainingBudget, fairShare))
	return int64(math.Floor(allowed / entryPrice))
}

// hintQuantity maps the reasoning service's coarse size hint onto a
// fraction of the held quantity for closing fills. LARGE closes the
// whole position.
func hintQuantity(hint core.SizeHint, held int64) int64 {
	var qty int64
	switch hint {
	case core.SizeSmall:
		qty = held / 4
	case core.SizeMedium:
		qty = held / 2
	default:
		qty = held
	}
	if qty < 1 && held > 0 {
		qty = 1
	}
	return qty
}
