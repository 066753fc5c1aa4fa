// Package ledger tracks open positions, exposure, daily P&L and a bounded
// trade history. The ledger never calls the brokerage; truth is seeded from
// account snapshots supplied by the caller and mutated by reported fills.
package ledger

import (
	"sync"
	"time"
)

// DefaultHistorySize is the default cap on retained trade records.
const DefaultHistorySize = 500

// Side represents the direction of a position.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Position represents an open holding. Quantity is signed: negative for
// short positions.
type Position struct {
	Symbol       string    `json:"symbol"`
	Side         Side      `json:"side"`
	Quantity     int64     `json:"quantity"`
	EntryPrice   float64   `json:"entry_price"` // average cost basis
	CurrentPrice float64   `json:"current_price"`
	OpenedAt     time.Time `json:"opened_at"`
}

// MarketValue returns the absolute market value of the position.
func (p Position) MarketValue() float64 {
	v := float64(p.Quantity) * p.CurrentPrice
	if v < 0 {
		return -v
	}
	return v
}

// UnrealizedPnL returns the open profit or loss against the cost basis.
func (p Position) UnrealizedPnL() float64 {
	return float64(p.Quantity) * (p.CurrentPrice - p.EntryPrice)
}

// TradeRecord is an immutable historical entry appended on every fill.
type TradeRecord struct {
	Symbol          string    `json:"symbol"`
	Side            string    `json:"side"` // "BUY" or "SELL"
	Quantity        int64     `json:"quantity"`
	Price           float64   `json:"price"`
	RealizedPnL     *float64  `json:"realized_pnl,omitempty"` // set only on a closing/reducing fill
	Confidence      float64   `json:"signal_confidence"`
	ReasoningSource string    `json:"reasoning_source"`
	Timestamp       time.Time `json:"timestamp"`
}

// SymbolStats summarizes recent per-symbol trade performance.
type SymbolStats struct {
	TradeCount int     `json:"trade_count"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	TotalPnL   float64 `json:"total_pnl"`
}

// Ledger is the single owner of position and history state. All methods
// are safe for concurrent use; the scan loop and control surface share it.
type Ledger struct {
	mu        sync.RWMutex
	positions map[string]*Position
	history   []TradeRecord
	maxHist   int

	dailyPnL float64
	pnlDay   time.Time // trading day the counter belongs to

	now func() time.Time // injectable clock for day-boundary tests
}

// New creates a Ledger with the given trade-history cap.
func New(historySize int) *Ledger {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &Ledger{
		positions: make(map[string]*Position),
		history:   make([]TradeRecord, 0, historySize),
		maxHist:   historySize,
		now:       time.Now,
	}
}

// SetClock overrides the ledger's clock. Used by tests to drive the
// daily P&L day boundary deterministically.
func (l *Ledger) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Seed replaces all position state from an external account snapshot.
// Called at startup and whenever the brokerage is reconciled.
func (l *Ledger) Seed(positions []Position) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.positions = make(map[string]*Position, len(positions))
	for i := range positions {
		pos := positions[i]
		if pos.Quantity == 0 {
			continue
		}
		if pos.Side == "" {
			pos.Side = sideOf(pos.Quantity)
		}
		l.positions[pos.Symbol] = &pos
	}
}

// MarkPrice refreshes the mark-to-market price for an open position.
func (l *Ledger) MarkPrice(symbol string, price float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if pos, ok := l.positions[symbol]; ok && price > 0 {
		pos.CurrentPrice = price
	}
}

// OpenPositions returns a copy of all open positions.
func (l *Ledger) OpenPositions() []Position {
	l.mu.RLock()
	defer l.mu.RUnlock()

	positions := make([]Position, 0, len(l.positions))
	for _, pos := range l.positions {
		positions = append(positions, *pos)
	}
	return positions
}

// OpenPositionCount returns the number of open positions.
func (l *Ledger) OpenPositionCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.positions)
}

// HasPosition reports whether an open position exists for the symbol.
func (l *Ledger) HasPosition(symbol string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.positions[symbol]
	return ok
}

// HeldQuantity returns the signed open quantity for the symbol, 0 if none.
func (l *Ledger) HeldQuantity(symbol string) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if pos, ok := l.positions[symbol]; ok {
		return pos.Quantity
	}
	return 0
}

// CurrentExposure returns the sum of absolute market values across all
// open positions.
func (l *Ledger) CurrentExposure() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var total float64
	for _, pos := range l.positions {
		total += pos.MarketValue()
	}
	return total
}

// DailyPnL returns realized P&L accumulated since the start of the
// current trading day. Crossing a day boundary resets the counter; this
// is the only time-triggered mutation in the ledger.
func (l *Ledger) DailyPnL() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.checkDailyReset()
	return l.dailyPnL
}

// RecordFill applies a confirmed fill to position state, computes realized
// P&L on closing or reducing fills using average-cost basis, and appends a
// TradeRecord. Quantity must be positive; side determines direction.
func (l *Ledger) RecordFill(symbol, side string, quantity int64, price, confidence float64, source string) TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.checkDailyReset()

	signed := quantity
	if side == "SELL" {
		signed = -quantity
	}

	var realized *float64

	pos, exists := l.positions[symbol]
	switch {
	case !exists:
		l.positions[symbol] = &Position{
			Symbol:       symbol,
			Side:         sideOf(signed),
			Quantity:     signed,
			EntryPrice:   price,
			CurrentPrice: price,
			OpenedAt:     l.now(),
		}

	case sameDirection(pos.Quantity, signed):
		// Adding to the position: weighted average cost.
		oldQty := pos.Quantity
		newQty := oldQty + signed
		totalCost := float64(absQty(oldQty))*pos.EntryPrice + float64(quantity)*price
		pos.Quantity = newQty
		pos.EntryPrice = totalCost / float64(absQty(newQty))
		pos.CurrentPrice = price

	default:
		// Offsetting fill: realize P&L on the closed quantity.
		offset := quantity
		if held := absQty(pos.Quantity); offset > held {
			offset = held
		}
		perShare := price - pos.EntryPrice
		if pos.Quantity < 0 {
			perShare = pos.EntryPrice - price
		}
		pnl := perShare * float64(offset)
		realized = &pnl
		l.dailyPnL += pnl

		remaining := pos.Quantity + signed
		switch {
		case remaining == 0:
			delete(l.positions, symbol)
		case sameDirection(remaining, pos.Quantity):
			pos.Quantity = remaining
			pos.CurrentPrice = price
		default:
			// Fill crossed through zero: the excess opens a new
			// position in the opposite direction at the fill price.
			l.positions[symbol] = &Position{
				Symbol:       symbol,
				Side:         sideOf(remaining),
				Quantity:     remaining,
				EntryPrice:   price,
				CurrentPrice: price,
				OpenedAt:     l.now(),
			}
		}
	}

	record := TradeRecord{
		Symbol:          symbol,
		Side:            side,
		Quantity:        quantity,
		Price:           price,
		RealizedPnL:     realized,
		Confidence:      confidence,
		ReasoningSource: source,
		Timestamp:       l.now(),
	}

	l.history = append(l.history, record)
	if len(l.history) > l.maxHist {
		l.history = l.history[len(l.history)-l.maxHist:]
	}

	return record
}

// History returns a copy of the retained trade records, oldest first.
func (l *Ledger) History() []TradeRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]TradeRecord, len(l.history))
	copy(out, l.history)
	return out
}

// SymbolHistory returns recent win/loss statistics for a symbol, computed
// over the retained trade records with a realized P&L.
func (l *Ledger) SymbolHistory(symbol string) SymbolStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var stats SymbolStats
	for _, rec := range l.history {
		if rec.Symbol != symbol {
			continue
		}
		stats.TradeCount++
		if rec.RealizedPnL == nil {
			continue
		}
		stats.TotalPnL += *rec.RealizedPnL
		if *rec.RealizedPnL > 0 {
			stats.Wins++
		} else if *rec.RealizedPnL < 0 {
			stats.Losses++
		}
	}
	return stats
}

// TotalUnrealizedPnL returns the sum of unrealized P&L across positions.
func (l *Ledger) TotalUnrealizedPnL() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var total float64
	for _, pos := range l.positions {
		total += pos.UnrealizedPnL()
	}
	return total
}

// exchangeTZ anchors the trading-day boundary. US equities roll over on
// the Eastern calendar day; a UTC boundary would reset mid-evening.
var exchangeTZ = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// checkDailyReset zeroes the daily P&L counter on a new trading day.
// Callers must hold l.mu.
func (l *Ledger) checkDailyReset() {
	now := l.now().In(exchangeTZ)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, exchangeTZ)
	if !today.Equal(l.pnlDay) {
		l.pnlDay = today
		l.dailyPnL = 0
	}
}

func sideOf(quantity int64) Side {
	if quantity < 0 {
		return SideShort
	}
	return SideLong
}

func sameDirection(a, b int64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

func absQty(q int64) int64 {
	if q < 0 {
		return -q
	}
	return q
}
