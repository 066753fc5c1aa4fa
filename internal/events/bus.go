// Package events carries the observability stream: every queue state
// transition, risk decision, fill and scan lifecycle change is published
// here for the control surface and notifiers to consume.
package events

import (
	"sync"
	"time"
)

// Type identifies the kind of event.
type Type string

const (
	TypeSignal         Type = "signal.generated"
	TypeRiskApproved   Type = "risk.approved"
	TypeRiskBlocked    Type = "risk.blocked"
	TypeTradePending   Type = "trade.pending"
	TypeTradeApproved  Type = "trade.approved"
	TypeTradeRejected  Type = "trade.rejected"
	TypeTradeCleared   Type = "trade.cleared"
	TypeTradeExecuting Type = "trade.executing"
	TypeTradeExecuted  Type = "trade.executed"
	TypeTradeFailed    Type = "trade.failed"
	TypeFillRecorded   Type = "fill.recorded"
	TypeScanStarted    Type = "scan.started"
	TypeScanStopped    Type = "scan.stopped"
	TypeScanCycle      Type = "scan.cycle"
)

// Event is one entry on the stream.
type Event struct {
	Type    Type      `json:"type"`
	Symbol  string    `json:"symbol,omitempty"`
	Message string    `json:"message,omitempty"`
	Payload any       `json:"payload,omitempty"`
	Time    time.Time `json:"time"`
}

// Bus is an in-process pub/sub with bounded history. Publish never
// blocks: a subscriber that cannot keep up loses events rather than
// stalling the scan loop.
type Bus struct {
	mu      sync.RWMutex
	subs    map[int]chan Event
	nextID  int
	history []Event
	maxHist int
}

// NewBus creates a bus retaining up to maxHistory recent events.
func NewBus(maxHistory int) *Bus {
	if maxHistory <= 0 {
		maxHistory = 200
	}
	return &Bus{
		subs:    make(map[int]chan Event),
		history: make([]Event, 0, maxHistory),
		maxHist: maxHistory,
	}
}

// Publish delivers an event to all subscribers and appends it to history.
func (b *Bus) Publish(evt Event) {
	if evt.Time.IsZero() {
		evt.Time = time.Now()
	}

	b.mu.Lock()
	b.history = append(b.history, evt)
	if len(b.history) > b.maxHist {
		b.history = b.history[len(b.history)-b.maxHist:]
	}
	subs := make([]chan Event, 0, len(b.subs))
	for _, ch := range b.subs {
		subs = append(subs, ch)
	}
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- evt:
		default: // slow subscriber, drop
		}
	}
}

// Subscribe registers a new subscriber and returns its channel plus an
// unsubscribe function.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if existing, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(existing)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Recent returns up to n most recent events, oldest first.
func (b *Bus) Recent(n int) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n <= 0 || n > len(b.history) {
		n = len(b.history)
	}
	out := make([]Event, n)
	copy(out, b.history[len(b.history)-n:])
	return out
}
