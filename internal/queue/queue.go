// Package queue holds risk-approved trades awaiting a human approve or
// reject action, and enforces the pending-trade state machine.
package queue

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quantpit/pitboss/internal/core"
	"github.com/quantpit/pitboss/internal/events"
	"github.com/quantpit/pitboss/internal/risk"
)

// State is the lifecycle state of a pending trade.
type State string

const (
	StatePending         State = "PENDING"
	StateApproved        State = "APPROVED"
	StateExecuting       State = "EXECUTING"
	StateExecuted        State = "EXECUTED"
	StateExecutionFailed State = "EXECUTION_FAILED"
	StateRejected        State = "REJECTED"
	StateCleared         State = "CLEARED"
)

// transitions lists the legal state machine edges. Anything else is an
// invalid transition and fails explicitly.
var transitions = map[State][]State{
	StatePending:   {StateApproved, StateRejected, StateCleared},
	StateApproved:  {StateExecuting},
	StateExecuting: {StateExecuted, StateExecutionFailed},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the state ends the trade's lifecycle.
func (s State) IsTerminal() bool {
	switch s {
	case StateExecuted, StateExecutionFailed, StateRejected, StateCleared:
		return true
	}
	return false
}

// PendingTrade is a signal plus its risk decision, awaiting execution.
// The ID is stable for the life of the entry.
type PendingTrade struct {
	ID        string        `json:"id"`
	Signal    core.Signal   `json:"signal"`
	Decision  risk.Decision `json:"decision"`
	State     State         `json:"state"`
	CreatedAt time.Time     `json:"created_at"`
}

// Transition moves the trade to a new state, failing on any edge the
// state machine does not allow.
func (t *PendingTrade) Transition(to State) error {
	if !CanTransition(t.State, to) {
		return core.WrapError(core.ErrInvalidTransition,
			fmt.Errorf("%s -> %s for trade %s", t.State, to, t.ID))
	}
	t.State = to
	return nil
}

// NewApproved builds a trade that skips PENDING/APPROVED entirely. Used
// when auto-trading is enabled and the executor takes risk-approved
// signals directly.
func NewApproved(signal core.Signal, decision risk.Decision) *PendingTrade {
	return &PendingTrade{
		ID:        uuid.NewString(),
		Signal:    signal,
		Decision:  decision,
		State:     StateApproved,
		CreatedAt: time.Now(),
	}
}

// Queue is the approval queue. All methods are safe for concurrent use;
// the scan loop adds entries while the control surface approves, rejects
// and clears them. Terminal transitions remove the entry, so a second
// approve or reject on the same id fails with not found.
type Queue struct {
	mu      sync.Mutex
	entries map[string]*PendingTrade
	order   []string
	bus     *events.Bus
}

// New creates an empty approval queue publishing transitions on bus.
func New(bus *events.Bus) *Queue {
	return &Queue{
		entries: make(map[string]*PendingTrade),
		bus:     bus,
	}
}

// Add creates a PENDING entry for a risk-approved signal.
func (q *Queue) Add(signal core.Signal, decision risk.Decision) PendingTrade {
	trade := &PendingTrade{
		ID:        uuid.NewString(),
		Signal:    signal,
		Decision:  decision,
		State:     StatePending,
		CreatedAt: time.Now(),
	}

	q.mu.Lock()
	q.entries[trade.ID] = trade
	q.order = append(q.order, trade.ID)
	q.mu.Unlock()

	q.publish(events.TypeTradePending, trade)
	return *trade
}

// Approve moves a PENDING entry to APPROVED and hands it to the caller
// for execution. The entry leaves the queue; its remaining transitions
// are driven by the execution manager.
func (q *Queue) Approve(id string) (*PendingTrade, error) {
	trade, err := q.take(id, StateApproved)
	if err != nil {
		return nil, err
	}
	q.publish(events.TypeTradeApproved, trade)
	return trade, nil
}

// Reject moves a PENDING entry to REJECTED, a terminal state.
func (q *Queue) Reject(id string) (*PendingTrade, error) {
	trade, err := q.take(id, StateRejected)
	if err != nil {
		return nil, err
	}
	q.publish(events.TypeTradeRejected, trade)
	return trade, nil
}

// Clear discards all outstanding PENDING entries, e.g. on a mode switch.
// Returns the number of entries cleared.
func (q *Queue) Clear() int {
	q.mu.Lock()
	cleared := make([]*PendingTrade, 0, len(q.entries))
	for _, id := range q.order {
		trade := q.entries[id]
		if trade == nil {
			continue
		}
		trade.State = StateCleared
		cleared = append(cleared, trade)
	}
	q.entries = make(map[string]*PendingTrade)
	q.order = nil
	q.mu.Unlock()

	for _, trade := range cleared {
		q.publish(events.TypeTradeCleared, trade)
	}
	return len(cleared)
}

// Get returns a copy of the entry with the given id.
func (q *Queue) Get(id string) (PendingTrade, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	trade, ok := q.entries[id]
	if !ok {
		return PendingTrade{}, core.WrapError(core.ErrNotFound,
			fmt.Errorf("pending trade %s", id))
	}
	return *trade, nil
}

// List returns copies of all outstanding entries in insertion order.
func (q *Queue) List() []PendingTrade {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]PendingTrade, 0, len(q.entries))
	for _, id := range q.order {
		if trade, ok := q.entries[id]; ok {
			out = append(out, *trade)
		}
	}
	return out
}

// Len returns the number of outstanding entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// take removes an entry after validating its transition to the new state.
func (q *Queue) take(id string, to State) (*PendingTrade, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	trade, ok := q.entries[id]
	if !ok {
		return nil, core.WrapError(core.ErrNotFound,
			fmt.Errorf("pending trade %s", id))
	}
	if err := trade.Transition(to); err != nil {
		return nil, err
	}

	delete(q.entries, id)
	for i, oid := range q.order {
		if oid == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
	return trade, nil
}

func (q *Queue) publish(typ events.Type, trade *PendingTrade) {
	if q.bus == nil {
		return
	}
	q.bus.Publish(events.Event{
		Type:   typ,
		Symbol: trade.Signal.Symbol,
		Message: fmt.Sprintf("%s %s x%d", trade.Signal.Action,
			trade.Signal.Symbol, trade.Decision.ApprovedQuantity),
		Payload: *trade,
	})
}
