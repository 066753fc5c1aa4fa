// Package executor submits approved trades to the brokerage, paces calls
// within a batch, records fills to the ledger and publishes transition
// events. A failed trade never aborts the rest of a batch.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/quantpit/pitboss/internal/broker"
	"github.com/quantpit/pitboss/internal/events"
	"github.com/quantpit/pitboss/internal/ledger"
	"github.com/quantpit/pitboss/internal/queue"
	"go.uber.org/zap"
)

// DefaultPaceDelay is the default inter-trade delay within a batch,
// keeping under brokerage rate limits.
const DefaultPaceDelay = 2 * time.Second

// Result is the outcome of a single execution attempt.
type Result struct {
	TradeID string `json:"trade_id"`
	Symbol  string `json:"symbol"`
	Success bool   `json:"success"`
	OrderID string `json:"order_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BatchResult reports per-trade outcomes plus aggregate counts.
type BatchResult struct {
	Results   []Result `json:"results"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
}

// Manager executes approved trades.
type Manager struct {
	brokerage broker.Brokerage
	ledger    *ledger.Ledger
	bus       *events.Bus
	logger    *zap.Logger
	paceDelay time.Duration

	// sleep is swapped out in tests so batch pacing doesn't slow them.
	sleep func(time.Duration)
}

// New creates an execution manager. paceDelay <= 0 selects the default.
func New(brokerage broker.Brokerage, ldgr *ledger.Ledger, bus *events.Bus, logger *zap.Logger, paceDelay time.Duration) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if paceDelay <= 0 {
		paceDelay = DefaultPaceDelay
	}
	return &Manager{
		brokerage: brokerage,
		ledger:    ldgr,
		bus:       bus,
		logger:    logger,
		paceDelay: paceDelay,
		sleep:     time.Sleep,
	}
}

// Execute submits one approved trade. The trade enters EXECUTING and
// finishes in EXECUTED or EXECUTION_FAILED; there is no automatic retry.
// A fill is recorded to the ledger only after the brokerage confirms it.
func (m *Manager) Execute(ctx context.Context, trade *queue.PendingTrade) Result {
	result := Result{TradeID: trade.ID, Symbol: trade.Signal.Symbol}

	if err := trade.Transition(queue.StateExecuting); err != nil {
		result.Error = err.Error()
		return result
	}
	m.publish(events.TypeTradeExecuting, trade, "")

	order, err := m.brokerage.PlaceOrder(ctx, broker.OrderRequest{
		Symbol:   trade.Signal.Symbol,
		Side:     broker.OrderSide(trade.Signal.Action),
		Quantity: trade.Decision.ApprovedQuantity,
	})
	if err != nil {
		// No fill recorded; ledger state is untouched.
		if terr := trade.Transition(queue.StateExecutionFailed); terr != nil {
			m.logger.Error("transition failed", zap.Error(terr))
		}
		result.Error = err.Error()
		m.publish(events.TypeTradeFailed, trade, err.Error())
		m.logger.Warn("execution failed",
			zap.String("symbol", trade.Signal.Symbol),
			zap.Error(err),
		)
		return result
	}

	fillPrice := order.FilledPrice
	if fillPrice <= 0 {
		fillPrice = trade.Signal.EntryPrice
	}
	record := m.ledger.RecordFill(
		trade.Signal.Symbol,
		string(trade.Signal.Action),
		trade.Decision.ApprovedQuantity,
		fillPrice,
		trade.Signal.Confidence,
		trade.Signal.Source,
	)
	if m.bus != nil {
		m.bus.Publish(events.Event{
			Type:    events.TypeFillRecorded,
			Symbol:  record.Symbol,
			Message: fmt.Sprintf("%s %d @ %.2f", record.Side, record.Quantity, record.Price),
			Payload: record,
		})
	}

	if terr := trade.Transition(queue.StateExecuted); terr != nil {
		m.logger.Error("transition failed", zap.Error(terr))
	}
	result.Success = true
	result.OrderID = order.OrderID
	m.publish(events.TypeTradeExecuted, trade, order.OrderID)

	m.logger.Info("trade executed",
		zap.String("symbol", trade.Signal.Symbol),
		zap.String("order_id", order.OrderID),
		zap.Int64("quantity", trade.Decision.ApprovedQuantity),
	)
	return result
}

// ExecuteBatch submits trades sequentially with the pacing delay between
// calls. Fills apply to the ledger before the next trade is attempted, so
// in-batch risk state stays current. One failure never halts the batch.
func (m *Manager) ExecuteBatch(ctx context.Context, trades []*queue.PendingTrade) BatchResult {
	batch := BatchResult{Results: make([]Result, 0, len(trades))}

	for i, trade := range trades {
		if i > 0 {
			m.sleep(m.paceDelay)
		}

		result := m.Execute(ctx, trade)
		batch.Results = append(batch.Results, result)
		if result.Success {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
	}
	return batch
}

func (m *Manager) publish(typ events.Type, trade *queue.PendingTrade, detail string) {
	if m.bus == nil {
		return
	}
	msg := fmt.Sprintf("%s %s x%d", trade.Signal.Action, trade.Signal.Symbol,
		trade.Decision.ApprovedQuantity)
	if detail != "" {
		msg += ": " + detail
	}
	m.bus.Publish(events.Event{
		Type:    typ,
		Symbol:  trade.Signal.Symbol,
		Message: msg,
		Payload: *trade,
	})
}
