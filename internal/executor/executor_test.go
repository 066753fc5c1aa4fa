package executor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/quantpit/pitboss/internal/broker"
	"github.com/quantpit/pitboss/internal/core"
	"github.com/quantpit/pitboss/internal/events"
	"github.com/quantpit/pitboss/internal/ledger"
	"github.com/quantpit/pitboss/internal/queue"
	"github.com/quantpit/pitboss/internal/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedBroker fills orders at a fixed price and fails the call
// numbers listed in failOn.
type scriptedBroker struct {
	fillPrice float64
	failOn    map[int]bool
	calls     int
}

func (s *scriptedBroker) Name() string                    { return "scripted" }
func (s *scriptedBroker) Connect(context.Context) error   { return nil }
func (s *scriptedBroker) Disconnect() error               { return nil }
func (s *scriptedBroker) IsConnected() bool               { return true }
func (s *scriptedBroker) IsMarketOpen(context.Context) (bool, error) {
	return true, nil
}
func (s *scriptedBroker) GetAccount(context.Context) (*broker.Account, error) {
	return &broker.Account{}, nil
}
func (s *scriptedBroker) GetPositions(context.Context) ([]broker.Position, error) {
	return nil, nil
}

func (s *scriptedBroker) PlaceOrder(ctx context.Context, req broker.OrderRequest) (*broker.Order, error) {
	s.calls++
	if s.failOn[s.calls] {
		return nil, fmt.Errorf("%w: scripted failure", broker.ErrOrderRejected)
	}
	return &broker.Order{
		OrderID:     fmt.Sprintf("order-%d", s.calls),
		Symbol:      req.Symbol,
		Side:        req.Side,
		Quantity:    req.Quantity,
		FilledPrice: s.fillPrice,
		Status:      "filled",
		CreatedAt:   time.Now(),
	}, nil
}

func approvedTrade(symbol string, qty int64) *queue.PendingTrade {
	return queue.NewApproved(
		core.Signal{
			Symbol:     symbol,
			Action:     core.ActionBuy,
			Confidence: 80,
			EntryPrice: 100,
			Source:     "test",
		},
		risk.Decision{Approved: true, ApprovedQuantity: qty},
	)
}

func newTestManager(b broker.Brokerage, l *ledger.Ledger, bus *events.Bus) *Manager {
	m := New(b, l, bus, nil, time.Millisecond)
	m.sleep = func(time.Duration) {}
	return m
}

func TestExecute_SuccessRecordsFill(t *testing.T) {
	brokerage := &scriptedBroker{fillPrice: 101.5}
	l := ledger.New(0)
	m := newTestManager(brokerage, l, nil)

	trade := approvedTrade("AAPL", 10)
	result := m.Execute(context.Background(), trade)

	assert.True(t, result.Success)
	assert.Equal(t, "order-1", result.OrderID)
	assert.Equal(t, queue.StateExecuted, trade.State)

	require.Equal(t, int64(10), l.HeldQuantity("AAPL"))
	history := l.History()
	require.Len(t, history, 1)
	assert.InDelta(t, 101.5, history[0].Price, 0.001)
}

func TestExecute_FailureLeavesLedgerUntouched(t *testing.T) {
	brokerage := &scriptedBroker{fillPrice: 100, failOn: map[int]bool{1: true}}
	l := ledger.New(0)
	m := newTestManager(brokerage, l, nil)

	trade := approvedTrade("AAPL", 10)
	result := m.Execute(context.Background(), trade)

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.Equal(t, queue.StateExecutionFailed, trade.State)
	assert.False(t, l.HasPosition("AAPL"))
	assert.Empty(t, l.History())
}

func TestExecute_RejectsTradeNotInApprovedState(t *testing.T) {
	brokerage := &scriptedBroker{fillPrice: 100}
	m := newTestManager(brokerage, ledger.New(0), nil)

	trade := approvedTrade("AAPL", 10)
	require.NoError(t, trade.Transition(queue.StateExecuting))

	result := m.Execute(context.Background(), trade)

	assert.False(t, result.Success)
	assert.Equal(t, 0, brokerage.calls)
}

func TestExecuteBatch_PartialFailureDoesNotHalt(t *testing.T) {
	brokerage := &scriptedBroker{fillPrice: 100, failOn: map[int]bool{2: true}}
	l := ledger.New(0)
	m := newTestManager(brokerage, l, nil)

	trades := []*queue.PendingTrade{
		approvedTrade("AAPL", 10),
		approvedTrade("MSFT", 5),
		approvedTrade("NVDA", 3),
	}
	batch := m.ExecuteBatch(context.Background(), trades)

	assert.Equal(t, 2, batch.Succeeded)
	assert.Equal(t, 1, batch.Failed)
	require.Len(t, batch.Results, 3)
	assert.True(t, batch.Results[0].Success)
	assert.False(t, batch.Results[1].Success)
	assert.True(t, batch.Results[2].Success)

	// Exactly the two confirmed fills hit the ledger.
	assert.True(t, l.HasPosition("AAPL"))
	assert.False(t, l.HasPosition("MSFT"))
	assert.True(t, l.HasPosition("NVDA"))
	assert.Len(t, l.History(), 2)

	assert.Equal(t, queue.StateExecutionFailed, trades[1].State)
}

func TestExecuteBatch_PacesBetweenTrades(t *testing.T) {
	brokerage := &scriptedBroker{fillPrice: 100}
	m := New(brokerage, ledger.New(0), nil, nil, 5*time.Second)

	var sleeps []time.Duration
	m.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }

	trades := []*queue.PendingTrade{
		approvedTrade("AAPL", 1),
		approvedTrade("MSFT", 1),
		approvedTrade("NVDA", 1),
	}
	m.ExecuteBatch(context.Background(), trades)

	// No delay before the first trade, one between each pair after.
	require.Len(t, sleeps, 2)
	assert.Equal(t, 5*time.Second, sleeps[0])
}

func TestExecute_PublishesLifecycleEvents(t *testing.T) {
	brokerage := &scriptedBroker{fillPrice: 100}
	bus := events.NewBus(50)
	m := newTestManager(brokerage, ledger.New(0), bus)

	m.Execute(context.Background(), approvedTrade("AAPL", 10))

	recent := bus.Recent(10)
	require.Len(t, recent, 3)
	assert.Equal(t, events.TypeTradeExecuting, recent[0].Type)
	assert.Equal(t, events.TypeFillRecorded, recent[1].Type)
	assert.Equal(t, events.TypeTradeExecuted, recent[2].Type)
}

func TestExecute_FailedOrderPublishesFailure(t *testing.T) {
	brokerage := &scriptedBroker{fillPrice: 100, failOn: map[int]bool{1: true}}
	bus := events.NewBus(50)
	m := newTestManager(brokerage, ledger.New(0), bus)

	result := m.Execute(context.Background(), approvedTrade("AAPL", 10))

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "scripted failure")

	recent := bus.Recent(10)
	require.Len(t, recent, 2)
	assert.Equal(t, events.TypeTradeExecuting, recent[0].Type)
	assert.Equal(t, events.TypeTradeFailed, recent[1].Type)
}
