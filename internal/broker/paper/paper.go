// Package paper implements an in-process brokerage simulator. Orders fill
// immediately at a configurable price; used as the default broker and in
// tests.
package paper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quantpit/pitboss/internal/broker"
)

// Broker simulates a brokerage account with immediate market fills.
type Broker struct {
	mu         sync.RWMutex
	connected  bool
	cash       float64
	positions  map[string]*broker.Position
	prices     map[string]float64
	marketOpen bool

	// FailNextOrder, when set, makes the next PlaceOrder fail. Tests use
	// it to exercise partial batch failure.
	FailNextOrder error
}

// New creates a paper broker with the given starting cash.
func New(cash float64) *Broker {
	return &Broker{
		cash:       cash,
		positions:  make(map[string]*broker.Position),
		prices:     make(map[string]float64),
		marketOpen: true,
	}
}

// Name returns the broker name.
func (b *Broker) Name() string {
	return "paper"
}

// Connect marks the broker connected.
func (b *Broker) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.connected {
		return broker.ErrAlreadyConnected
	}
	b.connected = true
	return nil
}

// Disconnect marks the broker disconnected.
func (b *Broker) Disconnect() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = false
	return nil
}

// IsConnected returns connection status.
func (b *Broker) IsConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected
}

// SetPrice sets the simulated market price for a symbol.
func (b *Broker) SetPrice(symbol string, price float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prices[symbol] = price
	if pos, ok := b.positions[symbol]; ok {
		pos.CurrentPrice = price
		pos.MarketValue = float64(pos.Quantity) * price
		pos.UnrealizedPL = float64(pos.Quantity) * (price - pos.AvgEntryPrice)
	}
}

// SetMarketOpen controls the simulated trading clock.
func (b *Broker) SetMarketOpen(open bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.marketOpen = open
}

// GetAccount returns the simulated account snapshot.
func (b *Broker) GetAccount(ctx context.Context) (*broker.Account, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.connected {
		return nil, broker.ErrNotConnected
	}

	equity := b.cash
	for _, pos := range b.positions {
		equity += float64(pos.Quantity) * pos.CurrentPrice
	}

	return &broker.Account{
		Cash:        b.cash,
		BuyingPower: b.cash,
		Equity:      equity,
		UpdatedAt:   time.Now(),
	}, nil
}

// GetPositions returns the simulated positions.
func (b *Broker) GetPositions(ctx context.Context) ([]broker.Position, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.connected {
		return nil, broker.ErrNotConnected
	}

	positions := make([]broker.Position, 0, len(b.positions))
	for _, pos := range b.positions {
		positions = append(positions, *pos)
	}
	return positions, nil
}

// PlaceOrder fills a market order immediately at the simulated price.
func (b *Broker) PlaceOrder(ctx context.Context, request broker.OrderRequest) (*broker.Order, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return nil, broker.ErrNotConnected
	}
	if err := b.FailNextOrder; err != nil {
		b.FailNextOrder = nil
		return nil, err
	}

	price, ok := b.prices[request.Symbol]
	if !ok || price <= 0 {
		return nil, fmt.Errorf("%w: no price for %s", broker.ErrOrderRejected, request.Symbol)
	}

	signed := request.Quantity
	if request.Side == broker.OrderSideSell {
		signed = -request.Quantity
	}
	b.applyFill(request.Symbol, signed, price)

	return &broker.Order{
		OrderID:     uuid.NewString(),
		Symbol:      request.Symbol,
		Side:        request.Side,
		Quantity:    request.Quantity,
		FilledPrice: price,
		Status:      "filled",
		CreatedAt:   time.Now(),
	}, nil
}

// IsMarketOpen returns the simulated trading clock.
func (b *Broker) IsMarketOpen(ctx context.Context) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.connected {
		return false, broker.ErrNotConnected
	}
	return b.marketOpen, nil
}

// applyFill mutates the simulated position and cash. Callers hold b.mu.
func (b *Broker) applyFill(symbol string, signed int64, price float64) {
	b.cash -= float64(signed) * price

	pos, ok := b.positions[symbol]
	if !ok {
		b.positions[symbol] = &broker.Position{
			Symbol:        symbol,
			Quantity:      signed,
			AvgEntryPrice: price,
			CurrentPrice:  price,
			MarketValue:   float64(signed) * price,
		}
		return
	}

	newQty := pos.Quantity + signed
	if newQty == 0 {
		delete(b.positions, symbol)
		return
	}
	if (pos.Quantity > 0) == (signed > 0) {
		total := float64(abs(pos.Quantity))*pos.AvgEntryPrice + float64(abs(signed))*price
		pos.AvgEntryPrice = total / float64(abs(newQty))
	}
	pos.Quantity = newQty
	pos.CurrentPrice = price
	pos.MarketValue = float64(newQty) * price
	pos.UnrealizedPL = float64(newQty) * (price - pos.AvgEntryPrice)
}

func abs(q int64) int64 {
	if q < 0 {
		return -q
	}
	return q
}
