// Package broker provides types and the interface for brokerage clients.
package broker

import (
	"context"
	"errors"
	"time"
)

// Broker-specific errors.
var (
	// ErrNotConnected indicates the brokerage is not connected.
	ErrNotConnected = errors.New("broker: not connected")
	// ErrAlreadyConnected indicates the brokerage is already connected.
	ErrAlreadyConnected = errors.New("broker: already connected")
	// ErrInvalidSymbol indicates an invalid or empty symbol.
	ErrInvalidSymbol = errors.New("broker: invalid symbol")
	// ErrInvalidQuantity indicates an invalid quantity.
	ErrInvalidQuantity = errors.New("broker: invalid quantity")
	// ErrOrderRejected indicates the brokerage rejected the order.
	ErrOrderRejected = errors.New("broker: order rejected")
)

// OrderSide represents the direction of an order.
type OrderSide string

const (
	// OrderSideBuy represents a buy order.
	OrderSideBuy OrderSide = "BUY"
	// OrderSideSell represents a sell order.
	OrderSideSell OrderSide = "SELL"
)

// OrderRequest represents a request to place a market order.
type OrderRequest struct {
	// Symbol is the ticker symbol (e.g., "AAPL").
	Symbol string `json:"symbol"`
	// Side indicates buy or sell.
	Side OrderSide `json:"side"`
	// Quantity is the number of shares to trade.
	Quantity int64 `json:"quantity"`
}

// Validate checks if the order request has valid required fields.
func (r OrderRequest) Validate() error {
	if r.Symbol == "" {
		return ErrInvalidSymbol
	}
	if r.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if r.Side != OrderSideBuy && r.Side != OrderSideSell {
		return errors.New("broker: invalid order side")
	}
	return nil
}

// Order represents a placed order.
type Order struct {
	// OrderID is the brokerage-assigned unique identifier.
	OrderID string `json:"order_id"`
	// Symbol is the ticker symbol.
	Symbol string `json:"symbol"`
	// Side indicates buy or sell.
	Side OrderSide `json:"side"`
	// Quantity is the order quantity.
	Quantity int64 `json:"quantity"`
	// FilledPrice is the average execution price, when filled.
	FilledPrice float64 `json:"filled_price"`
	// Status is the brokerage-reported status (e.g. "filled").
	Status string `json:"status"`
	// CreatedAt is when the order was accepted.
	CreatedAt time.Time `json:"created_at"`
}

// IsFilled returns true if the brokerage confirmed a fill.
func (o Order) IsFilled() bool {
	return o.Status == "filled"
}

// Position represents a holding as reported by the brokerage. Quantity is
// signed: negative for short positions.
type Position struct {
	Symbol        string  `json:"symbol"`
	Quantity      int64   `json:"quantity"`
	AvgEntryPrice float64 `json:"avg_entry_price"`
	CurrentPrice  float64 `json:"current_price"`
	MarketValue   float64 `json:"market_value"`
	UnrealizedPL  float64 `json:"unrealized_pl"`
}

// Account represents account balance information.
type Account struct {
	// Cash is the available cash balance.
	Cash float64 `json:"cash"`
	// BuyingPower is the total buying power available.
	BuyingPower float64 `json:"buying_power"`
	// Equity is the total account value including positions.
	Equity float64 `json:"equity"`
	// UpdatedAt is when the snapshot was taken.
	UpdatedAt time.Time `json:"updated_at"`
}

// Brokerage defines the interface for brokerage clients.
type Brokerage interface {
	// Name returns the brokerage identifier (e.g., "alpaca", "paper").
	Name() string

	// Connection management
	Connect(ctx context.Context) error
	Disconnect() error
	IsConnected() bool

	// Account operations
	GetAccount(ctx context.Context) (*Account, error)
	GetPositions(ctx context.Context) ([]Position, error)

	// PlaceOrder submits a market order and returns the accepted order.
	PlaceOrder(ctx context.Context, request OrderRequest) (*Order, error)

	// IsMarketOpen reports whether the market currently trades.
	IsMarketOpen(ctx context.Context) (bool, error)
}
