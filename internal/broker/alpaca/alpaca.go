// Package alpaca implements the Brokerage interface against the Alpaca
// trading REST API (paper or live, selected by base URL).
package alpaca

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/quantpit/pitboss/internal/broker"
	"github.com/shopspring/decimal"
)

const defaultBaseURL = "https://paper-api.alpaca.markets"

// Client is an Alpaca brokerage client.
type Client struct {
	http *resty.Client

	mu        sync.RWMutex
	connected bool
}

// New creates a new Alpaca client. baseURL defaults to the paper-trading
// endpoint when empty.
func New(apiKey, secretKey, baseURL string) (*Client, error) {
	if apiKey == "" || secretKey == "" {
		return nil, fmt.Errorf("alpaca: api key and secret key required")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	http := resty.New()
	http.SetBaseURL(baseURL)
	http.SetTimeout(30 * time.Second)
	http.SetHeader("APCA-API-KEY-ID", apiKey)
	http.SetHeader("APCA-API-SECRET-KEY", secretKey)

	return &Client{http: http}, nil
}

// Name returns the brokerage identifier.
func (c *Client) Name() string {
	return "alpaca"
}

// Connect verifies credentials by fetching the account.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected {
		return broker.ErrAlreadyConnected
	}

	var acct accountResponse
	resp, err := c.http.R().SetContext(ctx).SetResult(&acct).Get("/v2/account")
	if err != nil {
		return fmt.Errorf("alpaca: connect: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("alpaca: connect: status %d", resp.StatusCode())
	}

	c.connected = true
	return nil
}

// Disconnect marks the client disconnected.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	return nil
}

// IsConnected returns connection status.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Alpaca returns all numbers as JSON strings.
type accountResponse struct {
	Cash        string `json:"cash"`
	BuyingPower string `json:"buying_power"`
	Equity      string `json:"equity"`
}

type positionResponse struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	Side          string `json:"side"`
	AvgEntryPrice string `json:"avg_entry_price"`
	CurrentPrice  string `json:"current_price"`
	MarketValue   string `json:"market_value"`
	UnrealizedPL  string `json:"unrealized_pl"`
}

type orderResponse struct {
	ID             string `json:"id"`
	Symbol         string `json:"symbol"`
	Qty            string `json:"qty"`
	Side           string `json:"side"`
	Status         string `json:"status"`
	FilledAvgPrice string `json:"filled_avg_price"`
}

type clockResponse struct {
	IsOpen bool `json:"is_open"`
}

// GetAccount fetches the account snapshot.
func (c *Client) GetAccount(ctx context.Context) (*broker.Account, error) {
	if !c.IsConnected() {
		return nil, broker.ErrNotConnected
	}

	var acct accountResponse
	resp, err := c.http.R().SetContext(ctx).SetResult(&acct).Get("/v2/account")
	if err != nil {
		return nil, fmt.Errorf("alpaca: get account: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("alpaca: get account: status %d", resp.StatusCode())
	}

	return &broker.Account{
		Cash:        parseFloat(acct.Cash),
		BuyingPower: parseFloat(acct.BuyingPower),
		Equity:      parseFloat(acct.Equity),
		UpdatedAt:   time.Now(),
	}, nil
}

// GetPositions fetches all open positions.
func (c *Client) GetPositions(ctx context.Context) ([]broker.Position, error) {
	if !c.IsConnected() {
		return nil, broker.ErrNotConnected
	}

	var raw []positionResponse
	resp, err := c.http.R().SetContext(ctx).SetResult(&raw).Get("/v2/positions")
	if err != nil {
		return nil, fmt.Errorf("alpaca: get positions: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("alpaca: get positions: status %d", resp.StatusCode())
	}

	positions := make([]broker.Position, 0, len(raw))
	for _, p := range raw {
		qty := int64(parseFloat(p.Qty))
		if p.Side == "short" && qty > 0 {
			qty = -qty
		}
		positions = append(positions, broker.Position{
			Symbol:        p.Symbol,
			Quantity:      qty,
			AvgEntryPrice: parseFloat(p.AvgEntryPrice),
			CurrentPrice:  parseFloat(p.CurrentPrice),
			MarketValue:   parseFloat(p.MarketValue),
			UnrealizedPL:  parseFloat(p.UnrealizedPL),
		})
	}
	return positions, nil
}

// PlaceOrder submits a market day order.
func (c *Client) PlaceOrder(ctx context.Context, request broker.OrderRequest) (*broker.Order, error) {
	if !c.IsConnected() {
		return nil, broker.ErrNotConnected
	}
	if err := request.Validate(); err != nil {
		return nil, err
	}

	body := map[string]any{
		"symbol":        request.Symbol,
		"qty":           strconv.FormatInt(request.Quantity, 10),
		"side":          map[broker.OrderSide]string{broker.OrderSideBuy: "buy", broker.OrderSideSell: "sell"}[request.Side],
		"type":          "market",
		"time_in_force": "day",
	}

	var placed orderResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&placed).
		Post("/v2/orders")
	if err != nil {
		return nil, fmt.Errorf("alpaca: place order: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d: %s", broker.ErrOrderRejected,
			resp.StatusCode(), resp.String())
	}

	return &broker.Order{
		OrderID:     placed.ID,
		Symbol:      placed.Symbol,
		Side:        request.Side,
		Quantity:    request.Quantity,
		FilledPrice: parseFloat(placed.FilledAvgPrice),
		Status:      placed.Status,
		CreatedAt:   time.Now(),
	}, nil
}

// IsMarketOpen queries the trading clock.
func (c *Client) IsMarketOpen(ctx context.Context) (bool, error) {
	if !c.IsConnected() {
		return false, broker.ErrNotConnected
	}

	var clock clockResponse
	resp, err := c.http.R().SetContext(ctx).SetResult(&clock).Get("/v2/clock")
	if err != nil {
		return false, fmt.Errorf("alpaca: get clock: %w", err)
	}
	if resp.IsError() {
		return false, fmt.Errorf("alpaca: get clock: status %d", resp.StatusCode())
	}
	return clock.IsOpen, nil
}

// parseFloat decodes Alpaca's string-encoded money fields. Going through
// decimal avoids binary-float artifacts in prices like "178.345".
func parseFloat(s string) float64 {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}
