// Package finnhub supplies recent company headlines from the Finnhub
// news API.
package finnhub

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client fetches company news from Finnhub.
type Client struct {
	http   *resty.Client
	apiKey string
}

// New creates a Finnhub client.
func New(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("finnhub: API key required")
	}
	http := resty.New()
	http.SetBaseURL("https://finnhub.io/api/v1")
	http.SetTimeout(15 * time.Second)
	return &Client{http: http, apiKey: apiKey}, nil
}

type newsItem struct {
	Headline string `json:"headline"`
	DateTime int64  `json:"datetime"`
	Source   string `json:"source"`
}

// RecentHeadlines returns up to max headlines from the last week.
func (c *Client) RecentHeadlines(ctx context.Context, symbol string, max int) ([]string, error) {
	if max <= 0 {
		max = 5
	}

	to := time.Now()
	from := to.AddDate(0, 0, -7)

	var items []newsItem
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"from":   from.Format("2006-01-02"),
			"to":     to.Format("2006-01-02"),
			"token":  c.apiKey,
		}).
		SetResult(&items).
		Get("/company-news")
	if err != nil {
		return nil, fmt.Errorf("finnhub: company news: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("finnhub: company news: status %d", resp.StatusCode())
	}

	headlines := make([]string, 0, max)
	for _, item := range items {
		if item.Headline == "" {
			continue
		}
		headlines = append(headlines, item.Headline)
		if len(headlines) >= max {
			break
		}
	}
	return headlines, nil
}
