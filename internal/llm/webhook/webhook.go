// internal/llm/webhook/webhook.go
package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/quantpit/pitboss/internal/llm"
)

// Provider implements the LLM interface for a generic webhook endpoint,
// typically an n8n workflow fronting a model with custom pre/post
// processing. The endpoint receives the chat request as JSON and must
// answer with {"content": "..."}.
type Provider struct {
	client *resty.Client
}

// New creates a new webhook provider.
func New(url, authToken string) (*Provider, error) {
	if url == "" {
		return nil, fmt.Errorf("webhook URL required")
	}
	client := resty.New()
	client.SetBaseURL(url)
	client.SetTimeout(2 * time.Minute)
	if authToken != "" {
		client.SetHeader("Authorization", "Bearer "+authToken)
	}
	return &Provider{client: client}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "webhook"
}

type webhookRequest struct {
	System      string        `json:"system,omitempty"`
	Messages    []llm.Message `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	JSONMode    bool          `json:"json_mode,omitempty"`
}

type webhookResponse struct {
	Content      string `json:"content"`
	InputTokens  int    `json:"input_tokens,omitempty"`
	OutputTokens int    `json:"output_tokens,omitempty"`
}

// Chat forwards the chat request to the webhook endpoint.
func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	var out webhookResponse

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(webhookRequest{
			System:      req.SystemPrompt,
			Messages:    req.Messages,
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
			JSONMode:    req.JSONMode,
		}).
		SetResult(&out).
		Post("")
	if err != nil {
		return nil, fmt.Errorf("webhook API error: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("webhook API returned status %d", resp.StatusCode())
	}
	if out.Content == "" {
		return nil, fmt.Errorf("webhook API returned empty content")
	}

	return &llm.ChatResponse{
		Content: out.Content,
		Usage: llm.Usage{
			InputTokens:  out.InputTokens,
			OutputTokens: out.OutputTokens,
		},
	}, nil
}
