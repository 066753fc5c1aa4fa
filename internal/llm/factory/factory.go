// internal/llm/factory/factory.go
package factory

import (
	"fmt"

	"github.com/quantpit/pitboss/internal/config"
	"github.com/quantpit/pitboss/internal/llm"
	"github.com/quantpit/pitboss/internal/llm/claude"
	"github.com/quantpit/pitboss/internal/llm/ollama"
	"github.com/quantpit/pitboss/internal/llm/openai"
	"github.com/quantpit/pitboss/internal/llm/webhook"
)

// New creates an LLM provider based on configuration.
func New(cfg config.LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "claude":
		return claude.New(cfg.Claude.APIKey, cfg.Claude.Model)
	case "openai":
		return openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	case "ollama":
		return ollama.New(cfg.Ollama.Endpoint, cfg.Ollama.Model)
	case "webhook":
		return webhook.New(cfg.Webhook.URL, cfg.Webhook.AuthToken)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}
