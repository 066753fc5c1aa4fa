package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/quantpit/pitboss/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Scan      ScanConfig      `mapstructure:"scan"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Reasoning ReasoningConfig `mapstructure:"reasoning"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Broker    BrokerConfig    `mapstructure:"broker"`
	Data      DataConfig      `mapstructure:"data"`
	Reports   ReportsConfig   `mapstructure:"reports"`
	Notifiers NotifierConfig  `mapstructure:"notifiers"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// ScanConfig controls the periodic scan loop.
type ScanConfig struct {
	Watchlist       []string      `mapstructure:"watchlist"`
	Interval        time.Duration `mapstructure:"interval"`
	MinConfidence   float64       `mapstructure:"min_confidence"` // 0-100 floor below which signals are dropped
	MarketHoursOnly bool          `mapstructure:"market_hours_only"`
}

// RiskConfig holds the process-wide risk limits, loaded once at startup.
type RiskConfig struct {
	MaxPositionSize            float64 `mapstructure:"max_position_size"`
	MaxTotalExposure           float64 `mapstructure:"max_total_exposure"`
	MaxOpenPositions           int     `mapstructure:"max_open_positions"`
	MaxDailyLoss               float64 `mapstructure:"max_daily_loss"`
	MaxPositionExposurePercent float64 `mapstructure:"max_position_exposure_percent"` // (0,1]
	EnableShortSelling         bool    `mapstructure:"enable_short_selling"`
	EnableAutoTrading          bool    `mapstructure:"enable_auto_trading"`
}

// ReasoningConfig selects and tunes the reasoning mode.
type ReasoningConfig struct {
	Mode            string  `mapstructure:"mode"`              // "single" or "debate"
	JudgeGap        float64 `mapstructure:"judge_gap"`         // confidence points one case must win by
	MinRewardRisk   float64 `mapstructure:"min_reward_risk"`   // reward-to-risk floor for a non-HOLD verdict
	MinJudgeVerdict float64 `mapstructure:"min_judge_verdict"` // absolute confidence floor for a non-HOLD verdict
	MaxTokens       int     `mapstructure:"max_tokens"`
	Temperature     float64 `mapstructure:"temperature"`
}

type LLMConfig struct {
	Provider string        `mapstructure:"provider"`
	Claude   ClaudeConfig  `mapstructure:"claude"`
	OpenAI   OpenAIConfig  `mapstructure:"openai"`
	Ollama   OllamaConfig  `mapstructure:"ollama"`
	Webhook  WebhookConfig `mapstructure:"webhook"`
}

type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OllamaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// WebhookConfig points at an external automation endpoint that answers
// chat requests (e.g. an n8n workflow fronting a model).
type WebhookConfig struct {
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// BrokerConfig holds brokerage integration settings.
type BrokerConfig struct {
	Provider  string        `mapstructure:"provider"` // "alpaca" or "paper"
	PaceDelay time.Duration `mapstructure:"pace_delay"`
	Alpaca    AlpacaConfig  `mapstructure:"alpaca"`
	PaperCash float64       `mapstructure:"paper_cash"`
}

// AlpacaConfig holds Alpaca API settings.
type AlpacaConfig struct {
	APIKey    string `mapstructure:"api_key"`
	SecretKey string `mapstructure:"secret_key"`
	BaseURL   string `mapstructure:"base_url"`
}

// DataConfig holds market data provider settings.
type DataConfig struct {
	HistoryDays   int    `mapstructure:"history_days"`
	FinnhubAPIKey string `mapstructure:"finnhub_api_key"`
	MaxHeadlines  int    `mapstructure:"max_headlines"`
}

// ReportsConfig holds daily report persistence settings.
type ReportsConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Type    string   `mapstructure:"type"` // "localfs" or "s3"
	Path    string   `mapstructure:"path"` // For localfs
	S3      S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// NotifierConfig holds trade notification settings.
type NotifierConfig struct {
	Telegram TelegramConfig        `mapstructure:"telegram"`
	Webhook  WebhookNotifierConfig `mapstructure:"webhook"`
}

type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

type WebhookNotifierConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.SetEnvPrefix("PITBOSS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Scan: ScanConfig{
			Watchlist:       []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "NVDA", "META", "AMD", "NFLX", "SPY"},
			Interval:        5 * time.Minute,
			MinConfidence:   70,
			MarketHoursOnly: true,
		},
		Risk: RiskConfig{
			MaxPositionSize:            1000,
			MaxTotalExposure:           5000,
			MaxOpenPositions:           5,
			MaxDailyLoss:               500,
			MaxPositionExposurePercent: 0.25,
			EnableShortSelling:         true,
			EnableAutoTrading:          false,
		},
		Reasoning: ReasoningConfig{
			Mode:            "single",
			JudgeGap:        20,
			MinRewardRisk:   1.5,
			MinJudgeVerdict: 60,
			MaxTokens:       2000,
			Temperature:     0.3,
		},
		Broker: BrokerConfig{
			Provider:  "paper",
			PaceDelay: 2 * time.Second,
			PaperCash: 100000,
			Alpaca: AlpacaConfig{
				BaseURL: "https://paper-api.alpaca.markets",
			},
		},
		Data: DataConfig{
			HistoryDays:  30,
			MaxHeadlines: 5,
		},
		Reports: ReportsConfig{
			Enabled: true,
			Type:    "localfs",
			Path:    "reports",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	// Scan validation
	if c.Scan.Interval <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("scan interval must be positive, got %s", c.Scan.Interval))
	}
	if c.Scan.MinConfidence < 0 || c.Scan.MinConfidence > 100 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("min_confidence must be between 0 and 100, got %f", c.Scan.MinConfidence))
	}

	// Risk validation
	if c.Risk.MaxPositionSize < 0 || c.Risk.MaxTotalExposure < 0 || c.Risk.MaxDailyLoss < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("currency limits cannot be negative"))
	}
	if c.Risk.MaxOpenPositions < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_open_positions must be at least 1, got %d", c.Risk.MaxOpenPositions))
	}
	if c.Risk.MaxPositionExposurePercent <= 0 || c.Risk.MaxPositionExposurePercent > 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_position_exposure_percent must be in (0,1], got %f", c.Risk.MaxPositionExposurePercent))
	}

	// Reasoning validation
	switch c.Reasoning.Mode {
	case "", "single", "debate":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("reasoning mode must be single or debate, got %q", c.Reasoning.Mode))
	}

	// LLM validation - if provider set, check config exists
	if c.LLM.Provider != "" {
		switch c.LLM.Provider {
		case "claude":
			if c.LLM.Claude.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("claude api_key required when provider is claude"))
			}
		case "openai":
			if c.LLM.OpenAI.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("openai api_key required when provider is openai"))
			}
		case "ollama":
			if c.LLM.Ollama.Endpoint == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("ollama endpoint required when provider is ollama"))
			}
		case "webhook":
			if c.LLM.Webhook.URL == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("webhook url required when provider is webhook"))
			}
		}
	}

	// Broker validation
	switch c.Broker.Provider {
	case "", "paper":
	case "alpaca":
		if c.Broker.Alpaca.APIKey == "" || c.Broker.Alpaca.SecretKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("alpaca api_key and secret_key required when provider is alpaca"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("broker provider must be alpaca or paper, got %q", c.Broker.Provider))
	}

	return nil
}
