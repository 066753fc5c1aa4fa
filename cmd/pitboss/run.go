package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quantpit/pitboss/internal/api"
	"github.com/quantpit/pitboss/internal/app"
	"github.com/quantpit/pitboss/internal/broker"
	"github.com/quantpit/pitboss/internal/broker/alpaca"
	"github.com/quantpit/pitboss/internal/broker/paper"
	"github.com/quantpit/pitboss/internal/config"
	"github.com/quantpit/pitboss/internal/events"
	"github.com/quantpit/pitboss/internal/executor"
	"github.com/quantpit/pitboss/internal/ledger"
	"github.com/quantpit/pitboss/internal/llm/factory"
	"github.com/quantpit/pitboss/internal/logger"
	"github.com/quantpit/pitboss/internal/marketdata"
	"github.com/quantpit/pitboss/internal/marketdata/finnhub"
	"github.com/quantpit/pitboss/internal/marketdata/yahoo"
	"github.com/quantpit/pitboss/internal/metrics"
	"github.com/quantpit/pitboss/internal/notify"
	"github.com/quantpit/pitboss/internal/notify/telegram"
	"github.com/quantpit/pitboss/internal/notify/webhook"
	"github.com/quantpit/pitboss/internal/queue"
	"github.com/quantpit/pitboss/internal/reason"
	"github.com/quantpit/pitboss/internal/report"
	"github.com/quantpit/pitboss/internal/risk"
	"github.com/quantpit/pitboss/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scan loop and control server",
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func buildBrokerage(cfg *config.Config) (broker.Brokerage, error) {
	switch cfg.Broker.Provider {
	case "alpaca":
		return alpaca.New(cfg.Broker.Alpaca.APIKey, cfg.Broker.Alpaca.SecretKey, cfg.Broker.Alpaca.BaseURL)
	default:
		return paper.New(cfg.Broker.PaperCash), nil
	}
}

func buildMarketData(cfg *config.Config, log *zap.Logger) (marketdata.Provider, error) {
	var news marketdata.NewsSource
	if cfg.Data.FinnhubAPIKey != "" {
		client, err := finnhub.New(cfg.Data.FinnhubAPIKey)
		if err != nil {
			return nil, fmt.Errorf("finnhub client: %w", err)
		}
		news = client
	}
	return yahoo.New(cfg.Data.HistoryDays, cfg.Data.MaxHeadlines, news, log), nil
}

func buildReasoner(cfg *config.Config, log *zap.Logger) (reason.Reasoner, error) {
	provider, err := factory.New(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	opts := reason.Options{
		MaxTokens:   cfg.Reasoning.MaxTokens,
		Temperature: cfg.Reasoning.Temperature,
	}

	if cfg.Reasoning.Mode == "debate" {
		return reason.NewDebate(provider, reason.DebateConfig{
			Gap:                  cfg.Reasoning.JudgeGap,
			MinRewardRisk:        cfg.Reasoning.MinRewardRisk,
			MinVerdictConfidence: cfg.Reasoning.MinJudgeVerdict,
		}, opts, log), nil
	}
	return reason.NewSingleCall(provider, opts, log), nil
}

func buildReportBackend(cfg *config.Config) (storage.Backend, error) {
	if !cfg.Reports.Enabled {
		return nil, nil
	}
	switch cfg.Reports.Type {
	case "s3":
		return storage.NewS3(storage.S3Config{
			Bucket:    cfg.Reports.S3.Bucket,
			Endpoint:  cfg.Reports.S3.Endpoint,
			Region:    cfg.Reports.S3.Region,
			AccessKey: cfg.Reports.S3.AccessKey,
			SecretKey: cfg.Reports.S3.SecretKey,
			Prefix:    cfg.Reports.S3.Prefix,
		})
	default:
		return storage.NewLocalFS(cfg.Reports.Path)
	}
}

func buildNotifiers(cfg *config.Config) (*notify.Registry, error) {
	registry := notify.NewRegistry()

	if cfg.Notifiers.Telegram.Enabled {
		n := telegram.New(cfg.Notifiers.Telegram.BotToken, cfg.Notifiers.Telegram.ChatID)
		if err := n.Init(notify.Config{Type: "telegram", Params: map[string]any{}}); err != nil {
			return nil, err
		}
		if err := registry.Register(n); err != nil {
			return nil, err
		}
	}
	if cfg.Notifiers.Webhook.Enabled {
		n := webhook.New(cfg.Notifiers.Webhook.URL, cfg.Notifiers.Webhook.Headers)
		if err := n.Init(notify.Config{Type: "webhook", Params: map[string]any{}}); err != nil {
			return nil, err
		}
		if err := registry.Register(n); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	brokerage, err := buildBrokerage(cfg)
	if err != nil {
		return fmt.Errorf("brokerage: %w", err)
	}
	data, err := buildMarketData(cfg, log)
	if err != nil {
		return err
	}
	reasoner, err := buildReasoner(cfg, log)
	if err != nil {
		return err
	}
	backend, err := buildReportBackend(cfg)
	if err != nil {
		return fmt.Errorf("report backend: %w", err)
	}
	notifiers, err := buildNotifiers(cfg)
	if err != nil {
		return fmt.Errorf("notifiers: %w", err)
	}

	bus := events.NewBus(500)
	ldgr := ledger.New(ledger.DefaultHistorySize)

	var metricsReg *metrics.Registry
	if cfg.Metrics.Enabled {
		metricsReg = metrics.NewRegistry()
	}

	bot := app.New(cfg, app.Deps{
		Data:     data,
		Reasoner: reasoner,
		Risk: risk.NewEngine(risk.Limits{
			MaxPositionSize:            cfg.Risk.MaxPositionSize,
			MaxTotalExposure:           cfg.Risk.MaxTotalExposure,
			MaxOpenPositions:           cfg.Risk.MaxOpenPositions,
			MaxDailyLoss:               cfg.Risk.MaxDailyLoss,
			MaxPositionExposurePercent: cfg.Risk.MaxPositionExposurePercent,
			EnableShortSelling:         cfg.Risk.EnableShortSelling,
			EnableAutoTrading:          cfg.Risk.EnableAutoTrading,
		}),
		Ledger:    ldgr,
		Queue:     queue.New(bus),
		Executor:  executor.New(brokerage, ldgr, bus, log, cfg.Broker.PaceDelay),
		Brokerage: brokerage,
		Bus:       bus,
		Notifiers: notifiers,
		Reports:   report.NewGenerator(ldgr, backend, log),
		Metrics:   metricsReg,
	}, log)

	server := api.NewServer(api.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		MetricsPath: cfg.Metrics.Path,
	}, bot, bus, metricsReg, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- err
		}
	}()
	go func() {
		if err := bot.Start(ctx); err != nil && err != context.Canceled {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("fatal error", zap.Error(err))
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}
