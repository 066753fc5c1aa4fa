package reason

import (
	"context"
	"fmt"

	"github.com/quantpit/pitboss/internal/core"
	"github.com/quantpit/pitboss/internal/llm"
	"github.com/quantpit/pitboss/internal/marketdata"
	"go.uber.org/zap"
)

// SingleCall asks the provider for one analysis and parses the signal.
type SingleCall struct {
	provider llm.Provider
	opts     Options
	logger   *zap.Logger
}

// NewSingleCall creates a single-call reasoner.
func NewSingleCall(provider llm.Provider, opts Options, logger *zap.Logger) *SingleCall {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SingleCall{provider: provider, opts: opts.withDefaults(), logger: logger}
}

// Name identifies the reasoning path.
func (s *SingleCall) Name() string {
	return s.provider.Name()
}

// Analyze requests one recommendation. A provider failure is returned as
// an error; a malformed response degrades to HOLD with a logged parse
// error.
func (s *SingleCall) Analyze(ctx context.Context, snapshot marketdata.Snapshot, portfolio PortfolioContext) (core.Signal, error) {
	prompt := buildMarketBlock(snapshot) + buildPortfolioBlock(portfolio) +
		"## Task:\nAnalyze the data above and produce your recommendation as JSON.\n"

	resp, err := s.provider.Chat(ctx, llm.ChatRequest{
		SystemPrompt: analystSystemPrompt,
		Messages:     []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens:    s.opts.MaxTokens,
		Temperature:  s.opts.Temperature,
		JSONMode:     true,
	})
	if err != nil {
		return core.Signal{}, core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("%s: %w", s.provider.Name(), err))
	}

	signal, perr := parseSignal(resp.Content, snapshot.Symbol, s.provider.Name())
	if perr != nil {
		s.logger.Warn("unparseable reasoning response, holding",
			zap.String("symbol", snapshot.Symbol),
			zap.String("provider", s.provider.Name()),
			zap.Error(perr),
		)
	}

	// The model sometimes omits the entry; anchor it to the snapshot.
	if signal.IsActionable() && signal.EntryPrice <= 0 {
		signal.EntryPrice = snapshot.Price
	}
	return signal, nil
}
