package reason

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/quantpit/pitboss/internal/core"
	"github.com/quantpit/pitboss/internal/llm"
	"github.com/quantpit/pitboss/internal/marketdata"
	"go.uber.org/zap"
)

// SourceDebateJudge identifies signals produced by the debate path.
const SourceDebateJudge = "debate-judge"

// WinningCase names the side of the debate that carried the verdict.
type WinningCase string

const (
	CaseBull    WinningCase = "BULL"
	CaseBear    WinningCase = "BEAR"
	CaseNeither WinningCase = "NEITHER"
)

// DebateConfig tunes the judge's tie-break rule: a non-HOLD verdict
// requires the winning side's confidence to exceed the other's by more
// than Gap points, the implied reward-to-risk ratio to clear
// MinRewardRisk, and the verdict's absolute confidence to clear
// MinVerdictConfidence. Anything weaker resolves to HOLD with NEITHER.
type DebateConfig struct {
	Gap                  float64
	MinRewardRisk        float64
	MinVerdictConfidence float64
}

// DefaultDebateConfig returns the standard tie-break thresholds.
func DefaultDebateConfig() DebateConfig {
	return DebateConfig{Gap: 20, MinRewardRisk: 1.5, MinVerdictConfidence: 60}
}

// Case is one side's argument in the debate.
type Case struct {
	Confidence  float64  `json:"confidence"`
	Thesis      string   `json:"thesis"`
	EntryPrice  float64  `json:"entry_price"`
	StopLoss    float64  `json:"stop_loss"`
	TakeProfit  float64  `json:"take_profit"`
	RiskFactors []string `json:"risk_factors"`
}

// Debate runs a bull call, a bear call, and a judge call that receives
// both and issues the final signal.
type Debate struct {
	provider llm.Provider
	cfg      DebateConfig
	opts     Options
	logger   *zap.Logger
}

// NewDebate creates a debate reasoner.
func NewDebate(provider llm.Provider, cfg DebateConfig, opts Options, logger *zap.Logger) *Debate {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Gap <= 0 {
		cfg.Gap = 20
	}
	if cfg.MinRewardRisk <= 0 {
		cfg.MinRewardRisk = 1.5
	}
	return &Debate{provider: provider, cfg: cfg, opts: opts.withDefaults(), logger: logger}
}

// Name identifies the reasoning path.
func (d *Debate) Name() string {
	return SourceDebateJudge
}

// Analyze runs the three-call debate. Provider failures propagate as
// errors; a malformed judge response degrades to HOLD.
func (d *Debate) Analyze(ctx context.Context, snapshot marketdata.Snapshot, portfolio PortfolioContext) (core.Signal, error) {
	market := buildMarketBlock(snapshot) + buildPortfolioBlock(portfolio)

	bull, err := d.runCase(ctx, bullSystemPrompt, market, snapshot.Symbol)
	if err != nil {
		return core.Signal{}, err
	}
	bear, err := d.runCase(ctx, bearSystemPrompt, market, snapshot.Symbol)
	if err != nil {
		return core.Signal{}, err
	}

	judged, err := d.runJudge(ctx, market, snapshot, bull, bear)
	if err != nil {
		return core.Signal{}, err
	}

	verdict, winner := ResolveVerdict(judged, bull, bear, d.cfg)
	d.logger.Debug("debate resolved",
		zap.String("symbol", snapshot.Symbol),
		zap.String("action", string(verdict.Action)),
		zap.String("winning_case", string(winner)),
		zap.Float64("bull_confidence", bull.Confidence),
		zap.Float64("bear_confidence", bear.Confidence),
	)
	return verdict, nil
}

// ResolveVerdict applies the deterministic tie-break rule to the judge's
// proposed signal. Ties or insufficient evidence always resolve to HOLD
// with NEITHER; this includes the ambiguous low-confidence-with-large-gap
// case, which fails the absolute confidence floor.
func ResolveVerdict(judged core.Signal, bull, bear Case, cfg DebateConfig) (core.Signal, WinningCase) {
	gap := bull.Confidence - bear.Confidence
	if gap < 0 {
		gap = -gap
	}

	winner := CaseBull
	if bear.Confidence > bull.Confidence {
		winner = CaseBear
	}

	hold := func(why string) (core.Signal, WinningCase) {
		sig := core.Hold(judged.Symbol, SourceDebateJudge, why)
		return sig, CaseNeither
	}

	if judged.Action == core.ActionHold || !judged.Action.IsValid() {
		return hold(fmt.Sprintf("judge holds: %s", judged.Rationale))
	}
	if gap <= cfg.Gap {
		return hold(fmt.Sprintf(
			"confidence gap %.0f within tie threshold %.0f (bull %.0f, bear %.0f)",
			gap, cfg.Gap, bull.Confidence, bear.Confidence))
	}
	// Judge siding against the stronger case counts as insufficient
	// evidence, not a verdict.
	if (judged.Action == core.ActionBuy && winner != CaseBull) ||
		(judged.Action == core.ActionSell && winner != CaseBear) {
		return hold("judge verdict contradicts the stronger case")
	}
	if rr := judged.RewardRiskRatio(); rr < cfg.MinRewardRisk {
		return hold(fmt.Sprintf("reward-to-risk %.2f below minimum %.2f", rr, cfg.MinRewardRisk))
	}
	if cfg.MinVerdictConfidence > 0 && judged.Confidence < cfg.MinVerdictConfidence {
		return hold(fmt.Sprintf("verdict confidence %.0f below floor %.0f",
			judged.Confidence, cfg.MinVerdictConfidence))
	}

	judged.Source = SourceDebateJudge
	return judged, winner
}

// runCase executes one side of the debate.
func (d *Debate) runCase(ctx context.Context, system, market, symbol string) (Case, error) {
	resp, err := d.provider.Chat(ctx, llm.ChatRequest{
		SystemPrompt: system,
		Messages: []llm.Message{{
			Role:    "user",
			Content: market + "## Task:\nMake your case as JSON.\n",
		}},
		MaxTokens:   d.opts.MaxTokens,
		Temperature: d.opts.Temperature,
		JSONMode:    true,
	})
	if err != nil {
		return Case{}, core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("%s debate case for %s: %w", d.provider.Name(), symbol, err))
	}

	var c Case
	if raw := extractJSON(resp.Content); raw != "" {
		if uerr := json.Unmarshal([]byte(raw), &c); uerr == nil {
			return c, nil
		}
	}
	// A side that cannot state its case contributes zero confidence.
	d.logger.Warn("unparseable debate case",
		zap.String("symbol", symbol))
	return Case{Thesis: strings.TrimSpace(resp.Content)}, nil
}

// runJudge executes the final call, handing both cases to the judge.
func (d *Debate) runJudge(ctx context.Context, market string, snapshot marketdata.Snapshot, bull, bear Case) (core.Signal, error) {
	var sb strings.Builder
	sb.WriteString(market)
	sb.WriteString(fmt.Sprintf("## Bull Case (confidence %.0f):\n%s\n", bull.Confidence, bull.Thesis))
	if bull.EntryPrice > 0 {
		sb.WriteString(fmt.Sprintf("Entry %.2f, stop %.2f, target %.2f\n", bull.EntryPrice, bull.StopLoss, bull.TakeProfit))
	}
	sb.WriteString(fmt.Sprintf("\n## Bear Case (confidence %.0f):\n%s\n", bear.Confidence, bear.Thesis))
	if bear.EntryPrice > 0 {
		sb.WriteString(fmt.Sprintf("Entry %.2f, stop %.2f, target %.2f\n", bear.EntryPrice, bear.StopLoss, bear.TakeProfit))
	}
	sb.WriteString("\n## Task:\nIssue your verdict as JSON.\n")

	resp, err := d.provider.Chat(ctx, llm.ChatRequest{
		SystemPrompt: judgeSystemPrompt,
		Messages:     []llm.Message{{Role: "user", Content: sb.String()}},
		MaxTokens:    d.opts.MaxTokens,
		Temperature:  d.opts.Temperature,
		JSONMode:     true,
	})
	if err != nil {
		return core.Signal{}, core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("%s judge for %s: %w", d.provider.Name(), snapshot.Symbol, err))
	}

	judged, perr := parseSignal(resp.Content, snapshot.Symbol, SourceDebateJudge)
	if perr != nil {
		d.logger.Warn("unparseable judge response, holding",
			zap.String("symbol", snapshot.Symbol),
			zap.Error(perr),
		)
	}
	if judged.IsActionable() && judged.EntryPrice <= 0 {
		judged.EntryPrice = snapshot.Price
	}
	return judged, nil
}
