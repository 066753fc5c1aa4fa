package reason_test

import (
	"testing"

	"github.com/quantpit/pitboss/internal/core"
	"github.com/quantpit/pitboss/internal/reason"
	"github.com/stretchr/testify/assert"
)

func judgedBuy(confidence float64) core.Signal {
	return core.Signal{
		Symbol:     "AAPL",
		Action:     core.ActionBuy,
		Confidence: confidence,
		EntryPrice: 100,
		StopLoss:   95,
		TakeProfit: 110, // reward-to-risk 2.0
		Source:     reason.SourceDebateJudge,
	}
}

func TestResolveVerdict_ClearBullWinPasses(t *testing.T) {
	verdict, winner := reason.ResolveVerdict(
		judgedBuy(75),
		reason.Case{Confidence: 80},
		reason.Case{Confidence: 40},
		reason.DefaultDebateConfig(),
	)

	assert.Equal(t, reason.CaseBull, winner)
	assert.Equal(t, core.ActionBuy, verdict.Action)
	assert.Equal(t, reason.SourceDebateJudge, verdict.Source)
}

func TestResolveVerdict_NarrowGapHoldsNeither(t *testing.T) {
	// Bull 70 vs bear 75: gap 5 is inside the tie threshold, so even a
	// confident judge cannot issue a verdict.
	verdict, winner := reason.ResolveVerdict(
		judgedBuy(90),
		reason.Case{Confidence: 70},
		reason.Case{Confidence: 75},
		reason.DefaultDebateConfig(),
	)

	assert.Equal(t, reason.CaseNeither, winner)
	assert.Equal(t, core.ActionHold, verdict.Action)
	assert.Contains(t, verdict.Rationale, "tie threshold")
}

func TestResolveVerdict_GapExactlyAtThresholdHolds(t *testing.T) {
	verdict, winner := reason.ResolveVerdict(
		judgedBuy(90),
		reason.Case{Confidence: 80},
		reason.Case{Confidence: 60},
		reason.DefaultDebateConfig(),
	)

	assert.Equal(t, reason.CaseNeither, winner)
	assert.Equal(t, core.ActionHold, verdict.Action)
}

func TestResolveVerdict_JudgeHoldAlwaysHolds(t *testing.T) {
	judged := core.Hold("AAPL", reason.SourceDebateJudge, "mixed evidence")

	verdict, winner := reason.ResolveVerdict(
		judged,
		reason.Case{Confidence: 90},
		reason.Case{Confidence: 10},
		reason.DefaultDebateConfig(),
	)

	assert.Equal(t, reason.CaseNeither, winner)
	assert.Equal(t, core.ActionHold, verdict.Action)
}

func TestResolveVerdict_JudgeAgainstStrongerCaseHolds(t *testing.T) {
	// Judge says BUY while the bear case is clearly stronger.
	verdict, winner := reason.ResolveVerdict(
		judgedBuy(80),
		reason.Case{Confidence: 30},
		reason.Case{Confidence: 85},
		reason.DefaultDebateConfig(),
	)

	assert.Equal(t, reason.CaseNeither, winner)
	assert.Equal(t, core.ActionHold, verdict.Action)
	assert.Contains(t, verdict.Rationale, "contradicts")
}

func TestResolveVerdict_PoorRewardRiskHolds(t *testing.T) {
	judged := judgedBuy(80)
	judged.TakeProfit = 104 // reward-to-risk 0.8

	verdict, winner := reason.ResolveVerdict(
		judged,
		reason.Case{Confidence: 85},
		reason.Case{Confidence: 30},
		reason.DefaultDebateConfig(),
	)

	assert.Equal(t, reason.CaseNeither, winner)
	assert.Equal(t, core.ActionHold, verdict.Action)
	assert.Contains(t, verdict.Rationale, "reward-to-risk")
}

func TestResolveVerdict_LowConfidenceWithLargeGapHolds(t *testing.T) {
	// Large gap but the judge itself is unsure: the absolute floor wins.
	verdict, winner := reason.ResolveVerdict(
		judgedBuy(45),
		reason.Case{Confidence: 85},
		reason.Case{Confidence: 20},
		reason.DefaultDebateConfig(),
	)

	assert.Equal(t, reason.CaseNeither, winner)
	assert.Equal(t, core.ActionHold, verdict.Action)
	assert.Contains(t, verdict.Rationale, "floor")
}

func TestResolveVerdict_BearWinAllowsSell(t *testing.T) {
	judged := core.Signal{
		Symbol:     "TSLA",
		Action:     core.ActionSell,
		Confidence: 72,
		EntryPrice: 200,
		StopLoss:   210,
		TakeProfit: 180, // reward-to-risk 2.0
	}

	verdict, winner := reason.ResolveVerdict(
		judged,
		reason.Case{Confidence: 35},
		reason.Case{Confidence: 80},
		reason.DefaultDebateConfig(),
	)

	assert.Equal(t, reason.CaseBear, winner)
	assert.Equal(t, core.ActionSell, verdict.Action)
}
