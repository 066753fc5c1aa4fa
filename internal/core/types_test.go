package core_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/quantpit/pitboss/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestRewardRiskRatio_Buy(t *testing.T) {
	sig := core.Signal{
		Action:     core.ActionBuy,
		EntryPrice: 100,
		StopLoss:   95,
		TakeProfit: 110,
	}
	assert.InDelta(t, 2.0, sig.RewardRiskRatio(), 0.001)
}

func TestRewardRiskRatio_Sell(t *testing.T) {
	sig := core.Signal{
		Action:     core.ActionSell,
		EntryPrice: 200,
		StopLoss:   210,
		TakeProfit: 170,
	}
	assert.InDelta(t, 3.0, sig.RewardRiskRatio(), 0.001)
}

func TestRewardRiskRatio_UndefinedCases(t *testing.T) {
	// Missing levels.
	assert.Zero(t, core.Signal{Action: core.ActionBuy, EntryPrice: 100}.RewardRiskRatio())
	// HOLD has no trade geometry.
	assert.Zero(t, core.Signal{
		Action: core.ActionHold, EntryPrice: 100, StopLoss: 95, TakeProfit: 110,
	}.RewardRiskRatio())
	// Stop on the wrong side of the entry.
	assert.Zero(t, core.Signal{
		Action: core.ActionBuy, EntryPrice: 100, StopLoss: 105, TakeProfit: 110,
	}.RewardRiskRatio())
}

func TestIsActionable(t *testing.T) {
	assert.True(t, core.Signal{Action: core.ActionBuy}.IsActionable())
	assert.True(t, core.Signal{Action: core.ActionSell}.IsActionable())
	assert.False(t, core.Signal{Action: core.ActionHold}.IsActionable())
}

func TestHold_CarriesRationale(t *testing.T) {
	sig := core.Hold("AAPL", "debate-judge", "mixed evidence")

	assert.Equal(t, core.ActionHold, sig.Action)
	assert.Equal(t, "mixed evidence", sig.Rationale)
	assert.False(t, sig.GeneratedAt.IsZero())
}

func TestWrapError_MatchesByCode(t *testing.T) {
	wrapped := core.WrapError(core.ErrNotFound, fmt.Errorf("trade abc123"))

	assert.True(t, errors.Is(wrapped, core.ErrNotFound))
	assert.False(t, errors.Is(wrapped, core.ErrInvalidTransition))
	assert.Contains(t, wrapped.Error(), "NOT_FOUND")
	assert.Contains(t, wrapped.Error(), "trade abc123")
}

func TestWrapError_UnwrapsCause(t *testing.T) {
	cause := fmt.Errorf("underlying")
	wrapped := core.WrapError(core.ErrBrokerFailed, cause)

	assert.Equal(t, cause, errors.Unwrap(wrapped))
}
