package core

import "time"

// Action represents a proposed trading action.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// IsValid reports whether the action is one of BUY, SELL, HOLD.
func (a Action) IsValid() bool {
	return a == ActionBuy || a == ActionSell || a == ActionHold
}

// SizeHint is the reasoning service's coarse position size suggestion.
type SizeHint string

const (
	SizeSmall  SizeHint = "SMALL"
	SizeMedium SizeHint = "MEDIUM"
	SizeLarge  SizeHint = "LARGE"
)

// Signal is a proposed action for one symbol, produced by a reasoning path.
// A Signal is immutable once created; a new Signal supersedes an old one.
type Signal struct {
	Symbol      string    `json:"symbol"`
	Action      Action    `json:"action"`
	Confidence  float64   `json:"confidence"` // 0-100
	EntryPrice  float64   `json:"entry_price,omitempty"`
	StopLoss    float64   `json:"stop_loss,omitempty"`
	TakeProfit  float64   `json:"take_profit,omitempty"`
	SizeHint    SizeHint  `json:"position_size_hint,omitempty"`
	TimeHorizon string    `json:"time_horizon,omitempty"`
	Rationale   string    `json:"rationale,omitempty"`
	RiskFactors []string  `json:"risk_factors,omitempty"`
	Source      string    `json:"source"` // reasoning path id, e.g. "claude", "debate-judge"
	GeneratedAt time.Time `json:"generated_at"`
}

// IsActionable reports whether the signal proposes a trade.
func (s Signal) IsActionable() bool {
	return s.Action == ActionBuy || s.Action == ActionSell
}

// RewardRiskRatio returns the implied reward-to-risk ratio, or 0 when the
// signal's prices do not define one.
func (s Signal) RewardRiskRatio() float64 {
	if s.EntryPrice <= 0 || s.StopLoss <= 0 || s.TakeProfit <= 0 {
		return 0
	}
	var reward, risk float64
	switch s.Action {
	case ActionBuy:
		reward = s.TakeProfit - s.EntryPrice
		risk = s.EntryPrice - s.StopLoss
	case ActionSell:
		reward = s.EntryPrice - s.TakeProfit
		risk = s.StopLoss - s.EntryPrice
	default:
		return 0
	}
	if risk <= 0 {
		return 0
	}
	return reward / risk
}

// Hold returns a HOLD signal for a symbol with an explanatory rationale.
// Used when reasoning fails or evidence is insufficient.
func Hold(symbol, source, rationale string) Signal {
	return Signal{
		Symbol:      symbol,
		Action:      ActionHold,
		Rationale:   rationale,
		Source:      source,
		GeneratedAt: time.Now(),
	}
}
