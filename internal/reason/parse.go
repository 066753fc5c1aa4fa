package reason

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/quantpit/pitboss/internal/core"
)

// signalPayload is the JSON shape providers are asked to answer with.
// Both "action" and "signal" are accepted for the verdict key because
// models drift between the two.
type signalPayload struct {
	Action      string   `json:"action"`
	Signal      string   `json:"signal"`
	Confidence  float64  `json:"confidence"`
	EntryPrice  float64  `json:"entry_price"`
	StopLoss    float64  `json:"stop_loss"`
	TakeProfit  float64  `json:"take_profit"`
	SizeHint    string   `json:"position_size"`
	TimeHorizon string   `json:"time_horizon"`
	Rationale   string   `json:"reasoning"`
	RiskFactors []string `json:"risk_factors"`
}

// parseSignal extracts a Signal from raw model output. It tolerates code
// fences and prose around the JSON object; when no usable JSON is found
// it returns a HOLD alongside the parse error so the caller can log the
// failure. Unparsed text is never tradable, whatever the gate settings.
func parseSignal(content, symbol, source string) (core.Signal, error) {
	raw := extractJSON(content)
	if raw != "" {
		var payload signalPayload
		if err := json.Unmarshal([]byte(raw), &payload); err == nil {
			if sig, ok := payload.toSignal(symbol, source); ok {
				return sig, nil
			}
		}
	}

	// Keyword scan: record which way the prose leaned so the failure is
	// debuggable, but keep the verdict HOLD.
	sig := core.Hold(symbol, source, strings.TrimSpace(content))
	upper := strings.ToUpper(content)
	hasBuy := strings.Contains(upper, "BUY")
	hasSell := strings.Contains(upper, "SELL")
	if hasBuy != hasSell {
		lean := "BUY"
		if hasSell {
			lean = "SELL"
		}
		sig.Rationale = "unparsed " + lean + "-leaning response: " + sig.Rationale
	}

	return sig, core.WrapError(core.ErrParseFailed,
		fmt.Errorf("no valid JSON signal for %s", symbol))
}

func (p signalPayload) toSignal(symbol, source string) (core.Signal, bool) {
	verdict := p.Action
	if verdict == "" {
		verdict = p.Signal
	}
	action := core.Action(strings.ToUpper(strings.TrimSpace(verdict)))
	if !action.IsValid() {
		return core.Signal{}, false
	}

	confidence := p.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	hint := core.SizeHint(strings.ToUpper(strings.TrimSpace(p.SizeHint)))
	switch hint {
	case core.SizeSmall, core.SizeMedium, core.SizeLarge:
	default:
		hint = core.SizeSmall
	}

	return core.Signal{
		Symbol:      symbol,
		Action:      action,
		Confidence:  confidence,
		EntryPrice:  p.EntryPrice,
		StopLoss:    p.StopLoss,
		TakeProfit:  p.TakeProfit,
		SizeHint:    hint,
		TimeHorizon: p.TimeHorizon,
		Rationale:   p.Rationale,
		RiskFactors: p.RiskFactors,
		Source:      source,
		GeneratedAt: time.Now(),
	}, true
}

// extractJSON returns the outermost JSON object in the text, or "".
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ""
	}
	return content[start : end+1]
}
