package reason

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quantpit/pitboss/internal/marketdata"
)

const analystSystemPrompt = `You are a disciplined intraday equity analyst. You analyze technical indicators, volume and recent headlines for one symbol and produce exactly one trading recommendation.

Always respond with valid JSON in this format:
{
  "action": "BUY" | "SELL" | "HOLD",
  "confidence": 0-100,
  "entry_price": number,
  "stop_loss": number,
  "take_profit": number,
  "position_size": "SMALL" | "MEDIUM" | "LARGE",
  "time_horizon": "short description",
  "reasoning": "explanation of your decision",
  "risk_factors": ["factor1", "factor2"]
}

Be conservative: HOLD when evidence is mixed. Never recommend a trade without a stop loss.`

const bullSystemPrompt = `You are an aggressive but honest bull-case analyst. Build the strongest credible case FOR buying the symbol from the data provided. If the data cannot support a long, say so with low confidence.

Respond with valid JSON:
{
  "confidence": 0-100,
  "thesis": "your bull case",
  "entry_price": number,
  "stop_loss": number,
  "take_profit": number,
  "risk_factors": ["what could invalidate this case"]
}`

const bearSystemPrompt = `You are a skeptical bear-case analyst. Build the strongest credible case AGAINST holding or for shorting the symbol from the data provided. If the data cannot support a short, say so with low confidence.

Respond with valid JSON:
{
  "confidence": 0-100,
  "thesis": "your bear case",
  "entry_price": number,
  "stop_loss": number,
  "take_profit": number,
  "risk_factors": ["what could invalidate this case"]
}`

const judgeSystemPrompt = `You are the judge in a trading debate. You receive a bull case and a bear case for one symbol and must issue the final verdict. Prefer HOLD unless one side clearly wins on evidence.

Respond with valid JSON:
{
  "action": "BUY" | "SELL" | "HOLD",
  "winning_case": "BULL" | "BEAR" | "NEITHER",
  "confidence": 0-100,
  "entry_price": number,
  "stop_loss": number,
  "take_profit": number,
  "position_size": "SMALL" | "MEDIUM" | "LARGE",
  "time_horizon": "short description",
  "reasoning": "why this side wins, or why neither does",
  "risk_factors": ["factor1", "factor2"]
}`

// buildMarketBlock renders the snapshot into prompt text.
func buildMarketBlock(snap marketdata.Snapshot) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## Symbol: %s\n\n", snap.Symbol))
	sb.WriteString(fmt.Sprintf("Price: %.2f\nVolume: %d\n\n", snap.Price, snap.Volume))

	if len(snap.Indicators) > 0 {
		sb.WriteString("## Indicators:\n")
		keys := make([]string, 0, len(snap.Indicators))
		for k := range snap.Indicators {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("- %s: %.4f\n", k, snap.Indicators[k]))
		}
		sb.WriteString("\n")
	}

	if len(snap.RecentHeadlines) > 0 {
		sb.WriteString("## Recent Headlines:\n")
		for _, h := range snap.RecentHeadlines {
			sb.WriteString(fmt.Sprintf("- %s\n", h))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// buildPortfolioBlock renders portfolio state into prompt text.
func buildPortfolioBlock(pc PortfolioContext) string {
	var sb strings.Builder

	sb.WriteString("## Portfolio Context:\n")
	sb.WriteString(fmt.Sprintf("- Open positions: %d\n", len(pc.Positions)))
	sb.WriteString(fmt.Sprintf("- Current exposure: $%.2f\n", pc.Exposure))
	sb.WriteString(fmt.Sprintf("- Daily P&L: $%.2f\n", pc.DailyPnL))

	for _, pos := range pc.Positions {
		sb.WriteString(fmt.Sprintf("- %s %s %d @ %.2f (unrealized %.2f)\n",
			pos.Side, pos.Symbol, pos.Quantity, pos.EntryPrice, pos.UnrealizedPnL()))
	}

	if pc.SymbolStats.TradeCount > 0 {
		sb.WriteString(fmt.Sprintf("- Recent trades on this symbol: %d (%d wins, %d losses, total P&L %.2f)\n",
			pc.SymbolStats.TradeCount, pc.SymbolStats.Wins,
			pc.SymbolStats.Losses, pc.SymbolStats.TotalPnL))
	}

	sb.WriteString("\n")
	return sb.String()
}
