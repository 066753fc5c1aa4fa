package yahoo_test

import (
	"testing"

	"github.com/quantpit/pitboss/internal/marketdata/yahoo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatBars(n int, close float64) (highs, lows, closes []float64, volumes []int64) {
	for i := 0; i < n; i++ {
		highs = append(highs, close+1)
		lows = append(lows, close-1)
		closes = append(closes, close)
		volumes = append(volumes, 1000)
	}
	return
}

func TestBuildIndicators_FullHistory(t *testing.T) {
	highs, lows, closes, volumes := flatBars(30, 100)

	ind := yahoo.BuildIndicators(100, highs, lows, closes, volumes)

	require.Contains(t, ind, "sma_20")
	assert.InDelta(t, 100.0, ind["sma_20"], 0.001)
	require.Contains(t, ind, "sma_5")
	require.Contains(t, ind, "ema_9")
	assert.InDelta(t, 100.0, ind["ema_9"], 0.001)
	require.Contains(t, ind, "atr_14")
	assert.InDelta(t, 2.0, ind["atr_14"], 0.001)
	require.Contains(t, ind, "vwap")
	assert.InDelta(t, 100.0, ind["vwap"], 0.001)
	require.Contains(t, ind, "volume_ratio")
	assert.InDelta(t, 1.0, ind["volume_ratio"], 0.001)
	require.Contains(t, ind, "price_vs_sma20_pct")
	assert.InDelta(t, 0.0, ind["price_vs_sma20_pct"], 0.001)
}

func TestBuildIndicators_ShortHistoryOmitsWindowedValues(t *testing.T) {
	highs, lows, closes, volumes := flatBars(3, 100)

	ind := yahoo.BuildIndicators(100, highs, lows, closes, volumes)

	assert.NotContains(t, ind, "sma_20")
	assert.NotContains(t, ind, "atr_14")
	// RSI degrades to neutral rather than disappearing.
	assert.InDelta(t, 50.0, ind["rsi_14"], 0.001)
}

func TestBuildIndicators_PriceAboveSMA(t *testing.T) {
	highs, lows, closes, volumes := flatBars(25, 100)

	ind := yahoo.BuildIndicators(110, highs, lows, closes, volumes)

	assert.InDelta(t, 10.0, ind["price_vs_sma20_pct"], 0.001)
}

func TestBuildIndicators_VolumeSpike(t *testing.T) {
	highs, lows, closes, volumes := flatBars(10, 100)
	volumes[len(volumes)-1] = 5000

	ind := yahoo.BuildIndicators(100, highs, lows, closes, volumes)

	assert.InDelta(t, 5.0, ind["volume_ratio"], 0.001)
}
