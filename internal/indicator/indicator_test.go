package indicator_test

import (
	"testing"

	"github.com/quantpit/pitboss/internal/indicator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMA_RollingWindow(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5}

	result := indicator.SMA(prices, 3)

	require.Len(t, result, 3)
	assert.InDelta(t, 2.0, result[0], 0.001)
	assert.InDelta(t, 3.0, result[1], 0.001)
	assert.InDelta(t, 4.0, result[2], 0.001)
}

func TestSMA_InsufficientData(t *testing.T) {
	assert.Empty(t, indicator.SMA([]float64{1, 2}, 3))
}

func TestEMA_SeedsWithSMAAndConverges(t *testing.T) {
	prices := []float64{10, 10, 10, 10, 20}

	result := indicator.EMA(prices, 4)

	require.Len(t, result, 2)
	assert.InDelta(t, 10.0, result[0], 0.001)
	// multiplier 0.4: 10 + (20-10)*0.4
	assert.InDelta(t, 14.0, result[1], 0.001)
}

func TestRSI_NeutralOnInsufficientData(t *testing.T) {
	assert.InDelta(t, 50.0, indicator.RSI([]float64{100, 101}, 14), 0.001)
}

func TestRSI_AllGainsSaturates(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	assert.InDelta(t, 100.0, indicator.RSI(prices, 14), 0.001)
}

func TestRSI_MixedMovesInRange(t *testing.T) {
	prices := []float64{44, 44.34, 44.09, 44.15, 43.61, 44.33, 44.83, 45.10, 45.42,
		45.84, 46.08, 45.89, 46.03, 45.61, 46.28}

	rsi := indicator.RSI(prices, 14)

	assert.Greater(t, rsi, 50.0)
	assert.Less(t, rsi, 100.0)
}

func TestATR_ConstantRange(t *testing.T) {
	highs := []float64{11, 11, 11, 11, 11}
	lows := []float64{9, 9, 9, 9, 9}
	closes := []float64{10, 10, 10, 10, 10}

	assert.InDelta(t, 2.0, indicator.ATR(highs, lows, closes, 3), 0.001)
}

func TestATR_InsufficientData(t *testing.T) {
	assert.Zero(t, indicator.ATR([]float64{11}, []float64{9}, []float64{10}, 3))
}

func TestVWAP_WeightsByVolume(t *testing.T) {
	// Typical prices 10 and 20; second bar carries 3x the volume.
	highs := []float64{11, 21}
	lows := []float64{9, 19}
	closes := []float64{10, 20}
	volumes := []int64{100, 300}

	assert.InDelta(t, 17.5, indicator.VWAP(highs, lows, closes, volumes), 0.001)
}

func TestVWAP_ZeroVolume(t *testing.T) {
	assert.Zero(t, indicator.VWAP([]float64{10}, []float64{10}, []float64{10}, []int64{0}))
}
