package indicator

// RSI calculates the Relative Strength Index over the given period using
// Wilder's smoothing. Returns 50 when there is not enough data.
func RSI(prices []float64, period int) float64 {
	if len(prices) < period+1 {
		return 50
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// ATR calculates the Average True Range over the given period.
// Returns 0 when there is not enough data.
func ATR(highs, lows, closes []float64, period int) float64 {
	n := len(closes)
	if n < period+1 || len(highs) != n || len(lows) != n {
		return 0
	}

	var sum float64
	for i := n - period; i < n; i++ {
		tr := highs[i] - lows[i]
		if hc := abs(highs[i] - closes[i-1]); hc > tr {
			tr = hc
		}
		if lc := abs(lows[i] - closes[i-1]); lc > tr {
			tr = lc
		}
		sum += tr
	}
	return sum / float64(period)
}

// VWAP calculates the volume-weighted average price over the given bars.
// Returns 0 when total volume is zero.
func VWAP(highs, lows, closes []float64, volumes []int64) float64 {
	n := len(closes)
	if n == 0 || len(highs) != n || len(lows) != n || len(volumes) != n {
		return 0
	}

	var pv, vol float64
	for i := 0; i < n; i++ {
		typical := (highs[i] + lows[i] + closes[i]) / 3
		pv += typical * float64(volumes[i])
		vol += float64(volumes[i])
	}
	if vol == 0 {
		return 0
	}
	return pv / vol
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
