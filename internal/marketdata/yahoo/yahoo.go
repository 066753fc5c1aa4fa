// Package yahoo builds market snapshots from Yahoo Finance quotes and
// daily bars, with technical indicators computed locally.
package yahoo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"github.com/quantpit/pitboss/internal/core"
	"github.com/quantpit/pitboss/internal/indicator"
	"github.com/quantpit/pitboss/internal/marketdata"
	"go.uber.org/zap"
)

// validSymbol matches stock symbols like AAPL, MSFT, BRK-B
var validSymbol = regexp.MustCompile(`^[A-Za-z0-9.\-]{1,10}$`)

// Provider implements marketdata.Provider on Yahoo Finance.
type Provider struct {
	historyDays  int
	maxHeadlines int
	news         marketdata.NewsSource
	logger       *zap.Logger
}

// New creates a Yahoo provider. news may be nil.
func New(historyDays, maxHeadlines int, news marketdata.NewsSource, logger *zap.Logger) *Provider {
	if historyDays <= 0 {
		historyDays = 30
	}
	if maxHeadlines <= 0 {
		maxHeadlines = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		historyDays:  historyDays,
		maxHeadlines: maxHeadlines,
		news:         news,
		logger:       logger,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "yahoo"
}

// Snapshot fetches the current quote and daily history and assembles the
// indicator map the reasoning service sees.
func (p *Provider) Snapshot(ctx context.Context, symbol string) (*marketdata.Snapshot, error) {
	if symbol == "" || !validSymbol.MatchString(symbol) {
		return nil, core.WrapError(core.ErrDataUnavailable,
			fmt.Errorf("invalid symbol %q", symbol))
	}

	q, err := quote.Get(symbol)
	if err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable,
			fmt.Errorf("quote %s: %w", symbol, err))
	}
	if q == nil || q.RegularMarketPrice <= 0 {
		return nil, core.WrapError(core.ErrNoData,
			fmt.Errorf("no quote for %s", symbol))
	}

	highs, lows, closes, volumes, err := p.fetchBars(symbol)
	if err != nil {
		return nil, err
	}

	snap := &marketdata.Snapshot{
		Symbol:     symbol,
		Price:      q.RegularMarketPrice,
		Volume:     int64(q.RegularMarketVolume),
		Indicators: BuildIndicators(q.RegularMarketPrice, highs, lows, closes, volumes),
		Time:       time.Now(),
	}
	snap.Indicators["prev_close"] = q.RegularMarketPreviousClose
	snap.Indicators["day_high"] = q.RegularMarketDayHigh
	snap.Indicators["day_low"] = q.RegularMarketDayLow
	if q.RegularMarketPreviousClose > 0 {
		gap := q.RegularMarketPrice - q.RegularMarketPreviousClose
		snap.Indicators["gap_percent"] = gap / q.RegularMarketPreviousClose * 100
	}

	if p.news != nil {
		headlines, nerr := p.news.RecentHeadlines(ctx, symbol, p.maxHeadlines)
		if nerr != nil {
			// Headlines are advisory; the snapshot stands without them.
			p.logger.Debug("headlines unavailable",
				zap.String("symbol", symbol), zap.Error(nerr))
		} else {
			snap.RecentHeadlines = headlines
		}
	}

	return snap, nil
}

// fetchBars pulls daily OHLCV history. finance-go hands back decimals;
// they are converted to float64 at this edge.
func (p *Provider) fetchBars(symbol string) (highs, lows, closes []float64, volumes []int64, err error) {
	end := time.Now()
	start := end.AddDate(0, 0, -p.historyDays)

	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	iter := chart.Get(params)
	for iter.Next() {
		bar := iter.Bar()
		h, _ := bar.High.Float64()
		l, _ := bar.Low.Float64()
		c, _ := bar.Close.Float64()
		highs = append(highs, h)
		lows = append(lows, l)
		closes = append(closes, c)
		volumes = append(volumes, int64(bar.Volume))
	}
	if ierr := iter.Err(); ierr != nil {
		return nil, nil, nil, nil, core.WrapError(core.ErrDataUnavailable,
			fmt.Errorf("history %s: %w", symbol, ierr))
	}
	if len(closes) == 0 {
		return nil, nil, nil, nil, core.WrapError(core.ErrNoData,
			fmt.Errorf("no history for %s", symbol))
	}
	return highs, lows, closes, volumes, nil
}

// BuildIndicators computes the snapshot indicator map from daily bars.
// Exported so tests can drive it with fixed data.
func BuildIndicators(price float64, highs, lows, closes []float64, volumes []int64) map[string]float64 {
	ind := make(map[string]float64)

	if sma := indicator.SMA(closes, 20); len(sma) > 0 {
		ind["sma_20"] = sma[len(sma)-1]
	}
	if sma := indicator.SMA(closes, 5); len(sma) > 0 {
		ind["sma_5"] = sma[len(sma)-1]
	}
	if ema := indicator.EMA(closes, 9); len(ema) > 0 {
		ind["ema_9"] = ema[len(ema)-1]
	}
	ind["rsi_14"] = indicator.RSI(closes, 14)
	if atr := indicator.ATR(highs, lows, closes, 14); atr > 0 {
		ind["atr_14"] = atr
	}
	if vwap := indicator.VWAP(highs, lows, closes, volumes); vwap > 0 {
		ind["vwap"] = vwap
	}

	// Volume ratio: today's volume against the recent average.
	if n := len(volumes); n > 1 {
		var sum float64
		for _, v := range volumes[:n-1] {
			sum += float64(v)
		}
		avg := sum / float64(n-1)
		if avg > 0 {
			ind["volume_ratio"] = float64(volumes[n-1]) / avg
		}
	}

	if sma, ok := ind["sma_20"]; ok && sma > 0 && price > 0 {
		ind["price_vs_sma20_pct"] = (price - sma) / sma * 100
	}
	return ind
}
