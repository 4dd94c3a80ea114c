// Package indicator provides technical analysis indicators for financial markets
package indicator

import (
	"fmt"
	"math"

	"github.com/amirphl/ict-trader/internal/candle"
)

// CalculateATR calculates the Average True Range using Wilder smoothing.
// The first period-1 values are NaN while the indicator warms up.
//
// Parameters:
// - candles: Array of candle data
// - period: The smoothing period (default 14)
func CalculateATR(candles []candle.Candle, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("period must be a positive integer, got %d", period)
	}
	if len(candles) < period {
		return nil, fmt.Errorf("insufficient data: need at least %d candles, got %d", period, len(candles))
	}

	atr := make([]float64, len(candles))
	for i := 0; i < period-1; i++ {
		atr[i] = math.NaN()
	}

	// True range: max(high-low, |high-prevClose|, |low-prevClose|).
	tr := make([]float64, len(candles))
	tr[0] = candles[0].High - candles[0].Low
	for i := 1; i < len(candles); i++ {
		hl := candles[i].High - candles[i].Low
		hc := math.Abs(candles[i].High - candles[i-1].Close)
		lc := math.Abs(candles[i].Low - candles[i-1].Close)
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	var sum float64
	for i := 0; i < period; i++ {
		sum += tr[i]
	}
	atr[period-1] = sum / float64(period)

	for i := period; i < len(candles); i++ {
		atr[i] = (atr[i-1]*float64(period-1) + tr[i]) / float64(period)
	}

	return atr, nil
}
