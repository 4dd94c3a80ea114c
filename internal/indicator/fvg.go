package indicator

import (
	"fmt"
	"math"

	"github.com/amirphl/ict-trader/internal/candle"
)

// DetectFVG marks three-candle fair value gaps. A bullish gap exists when
// the current low is above the high two bars back; a bearish gap when the
// current high is below the low two bars back. The marker value is the
// signed gap size (positive bullish, negative bearish, zero none). Gaps
// smaller than minGap are ignored. The first two values are NaN.
func DetectFVG(candles []candle.Candle, minGap float64) ([]float64, error) {
	if minGap < 0 {
		return nil, fmt.Errorf("minGap cannot be negative, got %f", minGap)
	}
	if len(candles) < 3 {
		return nil, fmt.Errorf("insufficient data: need at least 3 candles, got %d", len(candles))
	}

	fvg := make([]float64, len(candles))
	fvg[0] = math.NaN()
	fvg[1] = math.NaN()

	for i := 2; i < len(candles); i++ {
		if gap := candles[i].Low - candles[i-2].High; gap > 0 && gap >= minGap {
			fvg[i] = gap
			continue
		}
		if gap := candles[i-2].Low - candles[i].High; gap > 0 && gap >= minGap {
			fvg[i] = -gap
			continue
		}
		fvg[i] = 0
	}

	return fvg, nil
}

// Columns computes the standard indicator columns consumed by strategies,
// aligned 1:1 with the input candles: "atr" and "fvg".
func Columns(candles []candle.Candle, atrPeriod int, minGap float64) (map[string][]float64, error) {
	atr, err := CalculateATR(candles, atrPeriod)
	if err != nil {
		return nil, fmt.Errorf("calculating atr: %w", err)
	}
	fvg, err := DetectFVG(candles, minGap)
	if err != nil {
		return nil, fmt.Errorf("detecting fair value gaps: %w", err)
	}
	return map[string][]float64{
		"atr": atr,
		"fvg": fvg,
	}, nil
}
