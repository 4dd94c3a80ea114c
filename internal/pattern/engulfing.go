package pattern

import (
	"github.com/amirphl/ict-trader/internal/candle"
)

// Engulfing detects two-candle reversals where the second body fully
// covers the first in the opposite direction.
type Engulfing struct{}

// NewEngulfing creates the detector.
func NewEngulfing() *Engulfing { return &Engulfing{} }

func (e *Engulfing) Name() string { return "Engulfing" }

// Detect scans candles for engulfing pairs. Strength grows with how much
// larger the engulfing body is than the engulfed one.
func (e *Engulfing) Detect(candles []candle.Candle) []Match {
	var matches []Match
	for i := 1; i < len(candles); i++ {
		cur, prev := candles[i], candles[i-1]
		if cur.Validate() != nil || prev.Validate() != nil {
			continue
		}

		var dir Direction
		switch {
		case cur.IsBullish() && prev.IsBearish():
			dir = Bullish
		case cur.IsBearish() && prev.IsBullish():
			dir = Bearish
		default:
			continue
		}
		if bodyHigh(cur) < bodyHigh(prev) || bodyLow(cur) > bodyLow(prev) {
			continue
		}

		prevBody := bodySize(prev)
		if prevBody <= 0 {
			continue
		}
		matches = append(matches, Match{
			Index:     i,
			Name:      e.Name(),
			Direction: dir,
			Strength:  clamp01(bodySize(cur) / (2 * prevBody)),
			Timestamp: cur.Timestamp,
		})
	}
	return matches
}
