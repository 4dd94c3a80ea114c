// Package pattern detects single- and multi-candle price action patterns
// used as entry confluence: displacement candles, engulfing candles, and
// dojis.
package pattern

import (
	"math"
	"time"

	"github.com/amirphl/ict-trader/internal/candle"
)

// Direction labels which side a pattern favors.
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
	Neutral Direction = "neutral"
)

// Match is one detected pattern occurrence. Strength is in [0,1].
type Match struct {
	Index     int       `json:"index"`
	Name      string    `json:"name"`
	Direction Direction `json:"direction"`
	Strength  float64   `json:"strength"`
	Timestamp time.Time `json:"timestamp"`
}

// Detector finds pattern occurrences in a bar series. Bars that fail
// validation are skipped, not reported as errors.
type Detector interface {
	Name() string
	Detect(candles []candle.Candle) []Match
}

func bodySize(c candle.Candle) float64 {
	return math.Abs(c.Close - c.Open)
}

func bodyHigh(c candle.Candle) float64 {
	return math.Max(c.Open, c.Close)
}

func bodyLow(c candle.Candle) float64 {
	return math.Min(c.Open, c.Close)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
