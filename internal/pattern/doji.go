package pattern

import (
	"github.com/amirphl/ict-trader/internal/candle"
)

// Doji detects indecision candles whose body is a small fraction of the
// total range. Inside a session window a doji argues against chasing a
// breakout.
type Doji struct {
	// MaxBodyFraction is the largest body-to-range ratio still counted
	// as a doji.
	MaxBodyFraction float64
}

// NewDoji returns a detector using the conventional 10% body threshold.
func NewDoji() *Doji {
	return &Doji{MaxBodyFraction: 0.1}
}

func (d *Doji) Name() string { return "Doji" }

// Detect scans candles for dojis. Zero-range bars are skipped. Strength
// is highest when the body is dead center and vanishingly small.
func (d *Doji) Detect(candles []candle.Candle) []Match {
	var matches []Match
	for i := range candles {
		c := candles[i]
		if c.Validate() != nil {
			continue
		}
		rng := c.Range()
		if rng <= 0 {
			continue
		}
		frac := bodySize(c) / rng
		if frac > d.MaxBodyFraction {
			continue
		}
		matches = append(matches, Match{
			Index:     i,
			Name:      d.Name(),
			Direction: Neutral,
			Strength:  clamp01(1 - frac/d.MaxBodyFraction),
			Timestamp: c.Timestamp,
		})
	}
	return matches
}
