package pattern

import (
	"github.com/amirphl/ict-trader/internal/candle"
)

// Displacement flags candles whose range expands sharply beyond the
// recent average with a dominant body, the kind of one-sided move that
// typically leaves an imbalance behind it.
type Displacement struct {
	// Lookback is the number of prior bars averaged to establish the
	// baseline range.
	Lookback int
	// RangeFactor is the minimum ratio of a bar's range to the baseline.
	RangeFactor float64
	// BodyFraction is the minimum share of the range the body must cover.
	BodyFraction float64
}

// NewDisplacement returns a detector with the standard thresholds: range
// at least 1.5x the 10-bar average with the body covering 70% of it.
func NewDisplacement() *Displacement {
	return &Displacement{
		Lookback:     10,
		RangeFactor:  1.5,
		BodyFraction: 0.7,
	}
}

func (d *Displacement) Name() string { return "Displacement" }

// Detect scans candles for displacement bars. The first Lookback bars
// have no baseline and never match.
func (d *Displacement) Detect(candles []candle.Candle) []Match {
	var matches []Match
	for i := d.Lookback; i < len(candles); i++ {
		c := candles[i]
		if c.Validate() != nil {
			continue
		}

		var sum float64
		valid := 0
		for j := i - d.Lookback; j < i; j++ {
			if candles[j].Validate() != nil {
				continue
			}
			sum += candles[j].Range()
			valid++
		}
		if valid == 0 {
			continue
		}
		baseline := sum / float64(valid)
		if baseline <= 0 {
			continue
		}

		rng := c.Range()
		if rng < d.RangeFactor*baseline || rng <= 0 {
			continue
		}
		if bodySize(c)/rng < d.BodyFraction {
			continue
		}

		dir := Bearish
		if c.IsBullish() {
			dir = Bullish
		}
		matches = append(matches, Match{
			Index:     i,
			Name:      d.Name(),
			Direction: dir,
			Strength:  clamp01(rng / (baseline * d.RangeFactor * 2)),
			Timestamp: c.Timestamp,
		})
	}
	return matches
}

// At reports whether bar i is a displacement candle in the given
// direction, returning its strength.
func (d *Displacement) At(candles []candle.Candle, i int, dir Direction) (float64, bool) {
	if i < 0 || i >= len(candles) {
		return 0, false
	}
	for _, m := range d.Detect(candles[max(0, i-d.Lookback) : i+1]) {
		if m.Index == min(i, d.Lookback) && m.Direction == dir {
			return m.Strength, true
		}
	}
	return 0, false
}
