// Package candle
package candle

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`
	Source    string    `json:"source"`
}

// Validate checks if a candle has valid data
func (c *Candle) Validate() error {
	if c.Timestamp.IsZero() {
		return errors.New("candle timestamp is zero")
	}
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return errors.New("candle prices must be positive")
	}
	if c.High < c.Low {
		return errors.New("candle high cannot be less than low")
	}
	if c.Open < c.Low || c.Open > c.High {
		return errors.New("candle open price must be between high and low")
	}
	if c.Close < c.Low || c.Close > c.High {
		return errors.New("candle close price must be between high and low")
	}
	if c.Volume < 0 {
		return errors.New("candle volume cannot be negative")
	}
	if c.Symbol == "" {
		return errors.New("candle symbol cannot be empty")
	}
	return nil
}

// Range returns the high-low distance of the candle.
func (c *Candle) Range() float64 {
	return c.High - c.Low
}

// IsBullish reports whether the candle closed above its open.
func (c *Candle) IsBullish() bool {
	return c.Close > c.Open
}

// IsBearish reports whether the candle closed below its open.
func (c *Candle) IsBearish() bool {
	return c.Close < c.Open
}

// SortByTimestamp sorts candles in place into ascending time order,
// breaking timestamp ties by symbol then timeframe so multi-symbol series
// sort deterministically.
func SortByTimestamp(candles []Candle) {
	sort.SliceStable(candles, func(i, j int) bool {
		a, b := candles[i], candles[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}
		return a.Timeframe < b.Timeframe
	})
}

// seriesKey identifies one bar slot. Two symbols legitimately share a
// timestamp, so dedupe must not collapse them.
type seriesKey struct {
	symbol    string
	timeframe string
	ts        int64
}

// Deduplicate removes candles sharing (symbol, timeframe, timestamp),
// keeping the first occurrence.
func Deduplicate(candles []Candle) []Candle {
	if len(candles) == 0 {
		return candles
	}
	out := make([]Candle, 0, len(candles))
	seen := make(map[seriesKey]struct{}, len(candles))
	for _, c := range candles {
		k := seriesKey{symbol: c.Symbol, timeframe: c.Timeframe, ts: c.Timestamp.UnixNano()}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	return out
}

// ValidateSeries checks every candle in the series and that timestamps are
// strictly ascending.
func ValidateSeries(candles []Candle) error {
	for i := range candles {
		if err := candles[i].Validate(); err != nil {
			return fmt.Errorf("invalid candle at index %d: %w", i, err)
		}
		if i > 0 && !candles[i].Timestamp.After(candles[i-1].Timestamp) {
			return fmt.Errorf("candle at index %d is out of order: %s not after %s",
				i, candles[i].Timestamp, candles[i-1].Timestamp)
		}
	}
	return nil
}
