package pattern

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/ict-trader/internal/candle"
)

func bar(i int, o, h, l, c float64) candle.Candle {
	base := time.Date(2024, time.March, 5, 14, 30, 0, 0, time.UTC)
	return candle.Candle{
		Timestamp: base.Add(time.Duration(i) * 5 * time.Minute),
		Open:      o, High: h, Low: l, Close: c,
		Volume: 100, Symbol: "ES=F", Timeframe: "5m", Source: "test",
	}
}

// quietBars builds n one-point-range bars as a baseline.
func quietBars(n int) []candle.Candle {
	out := make([]candle.Candle, n)
	for i := range out {
		out[i] = bar(i, 100, 101, 100, 100.5)
	}
	return out
}

func TestDisplacement(t *testing.T) {
	d := NewDisplacement()

	t.Run("Bullish expansion", func(t *testing.T) {
		candles := append(quietBars(10), bar(10, 100.2, 103.1, 100.1, 103))
		matches := d.Detect(candles)
		require.Len(t, matches, 1)
		assert.Equal(t, 10, matches[0].Index)
		assert.Equal(t, Bullish, matches[0].Direction)
		assert.InDelta(t, 1.0, matches[0].Strength, 1e-9)
	})

	t.Run("Bearish expansion", func(t *testing.T) {
		candles := append(quietBars(10), bar(10, 103, 103.1, 100.1, 100.2))
		matches := d.Detect(candles)
		require.Len(t, matches, 1)
		assert.Equal(t, Bearish, matches[0].Direction)
	})

	t.Run("Small range ignored", func(t *testing.T) {
		candles := append(quietBars(10), bar(10, 100, 101.2, 100, 101.1))
		assert.Empty(t, d.Detect(candles))
	})

	t.Run("Wicky bar ignored", func(t *testing.T) {
		// Big range but the body covers little of it.
		candles := append(quietBars(10), bar(10, 101.5, 103.1, 100.1, 101.6))
		assert.Empty(t, d.Detect(candles))
	})

	t.Run("No baseline before lookback", func(t *testing.T) {
		candles := []candle.Candle{bar(0, 100, 103, 100, 102.9)}
		assert.Empty(t, d.Detect(candles))
	})

	t.Run("At", func(t *testing.T) {
		candles := append(quietBars(10), bar(10, 100.2, 103.1, 100.1, 103))
		strength, ok := d.At(candles, 10, Bullish)
		assert.True(t, ok)
		assert.Positive(t, strength)

		_, ok = d.At(candles, 10, Bearish)
		assert.False(t, ok)
		_, ok = d.At(candles, 5, Bullish)
		assert.False(t, ok)
	})
}

func TestEngulfing(t *testing.T) {
	e := NewEngulfing()

	t.Run("Bullish engulfing", func(t *testing.T) {
		candles := []candle.Candle{
			bar(0, 101, 101.2, 99.9, 100),
			bar(1, 99.8, 101.6, 99.7, 101.5),
		}
		matches := e.Detect(candles)
		require.Len(t, matches, 1)
		assert.Equal(t, 1, matches[0].Index)
		assert.Equal(t, Bullish, matches[0].Direction)
		assert.InDelta(t, 0.85, matches[0].Strength, 1e-9)
	})

	t.Run("Bearish engulfing", func(t *testing.T) {
		candles := []candle.Candle{
			bar(0, 100, 101.1, 99.9, 101),
			bar(1, 101.2, 101.3, 99.5, 99.8),
		}
		matches := e.Detect(candles)
		require.Len(t, matches, 1)
		assert.Equal(t, Bearish, matches[0].Direction)
	})

	t.Run("Partial cover is not engulfing", func(t *testing.T) {
		candles := []candle.Candle{
			bar(0, 101, 101.2, 99.9, 100),
			bar(1, 100.5, 101.6, 100.4, 101.5), // body low above previous body low
		}
		assert.Empty(t, e.Detect(candles))
	})

	t.Run("Same direction pair ignored", func(t *testing.T) {
		candles := []candle.Candle{
			bar(0, 100, 101.1, 99.9, 101),
			bar(1, 99.8, 101.6, 99.7, 101.5),
		}
		assert.Empty(t, e.Detect(candles))
	})
}

func TestDoji(t *testing.T) {
	d := NewDoji()

	t.Run("Detects small body", func(t *testing.T) {
		candles := []candle.Candle{bar(0, 100, 101, 99, 100.05)}
		matches := d.Detect(candles)
		require.Len(t, matches, 1)
		assert.Equal(t, Neutral, matches[0].Direction)
		assert.InDelta(t, 0.75, matches[0].Strength, 1e-9)
	})

	t.Run("Normal body ignored", func(t *testing.T) {
		candles := []candle.Candle{bar(0, 100, 101, 99, 100.8)}
		assert.Empty(t, d.Detect(candles))
	})

	t.Run("Zero range skipped", func(t *testing.T) {
		candles := []candle.Candle{bar(0, 100, 100, 100, 100)}
		assert.Empty(t, d.Detect(candles))
	})
}
