// Package data loads candle series for backtesting, either from memory or
// over HTTP from a klines-style public API.
package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/ict-trader/internal/candle"
)

// ErrNoCandles is returned when a source yields no bars for the requested
// range. An empty dataset is never a valid backtest input, so sources fail
// loudly instead of returning an empty slice.
var ErrNoCandles = errors.New("no candles in requested range")

// Source provides historical candles. Implementations return series sorted
// ascending by timestamp with duplicates removed.
type Source interface {
	Load(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]candle.Candle, error)
}

// MemorySource serves a fixed, pre-loaded series. It is the source of
// choice for tests and for datasets already on disk.
type MemorySource struct {
	candles []candle.Candle
}

// NewMemorySource wraps candles in a Source. The input is sorted and
// deduplicated once up front; the caller's slice is not modified.
func NewMemorySource(candles []candle.Candle) *MemorySource {
	owned := make([]candle.Candle, len(candles))
	copy(owned, candles)
	candle.SortByTimestamp(owned)
	return &MemorySource{candles: candle.Deduplicate(owned)}
}

// Load returns the candles matching symbol and timeframe within
// [start, end]. Symbol and timeframe filters are skipped when empty.
func (m *MemorySource) Load(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]candle.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []candle.Candle
	for _, c := range m.candles {
		if symbol != "" && c.Symbol != symbol {
			continue
		}
		if timeframe != "" && c.Timeframe != timeframe {
			continue
		}
		if c.Timestamp.Before(start) || c.Timestamp.After(end) {
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s %s %s..%s: %w", symbol, timeframe,
			start.Format(time.RFC3339), end.Format(time.RFC3339), ErrNoCandles)
	}
	return out, nil
}
