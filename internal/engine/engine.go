// Package engine simulates order execution over historical bars. The
// orchestrator hands it a bar series and the per-bar signal sequence; it
// returns the completed round-trip trades.
package engine

import (
	"context"
	"time"

	"github.com/amirphl/ict-trader/internal/candle"
	"github.com/amirphl/ict-trader/internal/instrument"
	"github.com/amirphl/ict-trader/internal/risk"
	"github.com/amirphl/ict-trader/internal/strategy"
)

// Trade is one completed round trip. The core only consumes these for
// aggregation; nothing outside this package constructs them.
type Trade struct {
	EntryTime  time.Time `json:"entry_time"`
	ExitTime   time.Time `json:"exit_time"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Quantity   float64   `json:"quantity"`
	Side       string    `json:"side"`   // "long" or "short"
	PnL        float64   `json:"pnl"`    // realized, after commission
	ExitReason string    `json:"reason"` // stop-loss, take-profit, signal, end-of-data
	MAE        float64   `json:"mae"`    // Maximum Adverse Excursion, price units
	MFE        float64   `json:"mfe"`    // Maximum Favorable Excursion, price units
}

// Engine executes a signal sequence against a bar series. Implementations
// must not mutate candles or signals.
type Engine interface {
	Run(ctx context.Context, candles []candle.Candle, signals []strategy.Signal,
		meta instrument.Meta, cfg risk.Config) ([]Trade, error)
}
