// Package strategy defines the contract every trading strategy implements:
// prepare indicator state over a bar series, generate per-bar signals, and
// share the validation and sizing rules applied before execution.
package strategy

import (
	"github.com/amirphl/ict-trader/internal/candle"
	"github.com/amirphl/ict-trader/internal/instrument"
	"github.com/amirphl/ict-trader/internal/risk"
)

// Strategy is the interface for all trading strategies.
//
// Lifecycle: a strategy starts uninitialized, Prepare moves it to prepared,
// GenerateSignals may then be called any number of times and must return an
// identical sequence for unchanged inputs. Calling Prepare again fully
// resets derived state rather than corrupting it.
type Strategy interface {
	Name() string
	Params() map[string]any // constructor parameters, for reporting
	Prepare(candles []candle.Candle, meta instrument.Meta, cfg risk.Config) error
	GenerateSignals() ([]Signal, error)
	WarmupPeriod() int // number of leading bars that never produce entries
}

// sess holds the per-run derived state shared by the strategy variants in
// this package: the read-only bar view, instrument metadata, risk limits,
// attached indicator columns, and the memoized signal sequence.
type sess struct {
	candles  []candle.Candle
	meta     instrument.Meta
	cfg      risk.Config
	cols     map[string][]float64
	prepared bool
	signals  []Signal
}

// reset clears all derived state so Prepare can be called again safely.
func (s *sess) reset() {
	s.candles = nil
	s.cols = nil
	s.signals = nil
	s.prepared = false
}
