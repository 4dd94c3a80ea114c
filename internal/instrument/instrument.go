// Package instrument holds reference metadata for tradable symbols: tick,
// point, and pip economics used by position sizing.
package instrument

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// AssetClass identifies which sizing formula applies to a symbol.
type AssetClass string

const (
	Futures AssetClass = "futures"
	Forex   AssetClass = "forex"
	Index   AssetClass = "index"
	Unknown AssetClass = "unknown"
)

// Meta is immutable reference data for one symbol.
type Meta struct {
	Symbol     string
	Class      AssetClass
	TickSize   float64 // minimum price increment
	PointValue float64 // currency per full point, per contract
	// Forex only.
	PipSize      float64 // price distance of one pip
	PipValue     float64 // currency per pip, per standard lot
	MinIncrement float64 // minimum tradable quantity step
}

// TickValue returns the currency value of one tick for one contract.
func (m Meta) TickValue() float64 {
	return m.PointValue * m.TickSize
}

// CurrencyPnL converts a signed price move into currency for qty units:
// pip value per lot for forex, point value per contract otherwise.
func (m Meta) CurrencyPnL(move, qty float64) float64 {
	if m.Class == Forex && m.PipSize > 0 {
		return move / m.PipSize * m.PipValue * qty
	}
	return move * m.PointValue * qty
}

// RoundToIncrement clamps qty down to the instrument's minimum tradable
// increment. Non-finite or negative quantities round to zero.
func (m Meta) RoundToIncrement(qty float64) float64 {
	if math.IsNaN(qty) || math.IsInf(qty, 0) || qty <= 0 {
		return 0
	}
	step := m.MinIncrement
	if step <= 0 {
		step = 1
	}
	d := decimal.NewFromFloat(qty)
	s := decimal.NewFromFloat(step)
	steps := d.Div(s).Floor()
	out, _ := steps.Mul(s).Float64()
	return out
}

// Registry maps symbols to metadata. It is an explicit instance passed into
// the orchestrator, never a package-level table, and is read-only after
// construction.
type Registry struct {
	metas map[string]Meta
}

// NewRegistry builds a registry pre-populated with well-known instruments.
func NewRegistry() *Registry {
	r := &Registry{metas: make(map[string]Meta)}
	for _, m := range []Meta{
		{Symbol: "ES=F", Class: Futures, TickSize: 0.25, PointValue: 50.0, MinIncrement: 1},
		{Symbol: "NQ=F", Class: Futures, TickSize: 0.25, PointValue: 20.0, MinIncrement: 1},
		{Symbol: "EURUSD=X", Class: Forex, TickSize: 0.00001, PointValue: 1.0, PipSize: 0.0001, PipValue: 10.0, MinIncrement: 0.01},
		{Symbol: "GBPUSD=X", Class: Forex, TickSize: 0.00001, PointValue: 1.0, PipSize: 0.0001, PipValue: 10.0, MinIncrement: 0.01},
		{Symbol: "DX-Y.NYB", Class: Index, TickSize: 0.001, PointValue: 1000.0, MinIncrement: 1},
	} {
		r.metas[m.Symbol] = m
	}
	return r
}

// Register adds or replaces metadata for a symbol.
func (r *Registry) Register(m Meta) {
	r.metas[m.Symbol] = m
}

// Lookup resolves a symbol, falling back to generic defaults for unknown
// symbols. It never fails; callers should treat Unknown-class results as
// advisory only.
func (r *Registry) Lookup(symbol string) Meta {
	if m, ok := r.metas[symbol]; ok {
		return m
	}
	return Meta{
		Symbol:       symbol,
		Class:        Unknown,
		TickSize:     0.01,
		PointValue:   1.0,
		MinIncrement: 1,
	}
}

// Symbols returns the sorted list of registered symbols.
func (r *Registry) Symbols() []string {
	out := make([]string, 0, len(r.metas))
	for sym := range r.metas {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
