package strategy

import (
	"math"

	"github.com/amirphl/ict-trader/internal/instrument"
	"github.com/amirphl/ict-trader/internal/risk"
)

// SizeSignal converts a validated signal into a tradable quantity.
//
// The currency at risk is equity * cfg.RiskPerTrade. The stop distance in
// price units is |price - stop|, and the conversion to quantity depends on
// the asset class:
//
//   - futures / index: quantity = riskAmount / (stopDistance * pointValue),
//     which is the same as riskAmount / (stopDistance/tick * tickValue);
//   - forex: stop distance in pips = stopDistance / pipSize, then
//     quantity in standard lots = riskAmount / (pips * pipValuePerLot).
//
// The result is clamped down to the instrument's minimum increment and is
// never negative or non-finite. The input signal is not mutated.
func SizeSignal(sig Signal, equity float64, cfg risk.Config, meta instrument.Meta) (SizedSignal, error) {
	if !sig.HasStop {
		return SizedSignal{}, &SizingError{Symbol: meta.Symbol, Reason: "signal has no stop price"}
	}

	stopDistance := math.Abs(sig.Price - sig.Stop)
	if stopDistance <= 0 || math.IsNaN(stopDistance) || math.IsInf(stopDistance, 0) {
		return SizedSignal{}, &SizingError{
			Symbol:       meta.Symbol,
			StopDistance: stopDistance,
			Reason:       "stop distance must be positive and finite",
		}
	}
	if equity <= 0 {
		return SizedSignal{}, &SizingError{
			Symbol:       meta.Symbol,
			StopDistance: stopDistance,
			Reason:       "equity is not positive",
		}
	}

	riskAmount := equity * cfg.RiskPerTrade

	var qty float64
	switch meta.Class {
	case instrument.Forex:
		pips := stopDistance / meta.PipSize
		qty = riskAmount / (pips * meta.PipValue)
	default:
		qty = riskAmount / (stopDistance * meta.PointValue)
	}

	qty = meta.RoundToIncrement(qty)
	if qty <= 0 {
		return SizedSignal{}, &SizingError{
			Symbol:       meta.Symbol,
			StopDistance: stopDistance,
			Reason:       "quantity below minimum tradable increment",
		}
	}

	return SizedSignal{
		Signal:     sig,
		Quantity:   qty,
		RiskAmount: riskAmount,
	}, nil
}
