package strategy

// ValidateSignal applies the shared signal quality rules:
//
//   - a signal without a stop price is always invalid: a position with no
//     defined risk is rejected, fail closed;
//   - with a target present, the side-aware reward:risk ratio must reach
//     minRR, and a non-positive computed risk (stop on the wrong side of
//     the entry) is invalid regardless of the ratio;
//   - a signal with no target is valid by default. This is a deliberate
//     permissive default: risk:reward is only checked when a target
//     exists. Callers wanting stricter gating must require targets.
//
// A rejected signal is not an error; it is simply excluded from execution.
func ValidateSignal(sig Signal, minRR float64) bool {
	if !sig.Direction.IsEntry() {
		return false
	}
	if !sig.HasStop {
		return false
	}
	if !sig.HasTarget {
		return true
	}

	var reward, riskDist float64
	switch sig.Direction {
	case Buy:
		riskDist = sig.Price - sig.Stop
		reward = sig.Target - sig.Price
	case Sell:
		riskDist = sig.Stop - sig.Price
		reward = sig.Price - sig.Target
	}

	if riskDist <= 0 || reward <= 0 {
		return false
	}
	return reward/riskDist >= minRR
}
