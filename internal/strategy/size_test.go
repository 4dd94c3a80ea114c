package strategy

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/ict-trader/internal/instrument"
	"github.com/amirphl/ict-trader/internal/risk"
)

func TestSizeSignal_Forex(t *testing.T) {
	meta := instrument.NewRegistry().Lookup("EURUSD=X")
	cfg := risk.Default()
	cfg.RiskPerTrade = 0.01

	// 20 pip stop: 1.1000 entry, 1.0980 stop. Risk 1000 on 100k equity,
	// pip value 10 per standard lot: 1000 / (20*10) = 5 lots.
	sig := entrySignal(Buy, 1.1000, 1.0980, 0, true, false)

	sized, err := SizeSignal(sig, 100000, cfg, meta)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, sized.Quantity, 1e-9)
	assert.InDelta(t, 1000.0, sized.RiskAmount, 1e-9)
}

func TestSizeSignal_Futures(t *testing.T) {
	meta := instrument.NewRegistry().Lookup("ES=F")
	cfg := risk.Default()
	cfg.RiskPerTrade = 0.02

	// 4 point stop at 50 per point: 1000 / (4*50) = 5 contracts.
	sig := entrySignal(Buy, 4500, 4496, 0, true, false)

	sized, err := SizeSignal(sig, 50000, cfg, meta)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, sized.Quantity, 1e-9)
	assert.InDelta(t, 1000.0, sized.RiskAmount, 1e-9)
}

func TestSizeSignal_ClampsToIncrement(t *testing.T) {
	meta := instrument.NewRegistry().Lookup("ES=F")
	cfg := risk.Default()
	cfg.RiskPerTrade = 0.02

	// 1000 / (4.5*50) = 4.44..., floors to 4 whole contracts.
	sig := entrySignal(Buy, 4500, 4495.5, 0, true, false)

	sized, err := SizeSignal(sig, 50000, cfg, meta)
	require.NoError(t, err)
	assert.Equal(t, 4.0, sized.Quantity)
}

func TestSizeSignal_Errors(t *testing.T) {
	meta := instrument.NewRegistry().Lookup("ES=F")
	cfg := risk.Default()

	t.Run("Zero stop distance", func(t *testing.T) {
		sig := entrySignal(Buy, 4500, 4500, 0, true, false)
		_, err := SizeSignal(sig, 50000, cfg, meta)
		var sizingErr *SizingError
		require.True(t, errors.As(err, &sizingErr))
		assert.Equal(t, "ES=F", sizingErr.Symbol)
	})

	t.Run("Non-finite stop", func(t *testing.T) {
		sig := entrySignal(Buy, 4500, math.NaN(), 0, true, false)
		_, err := SizeSignal(sig, 50000, cfg, meta)
		assert.Error(t, err)
	})

	t.Run("Missing stop", func(t *testing.T) {
		sig := entrySignal(Buy, 4500, 0, 0, false, false)
		_, err := SizeSignal(sig, 50000, cfg, meta)
		assert.Error(t, err)
	})

	t.Run("Non-positive equity", func(t *testing.T) {
		sig := entrySignal(Buy, 4500, 4496, 0, true, false)
		_, err := SizeSignal(sig, 0, cfg, meta)
		assert.Error(t, err)
	})

	t.Run("Quantity below increment", func(t *testing.T) {
		// Stop so wide the risk budget buys less than one contract.
		sig := entrySignal(Buy, 4500, 4000, 0, true, false)
		_, err := SizeSignal(sig, 1000, cfg, meta)
		assert.Error(t, err)
	})
}

func TestSizeSignal_DoesNotMutateInput(t *testing.T) {
	meta := instrument.NewRegistry().Lookup("ES=F")
	sig := entrySignal(Buy, 4500, 4496, 0, true, false)
	before := sig

	_, err := SizeSignal(sig, 50000, risk.Default(), meta)
	require.NoError(t, err)
	assert.Equal(t, before, sig)
}
