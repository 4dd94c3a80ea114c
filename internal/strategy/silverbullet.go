package strategy

import (
	"errors"
	"fmt"
	"math"

	"github.com/amirphl/ict-trader/internal/candle"
	"github.com/amirphl/ict-trader/internal/indicator"
	"github.com/amirphl/ict-trader/internal/instrument"
	"github.com/amirphl/ict-trader/internal/pattern"
	"github.com/amirphl/ict-trader/internal/risk"
	"github.com/amirphl/ict-trader/internal/session"
)

// ErrNotPrepared is returned when GenerateSignals is called before Prepare.
var ErrNotPrepared = errors.New("strategy is not prepared")

// SilverBullet trades fair value gaps that print inside the silver bullet
// killzone (10:00-11:00 New York). Entries are limit orders at the near
// edge of the gap with the stop beyond the far edge, filtered by a minimum
// ATR so dead tape is skipped.
type SilverBullet struct {
	classifier *session.Classifier
	engulfing  *pattern.Engulfing
	sess

	ATRPeriod      int
	ATRThreshold   float64
	MinGap         float64
	RewardMultiple float64
	Session        string
}

// NewSilverBullet creates the strategy with standard parameters: 14-bar
// ATR, 2R target, silver-bullet session.
func NewSilverBullet(classifier *session.Classifier) *SilverBullet {
	return &SilverBullet{
		classifier:     classifier,
		engulfing:      pattern.NewEngulfing(),
		ATRPeriod:      14,
		ATRThreshold:   0.0,
		MinGap:         0.0,
		RewardMultiple: 2.0,
		Session:        "silver-bullet",
	}
}

// Name returns the name of the strategy
func (s *SilverBullet) Name() string { return "Silver Bullet" }

// Params returns the constructor parameters for reporting.
func (s *SilverBullet) Params() map[string]any {
	return map[string]any{
		"atr_period":      s.ATRPeriod,
		"atr_threshold":   s.ATRThreshold,
		"min_gap":         s.MinGap,
		"reward_multiple": s.RewardMultiple,
		"session":         s.Session,
	}
}

// WarmupPeriod returns the number of leading bars that never produce entries.
func (s *SilverBullet) WarmupPeriod() int { return s.ATRPeriod }

// Prepare stores a read-only view of the bars and attaches indicator
// columns. Calling it again fully resets prior state.
func (s *SilverBullet) Prepare(candles []candle.Candle, meta instrument.Meta, cfg risk.Config) error {
	s.reset()

	if len(candles) == 0 {
		return errors.New("cannot prepare on an empty dataset")
	}
	if _, err := s.classifier.Lookup(s.Session); err != nil {
		return fmt.Errorf("preparing %s: %w", s.Name(), err)
	}
	cols, err := indicator.Columns(candles, s.ATRPeriod, s.MinGap)
	if err != nil {
		return fmt.Errorf("preparing %s: %w", s.Name(), err)
	}

	s.candles = candles
	s.meta = meta
	s.cfg = cfg
	s.cols = cols
	s.prepared = true
	return nil
}

// GenerateSignals returns one signal per bar; suppressed bars carry the
// no-entry direction. Output is deterministic for unchanged inputs.
func (s *SilverBullet) GenerateSignals() ([]Signal, error) {
	if !s.prepared {
		return nil, ErrNotPrepared
	}
	if s.signals != nil {
		out := make([]Signal, len(s.signals))
		copy(out, s.signals)
		return out, nil
	}

	atr := s.cols["atr"]
	fvg := s.cols["fvg"]
	signals := make([]Signal, len(s.candles))

	// An engulfing candle on the gap bar confirms the reversal into it.
	engulfed := make(map[int]pattern.Match)
	for _, m := range s.engulfing.Detect(s.candles) {
		engulfed[m.Index] = m
	}
	confidence := func(i int, gap float64, dir pattern.Direction) float64 {
		conf := math.Min(gap/atr[i], 1.0)
		if m, ok := engulfed[i]; ok && m.Direction == dir {
			conf = math.Min(conf+0.2*m.Strength, 1.0)
		}
		return conf
	}

	for i, c := range s.candles {
		if i < s.WarmupPeriod() || math.IsNaN(atr[i]) || math.IsNaN(fvg[i]) {
			signals[i] = HoldSignal(c.Timestamp, "warming up")
			continue
		}

		inSession, err := s.classifier.InSession(c.Timestamp, s.Session)
		if err != nil {
			return nil, fmt.Errorf("classifying bar %d: %w", i, err)
		}
		if !inSession {
			signals[i] = HoldSignal(c.Timestamp, "outside session")
			continue
		}
		if atr[i] < s.ATRThreshold {
			signals[i] = HoldSignal(c.Timestamp, "volatility below threshold")
			continue
		}
		if fvg[i] == 0 {
			signals[i] = HoldSignal(c.Timestamp, "no fair value gap")
			continue
		}

		gap := math.Abs(fvg[i])

		if fvg[i] > 0 {
			// Bullish gap between high[i-2] and low[i]: bid the near
			// edge, stop beyond the far edge.
			entry := c.Low
			stop := s.candles[i-2].High
			signals[i] = Signal{
				Time:       c.Timestamp,
				Direction:  Buy,
				OrderKind:  Limit,
				Price:      entry,
				LimitPrice: entry,
				Stop:       stop,
				HasStop:    true,
				Target:     entry + s.RewardMultiple*(entry-stop),
				HasTarget:  true,
				Confidence: confidence(i, gap, pattern.Bullish),
				Reason:     "bullish fair value gap in killzone",
			}
			continue
		}

		entry := c.High
		stop := s.candles[i-2].Low
		signals[i] = Signal{
			Time:       c.Timestamp,
			Direction:  Sell,
			OrderKind:  Limit,
			Price:      entry,
			LimitPrice: entry,
			Stop:       stop,
			HasStop:    true,
			Target:     entry - s.RewardMultiple*(stop-entry),
			HasTarget:  true,
			Confidence: confidence(i, gap, pattern.Bearish),
			Reason:     "bearish fair value gap in killzone",
		}
	}

	s.signals = signals
	out := make([]Signal, len(signals))
	copy(out, signals)
	return out, nil
}
