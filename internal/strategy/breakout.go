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

// SessionBreakout trades the break of the opening range: it records the
// high/low printed during the range session (ny-open by default), then
// enters at market on the first close beyond that range during the trade
// session, stop at the opposite range edge.
type SessionBreakout struct {
	classifier   *session.Classifier
	displacement *pattern.Displacement
	doji         *pattern.Doji
	sess

	RangeSession   string
	TradeSession   string
	ATRPeriod      int
	ATRThreshold   float64
	RewardMultiple float64
}

// NewSessionBreakout creates the strategy with the standard ICT setup:
// range from ny-open, trades during the silver-bullet hour, 2R target.
func NewSessionBreakout(classifier *session.Classifier) *SessionBreakout {
	return &SessionBreakout{
		classifier:     classifier,
		displacement:   pattern.NewDisplacement(),
		doji:           pattern.NewDoji(),
		RangeSession:   "ny-open",
		TradeSession:   "silver-bullet",
		ATRPeriod:      14,
		ATRThreshold:   0.0,
		RewardMultiple: 2.0,
	}
}

// Name returns the name of the strategy
func (s *SessionBreakout) Name() string { return "Session Breakout" }

// Params returns the constructor parameters for reporting.
func (s *SessionBreakout) Params() map[string]any {
	return map[string]any{
		"range_session":   s.RangeSession,
		"trade_session":   s.TradeSession,
		"atr_period":      s.ATRPeriod,
		"atr_threshold":   s.ATRThreshold,
		"reward_multiple": s.RewardMultiple,
	}
}

// WarmupPeriod returns the number of leading bars that never produce entries.
func (s *SessionBreakout) WarmupPeriod() int { return s.ATRPeriod }

// Prepare stores a read-only view of the bars and attaches indicator
// columns. Calling it again fully resets prior state.
func (s *SessionBreakout) Prepare(candles []candle.Candle, meta instrument.Meta, cfg risk.Config) error {
	s.reset()

	if len(candles) == 0 {
		return errors.New("cannot prepare on an empty dataset")
	}
	for _, name := range []string{s.RangeSession, s.TradeSession} {
		if _, err := s.classifier.Lookup(name); err != nil {
			return fmt.Errorf("preparing %s: %w", s.Name(), err)
		}
	}
	cols, err := indicator.Columns(candles, s.ATRPeriod, 0)
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

// GenerateSignals walks the bars in timestamp order, building each day's
// opening range and emitting at most one breakout entry per day.
func (s *SessionBreakout) GenerateSignals() ([]Signal, error) {
	if !s.prepared {
		return nil, ErrNotPrepared
	}
	if s.signals != nil {
		out := make([]Signal, len(s.signals))
		copy(out, s.signals)
		return out, nil
	}

	atr := s.cols["atr"]
	signals := make([]Signal, len(s.candles))

	// Displacement on the breakout bar raises conviction in the move; a
	// doji breakout bar is indecision and lowers it.
	displaced := make(map[int]pattern.Match)
	for _, m := range s.displacement.Detect(s.candles) {
		displaced[m.Index] = m
	}
	dojis := make(map[int]pattern.Match)
	for _, m := range s.doji.Detect(s.candles) {
		dojis[m.Index] = m
	}
	confidence := func(i int, dir pattern.Direction) float64 {
		conf := 0.6
		if m, ok := displaced[i]; ok && m.Direction == dir {
			conf = 0.6 + 0.4*m.Strength
		}
		if m, ok := dojis[i]; ok {
			conf *= 1 - 0.5*m.Strength
		}
		return conf
	}

	var (
		day        string
		rangeHigh  float64
		rangeLow   float64
		rangeSeen  bool
		doneForDay bool
	)

	for i, c := range s.candles {
		local := c.Timestamp.In(s.classifier.Zone())
		if d := local.Format("2006-01-02"); d != day {
			day = d
			rangeHigh, rangeLow = 0, 0
			rangeSeen = false
			doneForDay = false
		}

		inRange, err := s.classifier.InSession(c.Timestamp, s.RangeSession)
		if err != nil {
			return nil, fmt.Errorf("classifying bar %d: %w", i, err)
		}
		if inRange {
			if !rangeSeen {
				rangeHigh, rangeLow = c.High, c.Low
				rangeSeen = true
			} else {
				rangeHigh = math.Max(rangeHigh, c.High)
				rangeLow = math.Min(rangeLow, c.Low)
			}
			signals[i] = HoldSignal(c.Timestamp, "building opening range")
			continue
		}

		if i < s.WarmupPeriod() || math.IsNaN(atr[i]) {
			signals[i] = HoldSignal(c.Timestamp, "warming up")
			continue
		}

		inTrade, err := s.classifier.InSession(c.Timestamp, s.TradeSession)
		if err != nil {
			return nil, fmt.Errorf("classifying bar %d: %w", i, err)
		}
		switch {
		case !inTrade || !rangeSeen || doneForDay:
			signals[i] = HoldSignal(c.Timestamp, "outside session")
		case atr[i] < s.ATRThreshold:
			signals[i] = HoldSignal(c.Timestamp, "volatility below threshold")
		case c.Close > rangeHigh:
			riskDist := c.Close - rangeLow
			signals[i] = Signal{
				Time:       c.Timestamp,
				Direction:  Buy,
				OrderKind:  Market,
				Price:      c.Close,
				Stop:       rangeLow,
				HasStop:    true,
				Target:     c.Close + s.RewardMultiple*riskDist,
				HasTarget:  true,
				Confidence: confidence(i, pattern.Bullish),
				Reason:     "close above opening range",
			}
			doneForDay = true
		case c.Close < rangeLow:
			riskDist := rangeHigh - c.Close
			signals[i] = Signal{
				Time:       c.Timestamp,
				Direction:  Sell,
				OrderKind:  Market,
				Price:      c.Close,
				Stop:       rangeHigh,
				HasStop:    true,
				Target:     c.Close - s.RewardMultiple*riskDist,
				HasTarget:  true,
				Confidence: confidence(i, pattern.Bearish),
				Reason:     "close below opening range",
			}
			doneForDay = true
		default:
			signals[i] = HoldSignal(c.Timestamp, "inside opening range")
		}
	}

	s.signals = signals
	out := make([]Signal, len(signals))
	copy(out, signals)
	return out, nil
}
