package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/amirphl/ict-trader/internal/candle"
	"github.com/amirphl/ict-trader/internal/instrument"
	"github.com/amirphl/ict-trader/internal/risk"
	"github.com/amirphl/ict-trader/internal/session"
	"github.com/amirphl/ict-trader/internal/strategy"
)

// Replay is a sequential bar-replay simulator. Entries are validated and
// sized here, so a signal is consumed exactly once: rejected signals are
// dropped silently, sizing failures are skipped with a warning, and
// accepted signals become positions tracked bar by bar.
type Replay struct {
	log zerolog.Logger
	loc *time.Location
}

// NewReplay creates a replay engine logging through the given logger. The
// daily loss gate rolls at exchange-local midnight.
func NewReplay(log zerolog.Logger) *Replay {
	loc, err := time.LoadLocation(session.DefaultZone)
	if err != nil {
		log.Warn().Err(err).Str("zone", session.DefaultZone).Msg("falling back to UTC for daily roll")
		loc = time.UTC
	}
	return &Replay{log: log, loc: loc}
}

// position is an open trade awaiting its exit.
type position struct {
	side      strategy.Direction // Buy or Sell
	entryTime time.Time
	entry     float64
	qty       float64
	stop      float64
	target    float64
	hasTarget bool
	mae       float64
	mfe       float64
}

// Run replays candles in order, filling validated signals and managing
// stops, targets, close signals, slippage, commission, the max-positions
// limit, and the daily loss gate. Remaining positions are closed on the
// final bar.
func (r *Replay) Run(ctx context.Context, candles []candle.Candle, signals []strategy.Signal,
	meta instrument.Meta, cfg risk.Config,
) ([]Trade, error) {
	if len(signals) != len(candles) {
		return nil, fmt.Errorf("signal count %d does not match candle count %d", len(signals), len(candles))
	}

	var (
		trades   []Trade
		open     []*position
		equity   = cfg.InitialCapital
		dailyPnL float64
		day      string
	)
	slip := cfg.SlippageTicks * meta.TickSize

	closePosition := func(p *position, price float64, ts time.Time, reason string) {
		move := price - p.entry
		if p.side == strategy.Sell {
			move = p.entry - price
		}
		pnl := meta.CurrencyPnL(move, p.qty) - cfg.Commission

		equity += pnl
		dailyPnL += pnl

		side := "long"
		if p.side == strategy.Sell {
			side = "short"
		}
		trades = append(trades, Trade{
			EntryTime:  p.entryTime,
			ExitTime:   ts,
			EntryPrice: p.entry,
			ExitPrice:  price,
			Quantity:   p.qty,
			Side:       side,
			PnL:        pnl,
			ExitReason: reason,
			MAE:        p.mae,
			MFE:        p.mfe,
		})
	}

	for i, c := range candles {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("replay cancelled at bar %d: %w", i, err)
		}

		if d := c.Timestamp.In(r.loc).Format("2006-01-02"); d != day {
			day = d
			dailyPnL = 0
		}

		// 1. Manage positions opened on earlier bars: excursions, stops,
		// targets. Stops take priority when both hit inside one bar.
		remaining := open[:0]
		for _, p := range open {
			if p.side == strategy.Buy {
				if adverse := c.Low - p.entry; adverse < p.mae {
					p.mae = adverse
				}
				if favorable := c.High - p.entry; favorable > p.mfe {
					p.mfe = favorable
				}
				if c.Low <= p.stop {
					closePosition(p, p.stop-slip, c.Timestamp, "stop-loss")
					continue
				}
				if p.hasTarget && c.High >= p.target {
					closePosition(p, p.target, c.Timestamp, "take-profit")
					continue
				}
			} else {
				if adverse := p.entry - c.High; adverse < p.mae {
					p.mae = adverse
				}
				if favorable := p.entry - c.Low; favorable > p.mfe {
					p.mfe = favorable
				}
				if c.High >= p.stop {
					closePosition(p, p.stop+slip, c.Timestamp, "stop-loss")
					continue
				}
				if p.hasTarget && c.Low <= p.target {
					closePosition(p, p.target, c.Timestamp, "take-profit")
					continue
				}
			}
			remaining = append(remaining, p)
		}
		open = remaining

		sig := signals[i]

		// 2. Close-direction signals flatten matching positions at the
		// bar close.
		if sig.Direction == strategy.CloseLong || sig.Direction == strategy.CloseShort {
			want := strategy.Buy
			exit := c.Close - slip
			if sig.Direction == strategy.CloseShort {
				want = strategy.Sell
				exit = c.Close + slip
			}
			remaining = open[:0]
			for _, p := range open {
				if p.side == want {
					closePosition(p, exit, c.Timestamp, "signal")
					continue
				}
				remaining = append(remaining, p)
			}
			open = remaining
			continue
		}

		// 3. Entries.
		if !sig.Direction.IsEntry() {
			continue
		}
		if !strategy.ValidateSignal(sig, cfg.MinRiskReward) {
			r.log.Debug().Time("bar", c.Timestamp).Str("direction", sig.Direction.String()).
				Msg("signal rejected by validation")
			continue
		}
		if len(open) >= cfg.MaxPositions {
			r.log.Debug().Time("bar", c.Timestamp).Int("open", len(open)).
				Msg("max positions reached, skipping entry")
			continue
		}
		if dailyPnL <= -cfg.MaxDailyLoss*cfg.InitialCapital {
			r.log.Debug().Time("bar", c.Timestamp).Float64("daily_pnl", dailyPnL).
				Msg("daily loss limit reached, skipping entry")
			continue
		}

		sized, err := strategy.SizeSignal(sig, equity, cfg, meta)
		if err != nil {
			// Sizing failure aborts this one signal, not the run.
			r.log.Warn().Err(err).Time("bar", c.Timestamp).Msg("skipping unsizable signal")
			continue
		}

		entry, filled := fillPrice(sig, c, slip)
		if !filled {
			r.log.Debug().Time("bar", c.Timestamp).Float64("limit", sig.LimitPrice).
				Msg("limit order not touched, no fill")
			continue
		}

		open = append(open, &position{
			side:      sig.Direction,
			entryTime: c.Timestamp,
			entry:     entry,
			qty:       sized.Quantity,
			stop:      sig.Stop,
			target:    sig.Target,
			hasTarget: sig.HasTarget,
		})
	}

	// 4. Flatten whatever is still open on the last bar.
	if len(open) > 0 {
		last := candles[len(candles)-1]
		for _, p := range open {
			exit := last.Close - slip
			if p.side == strategy.Sell {
				exit = last.Close + slip
			}
			closePosition(p, exit, last.Timestamp, "end-of-data")
		}
	}

	return trades, nil
}

// fillPrice resolves the entry fill for a signal on its bar. Market orders
// fill at the reference price moved adversely by slippage; limit orders
// fill at the limit price only if the bar traded through it.
func fillPrice(sig strategy.Signal, c candle.Candle, slip float64) (float64, bool) {
	if sig.OrderKind == strategy.Limit {
		if sig.Direction == strategy.Buy && c.Low <= sig.LimitPrice {
			return sig.LimitPrice, true
		}
		if sig.Direction == strategy.Sell && c.High >= sig.LimitPrice {
			return sig.LimitPrice, true
		}
		return 0, false
	}
	if sig.Direction == strategy.Buy {
		return sig.Price + slip, true
	}
	return sig.Price - slip, true
}
