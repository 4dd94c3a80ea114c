// Package backtest coordinates running a set of strategies over one
// dataset and collecting their results.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/amirphl/ict-trader/internal/candle"
	"github.com/amirphl/ict-trader/internal/engine"
	"github.com/amirphl/ict-trader/internal/instrument"
	"github.com/amirphl/ict-trader/internal/perf"
	"github.com/amirphl/ict-trader/internal/risk"
	"github.com/amirphl/ict-trader/internal/strategy"
)

var (
	// ErrNoStrategies is returned when Run is called with nothing to run.
	ErrNoStrategies = errors.New("no strategies registered")
	// ErrNoData is returned when the dataset is empty.
	ErrNoData = errors.New("empty dataset")
)

// StrategyResult is the outcome of one strategy's run. When Err is set the
// strategy failed and Trades and Metrics are empty; other strategies in
// the same batch are unaffected.
type StrategyResult struct {
	Name    string         `json:"name"`
	Params  map[string]any `json:"params,omitempty"`
	Trades  []engine.Trade `json:"trades"`
	Metrics perf.Metrics   `json:"metrics"`
	Err     error          `json:"-"`
}

// RunReport aggregates one orchestrator run across all strategies.
type RunReport struct {
	RunID     string           `json:"run_id"`
	Symbol    string           `json:"symbol"`
	Start     time.Time        `json:"start"`
	End       time.Time        `json:"end"`
	Bars      int              `json:"bars"`
	Results   []StrategyResult `json:"results"`
	StartedAt time.Time        `json:"started_at"`
	Elapsed   time.Duration    `json:"elapsed"`
}

// Orchestrator runs each registered strategy through the same engine and
// dataset. An error or panic in one strategy is contained to its result.
type Orchestrator struct {
	registry   *instrument.Registry
	engine     engine.Engine
	cfg        risk.Config
	log        zerolog.Logger
	strategies []strategy.Strategy
}

// New creates an orchestrator. The registry resolves instrument metadata
// for the dataset's symbol; unknown symbols fall back to registry
// defaults rather than failing.
func New(registry *instrument.Registry, eng engine.Engine, cfg risk.Config, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		engine:   eng,
		cfg:      cfg,
		log:      log,
	}
}

// Register appends a strategy to the batch.
func (o *Orchestrator) Register(s strategy.Strategy) {
	o.strategies = append(o.strategies, s)
}

// Run executes every registered strategy over candles. The strategy list
// is checked before the dataset, so an empty batch reports ErrNoStrategies
// even when the dataset is also bad. The returned report has one entry per
// strategy, in registration order.
func (o *Orchestrator) Run(ctx context.Context, symbol string, candles []candle.Candle) (*RunReport, error) {
	if len(o.strategies) == 0 {
		return nil, ErrNoStrategies
	}
	if len(candles) == 0 {
		return nil, ErrNoData
	}
	if err := candle.ValidateSeries(candles); err != nil {
		return nil, fmt.Errorf("dataset for %s: %w", symbol, err)
	}

	meta := o.registry.Lookup(symbol)
	report := &RunReport{
		RunID:     uuid.NewString(),
		Symbol:    symbol,
		Start:     candles[0].Timestamp,
		End:       candles[len(candles)-1].Timestamp,
		Bars:      len(candles),
		StartedAt: time.Now(),
	}

	o.log.Info().Str("run_id", report.RunID).Str("symbol", symbol).
		Int("bars", report.Bars).Int("strategies", len(o.strategies)).
		Msg("starting backtest run")

	for _, s := range o.strategies {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run %s cancelled: %w", report.RunID, err)
		}
		report.Results = append(report.Results, o.runOne(ctx, s, candles, meta))
	}

	report.Elapsed = time.Since(report.StartedAt)
	return report, nil
}

func (o *Orchestrator) runOne(ctx context.Context, s strategy.Strategy,
	candles []candle.Candle, meta instrument.Meta,
) (res StrategyResult) {
	res.Name = s.Name()
	res.Params = s.Params()

	defer func() {
		if rec := recover(); rec != nil {
			res.Err = fmt.Errorf("strategy %s panicked: %v", res.Name, rec)
			o.log.Error().Str("strategy", res.Name).Interface("panic", rec).Msg("strategy panicked")
		}
	}()

	if err := s.Prepare(candles, meta, o.cfg); err != nil {
		res.Err = fmt.Errorf("prepare %s: %w", res.Name, err)
		o.log.Error().Err(err).Str("strategy", res.Name).Msg("prepare failed")
		return res
	}

	signals, err := s.GenerateSignals()
	if err != nil {
		res.Err = fmt.Errorf("generate signals for %s: %w", res.Name, err)
		o.log.Error().Err(err).Str("strategy", res.Name).Msg("signal generation failed")
		return res
	}

	trades, err := o.engine.Run(ctx, candles, signals, meta, o.cfg)
	if err != nil {
		res.Err = fmt.Errorf("simulate %s: %w", res.Name, err)
		o.log.Error().Err(err).Str("strategy", res.Name).Msg("simulation failed")
		return res
	}

	res.Trades = trades
	res.Metrics = perf.Analyze(trades, o.cfg.InitialCapital)
	o.log.Info().Str("strategy", res.Name).Int("trades", len(trades)).
		Float64("total_return", res.Metrics.TotalReturn).Msg("strategy finished")
	return res
}

// Summary renders a per-strategy results table. Figures are rounded for
// display only; the report keeps full precision.
func (r *RunReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s  %s  %d bars  %s .. %s\n",
		r.RunID, r.Symbol, r.Bars,
		r.Start.Format("2006-01-02 15:04"), r.End.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "%-24s %8s %8s %8s %8s %12s %12s %8s\n",
		"STRATEGY", "TRADES", "WINRATE", "PF", "SHARPE", "RETURN", "DRAWDOWN", "CAGR")

	for _, res := range r.Results {
		if res.Err != nil {
			fmt.Fprintf(&b, "%-24s FAILED: %v\n", res.Name, res.Err)
			continue
		}
		m := res.Metrics
		fmt.Fprintf(&b, "%-24s %8d %7s%% %8s %8s %12s %12s %7s%%\n",
			res.Name,
			m.TotalTrades,
			round(m.WinRate*100, 1),
			round(m.ProfitFactor, 2),
			round(m.SharpeRatio, 2),
			round(m.TotalReturn, 2),
			round(m.MaxDrawdown, 2),
			round(m.CAGR*100, 2),
		)
	}
	return b.String()
}

func round(v float64, places int32) string {
	return decimal.NewFromFloat(v).Round(places).String()
}
