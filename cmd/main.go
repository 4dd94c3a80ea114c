package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/amirphl/ict-trader/internal/backtest"
	"github.com/amirphl/ict-trader/internal/config"
	"github.com/amirphl/ict-trader/internal/data"
	"github.com/amirphl/ict-trader/internal/engine"
	"github.com/amirphl/ict-trader/internal/instrument"
	"github.com/amirphl/ict-trader/internal/session"
	"github.com/amirphl/ict-trader/internal/strategy"
	"github.com/amirphl/ict-trader/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ict-trader: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}

	log := utils.NewConsoleLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	classifier, err := session.NewClassifier(cfg.SessionZone)
	if err != nil {
		return err
	}

	source, err := data.NewHTTPSource(cfg.ProxyURL, log)
	if err != nil {
		return err
	}

	log.Info().Str("symbol", cfg.Symbol).Str("timeframe", cfg.Timeframe).
		Time("from", cfg.From).Time("to", cfg.To).Msg("loading candles")
	candles, err := source.Load(ctx, cfg.Symbol, cfg.Timeframe, cfg.From, cfg.To)
	if err != nil {
		return fmt.Errorf("loading candles: %w", err)
	}

	orch := backtest.New(instrument.NewRegistry(), engine.NewReplay(log), cfg.Risk, log)
	for _, name := range cfg.Strategies {
		s, err := buildStrategy(name, classifier)
		if err != nil {
			return err
		}
		orch.Register(s)
	}

	report, err := orch.Run(ctx, cfg.Symbol, candles)
	if err != nil {
		return err
	}

	fmt.Println(report.Summary())
	for _, res := range report.Results {
		if res.Err != nil {
			log.Error().Err(res.Err).Str("strategy", res.Name).Msg("strategy failed")
		}
	}
	return nil
}

func buildStrategy(name string, classifier *session.Classifier) (strategy.Strategy, error) {
	switch name {
	case "silver-bullet":
		return strategy.NewSilverBullet(classifier), nil
	case "session-breakout":
		return strategy.NewSessionBreakout(classifier), nil
	default:
		return nil, fmt.Errorf("unknown strategy: %s", name)
	}
}
