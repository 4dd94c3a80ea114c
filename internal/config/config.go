// Package config assembles the runtime configuration from defaults, an
// optional YAML file, environment variables, and command-line flags, in
// that order of precedence (flags win).
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/amirphl/ict-trader/internal/risk"
	"github.com/amirphl/ict-trader/internal/session"
	"github.com/amirphl/ict-trader/internal/tfutils"
)

/*
YAML config example:

symbol: "ES=F"
timeframe: "5m"
from: "2024-01-02"
to: "2024-06-28"
strategies: ["silver-bullet", "session-breakout"]
session_zone: "America/New_York"
log_level: "info"
risk:
  initial_capital: 100000
  risk_per_trade: 0.01
  commission: 2.0
  slippage_ticks: 0.5
  max_positions: 5
  max_daily_loss: 0.05
  min_risk_reward: 1.0
*/

const dateLayout = "2006-01-02"

type Config struct {
	Symbol      string      `yaml:"symbol"`
	Timeframe   string      `yaml:"timeframe"`
	From        time.Time   `yaml:"-"`
	To          time.Time   `yaml:"-"`
	FromStr     string      `yaml:"from"`
	ToStr       string      `yaml:"to"`
	Strategies  []string    `yaml:"strategies"`
	SessionZone string      `yaml:"session_zone"`
	LogLevel    string      `yaml:"log_level"`
	ProxyURL    string      `yaml:"proxy_url"`
	Risk        risk.Config `yaml:"risk"`
}

// envOverrides are the environment-variable knobs, prefixed ICT_
// (ICT_PROXY_URL, ICT_LOG_LEVEL). Secrets and host-specific settings live
// here rather than in the YAML file.
type envOverrides struct {
	ProxyURL string `envconfig:"PROXY_URL"`
	LogLevel string `envconfig:"LOG_LEVEL"`
}

// Default returns the configuration used when nothing is overridden: the
// last 90 days of ES futures on 5 minute bars.
func Default() Config {
	now := time.Now().UTC().Truncate(24 * time.Hour)
	return Config{
		Symbol:      "ES=F",
		Timeframe:   "5m",
		From:        now.AddDate(0, -3, 0),
		To:          now,
		Strategies:  []string{"silver-bullet"},
		SessionZone: session.DefaultZone,
		LogLevel:    "info",
		Risk:        risk.Default(),
	}
}

// Load builds the configuration from args (e.g. os.Args[1:]). A .env file
// in the working directory is read if present; missing is not an error.
func Load(args []string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	fs := flag.NewFlagSet("ict-trader", flag.ContinueOnError)
	configFile := fs.String("config", "", "Path to YAML config file")
	symbol := fs.String("symbol", cfg.Symbol, "Instrument symbol")
	timeframe := fs.String("timeframe", cfg.Timeframe, "Candle timeframe (1m, 5m, 15m, 30m, 1h, 4h, 1d)")
	from := fs.String("from", cfg.From.Format(dateLayout), "Backtest start date (YYYY-MM-DD)")
	to := fs.String("to", cfg.To.Format(dateLayout), "Backtest end date (YYYY-MM-DD)")
	strategies := fs.String("strategies", strings.Join(cfg.Strategies, ","), "Comma-separated strategies: silver-bullet, session-breakout")
	sessionZone := fs.String("session-zone", cfg.SessionZone, "IANA zone for session windows")
	logLevel := fs.String("log-level", cfg.LogLevel, "Log level: trace, debug, info, warn, error")
	proxyURL := fs.String("proxy", cfg.ProxyURL, "HTTP proxy URL for data downloads")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *configFile != "" {
		if err := cfg.mergeFile(*configFile); err != nil {
			return Config{}, err
		}
	}

	var env envOverrides
	if err := envconfig.Process("ict", &env); err != nil {
		return Config{}, fmt.Errorf("reading environment: %w", err)
	}
	if env.ProxyURL != "" {
		cfg.ProxyURL = env.ProxyURL
	}
	if env.LogLevel != "" {
		cfg.LogLevel = env.LogLevel
	}

	// Explicitly set flags override both the file and the environment.
	var parseErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "symbol":
			cfg.Symbol = *symbol
		case "timeframe":
			cfg.Timeframe = *timeframe
		case "from":
			cfg.From, parseErr = parseDate(*from, parseErr)
		case "to":
			cfg.To, parseErr = parseDate(*to, parseErr)
		case "strategies":
			cfg.Strategies = splitList(*strategies)
		case "session-zone":
			cfg.SessionZone = *sessionZone
		case "log-level":
			cfg.LogLevel = *logLevel
		case "proxy":
			cfg.ProxyURL = *proxyURL
		}
	})
	if parseErr != nil {
		return Config{}, parseErr
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// mergeFile overlays values from a YAML file onto cfg. Only fields present
// in the file are touched.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if c.FromStr != "" {
		if c.From, err = time.Parse(dateLayout, c.FromStr); err != nil {
			return fmt.Errorf("config file from date: %w", err)
		}
	}
	if c.ToStr != "" {
		if c.To, err = time.Parse(dateLayout, c.ToStr); err != nil {
			return fmt.Errorf("config file to date: %w", err)
		}
	}
	return nil
}

// Validate checks the assembled configuration.
func (c Config) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("symbol must not be empty")
	}
	if !tfutils.IsValidTimeframe(c.Timeframe) {
		return fmt.Errorf("unsupported timeframe: %s", c.Timeframe)
	}
	if !c.To.After(c.From) {
		return fmt.Errorf("backtest range %s..%s is empty",
			c.From.Format(dateLayout), c.To.Format(dateLayout))
	}
	if len(c.Strategies) == 0 {
		return fmt.Errorf("at least one strategy is required")
	}
	if _, err := time.LoadLocation(c.SessionZone); err != nil {
		return fmt.Errorf("invalid session zone %s: %w", c.SessionZone, err)
	}
	return c.Risk.Validate()
}

func parseDate(s string, prev error) (time.Time, error) {
	if prev != nil {
		return time.Time{}, prev
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
