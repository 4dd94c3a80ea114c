// Package risk
package risk

import "fmt"

// Config holds the risk limits applied to every trade in a run. It is
// immutable for the duration of a backtest and is passed by value.
type Config struct {
	InitialCapital float64 `yaml:"initial_capital"`
	RiskPerTrade   float64 `yaml:"risk_per_trade"` // fraction of equity, (0,1]
	Commission     float64 `yaml:"commission"`     // currency per round trip
	SlippageTicks  float64 `yaml:"slippage_ticks"`
	MaxPositions   int     `yaml:"max_positions"`
	MaxDailyLoss   float64 `yaml:"max_daily_loss"` // fraction of equity, (0,1]
	MinRiskReward  float64 `yaml:"min_risk_reward"`
}

// Default returns the standard risk profile: 1% risk per trade, 5% max
// daily loss, 1:1 minimum risk reward.
func Default() Config {
	return Config{
		InitialCapital: 100000.0,
		RiskPerTrade:   0.01,
		Commission:     2.0,
		SlippageTicks:  0.5,
		MaxPositions:   5,
		MaxDailyLoss:   0.05,
		MinRiskReward:  1.0,
	}
}

// Validate checks all limits are in range.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive, got %.2f", c.InitialCapital)
	}
	if c.RiskPerTrade <= 0 || c.RiskPerTrade > 1 {
		return fmt.Errorf("risk per trade must be in (0,1], got %.4f", c.RiskPerTrade)
	}
	if c.Commission < 0 {
		return fmt.Errorf("commission cannot be negative, got %.2f", c.Commission)
	}
	if c.SlippageTicks < 0 {
		return fmt.Errorf("slippage ticks cannot be negative, got %.2f", c.SlippageTicks)
	}
	if c.MaxPositions < 1 {
		return fmt.Errorf("max positions must be at least 1, got %d", c.MaxPositions)
	}
	if c.MaxDailyLoss <= 0 || c.MaxDailyLoss > 1 {
		return fmt.Errorf("max daily loss must be in (0,1], got %.4f", c.MaxDailyLoss)
	}
	if c.MinRiskReward < 0 {
		return fmt.Errorf("min risk reward cannot be negative, got %.2f", c.MinRiskReward)
	}
	return nil
}
