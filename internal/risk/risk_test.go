package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"Defaults are valid", func(c *Config) {}, false},
		{"Zero capital", func(c *Config) { c.InitialCapital = 0 }, true},
		{"Zero risk per trade", func(c *Config) { c.RiskPerTrade = 0 }, true},
		{"Risk per trade above one", func(c *Config) { c.RiskPerTrade = 1.5 }, true},
		{"Full risk per trade allowed", func(c *Config) { c.RiskPerTrade = 1.0 }, false},
		{"Negative commission", func(c *Config) { c.Commission = -1 }, true},
		{"Negative slippage", func(c *Config) { c.SlippageTicks = -0.5 }, true},
		{"Zero max positions", func(c *Config) { c.MaxPositions = 0 }, true},
		{"Daily loss above one", func(c *Config) { c.MaxDailyLoss = 2 }, true},
		{"Negative min risk reward", func(c *Config) { c.MinRiskReward = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
