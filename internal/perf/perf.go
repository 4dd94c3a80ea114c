// Package perf aggregates completed trades into summary statistics.
package perf

import (
	"math"
	"time"

	"github.com/amirphl/ict-trader/internal/engine"
)

// Metrics summarizes a single backtest run. All currency values are in the
// instrument's quote currency; ratios are unitless.
type Metrics struct {
	TotalTrades     int     `json:"total_trades"`
	Wins            int     `json:"wins"`
	Losses          int     `json:"losses"`
	WinRate         float64 `json:"win_rate"`
	AvgWin          float64 `json:"avg_win"`
	AvgLoss         float64 `json:"avg_loss"` // negative or zero
	ProfitFactor    float64 `json:"profit_factor"`
	Expectancy      float64 `json:"expectancy"`
	SharpeRatio     float64 `json:"sharpe"`
	MaxDrawdown     float64 `json:"max_drawdown"` // peak-to-trough, currency
	TotalReturn     float64 `json:"total_return"`
	PercentReturn   float64 `json:"percent_return"`
	CAGR            float64 `json:"cagr"`
	MaxConsecWins   int     `json:"max_consecutive_wins"`
	MaxConsecLosses int     `json:"max_consecutive_losses"`
}

// Analyze computes run metrics from closed trades. Trades must be in exit
// order, which is how the replay engine emits them. An empty slice yields
// zero metrics rather than an error.
func Analyze(trades []engine.Trade, initialCapital float64) Metrics {
	var m Metrics
	m.TotalTrades = len(trades)
	if len(trades) == 0 {
		return m
	}

	var (
		winSum, lossSum float64
		consecWins      int
		consecLosses    int
		equity          = initialCapital
		peak            = initialCapital
	)
	for _, t := range trades {
		if t.PnL > 0 {
			m.Wins++
			winSum += t.PnL
			consecWins++
			consecLosses = 0
		} else {
			m.Losses++
			lossSum += t.PnL
			consecLosses++
			consecWins = 0
		}
		if consecWins > m.MaxConsecWins {
			m.MaxConsecWins = consecWins
		}
		if consecLosses > m.MaxConsecLosses {
			m.MaxConsecLosses = consecLosses
		}

		equity += t.PnL
		if equity > peak {
			peak = equity
		}
		if dd := peak - equity; dd > m.MaxDrawdown {
			m.MaxDrawdown = dd
		}
	}

	m.WinRate = float64(m.Wins) / float64(m.TotalTrades)
	if m.Wins > 0 {
		m.AvgWin = winSum / float64(m.Wins)
	}
	if m.Losses > 0 {
		m.AvgLoss = lossSum / float64(m.Losses)
	}
	if lossSum != 0 {
		m.ProfitFactor = winSum / -lossSum
	}
	m.Expectancy = m.WinRate*m.AvgWin + (1-m.WinRate)*m.AvgLoss

	// Per-trade Sharpe: mean PnL over its standard deviation.
	mean := (winSum + lossSum) / float64(m.TotalTrades)
	var variance float64
	for _, t := range trades {
		variance += (t.PnL - mean) * (t.PnL - mean)
	}
	if std := math.Sqrt(variance / float64(m.TotalTrades)); std > 0 {
		m.SharpeRatio = mean / std
	}

	m.TotalReturn = winSum + lossSum
	if initialCapital > 0 {
		m.PercentReturn = m.TotalReturn / initialCapital * 100
		m.CAGR = cagr(initialCapital, equity, trades[0].EntryTime, trades[len(trades)-1].ExitTime)
	}
	return m
}

// cagr annualizes the return over the traded span. Spans under a day, or a
// blown account, yield zero.
func cagr(initial, final float64, start, end time.Time) float64 {
	years := end.Sub(start).Hours() / (24 * 365.25)
	if years <= 0 || final <= 0 || initial <= 0 {
		return 0
	}
	return math.Pow(final/initial, 1/years) - 1
}
