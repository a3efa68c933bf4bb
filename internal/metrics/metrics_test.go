package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge/stratsim/internal/types"
)

const day = int64(86400)

func closedTrade(id int, pnl float64, exitTime int64) types.Trade {
	return types.Trade{
		ID:       id,
		PnL:      pnl,
		ExitTime: exitTime,
		Status:   types.TradeStatusClosed,
	}
}

func TestCalculateEmptyLedger(t *testing.T) {
	report := Calculate(nil, 1000)

	assert.Zero(t, report.TotalTrades)
	assert.Zero(t, report.WinRate)
	assert.Zero(t, report.ProfitFactor)
	assert.InDelta(t, 1000.0, report.FinalBalance, 1e-9)
	assert.Zero(t, report.ProfitPct)
}

func TestCalculateSkipsOpenTrades(t *testing.T) {
	trades := []types.Trade{
		closedTrade(1, 100, day),
		{ID: 2, PnL: 500, ExitTime: 2 * day, Status: types.TradeStatusOpen},
	}

	report := Calculate(trades, 1000)

	assert.Equal(t, 1, report.TotalTrades)
	assert.InDelta(t, 100.0, report.TotalPnL, 1e-9)
	assert.InDelta(t, 1100.0, report.FinalBalance, 1e-9)
}

func TestCalculateCounts(t *testing.T) {
	trades := []types.Trade{
		closedTrade(1, 100, day),
		closedTrade(2, -50, 2*day),
		closedTrade(3, 200, 3*day),
		closedTrade(4, -25, 4*day),
	}

	report := Calculate(trades, 1000)

	assert.Equal(t, 4, report.TotalTrades)
	assert.Equal(t, 2, report.WinningTrades)
	assert.Equal(t, 2, report.LosingTrades)
	assert.InDelta(t, 50.0, report.WinRate, 1e-9)
	assert.InDelta(t, 225.0, report.TotalPnL, 1e-9)
	assert.InDelta(t, 1225.0, report.FinalBalance, 1e-9)
	assert.InDelta(t, 22.5, report.ProfitPct, 1e-9)
	// 300 profit over 75 loss.
	assert.InDelta(t, 4.0, report.ProfitFactor, 1e-9)
	assert.Equal(t, 4, report.TradingDays)
}

func TestProfitFactorEdgeCases(t *testing.T) {
	onlyWins := Calculate([]types.Trade{closedTrade(1, 100, day)}, 1000)
	assert.True(t, math.IsInf(onlyWins.ProfitFactor, 1))

	onlyLosses := Calculate([]types.Trade{closedTrade(1, -100, day)}, 1000)
	assert.Zero(t, onlyLosses.ProfitFactor)
}

func TestMaxDrawdown(t *testing.T) {
	trades := []types.Trade{
		closedTrade(1, 100, day),
		closedTrade(2, -200, 2*day),
		closedTrade(3, 50, 3*day),
	}

	report := Calculate(trades, 1000)

	// Peak 1100, trough 900: 200/1100.
	assert.InDelta(t, 200.0/1100.0*100, report.MaxDrawdownPct, 1e-6)
}

func TestMaxDailyLoss(t *testing.T) {
	trades := []types.Trade{
		closedTrade(1, -100, day),
		closedTrade(2, -100, day+3600),
		closedTrade(3, 300, 2*day),
	}

	report := Calculate(trades, 1000)

	// Day one opens at 1000 and bottoms at 800.
	assert.InDelta(t, 20.0, report.MaxDailyLossPct, 1e-6)
	assert.Equal(t, 2, report.TradingDays)
}

func TestCalculateIsOrderIndependent(t *testing.T) {
	ordered := []types.Trade{
		closedTrade(1, 100, day),
		closedTrade(2, -200, 2*day),
		closedTrade(3, 50, 3*day),
	}
	shuffled := []types.Trade{ordered[2], ordered[0], ordered[1]}

	assert.Equal(t, Calculate(ordered, 1000), Calculate(shuffled, 1000))
}

func TestCalculateIsIdempotent(t *testing.T) {
	trades := []types.Trade{
		closedTrade(1, 100, day),
		closedTrade(2, -50, 2*day),
	}

	first := Calculate(trades, 1000)
	second := Calculate(trades, 1000)

	assert.Equal(t, first, second)
}

func TestChallengeValidatePass(t *testing.T) {
	report := Report{
		ProfitPct:       12,
		MaxDrawdownPct:  4,
		MaxDailyLossPct: 2,
		TradingDays:     10,
	}
	rules := ChallengeRules{
		MinProfitPct:    10,
		MaxDrawdownPct:  10,
		MaxDailyLossPct: 5,
		MinTradingDays:  5,
	}

	result := Validate(report, rules)

	assert.True(t, result.Passed)
	require.Len(t, result.Rules, 4)

	for _, r := range result.Rules {
		assert.True(t, r.Passed, r.Name)
	}
}

func TestChallengeValidateFailures(t *testing.T) {
	rules := ChallengeRules{
		MinProfitPct:    10,
		MaxDrawdownPct:  10,
		MaxDailyLossPct: 5,
		MinTradingDays:  5,
	}

	tests := []struct {
		name   string
		report Report
		failed string
	}{
		{
			name:   "profit short",
			report: Report{ProfitPct: 5, MaxDrawdownPct: 1, MaxDailyLossPct: 1, TradingDays: 10},
			failed: "profit",
		},
		{
			name:   "drawdown breach",
			report: Report{ProfitPct: 12, MaxDrawdownPct: 10, MaxDailyLossPct: 1, TradingDays: 10},
			failed: "drawdown",
		},
		{
			name:   "daily loss breach",
			report: Report{ProfitPct: 12, MaxDrawdownPct: 1, MaxDailyLossPct: 5, TradingDays: 10},
			failed: "daily_loss",
		},
		{
			name:   "too few trading days",
			report: Report{ProfitPct: 12, MaxDrawdownPct: 1, MaxDailyLossPct: 1, TradingDays: 2},
			failed: "trading_days",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := Validate(tc.report, rules)

			assert.False(t, result.Passed)

			for _, r := range result.Rules {
				if r.Name == tc.failed {
					assert.False(t, r.Passed)
				} else {
					assert.True(t, r.Passed, r.Name)
				}
			}
		})
	}
}
