// Package metrics computes performance statistics from a closed-trade
// ledger. Every function here is pure: same ledger in, same report out.
package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradeforge/stratsim/internal/types"
)

// Report summarizes one backtest or paper-trading run. Only CLOSED trades
// contribute; a trailing OPEN trade is excluded from realized figures.
type Report struct {
	TotalTrades     int     `json:"total_trades"`
	WinningTrades   int     `json:"winning_trades"`
	LosingTrades    int     `json:"losing_trades"`
	WinRate         float64 `json:"win_rate"`
	ProfitFactor    float64 `json:"profit_factor"`
	TotalPnL        float64 `json:"total_pnl"`
	TotalFees       float64 `json:"total_fees"`
	FinalBalance    float64 `json:"final_balance"`
	ProfitPct       float64 `json:"profit_pct"`
	MaxDrawdownPct  float64 `json:"max_drawdown_pct"`
	MaxDailyLossPct float64 `json:"max_daily_loss_pct"`
	TradingDays     int     `json:"trading_days"`
}

// Calculate builds the report from the ledger. Trades are processed in
// chronological order by exit time; OPEN trades are skipped.
func Calculate(trades []types.Trade, initialBalance float64) Report {
	closed := make([]types.Trade, 0, len(trades))

	for _, t := range trades {
		if t.Status == types.TradeStatusClosed {
			closed = append(closed, t)
		}
	}

	sort.Slice(closed, func(i, j int) bool { return closed[i].ExitTime < closed[j].ExitTime })

	report := Report{FinalBalance: initialBalance}
	if len(closed) == 0 {
		return report
	}

	grossProfit := decimal.Zero
	grossLoss := decimal.Zero
	totalFees := decimal.Zero

	equity := decimal.NewFromFloat(initialBalance)
	peak := equity
	maxDrawdown := decimal.Zero

	days := map[string]dayEquity{}

	for _, t := range closed {
		pnl := decimal.NewFromFloat(t.PnL)
		totalFees = totalFees.Add(decimal.NewFromFloat(t.FeePaid))

		if t.PnL > 0 {
			report.WinningTrades++

			grossProfit = grossProfit.Add(pnl)
		} else if t.PnL < 0 {
			report.LosingTrades++

			grossLoss = grossLoss.Add(pnl.Neg())
		}

		day := time.Unix(t.ExitTime, 0).UTC().Format("2006-01-02")
		open, ok := days[day]

		if !ok {
			open = dayEquity{open: equity, min: equity}
		}

		equity = equity.Add(pnl)

		if equity.LessThan(open.min) {
			open.min = equity
		}

		days[day] = open

		// Realized drawdown against the running high-water mark.
		if equity.GreaterThan(peak) {
			peak = equity
		} else if peak.IsPositive() {
			dd := peak.Sub(equity).Div(peak)
			if dd.GreaterThan(maxDrawdown) {
				maxDrawdown = dd
			}
		}
	}

	report.TotalTrades = len(closed)
	report.WinRate = float64(report.WinningTrades) / float64(len(closed)) * 100
	report.ProfitFactor = profitFactor(grossProfit, grossLoss)
	report.TotalPnL, _ = grossProfit.Sub(grossLoss).Float64()
	report.TotalFees, _ = totalFees.Float64()
	report.FinalBalance, _ = equity.Float64()
	report.MaxDrawdownPct, _ = maxDrawdown.Mul(decimal.NewFromInt(100)).Float64()
	report.TradingDays = len(days)

	if initialBalance > 0 {
		report.ProfitPct = (report.FinalBalance - initialBalance) / initialBalance * 100
	}

	report.MaxDailyLossPct = maxDailyLoss(days)

	return report
}

type dayEquity struct {
	open decimal.Decimal
	min  decimal.Decimal
}

// profitFactor is gross profit over gross loss: +Inf when there are profits
// and no losses, 0 when there is neither.
func profitFactor(grossProfit, grossLoss decimal.Decimal) float64 {
	if grossLoss.IsZero() {
		if grossProfit.IsPositive() {
			return math.Inf(1)
		}

		return 0
	}

	pf, _ := grossProfit.Div(grossLoss).Float64()

	return pf
}

// maxDailyLoss finds the worst (day_open - day_min)/day_open across all
// trading days, as a positive percentage.
func maxDailyLoss(days map[string]dayEquity) float64 {
	worst := decimal.Zero

	for _, d := range days {
		if !d.open.IsPositive() {
			continue
		}

		loss := d.open.Sub(d.min).Div(d.open)
		if loss.GreaterThan(worst) {
			worst = loss
		}
	}

	out, _ := worst.Mul(decimal.NewFromInt(100)).Float64()

	return out
}
