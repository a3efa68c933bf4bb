package types

import (
	"github.com/shopspring/decimal"
)

// TradeStatus marks whether a trade has been closed out.
type TradeStatus string

const (
	TradeStatusOpen   TradeStatus = "OPEN"
	TradeStatusClosed TradeStatus = "CLOSED"
)

// Trade is one round trip (or a still-open entry) produced by the simulator.
// A CLOSED trade is immutable; an OPEN trade carries provisional exit fields
// recomputed against the latest candle until a real exit occurs.
type Trade struct {
	// ID is the sequence number of the trade within one run, starting at 1.
	ID int `csv:"id" json:"id"`
	// OrderID is a globally unique id for cross-referencing persisted sessions.
	OrderID    string  `csv:"order_id" json:"order_id"`
	EntryPrice float64 `csv:"entry_price" json:"entry_price"`
	EntryTime  int64   `csv:"entry_time" json:"entry_time"`
	ExitPrice  float64 `csv:"exit_price" json:"exit_price"`
	ExitTime   int64   `csv:"exit_time" json:"exit_time"`
	// Size is the monetary amount committed at entry.
	Size    float64     `csv:"size" json:"size"`
	FeePaid float64     `csv:"fee_paid" json:"fee_paid"`
	PnL     float64     `csv:"pnl" json:"pnl"`
	PnLPct  float64     `csv:"pnl_pct" json:"pnl_pct"`
	Status  TradeStatus `csv:"status" json:"status"`
}

// IsWin reports whether a closed trade realized a positive PnL.
func (t Trade) IsWin() bool {
	return t.Status == TradeStatusClosed && t.PnL > 0
}

// Position is the single open long position of a simulator run or a
// paper-trading session. Size is the monetary amount committed.
type Position struct {
	EntryPrice float64 `json:"entry_price"`
	EntryTime  int64   `json:"entry_time"`
	Size       float64 `json:"size"`
}

// IsOpen reports whether the position holds a meaningful size.
func (p Position) IsOpen() bool {
	return p.Size > PositionEpsilon
}

// EquityPoint is one sample of the account equity curve. Derived from the
// trade ledger plus candle prices, never stored independently.
type EquityPoint struct {
	Timestamp     int64   `csv:"timestamp" json:"timestamp"`
	Balance       float64 `csv:"balance" json:"balance"`
	HoldingsValue float64 `csv:"holdings_value" json:"holdings_value"`
	TotalValue    float64 `csv:"total_value" json:"total_value"`
}

// SettlePnL computes the realized profit of a round trip using the
// both-legs fee convention: the effective entry price is inflated by the fee
// rate and the effective exit price deflated by it.
//
//	entryEff = entry * (1 + fee)
//	exitEff  = exit  * (1 - fee)
//	pnl      = size * (exitEff/entryEff - 1)
//	pnlPct   = (exitEff - entryEff) / entryEff * 100
//
// Settlement uses decimal arithmetic to keep results stable across the
// backtester, optimizer and paper-trading paths.
func SettlePnL(entryPrice, exitPrice, size, feeRate float64) (pnl, pnlPct float64) {
	one := decimal.NewFromInt(1)
	fee := decimal.NewFromFloat(feeRate)

	entryEff := decimal.NewFromFloat(entryPrice).Mul(one.Add(fee))
	exitEff := decimal.NewFromFloat(exitPrice).Mul(one.Sub(fee))

	if entryEff.IsZero() {
		return 0, 0
	}

	ratio := exitEff.Div(entryEff)
	pnl, _ = decimal.NewFromFloat(size).Mul(ratio.Sub(one)).Float64()
	pnlPct, _ = ratio.Sub(one).Mul(decimal.NewFromInt(100)).Float64()

	return pnl, pnlPct
}
