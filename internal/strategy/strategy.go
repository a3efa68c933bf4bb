// Package strategy maps strategy specs to signal generators. All generators
// are pure: given the same candles and parameters they produce the same
// buy/sell signal series, which is what makes the backtester, the grid-search
// optimizer and the paper-trading driver agree with each other.
package strategy

import (
	"github.com/tradeforge/stratsim/internal/types"
	"github.com/tradeforge/stratsim/pkg/errors"
)

// SignalSeries holds the buy and sell boolean series, index-aligned with the
// candle sequence that produced them. Signals are computed from closed
// candles only; position i never depends on candles after i.
type SignalSeries struct {
	Buy  []bool
	Sell []bool
}

// NewSignalSeries allocates an all-false series of the given length.
func NewSignalSeries(length int) SignalSeries {
	return SignalSeries{
		Buy:  make([]bool, length),
		Sell: make([]bool, length),
	}
}

// Len returns the series length.
func (s SignalSeries) Len() int {
	return len(s.Buy)
}

// Generator produces a signal series for a candle sequence.
//
// All built-in generators evaluate state-based: the signal is true on every
// bar where the condition holds, and the trade simulator's single-position
// rule suppresses redundant triggers. Edge (crossover) semantics are
// available through the cross_up/cross_down rule operators.
type Generator interface {
	// Generate computes the buy/sell series for the candles.
	Generate(candles []types.Candle, spec types.StrategySpec) (SignalSeries, error)
	// MinBars reports the minimum history required before the generator can
	// produce a meaningful last-bar signal for the given parameters.
	MinBars(spec types.StrategySpec) int
}

// GenerateFunc adapts a function plus a warmup rule into a Generator.
type GenerateFunc struct {
	Fn     func(candles []types.Candle, spec types.StrategySpec) (SignalSeries, error)
	Warmup func(spec types.StrategySpec) int
}

// Generate implements Generator.
func (g GenerateFunc) Generate(candles []types.Candle, spec types.StrategySpec) (SignalSeries, error) {
	return g.Fn(candles, spec)
}

// MinBars implements Generator.
func (g GenerateFunc) MinBars(spec types.StrategySpec) int {
	return g.Warmup(spec)
}

// requireCandles is the shared entry guard for every generator.
func requireCandles(candles []types.Candle) error {
	if len(candles) == 0 {
		return errors.New(errors.ErrCodeNoData, "empty candle sequence")
	}

	return nil
}
