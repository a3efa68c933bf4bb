package strategy

import (
	"github.com/tradeforge/stratsim/internal/indicator"
	"github.com/tradeforge/stratsim/internal/types"
)

// rsiReversal: buy while RSI is below the oversold threshold, sell while RSI
// is above the overbought threshold.
type rsiReversal struct{}

// RSIReversalParams documents the rsi_reversal parameter schema.
type RSIReversalParams struct {
	Period  int     `json:"period" jsonschema:"title=RSI period,default=14"`
	RSIBuy  float64 `json:"rsi_buy" jsonschema:"title=Oversold entry threshold,default=30"`
	RSISell float64 `json:"rsi_sell" jsonschema:"title=Overbought exit threshold,default=70"`
}

func (rsiReversal) Generate(candles []types.Candle, spec types.StrategySpec) (SignalSeries, error) {
	if err := requireCandles(candles); err != nil {
		return SignalSeries{}, err
	}

	rsi := indicator.RSI(types.Closes(candles), spec.IntParam("period", 14))
	buyLevel := spec.Param("rsi_buy", 30)
	sellLevel := spec.Param("rsi_sell", 70)

	signals := NewSignalSeries(len(candles))
	for i := range candles {
		if !indicator.Valid(rsi[i]) {
			continue
		}

		signals.Buy[i] = rsi[i] < buyLevel
		signals.Sell[i] = rsi[i] > sellLevel
	}

	return signals, nil
}

func (rsiReversal) MinBars(spec types.StrategySpec) int {
	return spec.IntParam("period", 14) + 1
}

// bollingerBounce: buy when the bar's low touches the lower band, sell when
// the high touches the upper band.
type bollingerBounce struct{}

// BollingerBounceParams documents the bollinger_bounce parameter schema.
type BollingerBounceParams struct {
	Period     int     `json:"period" jsonschema:"title=Band period,default=20"`
	Multiplier float64 `json:"multiplier" jsonschema:"title=Standard deviation multiplier,default=2"`
}

func (bollingerBounce) Generate(candles []types.Candle, spec types.StrategySpec) (SignalSeries, error) {
	if err := requireCandles(candles); err != nil {
		return SignalSeries{}, err
	}

	bands := indicator.BollingerBands(
		types.Closes(candles),
		spec.IntParam("period", 20),
		spec.Param("multiplier", 2),
	)

	signals := NewSignalSeries(len(candles))
	for i, c := range candles {
		if !indicator.Valid(bands.Upper[i]) || !indicator.Valid(bands.Lower[i]) {
			continue
		}

		signals.Buy[i] = c.Low <= bands.Lower[i]
		signals.Sell[i] = c.High >= bands.Upper[i]
	}

	return signals, nil
}

func (bollingerBounce) MinBars(spec types.StrategySpec) int {
	return spec.IntParam("period", 20)
}

// stochasticRSI: buy while %K is below the buy level, sell while above the
// sell level.
type stochasticRSI struct{}

// StochasticRSIParams documents the stochastic_rsi parameter schema.
type StochasticRSIParams struct {
	Period    int     `json:"period" jsonschema:"title=Stochastic period,default=14"`
	BuyLevel  float64 `json:"buy_level" jsonschema:"title=Oversold entry level,default=20"`
	SellLevel float64 `json:"sell_level" jsonschema:"title=Overbought exit level,default=80"`
}

func (stochasticRSI) Generate(candles []types.Candle, spec types.StrategySpec) (SignalSeries, error) {
	if err := requireCandles(candles); err != nil {
		return SignalSeries{}, err
	}

	stoch := indicator.Stochastic(
		types.Highs(candles),
		types.Lows(candles),
		types.Closes(candles),
		spec.IntParam("period", 14),
	)
	buyLevel := spec.Param("buy_level", 20)
	sellLevel := spec.Param("sell_level", 80)

	signals := NewSignalSeries(len(candles))
	for i := range candles {
		if !indicator.Valid(stoch.K[i]) {
			continue
		}

		signals.Buy[i] = stoch.K[i] < buyLevel
		signals.Sell[i] = stoch.K[i] > sellLevel
	}

	return signals, nil
}

func (stochasticRSI) MinBars(spec types.StrategySpec) int {
	return spec.IntParam("period", 14) + indicator.DefaultStochasticSmoothing
}
