package strategy

import (
	"github.com/tradeforge/stratsim/internal/indicator"
	"github.com/tradeforge/stratsim/internal/types"
)

// goldenCross: buy while EMA(fast) > EMA(slow), sell while EMA(fast) < EMA(slow).
type goldenCross struct{}

// GoldenCrossParams documents the golden_cross parameter schema.
type GoldenCrossParams struct {
	Fast int `json:"fast" jsonschema:"title=Fast EMA period,default=10"`
	Slow int `json:"slow" jsonschema:"title=Slow EMA period,default=50"`
}

func (goldenCross) Generate(candles []types.Candle, spec types.StrategySpec) (SignalSeries, error) {
	if err := requireCandles(candles); err != nil {
		return SignalSeries{}, err
	}

	fast := spec.IntParam("fast", 10)
	slow := spec.IntParam("slow", 50)
	closes := types.Closes(candles)

	fastEMA := indicator.EMA(closes, fast)
	slowEMA := indicator.EMA(closes, slow)

	signals := NewSignalSeries(len(candles))
	for i := range candles {
		if !indicator.Valid(fastEMA[i]) || !indicator.Valid(slowEMA[i]) {
			continue
		}

		signals.Buy[i] = fastEMA[i] > slowEMA[i]
		signals.Sell[i] = fastEMA[i] < slowEMA[i]
	}

	return signals, nil
}

func (goldenCross) MinBars(spec types.StrategySpec) int {
	return spec.IntParam("slow", 50) + 1
}

// macdCrossover: buy while MACD line > signal line, sell while below.
type macdCrossover struct{}

// MACDCrossoverParams documents the macd_crossover parameter schema.
type MACDCrossoverParams struct {
	Fast   int `json:"fast" jsonschema:"title=Fast EMA period,default=12"`
	Slow   int `json:"slow" jsonschema:"title=Slow EMA period,default=26"`
	Signal int `json:"signal" jsonschema:"title=Signal EMA period,default=9"`
}

func (macdCrossover) Generate(candles []types.Candle, spec types.StrategySpec) (SignalSeries, error) {
	if err := requireCandles(candles); err != nil {
		return SignalSeries{}, err
	}

	macd := indicator.MACD(
		types.Closes(candles),
		spec.IntParam("fast", indicator.DefaultMACDFast),
		spec.IntParam("slow", indicator.DefaultMACDSlow),
		spec.IntParam("signal", indicator.DefaultMACDSignal),
	)

	signals := NewSignalSeries(len(candles))
	for i := range candles {
		if !indicator.Valid(macd.Line[i]) || !indicator.Valid(macd.Signal[i]) {
			continue
		}

		signals.Buy[i] = macd.Line[i] > macd.Signal[i]
		signals.Sell[i] = macd.Line[i] < macd.Signal[i]
	}

	return signals, nil
}

func (macdCrossover) MinBars(spec types.StrategySpec) int {
	return spec.IntParam("slow", indicator.DefaultMACDSlow) + spec.IntParam("signal", indicator.DefaultMACDSignal) + 1
}

// emaRSICombo: golden cross gated by an RSI strength filter on the buy side.
type emaRSICombo struct{}

// EMARSIComboParams documents the ema_rsi_combo parameter schema.
type EMARSIComboParams struct {
	Fast      int     `json:"fast" jsonschema:"title=Fast EMA period,default=9"`
	Slow      int     `json:"slow" jsonschema:"title=Slow EMA period,default=21"`
	RSIPeriod int     `json:"rsi_period" jsonschema:"title=RSI period,default=14"`
	RSIFilter float64 `json:"rsi_filter" jsonschema:"title=Minimum RSI to confirm entry,default=50"`
}

func (emaRSICombo) Generate(candles []types.Candle, spec types.StrategySpec) (SignalSeries, error) {
	if err := requireCandles(candles); err != nil {
		return SignalSeries{}, err
	}

	closes := types.Closes(candles)
	fastEMA := indicator.EMA(closes, spec.IntParam("fast", 9))
	slowEMA := indicator.EMA(closes, spec.IntParam("slow", 21))
	rsi := indicator.RSI(closes, spec.IntParam("rsi_period", 14))
	filter := spec.Param("rsi_filter", 50)

	signals := NewSignalSeries(len(candles))
	for i := range candles {
		if !indicator.Valid(fastEMA[i]) || !indicator.Valid(slowEMA[i]) {
			continue
		}

		signals.Buy[i] = fastEMA[i] > slowEMA[i] && indicator.Valid(rsi[i]) && rsi[i] > filter
		signals.Sell[i] = fastEMA[i] < slowEMA[i]
	}

	return signals, nil
}

func (emaRSICombo) MinBars(spec types.StrategySpec) int {
	slow := spec.IntParam("slow", 21)
	rsiPeriod := spec.IntParam("rsi_period", 14)

	if rsiPeriod >= slow {
		return rsiPeriod + 1
	}

	return slow + 1
}

// macdRSICombo: MACD crossover gated by an RSI confirmation on the buy side.
type macdRSICombo struct{}

// MACDRSIComboParams documents the macd_rsi_combo parameter schema.
type MACDRSIComboParams struct {
	Fast       int     `json:"fast" jsonschema:"title=Fast EMA period,default=12"`
	Slow       int     `json:"slow" jsonschema:"title=Slow EMA period,default=26"`
	Signal     int     `json:"signal" jsonschema:"title=Signal EMA period,default=9"`
	RSIPeriod  int     `json:"rsi_period" jsonschema:"title=RSI period,default=14"`
	RSIConfirm float64 `json:"rsi_confirm" jsonschema:"title=Minimum RSI to confirm entry,default=50"`
}

func (macdRSICombo) Generate(candles []types.Candle, spec types.StrategySpec) (SignalSeries, error) {
	if err := requireCandles(candles); err != nil {
		return SignalSeries{}, err
	}

	closes := types.Closes(candles)
	macd := indicator.MACD(
		closes,
		spec.IntParam("fast", indicator.DefaultMACDFast),
		spec.IntParam("slow", indicator.DefaultMACDSlow),
		spec.IntParam("signal", indicator.DefaultMACDSignal),
	)
	rsi := indicator.RSI(closes, spec.IntParam("rsi_period", 14))
	confirm := spec.Param("rsi_confirm", 50)

	signals := NewSignalSeries(len(candles))
	for i := range candles {
		if !indicator.Valid(macd.Line[i]) || !indicator.Valid(macd.Signal[i]) {
			continue
		}

		signals.Buy[i] = macd.Line[i] > macd.Signal[i] && indicator.Valid(rsi[i]) && rsi[i] > confirm
		signals.Sell[i] = macd.Line[i] < macd.Signal[i]
	}

	return signals, nil
}

func (macdRSICombo) MinBars(spec types.StrategySpec) int {
	return spec.IntParam("slow", indicator.DefaultMACDSlow) + spec.IntParam("signal", indicator.DefaultMACDSignal) + 1
}
