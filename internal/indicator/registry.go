package indicator

import (
	"sort"

	"github.com/tradeforge/stratsim/internal/types"
	"github.com/tradeforge/stratsim/pkg/errors"
)

// Kind identifies one computable series for rule evaluation. The dispatch
// table below is closed: an unknown kind is an error, never a silent fallback
// to the close price.
type Kind string

const (
	KindClose          Kind = "close"
	KindOpen           Kind = "open"
	KindHigh           Kind = "high"
	KindLow            Kind = "low"
	KindVolume         Kind = "volume"
	KindSMA            Kind = "sma"
	KindEMA            Kind = "ema"
	KindRSI            Kind = "rsi"
	KindMACD           Kind = "macd"
	KindMACDSignal     Kind = "macd_signal"
	KindMACDHistogram  Kind = "macd_histogram"
	KindBollingerUpper Kind = "bb_upper"
	KindBollingerMid   Kind = "bb_middle"
	KindBollingerLower Kind = "bb_lower"
	KindDonchianUpper  Kind = "donchian_upper"
	KindDonchianLower  Kind = "donchian_lower"
	KindStochasticK    Kind = "stoch_k"
	KindStochasticD    Kind = "stoch_d"
	KindATR            Kind = "atr"
	KindVolumeRatio    Kind = "volume_ratio"
	KindZScore         Kind = "zscore"
)

// DefaultBollingerMultiplier is the band width used when a rule references a
// Bollinger series without its own multiplier parameter.
const DefaultBollingerMultiplier = 2.0

type computeFunc func(candles []types.Candle, period int) []float64

var dispatch = map[Kind]computeFunc{
	KindClose:  func(c []types.Candle, _ int) []float64 { return types.Closes(c) },
	KindOpen:   func(c []types.Candle, _ int) []float64 { return opens(c) },
	KindHigh:   func(c []types.Candle, _ int) []float64 { return types.Highs(c) },
	KindLow:    func(c []types.Candle, _ int) []float64 { return types.Lows(c) },
	KindVolume: func(c []types.Candle, _ int) []float64 { return types.Volumes(c) },
	KindSMA:    func(c []types.Candle, p int) []float64 { return SMA(types.Closes(c), p) },
	KindEMA:    func(c []types.Candle, p int) []float64 { return EMA(types.Closes(c), p) },
	KindRSI:    func(c []types.Candle, p int) []float64 { return RSI(types.Closes(c), p) },
	KindMACD: func(c []types.Candle, _ int) []float64 {
		return MACD(types.Closes(c), DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal).Line
	},
	KindMACDSignal: func(c []types.Candle, _ int) []float64 {
		return MACD(types.Closes(c), DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal).Signal
	},
	KindMACDHistogram: func(c []types.Candle, _ int) []float64 {
		return MACD(types.Closes(c), DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal).Histogram
	},
	KindBollingerUpper: func(c []types.Candle, p int) []float64 {
		return BollingerBands(types.Closes(c), p, DefaultBollingerMultiplier).Upper
	},
	KindBollingerMid: func(c []types.Candle, p int) []float64 {
		return BollingerBands(types.Closes(c), p, DefaultBollingerMultiplier).Middle
	},
	KindBollingerLower: func(c []types.Candle, p int) []float64 {
		return BollingerBands(types.Closes(c), p, DefaultBollingerMultiplier).Lower
	},
	KindDonchianUpper: func(c []types.Candle, p int) []float64 {
		return Donchian(types.Highs(c), types.Lows(c), p).Upper
	},
	KindDonchianLower: func(c []types.Candle, p int) []float64 {
		return Donchian(types.Highs(c), types.Lows(c), p).Lower
	},
	KindStochasticK: func(c []types.Candle, p int) []float64 {
		return Stochastic(types.Highs(c), types.Lows(c), types.Closes(c), p).K
	},
	KindStochasticD: func(c []types.Candle, p int) []float64 {
		return Stochastic(types.Highs(c), types.Lows(c), types.Closes(c), p).D
	},
	KindATR: func(c []types.Candle, p int) []float64 {
		return ATR(types.Highs(c), types.Lows(c), types.Closes(c), p)
	},
	KindVolumeRatio: func(c []types.Candle, p int) []float64 {
		return VolumeRatio(types.Volumes(c), p)
	},
	KindZScore: func(c []types.Candle, p int) []float64 {
		return ZScore(types.Closes(c), p)
	},
}

// Compute evaluates the series for the given kind over the candles. Unknown
// kinds return ErrCodeIndicatorNotFound.
func Compute(kind Kind, candles []types.Candle, period int) ([]float64, error) {
	fn, ok := dispatch[kind]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeIndicatorNotFound, "unknown indicator %q", kind)
	}

	return fn(candles, period), nil
}

// Kinds returns all registered indicator kinds in sorted order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(dispatch))
	for k := range dispatch {
		out = append(out, k)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

func opens(candles []types.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Open
	}

	return out
}
