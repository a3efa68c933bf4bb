package strategy

import (
	"github.com/tradeforge/stratsim/internal/indicator"
	"github.com/tradeforge/stratsim/internal/types"
)

// trendFollowing: buy while the close is above the EMA with a volume surge,
// sell while the close drops below the EMA.
type trendFollowing struct{}

// TrendFollowingParams documents the trend_following parameter schema.
type TrendFollowingParams struct {
	Period       int     `json:"period" jsonschema:"title=EMA period,default=20"`
	VolumePeriod int     `json:"volume_period" jsonschema:"title=Volume lookback,default=20"`
	VolumeMult   float64 `json:"volume_mult" jsonschema:"title=Minimum volume ratio,default=1.5"`
}

func (trendFollowing) Generate(candles []types.Candle, spec types.StrategySpec) (SignalSeries, error) {
	if err := requireCandles(candles); err != nil {
		return SignalSeries{}, err
	}

	ema := indicator.EMA(types.Closes(candles), spec.IntParam("period", 20))
	volRatio := indicator.VolumeRatio(types.Volumes(candles), spec.IntParam("volume_period", 20))
	mult := spec.Param("volume_mult", 1.5)

	signals := NewSignalSeries(len(candles))
	for i, c := range candles {
		if !indicator.Valid(ema[i]) {
			continue
		}

		signals.Buy[i] = c.Close > ema[i] && indicator.Valid(volRatio[i]) && volRatio[i] > mult
		signals.Sell[i] = c.Close < ema[i]
	}

	return signals, nil
}

func (trendFollowing) MinBars(spec types.StrategySpec) int {
	period := spec.IntParam("period", 20)
	volumePeriod := spec.IntParam("volume_period", 20)

	if volumePeriod > period {
		return volumePeriod + 1
	}

	return period + 1
}

// donchianBreakout: buy when the close breaks above the previous bar's upper
// channel, sell when it breaks below the previous bar's lower channel. The
// one-bar shift keeps the current bar out of its own breakout level.
type donchianBreakout struct{}

// DonchianBreakoutParams documents the donchian_breakout parameter schema.
type DonchianBreakoutParams struct {
	Period int `json:"period" jsonschema:"title=Channel period,default=20"`
}

func (donchianBreakout) Generate(candles []types.Candle, spec types.StrategySpec) (SignalSeries, error) {
	if err := requireCandles(candles); err != nil {
		return SignalSeries{}, err
	}

	channel := indicator.Donchian(
		types.Highs(candles),
		types.Lows(candles),
		spec.IntParam("period", 20),
	)
	prevUpper := indicator.Shift(channel.Upper, 1)
	prevLower := indicator.Shift(channel.Lower, 1)

	signals := NewSignalSeries(len(candles))
	for i, c := range candles {
		if indicator.Valid(prevUpper[i]) {
			signals.Buy[i] = c.Close > prevUpper[i]
		}

		if indicator.Valid(prevLower[i]) {
			signals.Sell[i] = c.Close < prevLower[i]
		}
	}

	return signals, nil
}

func (donchianBreakout) MinBars(spec types.StrategySpec) int {
	return spec.IntParam("period", 20) + 1
}

// volumeBreakout: buy on a volume surge combined with a price jump, sell when
// the close drops below the rolling low of the prior lookback bars.
type volumeBreakout struct{}

// VolumeBreakoutParams documents the volume_breakout parameter schema.
type VolumeBreakoutParams struct {
	VolumePeriod int     `json:"volume_period" jsonschema:"title=Volume lookback,default=20"`
	VolumeMult   float64 `json:"volume_mult" jsonschema:"title=Minimum volume ratio,default=2"`
	JumpPct      float64 `json:"jump_pct" jsonschema:"title=Minimum close-to-close jump percent,default=1"`
	Lookback     int     `json:"lookback" jsonschema:"title=Exit low lookback,default=10"`
}

func (volumeBreakout) Generate(candles []types.Candle, spec types.StrategySpec) (SignalSeries, error) {
	if err := requireCandles(candles); err != nil {
		return SignalSeries{}, err
	}

	volRatio := indicator.VolumeRatio(types.Volumes(candles), spec.IntParam("volume_period", 20))
	mult := spec.Param("volume_mult", 2)
	jumpPct := spec.Param("jump_pct", 1)

	prevLow := indicator.Shift(indicator.RollingMin(types.Lows(candles), spec.IntParam("lookback", 10)), 1)

	signals := NewSignalSeries(len(candles))
	for i, c := range candles {
		if i > 0 && indicator.Valid(volRatio[i]) && candles[i-1].Close > 0 {
			jump := (c.Close - candles[i-1].Close) / candles[i-1].Close * 100
			signals.Buy[i] = volRatio[i] > mult && jump > jumpPct
		}

		if indicator.Valid(prevLow[i]) {
			signals.Sell[i] = c.Close < prevLow[i]
		}
	}

	return signals, nil
}

func (volumeBreakout) MinBars(spec types.StrategySpec) int {
	volumePeriod := spec.IntParam("volume_period", 20)
	lookback := spec.IntParam("lookback", 10)

	if lookback+1 > volumePeriod {
		return lookback + 2
	}

	return volumePeriod + 1
}
