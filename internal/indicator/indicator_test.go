package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge/stratsim/internal/types"
	"github.com/tradeforge/stratsim/pkg/errors"
)

func TestSMA(t *testing.T) {
	out := SMA([]float64{1, 2, 3, 4, 5}, 3)

	require.Len(t, out, 5)
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 2.0, out[2], 1e-9)
	assert.InDelta(t, 3.0, out[3], 1e-9)
	assert.InDelta(t, 4.0, out[4], 1e-9)
}

func TestSMAInvalidPeriod(t *testing.T) {
	out := SMA([]float64{1, 2, 3}, 0)

	for _, v := range out {
		assert.True(t, math.IsNaN(v))
	}
}

func TestEMA(t *testing.T) {
	out := EMA([]float64{1, 2, 3, 4, 5}, 3)

	// k = 0.5, seeded with the first value.
	expected := []float64{1, 1.5, 2.25, 3.125, 4.0625}
	for i, want := range expected {
		assert.InDelta(t, want, out[i], 1e-9, "index %d", i)
	}
}

func TestRSIPerfectUptrend(t *testing.T) {
	out := RSI([]float64{1, 2, 3, 4, 5, 6}, 3)

	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[2]))
	assert.InDelta(t, 100.0, out[3], 1e-9)
	assert.InDelta(t, 100.0, out[5], 1e-9)
}

func TestRSIPerfectDowntrend(t *testing.T) {
	out := RSI([]float64{6, 5, 4, 3, 2, 1}, 3)

	assert.InDelta(t, 0.0, out[3], 1e-9)
	assert.InDelta(t, 0.0, out[5], 1e-9)
}

func TestRSIShortSeries(t *testing.T) {
	out := RSI([]float64{1, 2, 3}, 14)

	for _, v := range out {
		assert.True(t, math.IsNaN(v))
	}
}

func TestRSIBounds(t *testing.T) {
	values := []float64{44, 44.34, 44.09, 44.15, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84,
		46.08, 45.89, 46.03, 45.61, 46.28, 46.28, 46.00, 46.03, 46.41, 46.22}
	out := RSI(values, 14)

	for i := 15; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i], 0.0)
		assert.LessOrEqual(t, out[i], 100.0)
	}
}

func TestMACDFlatSeries(t *testing.T) {
	flat := make([]float64, 40)
	for i := range flat {
		flat[i] = 100
	}

	result := MACD(flat, DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)

	for i := range flat {
		assert.InDelta(t, 0.0, result.Line[i], 1e-9)
		assert.InDelta(t, 0.0, result.Histogram[i], 1e-9)
	}
}

func TestBollingerConstantSeries(t *testing.T) {
	flat := []float64{50, 50, 50, 50, 50}
	result := BollingerBands(flat, 3, 2.0)

	for i := 2; i < len(flat); i++ {
		assert.InDelta(t, 50.0, result.Middle[i], 1e-9)
		assert.InDelta(t, 50.0, result.Upper[i], 1e-9)
		assert.InDelta(t, 50.0, result.Lower[i], 1e-9)
	}
}

func TestBollingerBandOrdering(t *testing.T) {
	values := []float64{10, 12, 11, 14, 13, 16, 15, 18, 17, 20}
	result := BollingerBands(values, 5, 2.0)

	for i := 4; i < len(values); i++ {
		assert.GreaterOrEqual(t, result.Upper[i], result.Middle[i])
		assert.LessOrEqual(t, result.Lower[i], result.Middle[i])
	}
}

func TestDonchian(t *testing.T) {
	highs := []float64{1, 3, 2, 5}
	lows := []float64{0, 1, 1, 2}

	result := Donchian(highs, lows, 2)

	assert.True(t, math.IsNaN(result.Upper[0]))
	assert.InDelta(t, 3.0, result.Upper[1], 1e-9)
	assert.InDelta(t, 3.0, result.Upper[2], 1e-9)
	assert.InDelta(t, 5.0, result.Upper[3], 1e-9)
	assert.InDelta(t, 0.0, result.Lower[1], 1e-9)
	assert.InDelta(t, 1.0, result.Lower[3], 1e-9)
}

func TestStochastic(t *testing.T) {
	highs := []float64{10, 10, 10}
	lows := []float64{0, 0, 0}
	closes := []float64{5, 7.5, 10}

	result := Stochastic(highs, lows, closes, 2)

	assert.True(t, math.IsNaN(result.K[0]))
	assert.InDelta(t, 75.0, result.K[1], 1e-9)
	assert.InDelta(t, 100.0, result.K[2], 1e-9)
}

func TestStochasticFlatRange(t *testing.T) {
	flat := []float64{10, 10, 10, 10}

	result := Stochastic(flat, flat, flat, 2)

	for i := 1; i < len(flat); i++ {
		assert.InDelta(t, 50.0, result.K[i], 1e-9)
	}
}

func TestTrueRangeFirstBar(t *testing.T) {
	out := TrueRange([]float64{10, 12}, []float64{8, 9}, []float64{9, 11})

	assert.InDelta(t, 2.0, out[0], 1e-9)
	// max(12-9, |12-9|, |9-9|) = 3.
	assert.InDelta(t, 3.0, out[1], 1e-9)
}

func TestATRNonNegative(t *testing.T) {
	highs := []float64{10, 11, 12, 11, 13}
	lows := []float64{9, 10, 10, 9, 11}
	closes := []float64{9.5, 10.5, 11, 10, 12}

	out := ATR(highs, lows, closes, 3)

	for i := 2; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i], 0.0)
	}
}

func TestVolumeRatio(t *testing.T) {
	out := VolumeRatio([]float64{10, 10, 10, 20}, 3)

	assert.True(t, math.IsNaN(out[0]))
	assert.InDelta(t, 1.0, out[2], 1e-9)
	// 20 / mean(10, 10, 20) = 1.5.
	assert.InDelta(t, 1.5, out[3], 1e-9)
}

func TestVolumeRatioZeroMean(t *testing.T) {
	out := VolumeRatio([]float64{0, 0, 0}, 3)

	assert.InDelta(t, 0.0, out[2], 1e-9)
}

func TestZScoreFlatSeries(t *testing.T) {
	out := ZScore([]float64{5, 5, 5, 5}, 3)

	assert.InDelta(t, 0.0, out[2], 1e-9)
	assert.InDelta(t, 0.0, out[3], 1e-9)
}

func TestShift(t *testing.T) {
	out := Shift([]float64{1, 2, 3}, 1)

	assert.True(t, math.IsNaN(out[0]))
	assert.InDelta(t, 1.0, out[1], 1e-9)
	assert.InDelta(t, 2.0, out[2], 1e-9)
}

func TestComputeUnknownKind(t *testing.T) {
	candles := makeCandles([]float64{1, 2, 3})

	_, err := Compute(Kind("not_a_thing"), candles, 14)

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeIndicatorNotFound))
}

func TestComputeWarmupPrefix(t *testing.T) {
	candles := makeCandles([]float64{1, 2, 3, 4, 5, 6})

	out, err := Compute(KindSMA, candles, 4)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.True(t, math.IsNaN(out[i]), "index %d should be warmup", i)
	}

	for i := 3; i < len(out); i++ {
		assert.True(t, Valid(out[i]), "index %d should be computed", i)
	}
}

func TestComputePriceKinds(t *testing.T) {
	candles := []types.Candle{
		{Time: 1, Open: 1, High: 4, Low: 0.5, Close: 2, Volume: 100},
		{Time: 2, Open: 2, High: 5, Low: 1.5, Close: 3, Volume: 200},
	}

	tests := []struct {
		kind Kind
		want []float64
	}{
		{KindClose, []float64{2, 3}},
		{KindOpen, []float64{1, 2}},
		{KindHigh, []float64{4, 5}},
		{KindLow, []float64{0.5, 1.5}},
		{KindVolume, []float64{100, 200}},
	}

	for _, tc := range tests {
		out, err := Compute(tc.kind, candles, 0)
		require.NoError(t, err, string(tc.kind))
		assert.Equal(t, tc.want, out, string(tc.kind))
	}
}

func TestKindsSortedAndComplete(t *testing.T) {
	kinds := Kinds()

	require.NotEmpty(t, kinds)

	for i := 1; i < len(kinds); i++ {
		assert.Less(t, string(kinds[i-1]), string(kinds[i]))
	}

	assert.Contains(t, kinds, KindRSI)
	assert.Contains(t, kinds, KindMACDHistogram)
	assert.Contains(t, kinds, KindDonchianUpper)
}

func makeCandles(closes []float64) []types.Candle {
	out := make([]types.Candle, len(closes))
	for i, c := range closes {
		out[i] = types.Candle{
			Time:   int64(i + 1),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1,
		}
	}

	return out
}
