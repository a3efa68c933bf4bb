package indicator

import "math"

// TrueRange computes the per-bar true range:
// max(high-low, |high-prevClose|, |low-prevClose|). The first bar falls back
// to high-low since there is no previous close.
func TrueRange(highs, lows, closes []float64) []float64 {
	out := make([]float64, len(closes))

	for i := range closes {
		hl := highs[i] - lows[i]
		if i == 0 {
			out[i] = hl
			continue
		}

		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		out[i] = math.Max(hl, math.Max(hc, lc))
	}

	return out
}

// ATR computes the Average True Range as the rolling mean of the true range
// over the period.
func ATR(highs, lows, closes []float64, period int) []float64 {
	return RollingMean(TrueRange(highs, lows, closes), period)
}
