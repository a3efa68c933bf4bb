package indicator

// StochasticResult holds the %K and %D oscillator series.
type StochasticResult struct {
	K []float64
	D []float64
}

// DefaultStochasticSmoothing is the SMA period applied to %K to produce %D.
const DefaultStochasticSmoothing = 3

// Stochastic computes the stochastic oscillator:
//
//	%K = 100 * (close - rolling_min(low, period)) / (rolling_max(high, period) - rolling_min(low, period))
//	%D = SMA(3) of %K
//
// A flat range (max == min) resolves to the neutral value 50 rather than
// dividing by zero.
func Stochastic(highs, lows, closes []float64, period int) StochasticResult {
	highest := RollingMax(highs, period)
	lowest := RollingMin(lows, period)

	k := nanSeries(len(closes))

	for i := range closes {
		if !Valid(highest[i]) || !Valid(lowest[i]) {
			continue
		}

		rng := highest[i] - lowest[i]
		if rng == 0 {
			k[i] = 50
			continue
		}

		k[i] = 100 * (closes[i] - lowest[i]) / rng
	}

	return StochasticResult{
		K: k,
		D: smaIgnoringNaN(k, DefaultStochasticSmoothing),
	}
}

// smaIgnoringNaN averages trailing windows but yields NaN for any window that
// still contains warmup values.
func smaIgnoringNaN(values []float64, period int) []float64 {
	out := nanSeries(len(values))

	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		ok := true

		for j := i - period + 1; j <= i; j++ {
			if !Valid(values[j]) {
				ok = false
				break
			}

			sum += values[j]
		}

		if ok {
			out[i] = sum / float64(period)
		}
	}

	return out
}
