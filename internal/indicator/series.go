// Package indicator implements the technical indicator library. Every
// function is pure and vectorized: it takes one or more numeric series and
// returns a series of the same length, with NaN for positions that lack
// enough history. Callers must treat NaN as "no value"; NaN never satisfies
// a signal condition.
package indicator

import "math"

// NaN is the warmup sentinel used across all indicator series.
var NaN = math.NaN()

// Valid reports whether a series value carries a real computation result.
func Valid(v float64) bool {
	return !math.IsNaN(v)
}

// RollingMax computes the maximum of each trailing window of length period.
func RollingMax(values []float64, period int) []float64 {
	out := nanSeries(len(values))

	for i := period - 1; i < len(values); i++ {
		maxV := values[i-period+1]
		for j := i - period + 2; j <= i; j++ {
			if values[j] > maxV {
				maxV = values[j]
			}
		}

		out[i] = maxV
	}

	return out
}

// RollingMin computes the minimum of each trailing window of length period.
func RollingMin(values []float64, period int) []float64 {
	out := nanSeries(len(values))

	for i := period - 1; i < len(values); i++ {
		minV := values[i-period+1]
		for j := i - period + 2; j <= i; j++ {
			if values[j] < minV {
				minV = values[j]
			}
		}

		out[i] = minV
	}

	return out
}

// RollingMean computes the arithmetic mean of each trailing window.
func RollingMean(values []float64, period int) []float64 {
	out := nanSeries(len(values))

	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}

		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}

	return out
}

// RollingStdDev computes the population standard deviation of each trailing
// window of length period.
func RollingStdDev(values []float64, period int) []float64 {
	out := nanSeries(len(values))

	for i := period - 1; i < len(values); i++ {
		mean := 0.0
		for j := i - period + 1; j <= i; j++ {
			mean += values[j]
		}

		mean /= float64(period)

		variance := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := values[j] - mean
			variance += d * d
		}

		out[i] = math.Sqrt(variance / float64(period))
	}

	return out
}

// Shift moves a series forward by n positions, filling the head with NaN.
// Used by breakout strategies that must compare against the previous bar's
// channel to avoid look-ahead.
func Shift(values []float64, n int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		if i < n {
			out[i] = NaN
		} else {
			out[i] = values[i-n]
		}
	}

	return out
}

// nanSeries allocates a series of the given length pre-filled with NaN.
func nanSeries(length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = NaN
	}

	return out
}
