package indicator

// ZScore computes (value - rolling_mean) / rolling_stddev over the period.
// A zero standard deviation (flat series) resolves to 0.
func ZScore(values []float64, period int) []float64 {
	mean := RollingMean(values, period)
	stddev := RollingStdDev(values, period)

	out := nanSeries(len(values))

	for i := range values {
		if !Valid(mean[i]) || !Valid(stddev[i]) {
			continue
		}

		if stddev[i] == 0 {
			out[i] = 0
			continue
		}

		out[i] = (values[i] - mean[i]) / stddev[i]
	}

	return out
}
