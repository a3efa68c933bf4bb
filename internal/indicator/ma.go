package indicator

// SMA computes the simple moving average of the series: the arithmetic mean
// of the last period values.
func SMA(values []float64, period int) []float64 {
	if period <= 0 {
		return nanSeries(len(values))
	}

	return RollingMean(values, period)
}

// EMA computes the exponential moving average with smoothing factor
// k = 2/(period+1), seeded with the first value of the series. Only the seed
// and the prior value are needed per step, so the same code serves both full
// backtests and bounded sliding windows.
func EMA(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 || len(values) == 0 {
		return out
	}

	k := 2.0 / float64(period+1)

	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}

	return out
}
