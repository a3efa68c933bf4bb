package indicator

// BollingerResult holds the three Bollinger Band series.
type BollingerResult struct {
	Middle []float64
	Upper  []float64
	Lower  []float64
}

// BollingerBands computes the middle band as SMA(period) and the upper/lower
// bands at middle ± multiplier·stddev(period).
func BollingerBands(values []float64, period int, multiplier float64) BollingerResult {
	middle := SMA(values, period)
	stddev := RollingStdDev(values, period)

	upper := make([]float64, len(values))
	lower := make([]float64, len(values))

	for i := range values {
		upper[i] = middle[i] + multiplier*stddev[i]
		lower[i] = middle[i] - multiplier*stddev[i]
	}

	return BollingerResult{
		Middle: middle,
		Upper:  upper,
		Lower:  lower,
	}
}
