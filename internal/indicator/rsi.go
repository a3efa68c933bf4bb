package indicator

// RSI computes Wilder's Relative Strength Index over the given period.
//
//	RS  = avg_gain / avg_loss
//	RSI = 100 - 100/(1+RS)
//
// The first period entries are NaN. When the average loss is zero (perfect
// uptrend or flat price) the value is pinned at 100 rather than dividing by
// zero.
func RSI(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 || len(values) <= period {
		return out
	}

	avgGain := 0.0
	avgLoss := 0.0

	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}

	avgGain /= float64(period)
	avgLoss /= float64(period)

	out[period] = rsiFromAverages(avgGain, avgLoss)

	// Wilder's smoothing for subsequent bars.
	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]

		gain := 0.0
		loss := 0.0

		if change > 0 {
			gain = change
		} else {
			loss = -change
		}

		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)

		out[i] = rsiFromAverages(avgGain, avgLoss)
	}

	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss

	return 100 - 100/(1+rs)
}
