package indicator

// VolumeRatio computes current volume divided by the rolling mean volume over
// the period. A zero rolling mean (dead market) resolves to ratio 0 rather
// than infinity.
func VolumeRatio(volumes []float64, period int) []float64 {
	mean := RollingMean(volumes, period)
	out := nanSeries(len(volumes))

	for i := range volumes {
		if !Valid(mean[i]) {
			continue
		}

		if mean[i] == 0 {
			out[i] = 0
			continue
		}

		out[i] = volumes[i] / mean[i]
	}

	return out
}
