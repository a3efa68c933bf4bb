package indicator

// DonchianResult holds the Donchian channel bounds.
type DonchianResult struct {
	Upper []float64
	Lower []float64
}

// Donchian computes the channel as the rolling max of highs and rolling min
// of lows over the period. Breakout strategies must compare against the
// previous bar's channel (Shift by one) to avoid look-ahead.
func Donchian(highs, lows []float64, period int) DonchianResult {
	return DonchianResult{
		Upper: RollingMax(highs, period),
		Lower: RollingMin(lows, period),
	}
}
