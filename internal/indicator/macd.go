package indicator

// MACDResult holds the three MACD series.
type MACDResult struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// Default MACD periods. Custom rules may override them per invocation.
const (
	DefaultMACDFast   = 12
	DefaultMACDSlow   = 26
	DefaultMACDSignal = 9
)

// MACD computes the Moving Average Convergence Divergence:
// line = EMA(fast) - EMA(slow), signal = EMA(signalPeriod) of line,
// histogram = line - signal.
func MACD(values []float64, fast, slow, signalPeriod int) MACDResult {
	fastEMA := EMA(values, fast)
	slowEMA := EMA(values, slow)

	line := make([]float64, len(values))
	for i := range values {
		line[i] = fastEMA[i] - slowEMA[i]
	}

	signal := EMA(line, signalPeriod)

	histogram := make([]float64, len(values))
	for i := range values {
		histogram[i] = line[i] - signal[i]
	}

	return MACDResult{
		Line:      line,
		Signal:    signal,
		Histogram: histogram,
	}
}
