package types

import (
	"math"
	"time"

	"github.com/tradeforge/stratsim/pkg/errors"
)

// Candle is a single OHLCV price bar. Candles are read-only inputs to the
// engine; Time is unique and strictly increasing within a series.
type Candle struct {
	// Time is the bar open time in seconds since epoch.
	Time   int64   `csv:"time" json:"time"`
	Open   float64 `csv:"open" json:"open"`
	High   float64 `csv:"high" json:"high"`
	Low    float64 `csv:"low" json:"low"`
	Close  float64 `csv:"close" json:"close"`
	Volume float64 `csv:"volume" json:"volume"`
}

// Timestamp returns the candle time as a time.Time in UTC.
func (c Candle) Timestamp() time.Time {
	return time.Unix(c.Time, 0).UTC()
}

// Day returns the UTC calendar day of the candle, used for daily-loss grouping.
func (c Candle) Day() string {
	return c.Timestamp().Format("2006-01-02")
}

// ValidateCandles checks that a candle series is non-empty, strictly ordered
// by time and contains only non-negative finite values.
func ValidateCandles(candles []Candle) error {
	if len(candles) == 0 {
		return errors.New(errors.ErrCodeNoData, "empty candle sequence")
	}

	for i, c := range candles {
		if i > 0 && c.Time <= candles[i-1].Time {
			return errors.Newf(errors.ErrCodeInvalidCandles,
				"candle time not strictly increasing at index %d (%d <= %d)", i, c.Time, candles[i-1].Time)
		}

		for _, v := range []float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return errors.Newf(errors.ErrCodeInvalidCandles,
					"candle at index %d contains non-finite or negative value", i)
			}
		}
	}

	return nil
}

// Closes extracts the close price series.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}

	return out
}

// Highs extracts the high price series.
func Highs(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High
	}

	return out
}

// Lows extracts the low price series.
func Lows(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low
	}

	return out
}

// Volumes extracts the volume series.
func Volumes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}

	return out
}
