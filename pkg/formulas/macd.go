package formulas

import (
	"github.com/markcheno/go-talib"
)

// MACDResult holds the three MACD series aligned with the input closes.
// Leading values are NaN until the slow EMA warms up.
type MACDResult struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// CalculateMACD calculates MACD(fast, slow, signal) over a close series.
//
// MACD Formula:
//   Line      = EMA(fast) - EMA(slow)
//   Signal    = EMA(Line, signal)
//   Histogram = Line - Signal
//
// Returns nil if the series is too short for the slow EMA plus signal.
func CalculateMACD(closes []float64, fast, slow, signal int) *MACDResult {
	if len(closes) < slow+signal {
		return nil
	}

	line, sig, hist := talib.Macd(closes, fast, slow, signal)
	if len(line) == 0 {
		return nil
	}

	return &MACDResult{Line: line, Signal: sig, Histogram: hist}
}

// Last returns the most recent line, signal, and histogram values.
// ok is false when any of them is NaN.
func (m *MACDResult) Last() (line, signal, histogram float64, ok bool) {
	n := len(m.Line)
	if n == 0 {
		return 0, 0, 0, false
	}
	line, signal, histogram = m.Line[n-1], m.Signal[n-1], m.Histogram[n-1]
	ok = !isNaN(line) && !isNaN(signal) && !isNaN(histogram)
	return line, signal, histogram, ok
}

// Prev returns the values one bar back, for crossover detection.
func (m *MACDResult) Prev() (line, signal, histogram float64, ok bool) {
	n := len(m.Line)
	if n < 2 {
		return 0, 0, 0, false
	}
	line, signal, histogram = m.Line[n-2], m.Signal[n-2], m.Histogram[n-2]
	ok = !isNaN(line) && !isNaN(signal) && !isNaN(histogram)
	return line, signal, histogram, ok
}

// CalculateOBV calculates the on-balance volume series.
// OBV adds volume on up closes and subtracts it on down closes.
func CalculateOBV(closes, volumes []float64) []float64 {
	if len(closes) == 0 || len(closes) != len(volumes) {
		return nil
	}
	return talib.Obv(closes, volumes)
}
