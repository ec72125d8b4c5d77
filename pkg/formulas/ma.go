package formulas

import (
	"github.com/markcheno/go-talib"
)

// SMA calculates the simple moving average over the trailing window.
//
// Args:
//   closes: Array of closing prices
//   length: Averaging window
//
// Returns:
//   Current SMA value or nil if insufficient data
func SMA(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length {
		return nil
	}

	sma := talib.Sma(closes, length)
	if len(sma) > 0 && !isNaN(sma[len(sma)-1]) {
		result := sma[len(sma)-1]
		return &result
	}

	return nil
}

// EMA calculates the exponential moving average over the trailing window.
func EMA(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length {
		return nil
	}

	ema := talib.Ema(closes, length)
	if len(ema) > 0 && !isNaN(ema[len(ema)-1]) {
		result := ema[len(ema)-1]
		return &result
	}

	return nil
}
