package technicals

import (
	"math"
	"strings"

	"github.com/aristath/stock-scorecard/internal/domain"
	"github.com/aristath/stock-scorecard/pkg/formulas"
	"github.com/aristath/stock-scorecard/pkg/scoring"
)

// detectPatterns runs the chart and candlestick pattern detectors and
// converts the detected biases into a score: 50 plus the mean bias scaled
// by 30, clamped.
func (a *Analyzer) detectPatterns(opens, highs, lows, closes []float64) ([]domain.PatternHit, domain.IndicatorScore) {
	var hits []domain.PatternHit

	if len(closes) >= 30 {
		hits = append(hits, detectDoubleTopBottom(highs, lows, closes)...)
	}
	if len(closes) >= 40 {
		hits = append(hits, detectHeadAndShoulders(highs, lows, closes)...)
	}
	if len(closes) >= 20 {
		hits = append(hits, detectTriangles(highs, lows)...)
	}
	if len(closes) >= 3 {
		hits = append(hits, detectCandlesticks(opens, highs, lows, closes)...)
	}

	if len(hits) == 0 {
		return nil, neutralIndicator("no patterns detected")
	}

	biasSum := 0.0
	names := make([]string, len(hits))
	for i, hit := range hits {
		biasSum += hit.Bias
		names[i] = hit.Name
	}
	score := scoring.Clamp(scoring.NeutralScore + biasSum/float64(len(hits))*30)

	return hits, domain.IndicatorScore{
		Score:   round1(score),
		Signal:  directionFor(score),
		Details: strings.Join(names, ", "),
	}
}

// detectDoubleTopBottom looks for a double top or double bottom in the last
// 60 bars: two pivots within 3% of each other, at least 8 bars apart, with
// the price having broken past the pattern.
func detectDoubleTopBottom(highs, lows, closes []float64) []domain.PatternHit {
	n := len(closes)
	if n > 60 {
		highs, lows, closes = highs[n-60:], lows[n-60:], closes[n-60:]
	}
	price := closes[len(closes)-1]

	tops := pivotHighs(highs, pivotWindow)
	for i := 0; i < len(tops); i++ {
		for j := i + 1; j < len(tops); j++ {
			if tops[j].index-tops[i].index < 8 {
				continue
			}
			avgPeak := (tops[i].value + tops[j].value) / 2
			if avgPeak == 0 {
				continue
			}
			if math.Abs(tops[i].value-tops[j].value)/avgPeak < 0.03 && price < avgPeak*0.97 {
				return []domain.PatternHit{{Name: "Double Top", Bias: -0.6}}
			}
		}
	}

	bottoms := pivotLows(lows, pivotWindow)
	for i := 0; i < len(bottoms); i++ {
		for j := i + 1; j < len(bottoms); j++ {
			if bottoms[j].index-bottoms[i].index < 8 {
				continue
			}
			avgTrough := (bottoms[i].value + bottoms[j].value) / 2
			if avgTrough == 0 {
				continue
			}
			if math.Abs(bottoms[i].value-bottoms[j].value)/avgTrough < 0.03 && price > avgTrough*1.03 {
				return []domain.PatternHit{{Name: "Double Bottom", Bias: 0.6}}
			}
		}
	}

	return nil
}

// detectHeadAndShoulders looks for a head & shoulders or its inverse in the
// last 80 bars: three consecutive pivots with the middle one extreme and
// the shoulders within 5% of each other, price past the neckline.
func detectHeadAndShoulders(highs, lows, closes []float64) []domain.PatternHit {
	n := len(closes)
	if n > 80 {
		highs, lows, closes = highs[n-80:], lows[n-80:], closes[n-80:]
	}
	price := closes[len(closes)-1]

	var hits []domain.PatternHit

	tops := pivotHighs(highs, pivotWindow)
	for i := 0; i+2 < len(tops); i++ {
		left, head, right := tops[i].value, tops[i+1].value, tops[i+2].value
		if head == 0 || left == 0 {
			continue
		}
		if head > left && head > right {
			avgShoulder := (left + right) / 2
			if avgShoulder > 0 && math.Abs(left-right)/avgShoulder < 0.05 && price < avgShoulder {
				hits = append(hits, domain.PatternHit{Name: "Head & Shoulders", Bias: -0.7})
				break
			}
		}
	}

	bottoms := pivotLows(lows, pivotWindow)
	for i := 0; i+2 < len(bottoms); i++ {
		left, head, right := bottoms[i].value, bottoms[i+1].value, bottoms[i+2].value
		if head == 0 || left == 0 {
			continue
		}
		if head < left && head < right {
			avgShoulder := (left + right) / 2
			if avgShoulder > 0 && math.Abs(left-right)/avgShoulder < 0.05 && price > avgShoulder {
				hits = append(hits, domain.PatternHit{Name: "Inverse Head & Shoulders", Bias: 0.7})
				break
			}
		}
	}

	return hits
}

// detectTriangles fits trendlines over the last 40 bars of highs and lows
// and classifies the slope combination as an ascending, descending, or
// symmetrical triangle.
func detectTriangles(highs, lows []float64) []domain.PatternHit {
	n := len(highs)
	if n > 40 {
		highs, lows = highs[n-40:], lows[n-40:]
		n = 40
	}
	if n < 10 {
		return nil
	}

	highSlope := formulas.LinearSlope(highs)
	lowSlope := formulas.LinearSlope(lows)
	highUnit := formulas.Mean(highs) / float64(n)
	lowUnit := formulas.Mean(lows) / float64(n)

	// Flat resistance with rising support
	if math.Abs(highSlope) < 0.05*highUnit && lowSlope > 0.02*lowUnit {
		return []domain.PatternHit{{Name: "Ascending Triangle", Bias: 0.5}}
	}
	// Flat support with falling resistance
	if math.Abs(lowSlope) < 0.05*lowUnit && highSlope < -0.02*highUnit {
		return []domain.PatternHit{{Name: "Descending Triangle", Bias: -0.5}}
	}
	// Converging trendlines, breakout direction uncertain
	if highSlope < -0.01*highUnit && lowSlope > 0.01*lowUnit {
		return []domain.PatternHit{{Name: "Symmetrical Triangle", Bias: 0}}
	}

	return nil
}

// detectCandlesticks inspects the last two candles for engulfing, hammer,
// shooting star, and doji formations.
func detectCandlesticks(opens, highs, lows, closes []float64) []domain.PatternHit {
	n := len(closes)
	if n < 3 {
		return nil
	}

	o1, c1 := opens[n-2], closes[n-2]
	o2, h2, l2, c2 := opens[n-1], highs[n-1], lows[n-1], closes[n-1]
	body1 := math.Abs(c1 - o1)
	body2 := math.Abs(c2 - o2)

	avgBody := body1
	if n >= 20 {
		bodies := make([]float64, 20)
		for i := 0; i < 20; i++ {
			bodies[i] = math.Abs(closes[n-20+i] - opens[n-20+i])
		}
		avgBody = formulas.Mean(bodies)
	}
	if avgBody == 0 {
		return nil
	}

	var hits []domain.PatternHit

	switch {
	case c1 < o1 && c2 > o2 && body2 > body1*1.2 && o2 <= c1 && c2 >= o1:
		hits = append(hits, domain.PatternHit{Name: "Bullish Engulfing", Bias: 0.5})
	case c1 > o1 && c2 < o2 && body2 > body1*1.2 && o2 >= c1 && c2 <= o1:
		hits = append(hits, domain.PatternHit{Name: "Bearish Engulfing", Bias: -0.5})
	}

	lowerShadow := math.Min(o2, c2) - l2
	upperShadow := h2 - math.Max(o2, c2)

	if body2 > 0 && lowerShadow > body2*2 && upperShadow < body2*0.5 {
		if n >= 10 && c2 < formulas.Mean(closes[n-10:]) {
			hits = append(hits, domain.PatternHit{Name: "Hammer", Bias: 0.4})
		}
	}

	if body2 > 0 && upperShadow > body2*2 && lowerShadow < body2*0.5 {
		if n >= 10 && c2 > formulas.Mean(closes[n-10:]) {
			hits = append(hits, domain.PatternHit{Name: "Shooting Star", Bias: -0.4})
		}
	}

	if body2 < avgBody*0.1 && h2-l2 > avgBody*0.5 {
		hits = append(hits, domain.PatternHit{Name: "Doji", Bias: 0})
	}

	return hits
}
