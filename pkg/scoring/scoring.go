// Package scoring provides the shared scoring primitives: piecewise-linear
// interpolation, weighted averages with missing-metric weight redistribution,
// and the grade/signal conversion tables.
package scoring

import "math"

// Breakpoint is one (input value, score) pair of an ascending interpolation table.
type Breakpoint struct {
	Value float64
	Score float64
}

// NeutralScore is returned when a value or table cannot be scored.
const NeutralScore = 50.0

// Interpolate maps value onto a score via linear interpolation between
// breakpoints. Values outside the table clamp to the boundary scores.
// NaN/Inf anywhere yields the neutral score; the function never fails.
func Interpolate(value float64, breakpoints []Breakpoint) float64 {
	if len(breakpoints) == 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return NeutralScore
	}
	for _, bp := range breakpoints {
		if math.IsNaN(bp.Value) || math.IsInf(bp.Value, 0) || math.IsNaN(bp.Score) || math.IsInf(bp.Score, 0) {
			return NeutralScore
		}
	}

	if value <= breakpoints[0].Value {
		return breakpoints[0].Score
	}
	if value >= breakpoints[len(breakpoints)-1].Value {
		return breakpoints[len(breakpoints)-1].Score
	}

	for i := 0; i < len(breakpoints)-1; i++ {
		v1, s1 := breakpoints[i].Value, breakpoints[i].Score
		v2, s2 := breakpoints[i+1].Value, breakpoints[i+1].Score
		if v1 <= value && value <= v2 {
			if v2 == v1 {
				return s1
			}
			t := (value - v1) / (v2 - v1)
			return round1(s1 + t*(s2-s1))
		}
	}

	return NeutralScore
}

// WeightedMetric pairs a metric's score with its base weight. Available
// reports whether the metric carries real data: a zero score with no value
// marks a missing metric, which must not be treated as a real zero.
type WeightedMetric struct {
	Value  *float64
	Score  float64
	Weight float64
}

// Available reports whether the metric should participate in averages.
func (m WeightedMetric) Available() bool {
	return m.Value != nil || m.Score > 0
}

// WeightedAverage computes the weighted average score, redistributing the
// weight of missing metrics proportionally among the available ones.
// Returns 0 when no metric is available; callers must treat 0 as "no data",
// not as a valid low score.
func WeightedAverage(items []WeightedMetric) float64 {
	totalWeight := 0.0
	for _, m := range items {
		if m.Available() {
			totalWeight += m.Weight
		}
	}
	if totalWeight == 0 {
		return 0
	}

	sum := 0.0
	for _, m := range items {
		if m.Available() {
			sum += m.Score * (m.Weight / totalWeight)
		}
	}
	return sum
}

// Grade converts a 0-100 score to a letter grade. Centered so 50 sits in the
// C range: A = great, B = pretty good, C = ok, D = not good, F = stay clear.
func Grade(score float64) string {
	switch {
	case score >= 92:
		return "A+"
	case score >= 85:
		return "A"
	case score >= 80:
		return "A-"
	case score >= 75:
		return "B+"
	case score >= 70:
		return "B"
	case score >= 65:
		return "B-"
	case score >= 60:
		return "C+"
	case score >= 55:
		return "C"
	case score >= 50:
		return "C-"
	case score >= 45:
		return "D+"
	case score >= 38:
		return "D"
	case score >= 30:
		return "D-"
	case score >= 20:
		return "F+"
	default:
		return "F"
	}
}

// Signal converts a 0-100 score to a trading signal label.
func Signal(score float64) string {
	switch {
	case score >= 80:
		return "STRONG BUY"
	case score >= 65:
		return "BUY"
	case score >= 45:
		return "HOLD"
	case score >= 30:
		return "SELL"
	default:
		return "STRONG SELL"
	}
}

// Clamp bounds value to [0, 100].
func Clamp(value float64) float64 {
	return ClampTo(value, 0, 100)
}

// ClampTo bounds value to [low, high].
func ClampTo(value, low, high float64) float64 {
	return math.Max(low, math.Min(high, value))
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
