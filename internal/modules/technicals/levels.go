package technicals

import (
	"fmt"
	"math"
	"sort"

	"github.com/aristath/stock-scorecard/internal/domain"
	"github.com/aristath/stock-scorecard/pkg/scoring"
)

const (
	pivotWindow      = 5
	clusterTolerance = 0.015 // fraction of the reference price
	maxLevelsPerSide = 3
)

// pivot is a local extreme in a price series
type pivot struct {
	index int
	value float64
}

// pivotHighs finds local maxima: bars whose high matches the highest high
// in a window of +-window bars around them
func pivotHighs(highs []float64, window int) []pivot {
	var pivots []pivot
	for i := window; i < len(highs)-window; i++ {
		if highs[i] == maxOf(highs[i-window:i+window+1]) {
			pivots = append(pivots, pivot{index: i, value: highs[i]})
		}
	}
	return pivots
}

// pivotLows finds local minima the same way
func pivotLows(lows []float64, window int) []pivot {
	var pivots []pivot
	for i := window; i < len(lows)-window; i++ {
		if lows[i] == minOf(lows[i-window:i+window+1]) {
			pivots = append(pivots, pivot{index: i, value: lows[i]})
		}
	}
	return pivots
}

// clusterLevels merges nearby pivot values into averaged levels. Two values
// belong to the same cluster when they sit within clusterTolerance of the
// reference price from each other. Touches counts the merged pivots.
func clusterLevels(values []float64, reference float64) []domain.PriceLevel {
	if len(values) == 0 {
		return nil
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var levels []domain.PriceLevel
	cluster := []float64{sorted[0]}
	flush := func() {
		sum := 0.0
		for _, v := range cluster {
			sum += v
		}
		levels = append(levels, domain.PriceLevel{
			Price:   round2(sum / float64(len(cluster))),
			Touches: len(cluster),
		})
	}

	for _, v := range sorted[1:] {
		if reference > 0 && math.Abs(v-cluster[len(cluster)-1])/reference < clusterTolerance {
			cluster = append(cluster, v)
			continue
		}
		flush()
		cluster = []float64{v}
	}
	flush()
	return levels
}

// scoreLevels identifies up to three support and resistance levels around
// the current price and scores the price's position inside the range
func (a *Analyzer) scoreLevels(highs, lows []float64, price float64) (domain.IndicatorScore, domain.SupportResistance) {
	var supportValues, resistanceValues []float64
	for _, p := range pivotLows(lows, pivotWindow) {
		supportValues = append(supportValues, p.value)
	}
	for _, p := range pivotHighs(highs, pivotWindow) {
		resistanceValues = append(resistanceValues, p.value)
	}

	var supports, resistances []domain.PriceLevel
	for _, level := range clusterLevels(supportValues, price) {
		if level.Price < price {
			supports = append(supports, level)
		}
	}
	for _, level := range clusterLevels(resistanceValues, price) {
		if level.Price > price {
			resistances = append(resistances, level)
		}
	}

	// Nearest first: supports descend from the price, resistances ascend
	sort.Slice(supports, func(i, j int) bool { return supports[i].Price > supports[j].Price })
	sort.Slice(resistances, func(i, j int) bool { return resistances[i].Price < resistances[j].Price })
	if len(supports) > maxLevelsPerSide {
		supports = supports[:maxLevelsPerSide]
	}
	if len(resistances) > maxLevelsPerSide {
		resistances = resistances[:maxLevelsPerSide]
	}

	score := scoring.NeutralScore
	details := "no levels identified"
	switch {
	case len(supports) > 0 && len(resistances) > 0:
		support := supports[0].Price
		resistance := resistances[0].Price
		details = fmt.Sprintf("support %.2f, resistance %.2f", support, resistance)
		if rangeSize := resistance - support; rangeSize > 0 {
			position := (price - support) / rangeSize
			switch {
			case position < 0.3:
				score = 75
			case position > 0.7:
				score = 30
			}
		}
	case len(supports) > 0:
		score = 60
		details = fmt.Sprintf("support %.2f, no overhead resistance", supports[0].Price)
	case len(resistances) > 0:
		score = 35
		details = fmt.Sprintf("resistance %.2f, no support below", resistances[0].Price)
	}

	return domain.IndicatorScore{
			Score:   round1(score),
			Signal:  directionFor(score),
			Details: details,
		}, domain.SupportResistance{
			Supports:    supports,
			Resistances: resistances,
		}
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
