package technicals

import (
	"fmt"
	"math"

	"github.com/aristath/stock-scorecard/internal/domain"
	"github.com/aristath/stock-scorecard/pkg/formulas"
	"github.com/aristath/stock-scorecard/pkg/scoring"
)

// scoreVolume reads conviction from the volume series: relative volume,
// the 5 vs 20 bar volume trend, price-volume confirmation, and the OBV
// slope over the last 20 bars.
func (a *Analyzer) scoreVolume(closes, volumes []float64) domain.IndicatorScore {
	if len(volumes) < 20 || sum(volumes) == 0 {
		return neutralIndicator("no volume data")
	}

	n := len(volumes)
	currentVol := volumes[n-1]
	avgVol20 := formulas.Mean(volumes[n-20:])
	avgVol5 := formulas.Mean(volumes[n-5:])

	relVol := 1.0
	if avgVol20 > 0 {
		relVol = currentVol / avgVol20
	}

	volTrend := "stable"
	switch {
	case avgVol5 > avgVol20*1.1:
		volTrend = "increasing"
	case avgVol5 < avgVol20*0.9:
		volTrend = "decreasing"
	}

	priceChange5 := 0.0
	if len(closes) >= 6 && closes[len(closes)-6] != 0 {
		priceChange5 = (closes[len(closes)-1] - closes[len(closes)-6]) / closes[len(closes)-6]
	}

	pvConfirm := "neutral"
	switch {
	case priceChange5 > 0.01 && avgVol5 > avgVol20:
		pvConfirm = "bullish"
	case priceChange5 < -0.01 && avgVol5 > avgVol20:
		pvConfirm = "bearish"
	case priceChange5 > 0.01 && avgVol5 < avgVol20:
		pvConfirm = "weak_bullish"
	case priceChange5 < -0.01 && avgVol5 < avgVol20:
		pvConfirm = "weak_bearish"
	}

	obvTrend := "flat"
	if obv := formulas.CalculateOBV(closes, volumes); len(obv) >= 20 {
		anchor := obv[len(obv)-20]
		slope := (obv[len(obv)-1] - anchor) / math.Max(math.Abs(anchor), 1)
		switch {
		case slope > 0.05:
			obvTrend = "rising"
		case slope < -0.05:
			obvTrend = "falling"
		}
	}

	score := scoring.NeutralScore

	switch {
	case relVol > 1.5 && priceChange5 > 0:
		score += 15
	case relVol > 1.5 && priceChange5 < 0:
		score -= 15
	case relVol > 1.1 && priceChange5 > 0:
		score += 8
	case relVol > 1.1 && priceChange5 < 0:
		score -= 8
	}

	switch pvConfirm {
	case "bullish":
		score += 12
	case "bearish":
		score -= 12
	case "weak_bullish":
		score += 3
	case "weak_bearish":
		score += 5 // selling exhaustion
	}

	switch obvTrend {
	case "rising":
		score += 8
	case "falling":
		score -= 8
	}

	score = scoring.Clamp(score)

	return domain.IndicatorScore{
		Score:  round1(score),
		Signal: directionFor(score),
		Details: fmt.Sprintf("relative volume %.2f, trend %s, price-volume %s, OBV %s",
			relVol, volTrend, pvConfirm, obvTrend),
	}
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
