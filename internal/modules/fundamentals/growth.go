package fundamentals

import (
	"fmt"
	"math"

	"github.com/aristath/stock-scorecard/internal/domain"
	"github.com/aristath/stock-scorecard/internal/modules/benchmarks"
	"github.com/aristath/stock-scorecard/pkg/scoring"
)

var revenueQoQBreakpoints = []scoring.Breakpoint{
	{Value: -15, Score: 5}, {Value: -10, Score: 15}, {Value: -5, Score: 28},
	{Value: -2, Score: 40}, {Value: 0, Score: 50}, {Value: 2, Score: 60},
	{Value: 5, Score: 72}, {Value: 8, Score: 80}, {Value: 12, Score: 88},
	{Value: 20, Score: 95},
}

var earningsQoQBreakpoints = []scoring.Breakpoint{
	{Value: -25, Score: 5}, {Value: -15, Score: 18}, {Value: -8, Score: 32},
	{Value: -3, Score: 42}, {Value: 0, Score: 50}, {Value: 3, Score: 58},
	{Value: 8, Score: 70}, {Value: 15, Score: 82}, {Value: 25, Score: 90},
	{Value: 40, Score: 95},
}

// relativeGrowthBreakpoints score a growth rate as a ratio against the
// sector average; at the sector average the score is 65
var relativeGrowthBreakpoints = []scoring.Breakpoint{
	{Value: 0, Score: 5}, {Value: 0.3, Score: 15}, {Value: 0.5, Score: 30},
	{Value: 0.7, Score: 45}, {Value: 0.9, Score: 55}, {Value: 1.0, Score: 65},
	{Value: 1.2, Score: 80}, {Value: 1.5, Score: 90}, {Value: 2.0, Score: 95},
}

// scoreGrowth builds the growth pillar from TTM growth figures, the
// standalone quarterly series and the cash flow history
func scoreGrowth(info *Info, sectorBench benchmarks.Benchmark, series *domain.QuarterlySeries, cashflows []domain.CashFlowQuarter, gaps *gapList) domain.PillarScore {
	revYoY := scoreRevenueYoY(info, sectorBench, series, gaps)
	earnYoY := scoreEarningsYoY(info, sectorBench, series, gaps)
	revQoQ := scoreRevenueQoQ(series, gaps)
	fcfQoQ := scoreFCFGrowthQoQ(cashflows, gaps)
	forward := scoreForwardEstimate(info, sectorBench, gaps)

	composite := scoring.WeightedAverage([]scoring.WeightedMetric{
		{Value: revYoY.Value, Score: revYoY.Score, Weight: 0.30},
		{Value: earnYoY.Value, Score: earnYoY.Score, Weight: 0.30},
		{Value: revQoQ.Value, Score: revQoQ.Score, Weight: 0.10},
		{Value: fcfQoQ.Value, Score: fcfQoQ.Score, Weight: 0.10},
		{Value: forward.Value, Score: forward.Score, Weight: 0.20},
	})

	return domain.PillarScore{
		Score:  round1(composite),
		Grade:  scoring.Grade(composite),
		Weight: 0.30,
		Metrics: map[string]domain.MetricScore{
			"revenue_yoy":        revYoY,
			"earnings_yoy":       earnYoY,
			"revenue_qoq":        revQoQ,
			"fcf_growth_qoq":     fcfQoQ,
			"forward_growth_est": forward,
		},
	}
}

// growthRateScore maps an absolute growth percentage to a score, with
// granular handling of decline severity
func growthRateScore(pct float64) float64 {
	switch {
	case pct > 50:
		return 95
	case pct > 25:
		return 85
	case pct > 15:
		return 70
	case pct > 5:
		return 55
	case pct > 0:
		return 45
	case pct > -5:
		return 35
	case pct > -10:
		return 25
	case pct > -20:
		return 15
	case pct > -30:
		return 10
	case pct > -50:
		return 5
	default:
		return 1
	}
}

// sectorRelativeGrowthScore scores growth against the sector average;
// non-positive benchmarks fall back to absolute scoring
func sectorRelativeGrowthScore(pct, benchmark float64) float64 {
	if benchmark <= 0 {
		return growthRateScore(pct)
	}
	return scoring.Interpolate(pct/benchmark, relativeGrowthBreakpoints)
}

// blendedGrowthScore averages the absolute and sector-relative views
func blendedGrowthScore(pct, benchmark float64) float64 {
	return round1((growthRateScore(pct) + sectorRelativeGrowthScore(pct, benchmark)) / 2)
}

func scoreRevenueYoY(info *Info, sectorBench benchmarks.Benchmark, series *domain.QuarterlySeries, gaps *gapList) domain.MetricScore {
	growth := info.RevenueGrowth
	if growth == nil {
		growth = quarterlyYoY(series, func(q domain.QuarterlyIncome) *float64 { return q.Revenue })
	}
	if growth == nil {
		gaps.add("Revenue YoY")
		return missing("Not available")
	}

	pct := *growth * 100
	benchmark := sectorBench.RevenueGrowth
	score := blendedGrowthScore(pct, benchmark)
	desc := fmt.Sprintf("%+.1f%% YoY (sector avg: %.0f%%)", pct, benchmark)
	return scored(pct, 1, score, desc)
}

func scoreEarningsYoY(info *Info, sectorBench benchmarks.Benchmark, series *domain.QuarterlySeries, gaps *gapList) domain.MetricScore {
	growth := info.EarningsGrowth
	if growth == nil {
		growth = quarterlyYoY(series, func(q domain.QuarterlyIncome) *float64 { return q.NetIncome })
	}
	if growth == nil {
		gaps.add("Earnings YoY")
		return missing("Not available")
	}

	pct := *growth * 100
	benchmark := sectorBench.EarningsGrowth
	score := blendedGrowthScore(pct, benchmark)
	desc := fmt.Sprintf("%+.1f%% YoY (sector avg: %.0f%%)", pct, benchmark)
	return scored(pct, 1, score, desc)
}

// quarterlyYoY compares the latest quarter with the same quarter one year
// earlier, as a decimal growth rate
func quarterlyYoY(series *domain.QuarterlySeries, value func(domain.QuarterlyIncome) *float64) *float64 {
	if series == nil || len(series.Quarters) < 5 {
		return nil
	}
	current := value(series.Quarters[0])
	prior := value(series.Quarters[4])
	if current == nil || prior == nil || *prior == 0 {
		return nil
	}
	growth := (*current - *prior) / abs(*prior)
	return &growth
}

func scoreRevenueQoQ(series *domain.QuarterlySeries, gaps *gapList) domain.MetricScore {
	revenues := recentValues(series, 4, func(q domain.QuarterlyIncome) *float64 { return q.Revenue })
	if len(revenues) < 2 {
		gaps.add("Revenue QoQ")
		return missing("Insufficient data")
	}
	if revenues[1] == 0 {
		gaps.add("Revenue QoQ")
		return missing("Prior quarter revenue is zero")
	}

	qoq := (revenues[0] - revenues[1]) / abs(revenues[1]) * 100
	score := scoring.Interpolate(qoq, revenueQoQBreakpoints)

	momentum := ""
	if len(revenues) >= 3 && revenues[2] != 0 {
		priorQoQ := (revenues[1] - revenues[2]) / abs(revenues[2]) * 100
		score, momentum = applyMomentum(score, qoq, priorQoQ, 1)
	}

	desc := fmt.Sprintf("%+.1f%% QoQ%s", qoq, momentum)
	return scored(qoq, 1, score, desc)
}

// scoreFCFGrowthQoQ scores sequential free cash flow growth with the same
// sign-transition handling as earnings: cash flow swings through zero are
// scored as fixed transitions, not ratios
func scoreFCFGrowthQoQ(cashflows []domain.CashFlowQuarter, gaps *gapList) domain.MetricScore {
	var values []float64
	for _, q := range cashflows {
		if q.FreeCashFlow != nil {
			values = append(values, *q.FreeCashFlow)
		}
		if len(values) == 4 {
			break
		}
	}
	if len(values) < 2 {
		gaps.add("FCF Growth QoQ")
		return missing("Insufficient data")
	}

	current, prior := values[0], values[1]
	switch {
	case prior < 0 && current > 0:
		return domain.MetricScore{Score: 85, Grade: scoring.Grade(85), Description: fmt.Sprintf("Turnaround: FCF positive ($%.0fM)", current/1e6)}
	case prior > 0 && current < 0:
		return domain.MetricScore{Score: 10, Grade: scoring.Grade(10), Description: fmt.Sprintf("FCF turned negative ($%.0fM)", current/1e6)}
	case prior == 0:
		gaps.add("FCF Growth QoQ")
		return missing("Prior quarter FCF is zero")
	}

	qoq := (current - prior) / abs(prior) * 100
	score := scoring.Interpolate(qoq, earningsQoQBreakpoints)

	momentum := ""
	if len(values) >= 3 && values[2] != 0 && sameSign(values[2], prior) {
		priorQoQ := (prior - values[2]) / abs(values[2]) * 100
		score, momentum = applyMomentum(score, qoq, priorQoQ, 2)
	}

	desc := fmt.Sprintf("%+.1f%% QoQ%s", qoq, momentum)
	return scored(qoq, 1, score, desc)
}

func scoreForwardEstimate(info *Info, sectorBench benchmarks.Benchmark, gaps *gapList) domain.MetricScore {
	if info.EarningsGrowth != nil && *info.EarningsGrowth != 0 {
		pct := *info.EarningsGrowth * 100
		benchmark := sectorBench.EarningsGrowth
		score := blendedGrowthScore(pct, benchmark)
		desc := fmt.Sprintf("Analyst est. %+.1f%% (sector avg: %.0f%%)", pct, benchmark)
		return scored(pct, 1, score, desc)
	}

	if info.TargetMeanPrice != nil && info.CurrentPrice != nil && *info.CurrentPrice > 0 {
		upside := (*info.TargetMeanPrice - *info.CurrentPrice) / *info.CurrentPrice * 100
		score := scoring.Clamp(50 + upside)
		desc := fmt.Sprintf("Analyst target %+.1f%% upside", upside)
		return scored(upside, 1, score, desc)
	}

	gaps.add("Forward Growth Est.")
	return missing("Not available")
}

// applyMomentum boosts or penalizes a QoQ score when growth is accelerating
// or decelerating beyond the threshold, in percentage points
func applyMomentum(score, currentQoQ, priorQoQ, threshold float64) (float64, string) {
	switch {
	case currentQoQ > priorQoQ+threshold:
		return math.Min(score+10, 99), " (accelerating)"
	case currentQoQ < priorQoQ-threshold:
		return math.Max(score-10, 1), " (decelerating)"
	default:
		return score, " (stable)"
	}
}

// recentValues extracts up to limit non-nil values from the newest quarters
func recentValues(series *domain.QuarterlySeries, limit int, value func(domain.QuarterlyIncome) *float64) []float64 {
	if series == nil {
		return nil
	}
	var out []float64
	for _, q := range series.Quarters {
		if v := value(q); v != nil {
			out = append(out, *v)
		}
		if len(out) == limit {
			break
		}
	}
	return out
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}
