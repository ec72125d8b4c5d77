package fundamentals

import (
	"fmt"
	"math"

	"github.com/aristath/stock-scorecard/internal/domain"
	"github.com/aristath/stock-scorecard/internal/modules/benchmarks"
	"github.com/aristath/stock-scorecard/pkg/scoring"
)

// gapList collects the display names of unavailable metrics in scoring order
type gapList []string

func (g *gapList) add(name string) {
	*g = append(*g, name)
}

// missing marks a metric as unavailable; score 0 with a nil value excludes
// it from weighted averages
func missing(desc string) domain.MetricScore {
	return domain.MetricScore{Grade: "N/A", Description: desc}
}

// scored builds a complete MetricScore with grade derivation
func scored(value float64, decimals int, score float64, desc string) domain.MetricScore {
	pow := math.Pow(10, float64(decimals))
	rounded := math.Round(value*pow) / pow
	s := math.Round(score*10) / 10
	return domain.MetricScore{
		Value:       &rounded,
		Score:       s,
		Grade:       scoring.Grade(s),
		Description: desc,
	}
}

// scoreValuation builds the valuation pillar. Peer-derived benchmarks drive
// the ratio comparisons; PEG always compares against the static sector table.
func scoreValuation(info *Info, bench benchmarks.Benchmark, sectorBench benchmarks.Benchmark, growthRate *float64, series *domain.QuarterlySeries, gaps *gapList) domain.PillarScore {
	fpe := scoreForwardPE(info, bench, growthRate, gaps)
	ev := scoreEVEbitda(info, bench, gaps)
	peg := scorePEG(info, sectorBench, series, gaps)
	ps := scorePS(info, bench, gaps)
	pb := scorePB(info, bench, gaps)

	composite := scoring.WeightedAverage([]scoring.WeightedMetric{
		{Value: fpe.Value, Score: fpe.Score, Weight: 0.25},
		{Value: ev.Value, Score: ev.Score, Weight: 0.25},
		{Value: peg.Value, Score: peg.Score, Weight: 0.20},
		{Value: ps.Value, Score: ps.Score, Weight: 0.15},
		{Value: pb.Value, Score: pb.Score, Weight: 0.15},
	})

	return domain.PillarScore{
		Score:  round1(composite),
		Grade:  scoring.Grade(composite),
		Weight: 0.35,
		Metrics: map[string]domain.MetricScore{
			"forward_pe": fpe,
			"ev_ebitda":  ev,
			"peg_ratio":  peg,
			"ps_ratio":   ps,
			"pb_ratio":   pb,
		},
	}
}

func scoreForwardPE(info *Info, bench benchmarks.Benchmark, growthRate *float64, gaps *gapList) domain.MetricScore {
	if info.ForwardPE == nil {
		gaps.add("Forward PE")
		return missing("Not available")
	}
	fpe := *info.ForwardPE
	if fpe < 0 {
		return scored(fpe, 2, 10, "Negative forward earnings")
	}

	benchFPE := bench.ForwardPE
	if benchFPE <= 0 {
		benchFPE = bench.PE * 0.85
	}
	adjusted := benchFPE
	if growthRate != nil {
		adjusted = benchmarks.GrowthAdjustedBenchmark(benchFPE, *growthRate)
	}

	score := benchmarks.ScoreRelative(fpe, adjusted, true)
	ratio := ratioOf(fpe, adjusted)

	var context string
	switch {
	case ratio < 0.8:
		context = "Undervalued vs peers"
	case ratio < 1.1:
		context = "In line with peers"
	case ratio < 1.5:
		context = "Premium to peers"
	default:
		context = "Expensive vs peers"
	}

	growthNote := ""
	if growthRate != nil && adjusted > benchFPE*1.05 {
		growthNote = fmt.Sprintf(" (growth-adj %.0f)", adjusted)
	}
	desc := fmt.Sprintf("Fwd PE %.1f vs %s median %.1f%s, %s", fpe, bench.Source, benchFPE, growthNote, context)
	return scored(fpe, 2, score, desc)
}

func scoreEVEbitda(info *Info, bench benchmarks.Benchmark, gaps *gapList) domain.MetricScore {
	if info.EVEbitda == nil {
		gaps.add("EV/EBITDA")
		return missing("Not available")
	}
	ev := *info.EVEbitda
	if ev < 0 {
		return scored(ev, 2, 10, "Negative EBITDA")
	}

	score := benchmarks.ScoreRelative(ev, bench.EVEbitda, true)
	ratio := ratioOf(ev, bench.EVEbitda)

	var context string
	switch {
	case ratio < 0.8:
		context = "Cheap on cash earnings"
	case ratio < 1.1:
		context = "In line with peers"
	case ratio < 1.5:
		context = "Premium to peers"
	default:
		context = "Expensive vs peers"
	}

	desc := fmt.Sprintf("EV/EBITDA %.1f vs %s median %.1f, %s", ev, bench.Source, bench.EVEbitda, context)
	return scored(ev, 2, score, desc)
}

func scorePEG(info *Info, sectorBench benchmarks.Benchmark, series *domain.QuarterlySeries, gaps *gapList) domain.MetricScore {
	peg, method := computePEG(info, series)
	if peg == nil {
		gaps.add("PEG Ratio")
		return missing("Cannot calculate PEG")
	}
	if *peg < 0 {
		return scored(*peg, 2, 10, fmt.Sprintf("Negative PEG (%s)", method))
	}

	benchPEG := sectorBench.PEG
	if benchPEG <= 0 {
		benchPEG = 1.5
	}
	score := benchmarks.ScoreRelative(*peg, benchPEG, true)
	ratio := ratioOf(*peg, benchPEG)

	var context string
	switch {
	case ratio < 0.7:
		context = "Undervalued for growth"
	case ratio < 1.0:
		context = "Good value for growth"
	case ratio < 1.3:
		context = "Fairly valued for growth"
	default:
		context = "Expensive for growth"
	}

	desc := fmt.Sprintf("PEG %.2f (%s) vs sector median %.2f, %s", *peg, method, benchPEG, context)
	return scored(*peg, 2, score, desc)
}

func scorePS(info *Info, bench benchmarks.Benchmark, gaps *gapList) domain.MetricScore {
	if info.PriceToSales == nil {
		gaps.add("P/S Ratio")
		return missing("Not available")
	}
	ps := *info.PriceToSales

	score := benchmarks.ScoreRelative(ps, bench.PS, true)
	desc := fmt.Sprintf("P/S %.1f vs %s median %.1f, %s", ps, bench.Source, bench.PS, peerContext(ratioOf(ps, bench.PS)))
	return scored(ps, 2, score, desc)
}

func scorePB(info *Info, bench benchmarks.Benchmark, gaps *gapList) domain.MetricScore {
	if info.PriceToBook == nil {
		gaps.add("P/B Ratio")
		return missing("Not available")
	}
	pb := *info.PriceToBook

	score := benchmarks.ScoreRelative(pb, bench.PB, true)
	desc := fmt.Sprintf("P/B %.1f vs %s median %.1f, %s", pb, bench.Source, bench.PB, peerContext(ratioOf(pb, bench.PB)))
	return scored(pb, 2, score, desc)
}

func peerContext(ratio float64) string {
	switch {
	case ratio < 0.8:
		return "Below peer avg"
	case ratio < 1.2:
		return "In line with peers"
	default:
		return "Above peer avg"
	}
}

// computePEG derives PEG from trailing PE and a growth estimate instead of
// trusting upstream PEG figures, which are unreliable. Returns the method
// used so the description can show the provenance.
func computePEG(info *Info, series *domain.QuarterlySeries) (*float64, string) {
	if info.TrailingPE == nil || *info.TrailingPE <= 0 {
		return nil, "unavailable"
	}
	pe := *info.TrailingPE

	if info.EarningsGrowth != nil && *info.EarningsGrowth > 0 {
		peg := pe / (*info.EarningsGrowth * 100)
		return &peg, "analyst estimate"
	}

	if cagr := trailingEarningsCAGR(series); cagr != nil && *cagr > 0 {
		peg := pe / (*cagr * 100)
		return &peg, "trailing CAGR"
	}

	return nil, "unavailable"
}

// resolveGrowthRate finds the best earnings growth estimate as a decimal,
// used to scale PE benchmarks for high-growth issuers
func resolveGrowthRate(info *Info, series *domain.QuarterlySeries) *float64 {
	if info.EarningsGrowth != nil && *info.EarningsGrowth > 0 {
		return info.EarningsGrowth
	}
	if info.EPSGrowth5Y != nil && *info.EPSGrowth5Y > 0 {
		g := *info.EPSGrowth5Y / 100
		return &g
	}
	if cagr := trailingEarningsCAGR(series); cagr != nil && *cagr > 0 {
		return cagr
	}
	return nil
}

// trailingEarningsCAGR computes an annualized earnings growth rate from the
// quarterly income series: trailing four quarters against the oldest full
// four-quarter window, both sums strictly positive
func trailingEarningsCAGR(series *domain.QuarterlySeries) *float64 {
	if series == nil || len(series.Quarters) < 8 {
		return nil
	}
	quarters := series.Quarters

	recent, ok := sumNetIncome(quarters[:4])
	if !ok || recent <= 0 {
		return nil
	}
	oldest, ok := sumNetIncome(quarters[len(quarters)-4:])
	if !ok || oldest <= 0 {
		return nil
	}

	years := float64(len(quarters)-4) / 4
	if years < 1 {
		years = 1
	}

	cagr := math.Pow(recent/oldest, 1/years) - 1
	if math.IsNaN(cagr) || math.IsInf(cagr, 0) {
		return nil
	}
	return &cagr
}

func sumNetIncome(quarters []domain.QuarterlyIncome) (float64, bool) {
	total := 0.0
	found := false
	for _, q := range quarters {
		if q.NetIncome != nil {
			total += *q.NetIncome
			found = true
		}
	}
	return total, found
}

func ratioOf(value, benchmark float64) float64 {
	if benchmark <= 0 {
		return 1
	}
	return value / benchmark
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
