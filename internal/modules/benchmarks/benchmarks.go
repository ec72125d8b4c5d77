// Package benchmarks provides sector and peer valuation benchmarks and the
// relative scoring used by the fundamental analyzer. Static sector medians
// act as the fallback whenever live peer data is unavailable or too thin.
package benchmarks

import (
	"math"
	"strings"

	"github.com/aristath/stock-scorecard/pkg/scoring"
)

// Benchmark holds median valuation and profitability metrics for a
// comparison group (a GICS sector or a live peer set)
type Benchmark struct {
	PE              float64 `json:"pe"`
	ForwardPE       float64 `json:"fpe"`
	PB              float64 `json:"pb"`
	PS              float64 `json:"ps"`
	PEG             float64 `json:"peg"`
	EVEbitda        float64 `json:"ev_ebitda"`
	GrossMargin     float64 `json:"gross_margin"`
	OperatingMargin float64 `json:"operating_margin"`
	NetMargin       float64 `json:"net_margin"`
	RevenueGrowth   float64 `json:"revenue_growth"`
	EarningsGrowth  float64 `json:"earnings_growth"`
	Source          string  `json:"source"`
}

// Median valuation and profitability metrics by GICS sector, approximated
// from S&P 500 constituent medians. Fallback when live peer data is thin.
var sectorBenchmarks = map[string]Benchmark{
	"Technology":             {PE: 28, ForwardPE: 24, PB: 7, PS: 6, PEG: 1.5, EVEbitda: 20, GrossMargin: 65, OperatingMargin: 25, NetMargin: 20, RevenueGrowth: 15, EarningsGrowth: 18},
	"Communication Services": {PE: 22, ForwardPE: 19, PB: 3.5, PS: 3.5, PEG: 1.8, EVEbitda: 12, GrossMargin: 55, OperatingMargin: 20, NetMargin: 15, RevenueGrowth: 8, EarningsGrowth: 10},
	"Consumer Cyclical":      {PE: 22, ForwardPE: 19, PB: 5, PS: 1.5, PEG: 1.4, EVEbitda: 12, GrossMargin: 35, OperatingMargin: 8, NetMargin: 5, RevenueGrowth: 8, EarningsGrowth: 10},
	"Consumer Defensive":     {PE: 22, ForwardPE: 20, PB: 5, PS: 1.8, PEG: 2.5, EVEbitda: 13, GrossMargin: 30, OperatingMargin: 10, NetMargin: 6, RevenueGrowth: 3, EarningsGrowth: 5},
	"Healthcare":             {PE: 25, ForwardPE: 20, PB: 4, PS: 4, PEG: 1.8, EVEbitda: 14, GrossMargin: 65, OperatingMargin: 18, NetMargin: 12, RevenueGrowth: 10, EarningsGrowth: 12},
	"Financial Services":     {PE: 13, ForwardPE: 12, PB: 1.3, PS: 3, PEG: 1.5, EVEbitda: 10, GrossMargin: 70, OperatingMargin: 30, NetMargin: 22, RevenueGrowth: 5, EarningsGrowth: 8},
	"Industrials":            {PE: 20, ForwardPE: 18, PB: 4, PS: 2, PEG: 1.7, EVEbitda: 12, GrossMargin: 25, OperatingMargin: 10, NetMargin: 6, RevenueGrowth: 5, EarningsGrowth: 8},
	"Energy":                 {PE: 12, ForwardPE: 11, PB: 1.8, PS: 1.2, PEG: 1.0, EVEbitda: 6, GrossMargin: 20, OperatingMargin: 8, NetMargin: 5, RevenueGrowth: 5, EarningsGrowth: 8},
	"Basic Materials":        {PE: 15, ForwardPE: 13, PB: 2, PS: 1.5, PEG: 1.5, EVEbitda: 8, GrossMargin: 20, OperatingMargin: 12, NetMargin: 8, RevenueGrowth: 4, EarningsGrowth: 6},
	"Utilities":              {PE: 17, ForwardPE: 16, PB: 1.8, PS: 2.5, PEG: 3.0, EVEbitda: 11, GrossMargin: 35, OperatingMargin: 18, NetMargin: 12, RevenueGrowth: 3, EarningsGrowth: 4},
	"Real Estate":            {PE: 35, ForwardPE: 30, PB: 2, PS: 8, PEG: 2.5, EVEbitda: 16, GrossMargin: 45, OperatingMargin: 25, NetMargin: 15, RevenueGrowth: 5, EarningsGrowth: 6},
}

// defaultBenchmark covers unknown sectors
var defaultBenchmark = Benchmark{PE: 20, ForwardPE: 17, PB: 3, PS: 3, PEG: 1.5, EVEbitda: 12, GrossMargin: 40, OperatingMargin: 15, NetMargin: 10, RevenueGrowth: 8, EarningsGrowth: 10}

// aliases map alternate sector names from different data sources to the
// canonical GICS names
var aliases = map[string]string{
	"technology":             "Technology",
	"tech":                   "Technology",
	"information technology": "Technology",
	"communication services": "Communication Services",
	"communication":          "Communication Services",
	"media":                  "Communication Services",
	"consumer cyclical":      "Consumer Cyclical",
	"consumer discretionary": "Consumer Cyclical",
	"consumer defensive":     "Consumer Defensive",
	"consumer staples":       "Consumer Defensive",
	"healthcare":             "Healthcare",
	"health care":            "Healthcare",
	"financial services":     "Financial Services",
	"financials":             "Financial Services",
	"financial":              "Financial Services",
	"industrials":            "Industrials",
	"industrial":             "Industrials",
	"energy":                 "Energy",
	"basic materials":        "Basic Materials",
	"materials":              "Basic Materials",
	"utilities":              "Utilities",
	"real estate":            "Real Estate",
}

// SectorBenchmark returns benchmark medians for a sector name, resolving
// exact matches, then aliases, then substrings, then the default
func SectorBenchmark(sector string) Benchmark {
	if sector == "" {
		return tagged(defaultBenchmark, "sector:default")
	}

	if b, ok := sectorBenchmarks[sector]; ok {
		return tagged(b, "sector:"+sector)
	}

	lower := strings.ToLower(strings.TrimSpace(sector))
	if canonical, ok := aliases[lower]; ok {
		return tagged(sectorBenchmarks[canonical], "sector:"+canonical)
	}

	for alias, canonical := range aliases {
		if strings.Contains(lower, alias) || strings.Contains(alias, lower) {
			return tagged(sectorBenchmarks[canonical], "sector:"+canonical)
		}
	}

	return tagged(defaultBenchmark, "sector:default")
}

// CanonicalSector resolves a sector name to its canonical form, or ""
// when it cannot be resolved
func CanonicalSector(sector string) string {
	if sector == "" {
		return ""
	}
	if _, ok := sectorBenchmarks[sector]; ok {
		return sector
	}

	lower := strings.ToLower(strings.TrimSpace(sector))
	if canonical, ok := aliases[lower]; ok {
		return canonical
	}
	for alias, canonical := range aliases {
		if strings.Contains(lower, alias) || strings.Contains(alias, lower) {
			return canonical
		}
	}
	return ""
}

// relativeBreakpoints map value/benchmark ratios to scores
var relativeBreakpoints = []scoring.Breakpoint{
	{Value: 0.0, Score: 98},
	{Value: 0.4, Score: 95},
	{Value: 0.6, Score: 85},
	{Value: 0.8, Score: 72},
	{Value: 1.0, Score: 60},
	{Value: 1.2, Score: 50},
	{Value: 1.5, Score: 38},
	{Value: 2.0, Score: 25},
	{Value: 3.0, Score: 10},
}

// ScoreRelative scores a metric against a benchmark by ratio interpolation.
// With lowerIsBetter, ratios under 1 (cheaper than the group) score high.
// A zero or negative benchmark cannot be compared and scores neutral.
func ScoreRelative(value, benchmark float64, lowerIsBetter bool) float64 {
	if benchmark <= 0 {
		return scoring.NeutralScore
	}

	ratio := value / benchmark
	if !lowerIsBetter {
		if value > 0 {
			ratio = benchmark / value
		} else {
			ratio = 3.0
		}
	}

	return scoring.Interpolate(ratio, relativeBreakpoints)
}

// GrowthAdjustedBenchmark scales a PE-style benchmark for growth: a company
// growing faster than the 8% baseline earns a higher fair multiple, capped
// at twice the benchmark.
func GrowthAdjustedBenchmark(benchmark, growthRate float64) float64 {
	if benchmark <= 0 {
		return benchmark
	}

	multiplier := 1.0
	if growthRate > 0 {
		multiplier = scoring.ClampTo(math.Sqrt(growthRate/0.08), 1.0, 2.0)
	}
	return benchmark * multiplier
}

func tagged(b Benchmark, source string) Benchmark {
	b.Source = source
	return b
}
