package fundamentals

import (
	"strings"
	"testing"

	"github.com/aristath/stock-scorecard/internal/domain"
	"github.com/aristath/stock-scorecard/internal/modules/benchmarks"
)

func incomeSeries(revenues ...float64) *domain.QuarterlySeries {
	quarters := make([]domain.QuarterlyIncome, len(revenues))
	for i, r := range revenues {
		quarters[i].Revenue = fptr(r)
	}
	return &domain.QuarterlySeries{Quarters: quarters}
}

func TestGrowthRateScore(t *testing.T) {
	tests := []struct {
		pct  float64
		want float64
	}{
		{60, 95},
		{30, 85},
		{10, 55},
		{1, 45},
		{-3, 35},
		{-25, 10},
		{-60, 1},
	}
	for _, tt := range tests {
		if got := growthRateScore(tt.pct); got != tt.want {
			t.Errorf("growthRateScore(%v) = %v, want %v", tt.pct, got, tt.want)
		}
	}
}

func TestSectorRelativeGrowthScore(t *testing.T) {
	// At the sector average, the relative score is 65
	if got := sectorRelativeGrowthScore(8, 8); got != 65 {
		t.Errorf("score at benchmark = %v, want 65", got)
	}
	// Double the sector average caps toward the top of the table
	if got := sectorRelativeGrowthScore(16, 8); got != 95 {
		t.Errorf("score at 2x benchmark = %v, want 95", got)
	}
	// Non-positive benchmark falls back to absolute scoring
	if got := sectorRelativeGrowthScore(30, 0); got != growthRateScore(30) {
		t.Errorf("fallback = %v, want absolute %v", got, growthRateScore(30))
	}
}

func TestScoreRevenueQoQMomentum(t *testing.T) {
	gaps := gapList{}

	// 10% then 5% prior: accelerating
	accel := scoreRevenueQoQ(incomeSeries(110, 100, 95.238), &gaps)
	if !strings.Contains(accel.Description, "accelerating") {
		t.Errorf("expected accelerating, got %q", accel.Description)
	}

	// 2% then 10% prior: decelerating
	decel := scoreRevenueQoQ(incomeSeries(102, 100, 90.909), &gaps)
	if !strings.Contains(decel.Description, "decelerating") {
		t.Errorf("expected decelerating, got %q", decel.Description)
	}
	if decel.Score >= accel.Score {
		t.Errorf("decelerating %v should score below accelerating %v", decel.Score, accel.Score)
	}

	if len(gaps) != 0 {
		t.Errorf("unexpected gaps: %v", gaps)
	}
}

func TestScoreRevenueQoQInsufficientData(t *testing.T) {
	gaps := gapList{}
	ms := scoreRevenueQoQ(incomeSeries(100), &gaps)
	if ms.Score != 0 || ms.Value != nil {
		t.Error("single quarter should be a missing metric")
	}
	if len(gaps) != 1 || gaps[0] != "Revenue QoQ" {
		t.Errorf("gaps = %v, want [Revenue QoQ]", gaps)
	}
}

func cashflowSeries(fcfs ...float64) []domain.CashFlowQuarter {
	quarters := make([]domain.CashFlowQuarter, len(fcfs))
	for i, f := range fcfs {
		quarters[i].FreeCashFlow = fptr(f)
	}
	return quarters
}

func TestScoreFCFGrowthQoQTransitions(t *testing.T) {
	gaps := gapList{}

	turnaround := scoreFCFGrowthQoQ(cashflowSeries(50e6, -20e6), &gaps)
	if turnaround.Score != 85 {
		t.Errorf("turnaround score = %v, want 85", turnaround.Score)
	}
	if !strings.Contains(turnaround.Description, "Turnaround") {
		t.Errorf("description = %q", turnaround.Description)
	}

	intoLoss := scoreFCFGrowthQoQ(cashflowSeries(-30e6, 40e6), &gaps)
	if intoLoss.Score != 10 {
		t.Errorf("into-loss score = %v, want 10", intoLoss.Score)
	}

	zeroPrior := scoreFCFGrowthQoQ(cashflowSeries(10e6, 0), &gaps)
	if zeroPrior.Score != 0 {
		t.Errorf("zero prior should be a gap, got score %v", zeroPrior.Score)
	}
}

func TestScoreForwardEstimateTargetFallback(t *testing.T) {
	gaps := gapList{}
	bench := benchmarks.SectorBenchmark("Technology")

	// No analyst growth, but a target 20% above the current price
	info := &Info{TargetMeanPrice: fptr(120), CurrentPrice: fptr(100)}
	ms := scoreForwardEstimate(info, bench, &gaps)
	if ms.Score != 70 {
		t.Errorf("score = %v, want 50+20=70", ms.Score)
	}
	if !strings.Contains(ms.Description, "upside") {
		t.Errorf("description = %q", ms.Description)
	}

	missing := scoreForwardEstimate(&Info{}, bench, &gaps)
	if missing.Score != 0 {
		t.Errorf("expected missing metric, got %v", missing.Score)
	}
	if len(gaps) != 1 {
		t.Errorf("gaps = %v", gaps)
	}
}

func TestQuarterlyYoY(t *testing.T) {
	// Five quarters, newest 115 vs same quarter last year 100
	series := incomeSeries(115, 110, 105, 102, 100)
	growth := quarterlyYoY(series, func(q domain.QuarterlyIncome) *float64 { return q.Revenue })
	if growth == nil {
		t.Fatal("expected growth rate")
	}
	if *growth < 0.149 || *growth > 0.151 {
		t.Errorf("growth = %v, want 0.15", *growth)
	}

	if got := quarterlyYoY(incomeSeries(115, 110, 105), func(q domain.QuarterlyIncome) *float64 { return q.Revenue }); got != nil {
		t.Error("expected nil with fewer than 5 quarters")
	}
}
