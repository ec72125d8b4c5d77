package benchmarks

import (
	"math"
	"testing"
)

func TestSectorBenchmarkResolution(t *testing.T) {
	tests := []struct {
		name   string
		sector string
		wantPE float64
	}{
		{"exact match", "Technology", 28},
		{"alias lowercase", "financials", 13},
		{"alias with spacing", " health care ", 25},
		{"substring match", "Consumer Discretionary Retail", 22},
		{"unknown falls back to default", "Quantum Widgets", 20},
		{"empty falls back to default", "", 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SectorBenchmark(tt.sector)
			if got.PE != tt.wantPE {
				t.Errorf("SectorBenchmark(%q).PE = %v, want %v", tt.sector, got.PE, tt.wantPE)
			}
		})
	}
}

func TestSectorBenchmarkSource(t *testing.T) {
	if got := SectorBenchmark("Energy").Source; got != "sector:Energy" {
		t.Errorf("source = %q, want sector:Energy", got)
	}
	if got := SectorBenchmark("whatever").Source; got != "sector:default" {
		t.Errorf("source = %q, want sector:default", got)
	}
}

func TestCanonicalSector(t *testing.T) {
	if got := CanonicalSector("information technology"); got != "Technology" {
		t.Errorf("got %q, want Technology", got)
	}
	if got := CanonicalSector("Unmappable"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestScoreRelative(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		benchmark float64
		want      float64
	}{
		{"at benchmark", 20, 20, 60},
		{"half of benchmark", 10, 20, 90},
		{"double benchmark", 40, 20, 25},
		{"far above benchmark clamps", 100, 20, 10},
		{"near zero scores top", 0.1, 20, 98},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreRelative(tt.value, tt.benchmark, true)
			if math.Abs(got-tt.want) > 0.5 {
				t.Errorf("ScoreRelative(%v, %v) = %v, want ~%v", tt.value, tt.benchmark, got, tt.want)
			}
		})
	}
}

func TestScoreRelativeInvalidBenchmark(t *testing.T) {
	if got := ScoreRelative(20, 0, true); got != 50 {
		t.Errorf("zero benchmark: got %v, want 50", got)
	}
	if got := ScoreRelative(20, -5, true); got != 50 {
		t.Errorf("negative benchmark: got %v, want 50", got)
	}
}

func TestScoreRelativeHigherIsBetter(t *testing.T) {
	// Margin twice the group median should score like a valuation at half.
	got := ScoreRelative(40, 20, false)
	if math.Abs(got-90) > 0.5 {
		t.Errorf("got %v, want ~90", got)
	}

	// Non-positive value is treated as the worst ratio.
	if got := ScoreRelative(-5, 20, false); got != 10 {
		t.Errorf("negative value: got %v, want 10", got)
	}
}

func TestGrowthAdjustedBenchmark(t *testing.T) {
	// 32% growth: sqrt(0.32/0.08) = 2.0, doubles the benchmark.
	if got := GrowthAdjustedBenchmark(20, 0.32); math.Abs(got-40) > 1e-9 {
		t.Errorf("got %v, want 40", got)
	}

	// 4% growth: sqrt(0.5) < 1 clamps to 1, benchmark unchanged.
	if got := GrowthAdjustedBenchmark(20, 0.04); math.Abs(got-20) > 1e-9 {
		t.Errorf("got %v, want 20", got)
	}

	// Extreme growth caps at twice the benchmark.
	if got := GrowthAdjustedBenchmark(20, 5.0); math.Abs(got-40) > 1e-9 {
		t.Errorf("got %v, want 40 (capped)", got)
	}

	// Negative growth leaves the benchmark alone.
	if got := GrowthAdjustedBenchmark(20, -0.10); math.Abs(got-20) > 1e-9 {
		t.Errorf("got %v, want 20", got)
	}
}
