package technicals

import (
	"testing"

	"github.com/aristath/stock-scorecard/internal/domain"
)

func patternNames(hits []domain.PatternHit) []string {
	names := make([]string, len(hits))
	for i, h := range hits {
		names[i] = h.Name
	}
	return names
}

func hasPattern(hits []domain.PatternHit, name string) bool {
	for _, h := range hits {
		if h.Name == name {
			return true
		}
	}
	return false
}

func TestDetectDoubleBottom(t *testing.T) {
	a := testAnalyzer()

	n := 60
	opens := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		opens[i], closes[i] = 100, 100
		highs[i] = 101
		lows[i] = 100
	}
	// Two equal troughs far enough apart, price well above the pattern
	lows[25] = 90
	lows[40] = 90

	hits, score := a.detectPatterns(opens, highs, lows, closes)
	if len(hits) != 1 || hits[0].Name != "Double Bottom" || hits[0].Bias != 0.6 {
		t.Fatalf("hits = %v, want a single Double Bottom", patternNames(hits))
	}
	// 50 + 0.6*30
	if score.Score != 68 || score.Signal != "bullish" {
		t.Errorf("score = %v %q, want bullish 68", score.Score, score.Signal)
	}
}

func TestDetectHeadAndShouldersWithDoubleTop(t *testing.T) {
	a := testAnalyzer()

	n := 80
	opens := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		opens[i], closes[i] = 98, 98
		highs[i] = 100
		lows[i] = 98
	}
	// Matching shoulders around a higher head, price below the neckline
	highs[30] = 105
	highs[50] = 110
	highs[70] = 105

	hits, score := a.detectPatterns(opens, highs, lows, closes)
	if !hasPattern(hits, "Head & Shoulders") {
		t.Fatalf("hits = %v, want Head & Shoulders", patternNames(hits))
	}
	// The two 105 peaks also read as a double top
	if !hasPattern(hits, "Double Top") {
		t.Fatalf("hits = %v, want Double Top as well", patternNames(hits))
	}
	if score.Signal != "bearish" {
		t.Errorf("signal = %q, want bearish", score.Signal)
	}
}

func TestDetectTriangles(t *testing.T) {
	n := 40
	flat := make([]float64, n)
	rising := make([]float64, n)
	falling := make([]float64, n)
	steepUp := make([]float64, n)
	steepDown := make([]float64, n)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)
		flat[i] = 100
		rising[i] = 90 + 5*x
		falling[i] = 110 - 5*x
		steepUp[i] = 100 + 6*x
		steepDown[i] = 110 - 6*x
	}

	tests := []struct {
		name       string
		highs      []float64
		lows       []float64
		want       string
		wantNoHits bool
	}{
		{"ascending", flat, rising, "Ascending Triangle", false},
		{"descending", falling, flat, "Descending Triangle", false},
		{"symmetrical", steepDown, steepUp, "Symmetrical Triangle", false},
		{"trendless", flat, flat, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := detectTriangles(tt.highs, tt.lows)
			if tt.wantNoHits {
				if len(hits) != 0 {
					t.Fatalf("hits = %v, want none", patternNames(hits))
				}
				return
			}
			if len(hits) != 1 || hits[0].Name != tt.want {
				t.Fatalf("hits = %v, want %s", patternNames(hits), tt.want)
			}
		})
	}
}

func TestDetectBullishEngulfing(t *testing.T) {
	a := testAnalyzer()

	n := 25
	opens := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		opens[i], closes[i] = 100, 101
		highs[i], lows[i] = 101.6, 99.8
	}
	// Bearish candle swallowed by a larger bullish one
	opens[n-2], closes[n-2] = 101, 100
	opens[n-1], closes[n-1] = 99.9, 101.5

	hits, score := a.detectPatterns(opens, highs, lows, closes)
	if len(hits) != 1 || hits[0].Name != "Bullish Engulfing" || hits[0].Bias != 0.5 {
		t.Fatalf("hits = %v, want a single Bullish Engulfing", patternNames(hits))
	}
	if score.Score != 65 || score.Signal != "bullish" {
		t.Errorf("score = %v %q, want bullish 65", score.Score, score.Signal)
	}
}

func TestDetectDoji(t *testing.T) {
	n := 20
	opens := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		opens[i], closes[i] = 100, 101
		highs[i], lows[i] = 101.2, 99.9
	}
	// Tiny body with a wide range on the last candle
	opens[n-1], closes[n-1] = 100.5, 100.52
	highs[n-1], lows[n-1] = 101.5, 99.5

	hits := detectCandlesticks(opens, highs, lows, closes)
	if len(hits) != 1 || hits[0].Name != "Doji" || hits[0].Bias != 0 {
		t.Fatalf("hits = %v, want a single Doji", patternNames(hits))
	}
}

func TestDetectPatternsNone(t *testing.T) {
	a := testAnalyzer()

	// A featureless flat tape with zero-body candles yields nothing
	n := 60
	flat := make([]float64, n)
	for i := range flat {
		flat[i] = 100
	}
	hits, score := a.detectPatterns(flat, flat, flat, flat)
	if len(hits) != 0 {
		t.Fatalf("hits = %v, want none", patternNames(hits))
	}
	if score.Score != 50 || score.Signal != "neutral" {
		t.Errorf("score = %v %q, want neutral 50", score.Score, score.Signal)
	}
}
