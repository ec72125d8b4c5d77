package fundamentals

import (
	"context"
	"testing"

	"github.com/aristath/stock-scorecard/internal/clients/finnhub"
	"github.com/aristath/stock-scorecard/internal/domain"
)

func TestZZDebugWeights(t *testing.T) {
	metrics := &fakeMetrics{
		financials: richFinancials(),
		profile:    &finnhub.Profile{Name: "Apple Inc", FinnhubIndustry: "Technology", MarketCap: 3e6},
	}
	quarterly := &fakeQuarterly{
		series: quarterHistory(8, 120e9, 30e9),
		cashflows: []domain.CashFlowQuarter{
			{OperatingCF: fptr(30e9), FreeCashFlow: fptr(26e9)},
			{OperatingCF: fptr(28e9), FreeCashFlow: fptr(24e9)},
			{OperatingCF: fptr(27e9), FreeCashFlow: fptr(23e9)},
			{OperatingCF: fptr(25e9), FreeCashFlow: fptr(22e9)},
		},
	}
	analysis, err := newTestAnalyzer(metrics, quarterly).Analyze(context.Background(), "AAPL")
	if err != nil || analysis == nil {
		t.Fatalf("err=%v analysis=%v", err, analysis)
	}
	t.Logf("valuation=%v growth=%v quality=%v sum=%v isbank=%v",
		analysis.Valuation.Weight, analysis.Growth.Weight, analysis.Quality.Weight,
		analysis.Valuation.Weight+analysis.Growth.Weight+analysis.Quality.Weight,
		analysis.IsBank)
}
