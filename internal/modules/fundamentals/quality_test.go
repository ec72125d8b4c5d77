package fundamentals

import (
	"strings"
	"testing"

	"github.com/aristath/stock-scorecard/internal/domain"
	"github.com/aristath/stock-scorecard/internal/modules/benchmarks"
)

func TestNormalizedDebtToEquity(t *testing.T) {
	// Finnhub reports D/E as a percentage for some tickers
	if got := normalizedDebtToEquity(&Info{DebtToEquity: fptr(150)}); *got != 1.5 {
		t.Errorf("percent-shaped D/E = %v, want 1.5", *got)
	}
	if got := normalizedDebtToEquity(&Info{DebtToEquity: fptr(0.8)}); *got != 0.8 {
		t.Errorf("ratio-shaped D/E = %v, want 0.8", *got)
	}
	if got := normalizedDebtToEquity(&Info{}); got != nil {
		t.Error("expected nil without D/E")
	}
}

func TestScoreDebtToEquityTables(t *testing.T) {
	gaps := gapList{}

	standard := scoreDebtToEquity(&Info{DebtToEquity: fptr(3.0)}, &gaps)
	bank := scoreBankDebtToEquity(&Info{DebtToEquity: fptr(3.0)}, &gaps)
	if bank.Score <= standard.Score {
		t.Errorf("bank table should be lenient at D/E 3: bank %v vs standard %v", bank.Score, standard.Score)
	}
	if !strings.Contains(bank.Description, "Normal bank leverage") {
		t.Errorf("description = %q", bank.Description)
	}
}

func TestScoreCashConversionSignHandling(t *testing.T) {
	gaps := gapList{}
	series := &domain.QuarterlySeries{Quarters: []domain.QuarterlyIncome{
		{NetIncome: fptr(-50e6)},
	}}

	// Accounting loss but positive cash flow
	goodCash := scoreCashConversion(&Info{FreeCashFlow: fptr(80e6)}, series, nil, &gaps)
	if goodCash.Score != 80 {
		t.Errorf("loss with positive FCF score = %v, want 80", goodCash.Score)
	}

	bothNegative := scoreCashConversion(&Info{FreeCashFlow: fptr(-30e6)}, series, nil, &gaps)
	if bothNegative.Score != 25 {
		t.Errorf("both negative score = %v, want 25", bothNegative.Score)
	}

	profitable := &domain.QuarterlySeries{Quarters: []domain.QuarterlyIncome{
		{NetIncome: fptr(100e6)},
	}}
	full := scoreCashConversion(&Info{FreeCashFlow: fptr(110e6)}, profitable, nil, &gaps)
	if full.Score < 75 {
		t.Errorf("cash conversion 1.1 score = %v, want >= 75", full.Score)
	}
	if len(gaps) != 0 {
		t.Errorf("unexpected gaps: %v", gaps)
	}
}

func TestScoreOCFTrend(t *testing.T) {
	gaps := gapList{}

	growing := scoreOCFTrend([]domain.CashFlowQuarter{
		{OperatingCF: fptr(120e6)},
		{OperatingCF: fptr(100e6)},
	}, &gaps)
	if !strings.Contains(growing.Description, "Strong and improving") {
		t.Errorf("description = %q", growing.Description)
	}

	negative := scoreOCFTrend([]domain.CashFlowQuarter{
		{OperatingCF: fptr(-20e6)},
		{OperatingCF: fptr(-10e6)},
	}, &gaps)
	if negative.Score > 30 {
		t.Errorf("negative OCF score = %v, want <= 30", negative.Score)
	}
	if negative.Description != "Negative operating cash flow" {
		t.Errorf("description = %q", negative.Description)
	}

	short := scoreOCFTrend([]domain.CashFlowQuarter{{OperatingCF: fptr(10e6)}}, &gaps)
	if short.Score != 0 {
		t.Error("single quarter should be a gap")
	}
	if len(gaps) != 1 || gaps[0] != "OCF Trend" {
		t.Errorf("gaps = %v", gaps)
	}
}

func TestScoreFCFYieldFallbacks(t *testing.T) {
	gaps := gapList{}

	direct := scoreFCFYield(&Info{FreeCashFlow: fptr(5e9), MarketCap: fptr(100e9)}, nil, &gaps)
	if *direct.Value != 5 {
		t.Errorf("direct FCF yield = %v, want 5", *direct.Value)
	}

	// From quarterly cash flow history when the TTM figure is missing
	history := scoreFCFYield(&Info{MarketCap: fptr(100e9)}, cashflowSeries(1e9, 1e9, 1e9, 1e9), &gaps)
	if *history.Value != 4 {
		t.Errorf("history FCF yield = %v, want 4", *history.Value)
	}

	// EV/FCF approximation: ratio 20 implies a 5% yield
	evBased := scoreFCFYield(&Info{EVFcf: fptr(20)}, nil, &gaps)
	if *evBased.Value != 5 {
		t.Errorf("EV-based FCF yield = %v, want 5", *evBased.Value)
	}

	none := scoreFCFYield(&Info{}, nil, &gaps)
	if none.Score != 0 {
		t.Error("expected missing metric")
	}
	if len(gaps) != 1 {
		t.Errorf("gaps = %v", gaps)
	}
}

func TestScoreQualityDispatchesBankVariant(t *testing.T) {
	gaps := gapList{}
	info := &Info{
		Category:     CategoryBank,
		ROE:          fptr(15),
		ROA:          fptr(1.3),
		DebtToEquity: fptr(2.5),
		PayoutRatio:  fptr(30),
	}

	pillar := scoreQuality(info, benchmarks.SectorBenchmark("Financial Services"), nil, nil, &gaps)
	if _, ok := pillar.Metrics["roe"]; !ok {
		t.Fatal("bank pillar should carry ROE")
	}
	if _, ok := pillar.Metrics["roic"]; ok {
		t.Fatal("bank pillar should not carry ROIC")
	}
	if len(pillar.Metrics) != 4 {
		t.Errorf("bank pillar has %d metrics, want 4", len(pillar.Metrics))
	}
	if pillar.Score <= 0 {
		t.Errorf("pillar score = %v, want > 0", pillar.Score)
	}
	if len(gaps) != 0 {
		t.Errorf("unexpected gaps: %v", gaps)
	}
}

func TestScorePayoutRatioSweetSpot(t *testing.T) {
	gaps := gapList{}
	moderate := scorePayoutRatio(&Info{PayoutRatio: fptr(25)}, &gaps)
	high := scorePayoutRatio(&Info{PayoutRatio: fptr(90)}, &gaps)
	if moderate.Score <= high.Score {
		t.Errorf("25%% payout (%v) should beat 90%% payout (%v)", moderate.Score, high.Score)
	}
	if high.Score != 18 {
		t.Errorf("90%% payout score = %v, want 18", high.Score)
	}
}
