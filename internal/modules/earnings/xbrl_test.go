package earnings

import (
	"testing"

	"github.com/aristath/stock-scorecard/internal/clients/edgar"
	"github.com/aristath/stock-scorecard/internal/clients/finnhub"
)

func icFiling(start, end string, items map[string]float64) finnhub.ReportedFiling {
	f := finnhub.ReportedFiling{StartDate: start, EndDate: end, Form: "10-Q"}
	for concept, value := range items {
		f.Report.IC = append(f.Report.IC, finnhub.ReportItem{Concept: concept, Value: value})
	}
	return f
}

func TestParseFinnhubQuarterlyDeaccumulation(t *testing.T) {
	filings := []finnhub.ReportedFiling{
		// Standalone Q1: 90 days
		icFiling("2024-01-01", "2024-03-31", map[string]float64{
			"us-gaap_Revenues":      100,
			"us-gaap_NetIncomeLoss": 10,
		}),
		// Cumulative six months
		icFiling("2024-01-01", "2024-06-30", map[string]float64{
			"us-gaap_Revenues":      220,
			"us-gaap_NetIncomeLoss": 25,
		}),
		// Cumulative nine months
		icFiling("2024-01-01", "2024-09-30", map[string]float64{
			"us-gaap_Revenues":      350,
			"us-gaap_NetIncomeLoss": 45,
		}),
	}

	quarters := ParseFinnhubQuarterly(filings)
	if len(quarters) != 3 {
		t.Fatalf("expected 3 quarters, got %d", len(quarters))
	}

	// Newest first
	byEnd := map[string][2]float64{}
	for _, q := range quarters {
		byEnd[q.PeriodEnd.Format("2006-01-02")] = [2]float64{*q.Revenue, *q.NetIncome}
	}

	tests := []struct {
		end     string
		revenue float64
		income  float64
	}{
		{"2024-03-31", 100, 10},
		{"2024-06-30", 120, 15},
		{"2024-09-30", 130, 20},
	}
	for _, tt := range tests {
		got, ok := byEnd[tt.end]
		if !ok {
			t.Fatalf("missing quarter ending %s", tt.end)
		}
		if got[0] != tt.revenue {
			t.Errorf("quarter %s: revenue = %v, want %v", tt.end, got[0], tt.revenue)
		}
		if got[1] != tt.income {
			t.Errorf("quarter %s: net income = %v, want %v", tt.end, got[1], tt.income)
		}
	}

	if quarters[0].PeriodEnd.Format("2006-01-02") != "2024-09-30" {
		t.Errorf("quarters not sorted newest first: got %s", quarters[0].PeriodEnd.Format("2006-01-02"))
	}
}

func TestParseFinnhubQuarterlyCumulativeWithoutQ1(t *testing.T) {
	// A lone cumulative row with no matching standalone Q1 is kept as-is
	filings := []finnhub.ReportedFiling{
		icFiling("2024-01-05", "2024-06-30", map[string]float64{
			"us-gaap_Revenues": 200,
		}),
	}

	quarters := ParseFinnhubQuarterly(filings)
	if len(quarters) != 1 {
		t.Fatalf("expected 1 quarter, got %d", len(quarters))
	}
	if *quarters[0].Revenue != 200 {
		t.Errorf("revenue = %v, want 200", *quarters[0].Revenue)
	}
}

func TestParseFinnhubQuarterlyDropsEmptyRows(t *testing.T) {
	filings := []finnhub.ReportedFiling{
		icFiling("2024-01-01", "2024-03-31", map[string]float64{
			"us-gaap_OperatingIncomeLoss": 5,
		}),
		icFiling("2024-04-01", "2024-06-30", map[string]float64{
			"us-gaap_Revenues": 100,
		}),
	}

	quarters := ParseFinnhubQuarterly(filings)
	if len(quarters) != 1 {
		t.Fatalf("expected rows without revenue or net income dropped, got %d quarters", len(quarters))
	}
	if quarters[0].PeriodEnd.Format("2006-01-02") != "2024-06-30" {
		t.Errorf("kept wrong quarter: %s", quarters[0].PeriodEnd.Format("2006-01-02"))
	}
}

func TestParseFinnhubQuarterlyConceptPreference(t *testing.T) {
	f := finnhub.ReportedFiling{StartDate: "2024-01-01", EndDate: "2024-03-31", Form: "10-Q"}
	f.Report.IC = []finnhub.ReportItem{
		{Concept: "us-gaap_SalesRevenueNet", Value: float64(90)},
		{Concept: "us-gaap_Revenues", Value: float64(100)},
		{Concept: "us-gaap_NetIncomeLoss", Value: "N/A"},
		{Concept: "us-gaap_ProfitLoss", Value: float64(12)},
	}

	quarters := ParseFinnhubQuarterly([]finnhub.ReportedFiling{f})
	if len(quarters) != 1 {
		t.Fatalf("expected 1 quarter, got %d", len(quarters))
	}
	if *quarters[0].Revenue != 100 {
		t.Errorf("revenue = %v, want 100 (us-gaap_Revenues preferred)", *quarters[0].Revenue)
	}
	if *quarters[0].NetIncome != 12 {
		t.Errorf("net income = %v, want 12 (ProfitLoss fallback)", *quarters[0].NetIncome)
	}
}

func TestParseFinnhubCashFlow(t *testing.T) {
	q1 := finnhub.ReportedFiling{StartDate: "2024-01-01", EndDate: "2024-03-31", Form: "10-Q"}
	q1.Report.CF = []finnhub.ReportItem{
		{Concept: "us-gaap_NetCashProvidedByUsedInOperatingActivities", Value: float64(50)},
		{Concept: "us-gaap_PaymentsToAcquirePropertyPlantAndEquipment", Value: float64(20)},
	}
	h1 := finnhub.ReportedFiling{StartDate: "2024-01-01", EndDate: "2024-06-30", Form: "10-Q"}
	h1.Report.CF = []finnhub.ReportItem{
		{Concept: "us-gaap_NetCashProvidedByUsedInOperatingActivities", Value: float64(110)},
		{Concept: "us-gaap_PaymentsToAcquirePropertyPlantAndEquipment", Value: float64(45)},
	}

	quarters := ParseFinnhubCashFlow([]finnhub.ReportedFiling{q1, h1})
	if len(quarters) != 2 {
		t.Fatalf("expected 2 quarters, got %d", len(quarters))
	}

	// Newest first: Q2 de-accumulated
	if *quarters[0].OperatingCF != 60 {
		t.Errorf("Q2 operating cash flow = %v, want 60", *quarters[0].OperatingCF)
	}
	if *quarters[0].CapEx != 25 {
		t.Errorf("Q2 capex = %v, want 25", *quarters[0].CapEx)
	}
	if *quarters[0].FreeCashFlow != 35 {
		t.Errorf("Q2 free cash flow = %v, want 35", *quarters[0].FreeCashFlow)
	}
	if *quarters[1].FreeCashFlow != 30 {
		t.Errorf("Q1 free cash flow = %v, want 30", *quarters[1].FreeCashFlow)
	}
}

func TestParseEdgarQuarterly(t *testing.T) {
	facts := &edgar.CompanyFacts{
		Facts: map[string]map[string]edgar.Fact{
			"us-gaap": {
				"Revenues": {
					Units: map[string][]edgar.FactEntry{
						"USD": {
							// Superseded by the amended filing below
							{Start: "2024-01-01", End: "2024-03-31", Val: 95, Form: "10-Q", Filed: "2024-04-20"},
							{Start: "2024-01-01", End: "2024-03-31", Val: 100, Form: "10-Q/A", Filed: "2024-05-10"},
							// Cumulative span, filtered out
							{Start: "2024-01-01", End: "2024-06-30", Val: 220, Form: "10-Q", Filed: "2024-07-20"},
							{Start: "2024-04-01", End: "2024-06-30", Val: 120, Form: "10-Q", Filed: "2024-07-20"},
							// Annual report, wrong form
							{Start: "2023-01-01", End: "2023-12-31", Val: 400, Form: "10-K", Filed: "2024-02-15"},
						},
					},
				},
				"NetIncomeLoss": {
					Units: map[string][]edgar.FactEntry{
						"USD": {
							{Start: "2024-01-01", End: "2024-03-31", Val: 10, Form: "10-Q", Filed: "2024-04-20"},
							{Start: "2024-04-01", End: "2024-06-30", Val: 15, Form: "10-Q", Filed: "2024-07-20"},
						},
					},
				},
			},
		},
	}

	quarters := ParseEdgarQuarterly(facts)
	if len(quarters) != 2 {
		t.Fatalf("expected 2 quarters, got %d", len(quarters))
	}

	q2, q1 := quarters[0], quarters[1]
	if q1.PeriodEnd.Format("2006-01-02") != "2024-03-31" {
		t.Fatalf("unexpected ordering: oldest quarter ends %s", q1.PeriodEnd.Format("2006-01-02"))
	}
	if *q1.Revenue != 100 {
		t.Errorf("Q1 revenue = %v, want 100 (latest filed wins)", *q1.Revenue)
	}
	if *q2.Revenue != 120 {
		t.Errorf("Q2 revenue = %v, want 120 (cumulative span excluded)", *q2.Revenue)
	}
	if *q2.NetIncome != 15 {
		t.Errorf("Q2 net income = %v, want 15", *q2.NetIncome)
	}
	if q1.FiscalQuarter != 1 || q1.FiscalYear != 2024 {
		t.Errorf("Q1 labeled Q%d %d, want Q1 2024", q1.FiscalQuarter, q1.FiscalYear)
	}
}

func TestCalendarQuarter(t *testing.T) {
	tests := []struct {
		date    string
		quarter int
		year    int
	}{
		{"2024-03-31", 1, 2024},
		{"2024-06-30", 2, 2024},
		{"2024-09-28", 3, 2024},
		{"2024-12-31", 4, 2024},
	}
	for _, tt := range tests {
		end, _ := parseDate(tt.date)
		q, y := calendarQuarter(end)
		if q != tt.quarter || y != tt.year {
			t.Errorf("calendarQuarter(%s) = Q%d %d, want Q%d %d", tt.date, q, y, tt.quarter, tt.year)
		}
	}
}

func TestParseDate(t *testing.T) {
	if _, ok := parseDate("2024-03-31T00:00:00Z"); !ok {
		t.Error("expected timestamp prefix to parse")
	}
	if _, ok := parseDate("bad"); ok {
		t.Error("expected short string to fail")
	}
	if _, ok := parseDate(""); ok {
		t.Error("expected empty string to fail")
	}
}
