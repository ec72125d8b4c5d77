package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stock-scorecard/internal/clients/finnhub"
	"github.com/aristath/stock-scorecard/internal/clients/yahoo"
	"github.com/aristath/stock-scorecard/internal/domain"
	"github.com/aristath/stock-scorecard/internal/modules/scorecard"
)

type fakeCharts struct {
	quote    *yahoo.Quote
	quoteErr error
	chartErr error
	price    *float64
	priceErr error
}

func (f *fakeCharts) GetChart(_ context.Context, symbol string, timeframe domain.Timeframe) (*domain.ChartData, error) {
	if f.chartErr != nil {
		return nil, f.chartErr
	}
	return &domain.ChartData{Symbol: symbol, Timeframe: timeframe}, nil
}

func (f *fakeCharts) GetQuote(_ context.Context, _ string) (*yahoo.Quote, error) {
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return f.quote, nil
}

func (f *fakeCharts) GetCurrentPrice(_ context.Context, _ string, _ int) (*float64, error) {
	if f.priceErr != nil {
		return nil, f.priceErr
	}
	return f.price, nil
}

type fakeCompany struct {
	profile *finnhub.Profile
	basics  *finnhub.BasicFinancials
	news    []finnhub.News
	reports []finnhub.EarningsReport
}

func (f *fakeCompany) Enabled() bool { return true }

func (f *fakeCompany) GetProfile(_ context.Context, _ string) (*finnhub.Profile, error) {
	if f.profile == nil {
		return nil, errors.New("no profile")
	}
	return f.profile, nil
}

func (f *fakeCompany) GetBasicFinancials(_ context.Context, _ string) (*finnhub.BasicFinancials, error) {
	if f.basics == nil {
		return nil, errors.New("no metrics")
	}
	return f.basics, nil
}

func (f *fakeCompany) GetCompanyNews(_ context.Context, _ string, _, _ int) ([]finnhub.News, error) {
	return f.news, nil
}

func (f *fakeCompany) GetEarnings(_ context.Context, _ string, _ int) ([]finnhub.EarningsReport, error) {
	return f.reports, nil
}

func (f *fakeCompany) GetRecommendations(_ context.Context, _ string) ([]finnhub.RecommendationTrend, error) {
	return nil, nil
}

type fakeFund struct {
	result *domain.FundamentalAnalysis
	err    error
}

func (f *fakeFund) Analyze(_ context.Context, _ string) (*domain.FundamentalAnalysis, error) {
	return f.result, f.err
}

// fakeTech returns a canned analysis per timeframe; absent entries mean
// "too few bars"
type fakeTech struct {
	results map[domain.Timeframe]*domain.TechnicalAnalysis
}

func (f *fakeTech) Analyze(chart *domain.ChartData) *domain.TechnicalAnalysis {
	if chart == nil {
		return nil
	}
	return f.results[chart.Timeframe]
}

func testAggregator(charts ChartProvider, company CompanyDataProvider, fund FundamentalAnalyzer, tech TechnicalAnalyzer) *Aggregator {
	return NewAggregator(charts, company, fund, tech, nil, scorecard.NewEngine(zerolog.Nop()), nil, nil, zerolog.Nop())
}

func TestGetCompanyOverviewEnrichment(t *testing.T) {
	charts := &fakeCharts{quote: &yahoo.Quote{
		Symbol:         "AAPL",
		Price:          105,
		PreviousClose:  100,
		Currency:       "USD",
		Exchange:       "NMS",
		InstrumentType: "EQUITY",
		LongName:       "Apple Inc.",
	}}
	company := &fakeCompany{
		profile: &finnhub.Profile{
			Name:            "Apple Inc",
			FinnhubIndustry: "Technology",
			MarketCap:       3_000_000, // millions
			WebURL:          "https://www.apple.com",
		},
		basics: &finnhub.BasicFinancials{Metric: map[string]interface{}{
			"peBasicExclExtraTTM": 28.5,
			"beta":                1.2,
		}},
	}
	a := testAggregator(charts, company, &fakeFund{}, &fakeTech{})

	overview, err := a.GetCompanyOverview(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if overview.Change != 5 || overview.ChangePercent != 5 {
		t.Errorf("change = %v / %v%%, want 5 / 5%%", overview.Change, overview.ChangePercent)
	}
	if overview.Info.Sector != "Technology" {
		t.Errorf("sector = %q", overview.Info.Sector)
	}
	if overview.Info.MarketCap != 3e12 {
		t.Errorf("market cap = %v, want 3e12", overview.Info.MarketCap)
	}
	if overview.Info.IsETF {
		t.Error("equity flagged as ETF")
	}
	if got := overview.Metrics["trailing_pe"]; got != 28.5 {
		t.Errorf("trailing_pe = %v, want 28.5", got)
	}
}

func TestGetCompanyOverviewUnresolvable(t *testing.T) {
	a := testAggregator(&fakeCharts{quoteErr: errors.New("not found")}, &fakeCompany{}, &fakeFund{}, &fakeTech{})
	if _, err := a.GetCompanyOverview(context.Background(), "NOPE"); err == nil {
		t.Fatal("expected error for unresolvable symbol")
	}
}

func TestGetCompanyOverviewPriceFallback(t *testing.T) {
	price := 187.5
	charts := &fakeCharts{
		quoteErr: errors.New("yahoo: status 500"),
		price:    &price,
	}
	company := &fakeCompany{profile: &finnhub.Profile{Name: "Apple Inc"}}
	a := testAggregator(charts, company, &fakeFund{}, &fakeTech{})

	overview, err := a.GetCompanyOverview(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("expected price-only fallback, got error: %v", err)
	}
	if overview.Price != 187.5 {
		t.Errorf("price = %v, want 187.5", overview.Price)
	}
	if overview.Change != 0 || overview.ChangePercent != 0 {
		t.Errorf("degraded overview should carry no change figures, got %v/%v", overview.Change, overview.ChangePercent)
	}
	// Finnhub enrichment still applies to the degraded record
	if overview.Info.Name != "Apple Inc" {
		t.Errorf("name = %q, want Apple Inc", overview.Info.Name)
	}
}

func TestGenerateScorecardTechnicalOnly(t *testing.T) {
	tech := &fakeTech{results: map[domain.Timeframe]*domain.TechnicalAnalysis{
		domain.TimeframeDaily:  {Timeframe: domain.TimeframeDaily, Overall: 70},
		domain.TimeframeWeekly: {Timeframe: domain.TimeframeWeekly, Overall: 60},
	}}
	a := testAggregator(&fakeCharts{}, &fakeCompany{}, &fakeFund{}, tech)

	card, err := a.GenerateScorecard(context.Background(), "SPY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if card == nil {
		t.Fatal("expected scorecard")
	}
	if card.Fundamental != nil {
		t.Error("expected no fundamental section")
	}
	// 70*.5 + 60*.35 + 50*.15 = 63.5, technical only
	if card.Overall != 63.5 {
		t.Errorf("overall = %v, want 63.5", card.Overall)
	}
}

func TestGenerateScorecardRequiresDaily(t *testing.T) {
	tech := &fakeTech{results: map[domain.Timeframe]*domain.TechnicalAnalysis{
		domain.TimeframeWeekly: {Timeframe: domain.TimeframeWeekly, Overall: 60},
	}}
	a := testAggregator(&fakeCharts{}, &fakeCompany{}, &fakeFund{}, tech)

	card, err := a.GenerateScorecard(context.Background(), "SPY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if card != nil {
		t.Fatal("expected nil scorecard without daily bars")
	}
}

func TestGenerateScorecardSurvivesFundamentalError(t *testing.T) {
	tech := &fakeTech{results: map[domain.Timeframe]*domain.TechnicalAnalysis{
		domain.TimeframeDaily: {Timeframe: domain.TimeframeDaily, Overall: 80},
	}}
	a := testAggregator(&fakeCharts{}, &fakeCompany{}, &fakeFund{err: errors.New("provider down")}, tech)

	card, err := a.GenerateScorecard(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if card == nil || card.Fundamental != nil {
		t.Fatalf("expected technical-only scorecard, got %+v", card)
	}
}

func TestGetNews(t *testing.T) {
	published := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	company := &fakeCompany{news: []finnhub.News{{
		Headline: "Quarterly results ahead of estimates",
		Source:   "Reuters",
		URL:      "https://example.com/article",
		Datetime: published.Unix(),
	}}}
	a := testAggregator(&fakeCharts{}, company, &fakeFund{}, &fakeTech{})

	items, err := a.GetNews(context.Background(), "AAPL", 7, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if !items[0].Published.Equal(published) {
		t.Errorf("published = %v, want %v", items[0].Published, published)
	}
}

func TestGetEarningsHistorySkipsBadPeriods(t *testing.T) {
	actual := 1.52
	company := &fakeCompany{reports: []finnhub.EarningsReport{
		{Period: "2025-03-31", Actual: &actual},
		{Period: "invalid"},
	}}
	a := testAggregator(&fakeCharts{}, company, &fakeFund{}, &fakeTech{})

	periods, err := a.GetEarningsHistory(context.Background(), "AAPL", 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(periods) != 1 {
		t.Fatalf("periods = %d, want 1", len(periods))
	}
	if periods[0].Actual == nil || *periods[0].Actual != 1.52 {
		t.Errorf("actual = %v, want 1.52", periods[0].Actual)
	}
}
