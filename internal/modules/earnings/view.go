package earnings

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stock-scorecard/internal/cache"
	"github.com/aristath/stock-scorecard/internal/clients/edgar"
	"github.com/aristath/stock-scorecard/internal/domain"
)

const (
	maxViewQuarters = 8
	// yoyToleranceDays bounds how far a candidate quarter may sit from
	// exactly one year back and still count as the YoY comparison
	yoyToleranceDays = 40
	// filingMatchDays bounds fuzzy matching between statement period ends
	// and SEC filing report dates
	filingMatchDays = 5
)

// QuarterRow is one quarter in the earnings view, with derived deltas
type QuarterRow struct {
	PeriodEnd       string   `json:"period_end"`
	PeriodLabel     string   `json:"period_label"`
	Revenue         *float64 `json:"revenue"`
	NetIncome       *float64 `json:"net_income"`
	OperatingIncome *float64 `json:"operating_income"`
	OperatingMargin *float64 `json:"operating_margin"`
	RevenueQoQ      *float64 `json:"revenue_qoq"`
	NetIncomeQoQ    *float64 `json:"net_income_qoq"`
	RevenueYoY      *float64 `json:"revenue_yoy"`
	NetIncomeYoY    *float64 `json:"net_income_yoy"`
	FilingURL       string   `json:"filing_url,omitempty"`
	FilingDate      string   `json:"filing_date,omitempty"`
}

// View is the full earnings response for one ticker
type View struct {
	Ticker     string       `json:"ticker"`
	Quarters   []QuarterRow `json:"quarters"`
	DataSource string       `json:"data_source"`
}

// filing is one SEC filing reference keyed by report date
type filing struct {
	URL   string `json:"url"`
	Filed string `json:"filed"`
	Form  string `json:"form"`
}

// SubmissionsClient is the slice of the EDGAR client the view uses
type SubmissionsClient interface {
	GetSubmissions(ctx context.Context, cik string) (*edgar.Submissions, error)
}

// ViewBuilder assembles the earnings view from the quarterly pipeline plus
// SEC filing links
type ViewBuilder struct {
	pipeline    *Pipeline
	submissions SubmissionsClient
	cache       *cache.Store
	log         zerolog.Logger
}

// NewViewBuilder creates an earnings view builder. submissions may be nil;
// filing links are then omitted.
func NewViewBuilder(pipeline *Pipeline, submissions SubmissionsClient, cacheStore *cache.Store, log zerolog.Logger) *ViewBuilder {
	return &ViewBuilder{
		pipeline:    pipeline,
		submissions: submissions,
		cache:       cacheStore,
		log:         log.With().Str("component", "earnings_view").Logger(),
	}
}

// Build produces the earnings view for a ticker, or nil when no quarterly
// data exists
func (b *ViewBuilder) Build(ctx context.Context, ticker string) (*View, error) {
	if b.cache != nil {
		var cached View
		if b.cache.Get(ticker, "earnings_view", "analysis", 24*time.Hour, &cached) {
			return &cached, nil
		}
	}

	series, err := b.pipeline.GetQuarterlyIncome(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if series == nil || len(series.Quarters) == 0 {
		return nil, nil
	}

	quarters := series.Quarters
	if len(quarters) > maxViewQuarters {
		quarters = quarters[:maxViewQuarters]
	}

	filings := b.filingURLs(ctx, ticker)
	view := buildView(ticker, series.Source, quarters, filings)

	if b.cache != nil {
		if err := b.cache.Set(ticker, "earnings_view", "analysis", view); err != nil {
			b.log.Error().Err(err).Str("ticker", ticker).Msg("failed to cache earnings view")
		}
	}
	return view, nil
}

// buildView derives margins and QoQ/YoY deltas; quarters must be sorted
// newest first
func buildView(ticker, source string, quarters []domain.QuarterlyIncome, filings map[string]filing) *View {
	rows := make([]QuarterRow, 0, len(quarters))

	for i, q := range quarters {
		row := QuarterRow{
			PeriodEnd:       q.PeriodEnd.Format("2006-01-02"),
			PeriodLabel:     q.Label(),
			Revenue:         q.Revenue,
			NetIncome:       q.NetIncome,
			OperatingIncome: q.OperatingIncome,
		}

		if q.Revenue != nil && q.OperatingIncome != nil && *q.Revenue != 0 {
			row.OperatingMargin = ptr(round2(*q.OperatingIncome / *q.Revenue * 100))
		}

		if i+1 < len(quarters) {
			prior := quarters[i+1]
			row.RevenueQoQ = pctChange(q.Revenue, prior.Revenue)
			row.NetIncomeQoQ = pctChange(q.NetIncome, prior.NetIncome)
		}

		if yoy := findYoY(quarters, i); yoy != nil {
			row.RevenueYoY = pctChange(q.Revenue, yoy.Revenue)
			row.NetIncomeYoY = pctChange(q.NetIncome, yoy.NetIncome)
		}

		if match := matchFiling(q.PeriodEnd, filings); match != nil {
			row.FilingURL = match.URL
			row.FilingDate = match.Filed
		}

		rows = append(rows, row)
	}

	return &View{Ticker: ticker, Quarters: rows, DataSource: source}
}

// findYoY locates the quarter closest to one year before quarters[idx],
// within tolerance
func findYoY(quarters []domain.QuarterlyIncome, idx int) *domain.QuarterlyIncome {
	target := quarters[idx].PeriodEnd.AddDate(0, 0, -365)

	var best *domain.QuarterlyIncome
	bestDiff := yoyToleranceDays
	for j := idx + 1; j < len(quarters); j++ {
		diff := int(math.Abs(quarters[j].PeriodEnd.Sub(target).Hours() / 24))
		if diff < bestDiff {
			bestDiff = diff
			best = &quarters[j]
		}
	}
	return best
}

// matchFiling pairs a period end with a filing by report date, allowing a
// few days of drift between statement and filing calendars
func matchFiling(periodEnd time.Time, filings map[string]filing) *filing {
	if len(filings) == 0 {
		return nil
	}

	if f, ok := filings[periodEnd.Format("2006-01-02")]; ok {
		return &f
	}

	var best *filing
	bestDiff := filingMatchDays + 1
	for dateStr, f := range filings {
		candidate, ok := parseDate(dateStr)
		if !ok {
			continue
		}
		diff := int(math.Abs(candidate.Sub(periodEnd).Hours() / 24))
		if diff < bestDiff {
			bestDiff = diff
			f := f
			best = &f
		}
	}
	return best
}

// filingURLs builds the report-date to filing-URL map from EDGAR
// submissions, best effort
func (b *ViewBuilder) filingURLs(ctx context.Context, ticker string) map[string]filing {
	if b.submissions == nil {
		return nil
	}

	if b.cache != nil {
		var cached map[string]filing
		if b.cache.Get(ticker, "filing_urls", "edgar", 24*time.Hour, &cached) {
			return cached
		}
	}

	cik, err := b.pipeline.ResolveCIK(ctx, ticker)
	if err != nil {
		b.log.Warn().Err(err).Str("ticker", ticker).Msg("CIK lookup for filings failed")
		return nil
	}

	subs, err := b.submissions.GetSubmissions(ctx, cik)
	if err != nil {
		b.log.Warn().Err(err).Str("ticker", ticker).Msg("submissions fetch failed")
		return nil
	}

	recent := subs.Filings.Recent
	filings := make(map[string]filing)
	for i, form := range recent.Form {
		if form != "10-Q" && form != "10-K" {
			continue
		}
		if i >= len(recent.ReportDate) || i >= len(recent.AccessionNumber) || i >= len(recent.PrimaryDocument) {
			continue
		}

		filed := ""
		if i < len(recent.FilingDate) {
			filed = recent.FilingDate[i]
		}

		filings[recent.ReportDate[i]] = filing{
			URL:   edgar.FilingURL(cik, recent.AccessionNumber[i], recent.PrimaryDocument[i]),
			Filed: filed,
			Form:  form,
		}
	}

	if len(filings) > 0 && b.cache != nil {
		if err := b.cache.Set(ticker, "filing_urls", "edgar", filings); err != nil {
			b.log.Error().Err(err).Str("ticker", ticker).Msg("failed to cache filing URLs")
		}
	}
	return filings
}

// pctChange computes percentage change, nil on missing or zero prior
func pctChange(current, prior *float64) *float64 {
	if current == nil || prior == nil || *prior == 0 {
		return nil
	}
	return ptr(round2((*current - *prior) / math.Abs(*prior) * 100))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
