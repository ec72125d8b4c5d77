// Package services wires the upstream clients, cache, and analyzers into
// the request-facing operations the API serves.
package services

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stock-scorecard/internal/cache"
	"github.com/aristath/stock-scorecard/internal/clients/finnhub"
	"github.com/aristath/stock-scorecard/internal/clients/yahoo"
	"github.com/aristath/stock-scorecard/internal/domain"
	"github.com/aristath/stock-scorecard/internal/marketcal"
	"github.com/aristath/stock-scorecard/internal/modules/earnings"
	"github.com/aristath/stock-scorecard/internal/modules/scorecard"
)

// Analysis cache TTLs
const (
	analysisTTL  = 24 * time.Hour
	scorecardTTL = time.Hour
	dailyBarTTL  = 6 * time.Hour
	weeklyBarTTL = 24 * time.Hour
	newsTTL      = time.Hour
	earningsTTL  = 24 * time.Hour
)

// ChartProvider supplies quotes and candle series
type ChartProvider interface {
	GetChart(ctx context.Context, symbol string, timeframe domain.Timeframe) (*domain.ChartData, error)
	GetQuote(ctx context.Context, symbol string) (*yahoo.Quote, error)
	GetCurrentPrice(ctx context.Context, symbol string, maxRetries int) (*float64, error)
}

// CompanyDataProvider enriches identity and supplies news, earnings
// history, and analyst recommendations
type CompanyDataProvider interface {
	Enabled() bool
	GetProfile(ctx context.Context, symbol string) (*finnhub.Profile, error)
	GetBasicFinancials(ctx context.Context, symbol string) (*finnhub.BasicFinancials, error)
	GetCompanyNews(ctx context.Context, symbol string, days, maxItems int) ([]finnhub.News, error)
	GetEarnings(ctx context.Context, symbol string, limit int) ([]finnhub.EarningsReport, error)
	GetRecommendations(ctx context.Context, symbol string) ([]finnhub.RecommendationTrend, error)
}

// FundamentalAnalyzer produces the three-pillar fundamental analysis
type FundamentalAnalyzer interface {
	Analyze(ctx context.Context, ticker string) (*domain.FundamentalAnalysis, error)
}

// TechnicalAnalyzer scores one timeframe of bars
type TechnicalAnalyzer interface {
	Analyze(chart *domain.ChartData) *domain.TechnicalAnalysis
}

// EarningsViewer builds the quarterly earnings view
type EarningsViewer interface {
	Build(ctx context.Context, ticker string) (*earnings.View, error)
}

// Aggregator orchestrates data fetching, caching, and analysis
type Aggregator struct {
	charts       ChartProvider
	company      CompanyDataProvider
	fundamentals FundamentalAnalyzer
	technicals   TechnicalAnalyzer
	earnings     EarningsViewer
	engine       *scorecard.Engine
	cache        *cache.Store
	cal          *marketcal.Service
	log          zerolog.Logger
}

// NewAggregator wires the aggregator service
func NewAggregator(charts ChartProvider, company CompanyDataProvider, fund FundamentalAnalyzer, tech TechnicalAnalyzer, earn EarningsViewer, engine *scorecard.Engine, cacheStore *cache.Store, cal *marketcal.Service, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		charts:       charts,
		company:      company,
		fundamentals: fund,
		technicals:   tech,
		earnings:     earn,
		engine:       engine,
		cache:        cacheStore,
		cal:          cal,
		log:          log.With().Str("component", "aggregator").Logger(),
	}
}

// GetCompanyOverview resolves identity and headline metrics for a ticker.
// The yahoo quote is the primary source; the finnhub profile and metric
// map enrich it concurrently when available. Returns nil when the symbol
// cannot be resolved at all.
func (a *Aggregator) GetCompanyOverview(ctx context.Context, ticker string) (*domain.CompanyOverview, error) {
	if a.cache != nil {
		var cached domain.CompanyOverview
		if a.cache.Get(ticker, "overview", "composite", a.priceTTL(), &cached) {
			return &cached, nil
		}
	}

	quote, err := a.charts.GetQuote(ctx, ticker)
	if err != nil {
		// A flaky quote endpoint should not take the overview down while a
		// bare price is still obtainable through the retrying price fetch
		price, priceErr := a.charts.GetCurrentPrice(ctx, ticker, 2)
		if priceErr != nil || price == nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", ticker, err)
		}

		a.log.Warn().Err(err).Str("ticker", ticker).Msg("quote failed, serving price-only overview")

		overview := &domain.CompanyOverview{
			Info:    domain.CompanyInfo{Symbol: ticker},
			Price:   *price,
			Metrics: domain.Metrics{},
			AsOf:    time.Now().UTC(),
		}
		a.enrichOverview(ctx, ticker, overview)

		// Deliberately not cached: the next request should try for the
		// full quote again instead of pinning the degraded record
		return overview, nil
	}

	overview := &domain.CompanyOverview{
		Info: domain.CompanyInfo{
			Symbol:   ticker,
			Name:     quote.LongName,
			Exchange: quote.Exchange,
			Currency: quote.Currency,
			IsETF:    quote.IsETF(),
		},
		Price:   quote.Price,
		Change:  round2(quote.Price - quote.PreviousClose),
		Metrics: domain.Metrics{},
		AsOf:    time.Now().UTC(),
	}
	if quote.PreviousClose != 0 {
		overview.ChangePercent = round2(overview.Change / quote.PreviousClose * 100)
	}

	a.enrichOverview(ctx, ticker, overview)

	if a.cache != nil {
		if err := a.cache.Set(ticker, "overview", "composite", overview); err != nil {
			a.log.Warn().Err(err).Str("ticker", ticker).Msg("failed to cache overview")
		}
	}
	return overview, nil
}

// enrichOverview issues the profile and metric lookups concurrently; either
// may fail without affecting the other
func (a *Aggregator) enrichOverview(ctx context.Context, ticker string, overview *domain.CompanyOverview) {
	if a.company == nil || !a.company.Enabled() {
		return
	}

	var (
		wg      sync.WaitGroup
		profile *finnhub.Profile
		basics  *finnhub.BasicFinancials
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		p, err := a.company.GetProfile(ctx, ticker)
		if err != nil {
			a.log.Debug().Err(err).Str("ticker", ticker).Msg("profile enrichment failed")
			return
		}
		profile = p
	}()
	go func() {
		defer wg.Done()
		b, err := a.company.GetBasicFinancials(ctx, ticker)
		if err != nil {
			a.log.Debug().Err(err).Str("ticker", ticker).Msg("metrics enrichment failed")
			return
		}
		basics = b
	}()
	wg.Wait()

	if profile != nil {
		if profile.Name != "" {
			overview.Info.Name = profile.Name
		}
		overview.Info.Sector = profile.FinnhubIndustry
		overview.Info.Industry = profile.FinnhubIndustry
		overview.Info.WebURL = profile.WebURL
		overview.Info.Logo = profile.Logo
		overview.Info.Country = profile.Country
		overview.Info.IPODate = profile.IPO
		overview.Info.MarketCap = profile.MarketCap * 1e6
		overview.Info.SharesOut = profile.SharesOutstanding * 1e6
	}

	if basics != nil {
		for key, name := range map[string]string{
			"peBasicExclExtraTTM":          "trailing_pe",
			"forwardPE":                    "forward_pe",
			"beta":                         "beta",
			"dividendYieldIndicatedAnnual": "dividend_yield",
			"52WeekHigh":                   "fifty_two_week_high",
			"52WeekLow":                    "fifty_two_week_low",
			"10DayAverageTradingVolume":    "average_volume_10d",
		} {
			if v := basics.MetricFloat(key); v != nil {
				overview.Metrics[name] = *v
			}
		}
	}
}

// GetChart returns cached or freshly fetched bars for a timeframe
func (a *Aggregator) GetChart(ctx context.Context, ticker string, timeframe domain.Timeframe) (*domain.ChartData, error) {
	kind := "chart_" + string(timeframe)
	if a.cache != nil {
		var cached domain.ChartData
		if a.cache.Get(ticker, kind, "yahoo", a.chartTTL(timeframe), &cached) {
			return &cached, nil
		}
	}

	chart, err := a.charts.GetChart(ctx, ticker, timeframe)
	if err != nil {
		return nil, err
	}

	if a.cache != nil && chart != nil && len(chart.Bars) > 0 {
		if err := a.cache.Set(ticker, kind, "yahoo", chart); err != nil {
			a.log.Warn().Err(err).Str("ticker", ticker).Msg("failed to cache chart")
		}
	}
	return chart, nil
}

// GetFundamentalAnalysis returns the cached or freshly computed analysis.
// nil without error means the symbol has no resolvable fundamentals.
func (a *Aggregator) GetFundamentalAnalysis(ctx context.Context, ticker string) (*domain.FundamentalAnalysis, error) {
	if a.cache != nil {
		var cached domain.FundamentalAnalysis
		if a.cache.Get(ticker, "fundamental", "analysis", analysisTTL, &cached) {
			return &cached, nil
		}
	}

	result, err := a.fundamentals.Analyze(ctx, ticker)
	if err != nil || result == nil {
		return nil, err
	}

	if a.cache != nil {
		if err := a.cache.Set(ticker, "fundamental", "analysis", result); err != nil {
			a.log.Warn().Err(err).Str("ticker", ticker).Msg("failed to cache fundamental analysis")
		}
	}
	return result, nil
}

// GetTechnicalAnalysis returns the cached or freshly computed analysis for
// one timeframe. nil without error means too few bars.
func (a *Aggregator) GetTechnicalAnalysis(ctx context.Context, ticker string, timeframe domain.Timeframe) (*domain.TechnicalAnalysis, error) {
	kind := "technical_" + string(timeframe)
	if a.cache != nil {
		var cached domain.TechnicalAnalysis
		if a.cache.Get(ticker, kind, "analysis", a.chartTTL(timeframe), &cached) {
			return &cached, nil
		}
	}

	chart, err := a.GetChart(ctx, ticker, timeframe)
	if err != nil {
		return nil, err
	}
	result := a.technicals.Analyze(chart)
	if result == nil {
		return nil, nil
	}

	if a.cache != nil {
		if err := a.cache.Set(ticker, kind, "analysis", result); err != nil {
			a.log.Warn().Err(err).Str("ticker", ticker).Msg("failed to cache technical analysis")
		}
	}
	return result, nil
}

// GenerateScorecard fuses the fundamental analysis with the three
// timeframe technicals. A failed fundamental analysis degrades to a
// technical-only scorecard; a missing daily analysis yields nil.
func (a *Aggregator) GenerateScorecard(ctx context.Context, ticker string) (*domain.Scorecard, error) {
	if a.cache != nil {
		var cached domain.Scorecard
		if a.cache.Get(ticker, "scorecard", "analysis", scorecardTTL, &cached) {
			return &cached, nil
		}
	}

	fundamental, err := a.GetFundamentalAnalysis(ctx, ticker)
	if err != nil {
		a.log.Warn().Err(err).Str("ticker", ticker).Msg("fundamental analysis unavailable for scorecard")
	}

	inputs := scorecard.Inputs{Fundamental: fundamental}
	for _, tf := range []domain.Timeframe{domain.TimeframeDaily, domain.TimeframeWeekly, domain.TimeframeHourly} {
		tech, err := a.GetTechnicalAnalysis(ctx, ticker, tf)
		if err != nil {
			a.log.Warn().Err(err).Str("ticker", ticker).Str("timeframe", string(tf)).Msg("technical analysis unavailable")
			continue
		}
		switch tf {
		case domain.TimeframeDaily:
			inputs.Daily = tech
		case domain.TimeframeWeekly:
			inputs.Weekly = tech
		case domain.TimeframeHourly:
			inputs.Hourly = tech
		}
	}

	card := a.engine.Build(ticker, inputs)
	if card == nil {
		return nil, nil
	}

	if a.cache != nil {
		if err := a.cache.Set(ticker, "scorecard", "analysis", card); err != nil {
			a.log.Warn().Err(err).Str("ticker", ticker).Msg("failed to cache scorecard")
		}
	}
	return card, nil
}

// GetEarningsView returns the quarterly earnings table
func (a *Aggregator) GetEarningsView(ctx context.Context, ticker string) (*earnings.View, error) {
	if a.earnings == nil {
		return nil, nil
	}
	return a.earnings.Build(ctx, ticker)
}

// GetNews returns recent company headlines
func (a *Aggregator) GetNews(ctx context.Context, ticker string, days, maxItems int) ([]domain.NewsItem, error) {
	if a.company == nil || !a.company.Enabled() {
		return nil, nil
	}
	if a.cache != nil {
		var cached []domain.NewsItem
		if a.cache.Get(ticker, "news", "finnhub", newsTTL, &cached) {
			return cached, nil
		}
	}

	raw, err := a.company.GetCompanyNews(ctx, ticker, days, maxItems)
	if err != nil {
		return nil, err
	}
	items := make([]domain.NewsItem, 0, len(raw))
	for _, n := range raw {
		items = append(items, domain.NewsItem{
			Headline:  n.Headline,
			Summary:   n.Summary,
			Source:    n.Source,
			URL:       n.URL,
			Published: time.Unix(n.Datetime, 0).UTC(),
		})
	}

	if a.cache != nil {
		if err := a.cache.Set(ticker, "news", "finnhub", items); err != nil {
			a.log.Warn().Err(err).Str("ticker", ticker).Msg("failed to cache news")
		}
	}
	return items, nil
}

// GetEarningsHistory returns reported vs estimated EPS for recent quarters
func (a *Aggregator) GetEarningsHistory(ctx context.Context, ticker string, limit int) ([]domain.EarningsPeriod, error) {
	if a.company == nil || !a.company.Enabled() {
		return nil, nil
	}
	if a.cache != nil {
		var cached []domain.EarningsPeriod
		if a.cache.Get(ticker, "earnings_history", "finnhub", earningsTTL, &cached) {
			return cached, nil
		}
	}

	raw, err := a.company.GetEarnings(ctx, ticker, limit)
	if err != nil {
		return nil, err
	}
	periods := make([]domain.EarningsPeriod, 0, len(raw))
	for _, r := range raw {
		period, err := time.Parse("2006-01-02", r.Period)
		if err != nil {
			continue
		}
		periods = append(periods, domain.EarningsPeriod{
			Period:   period,
			Actual:   r.Actual,
			Estimate: r.Estimate,
			Surprise: r.SurprisePercent,
		})
	}

	if a.cache != nil {
		if err := a.cache.Set(ticker, "earnings_history", "finnhub", periods); err != nil {
			a.log.Warn().Err(err).Str("ticker", ticker).Msg("failed to cache earnings history")
		}
	}
	return periods, nil
}

// GetRecommendations returns the analyst recommendation trend
func (a *Aggregator) GetRecommendations(ctx context.Context, ticker string) ([]domain.Recommendation, error) {
	if a.company == nil || !a.company.Enabled() {
		return nil, nil
	}
	if a.cache != nil {
		var cached []domain.Recommendation
		if a.cache.Get(ticker, "recommendations", "finnhub", earningsTTL, &cached) {
			return cached, nil
		}
	}

	raw, err := a.company.GetRecommendations(ctx, ticker)
	if err != nil {
		return nil, err
	}
	recs := make([]domain.Recommendation, 0, len(raw))
	for _, r := range raw {
		recs = append(recs, domain.Recommendation{
			Period:     r.Period,
			StrongBuy:  r.StrongBuy,
			Buy:        r.Buy,
			Hold:       r.Hold,
			Sell:       r.Sell,
			StrongSell: r.StrongSell,
		})
	}

	if a.cache != nil {
		if err := a.cache.Set(ticker, "recommendations", "finnhub", recs); err != nil {
			a.log.Warn().Err(err).Str("ticker", ticker).Msg("failed to cache recommendations")
		}
	}
	return recs, nil
}

// priceTTL aligns price-bearing cache entries with the market session
func (a *Aggregator) priceTTL() time.Duration {
	if a.cal == nil {
		return 15 * time.Minute
	}
	return a.cal.PriceTTL("NYSE")
}

// chartTTL picks a staleness bound per timeframe: intraday bars track the
// session, daily and weekly bars can live longer
func (a *Aggregator) chartTTL(timeframe domain.Timeframe) time.Duration {
	switch timeframe {
	case domain.TimeframeHourly:
		return a.priceTTL()
	case domain.TimeframeWeekly:
		return weeklyBarTTL
	default:
		return dailyBarTTL
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
