// Package fundamentals scores equities along valuation, growth and quality
// pillars, blending absolute thresholds with sector and peer comparisons.
// Every metric degrades to a recorded data gap instead of failing.
package fundamentals

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stock-scorecard/internal/cache"
	"github.com/aristath/stock-scorecard/internal/clients/finnhub"
	"github.com/aristath/stock-scorecard/internal/clients/yahoo"
)

// Category is the issuer class resolved once during intake. Banks and
// insurers carry structurally different balance sheets, so they get their
// own quality scoring table.
type Category int

const (
	CategoryStandard Category = iota
	CategoryBank
)

// Info is the normalized per-ticker metric record. Provider key aliasing
// happens once, here; scorers only ever see these typed fields.
type Info struct {
	Ticker   string   `json:"ticker"`
	Name     string   `json:"name"`
	Sector   string   `json:"sector"`
	Exchange string   `json:"exchange"`
	Category Category `json:"category"`

	TrailingPE       *float64 `json:"trailing_pe"`
	ForwardPE        *float64 `json:"forward_pe"`
	PriceToBook      *float64 `json:"price_to_book"`
	PriceToSales     *float64 `json:"price_to_sales"`
	EVEbitda         *float64 `json:"ev_ebitda"`
	EVFcf            *float64 `json:"ev_fcf"`
	DebtToEquity     *float64 `json:"debt_to_equity"`
	CurrentRatio     *float64 `json:"current_ratio"`
	GrossMargin      *float64 `json:"gross_margin"`
	OperatingMargin  *float64 `json:"operating_margin"`
	NetMargin        *float64 `json:"net_margin"`
	RevenueGrowth    *float64 `json:"revenue_growth"`
	EarningsGrowth   *float64 `json:"earnings_growth"`
	EPSGrowth5Y      *float64 `json:"eps_growth_5y"`
	InterestCoverage *float64 `json:"interest_coverage"`
	FreeCashFlow     *float64 `json:"free_cash_flow"`
	MarketCap        *float64 `json:"market_cap"`
	DividendYield    *float64 `json:"dividend_yield"`
	ROIC             *float64 `json:"roic"`
	ROE              *float64 `json:"roe"`
	ROA              *float64 `json:"roa"`
	PayoutRatio      *float64 `json:"payout_ratio"`
	TargetMeanPrice  *float64 `json:"target_mean_price"`
	CurrentPrice     *float64 `json:"current_price"`
}

// resolveCategory classifies the issuer from its sector label
func resolveCategory(sector string) Category {
	s := strings.ToLower(sector)
	for _, marker := range []string{"financial", "banking", "insurance", "bank"} {
		if strings.Contains(s, marker) {
			return CategoryBank
		}
	}
	return CategoryStandard
}

// MetricsClient is the slice of the finnhub client the intake uses
type MetricsClient interface {
	GetBasicFinancials(ctx context.Context, symbol string) (*finnhub.BasicFinancials, error)
	GetProfile(ctx context.Context, symbol string) (*finnhub.Profile, error)
}

// QuoteClient is the price fallback used when finnhub has nothing
type QuoteClient interface {
	GetQuote(ctx context.Context, symbol string) (*yahoo.Quote, error)
}

// infoFetcher assembles an Info record from finnhub basic financials plus a
// profile for sector identity, with a quote fallback for price
type infoFetcher struct {
	metrics MetricsClient
	quotes  QuoteClient
	cache   *cache.Store
	ttl     time.Duration
	log     zerolog.Logger
}

func (f *infoFetcher) fetch(ctx context.Context, ticker string) *Info {
	if f.cache != nil {
		var cached Info
		if f.cache.Get(ticker, "fundamental_info", "composite", f.ttl, &cached) {
			return &cached
		}
	}

	info := &Info{Ticker: ticker}
	populated := false

	if f.metrics != nil {
		if bf, err := f.metrics.GetBasicFinancials(ctx, ticker); err != nil {
			f.log.Warn().Err(err).Str("ticker", ticker).Msg("basic financials fetch failed")
		} else if bf != nil && len(bf.Metric) > 0 {
			applyBasicFinancials(info, bf)
			populated = true
		}

		if profile, err := f.metrics.GetProfile(ctx, ticker); err != nil {
			f.log.Debug().Err(err).Str("ticker", ticker).Msg("profile fetch failed")
		} else if profile != nil {
			info.Name = profile.Name
			info.Exchange = profile.Exchange
			if info.Sector == "" {
				info.Sector = profile.FinnhubIndustry
			}
			if info.MarketCap == nil && profile.MarketCap > 0 {
				cap := profile.MarketCap * 1e6
				info.MarketCap = &cap
			}
			populated = true
		}
	}

	if info.CurrentPrice == nil && f.quotes != nil {
		if quote, err := f.quotes.GetQuote(ctx, ticker); err != nil {
			f.log.Debug().Err(err).Str("ticker", ticker).Msg("quote fallback failed")
		} else if quote != nil && quote.Price > 0 {
			info.CurrentPrice = &quote.Price
			if info.Name == "" {
				info.Name = quote.LongName
			}
			if info.Exchange == "" {
				info.Exchange = quote.Exchange
			}
			populated = true
		}
	}

	if !populated {
		return nil
	}

	info.Category = resolveCategory(info.Sector)

	if f.cache != nil {
		if err := f.cache.Set(ticker, "fundamental_info", "composite", info); err != nil {
			f.log.Error().Err(err).Str("ticker", ticker).Msg("failed to cache info")
		}
	}
	return info
}

// applyBasicFinancials maps finnhub metric keys onto the normalized record.
// Percent-shaped metrics are converted to decimals where the scorers expect
// decimals, per-key fallbacks mirror finnhub's TTM/annual split.
func applyBasicFinancials(info *Info, bf *finnhub.BasicFinancials) {
	info.TrailingPE = bf.MetricFloat("peBasicExclExtraTTM")
	info.ForwardPE = bf.MetricFloat("forwardPE")
	info.PriceToBook = bf.MetricFloat("pbAnnual")
	info.PriceToSales = bf.MetricFloat("psTTM")
	info.DebtToEquity = bf.MetricFloat("totalDebt/totalEquityAnnual")
	info.CurrentRatio = bf.MetricFloat("currentRatioAnnual")
	info.GrossMargin = scaleDown(bf.MetricFloat("grossMarginTTM"))
	info.OperatingMargin = scaleDown(bf.MetricFloat("operatingMarginTTM"))
	info.NetMargin = scaleDown(bf.MetricFloat("netProfitMarginTTM"))
	info.RevenueGrowth = scaleDown(bf.MetricFloat("revenueGrowthTTMYoy"))
	info.EarningsGrowth = scaleDown(bf.MetricFloat("epsGrowthTTMYoy"))
	info.EPSGrowth5Y = bf.MetricFloat("epsGrowth5Y")
	info.DividendYield = scaleDown(bf.MetricFloat("dividendYieldIndicatedAnnual"))
	info.FreeCashFlow = bf.MetricFloat("freeCashFlowTTM")
	info.EVEbitda = bf.MetricFloat("currentEv/ebitdaTTM")
	info.EVFcf = positiveOnly(bf.MetricFloat("currentEv/freeCashFlowTTM"))

	if ic := firstOf(bf, "netInterestCoverageTTM", "netInterestCoverageAnnual"); ic != nil && *ic > 0 {
		info.InterestCoverage = ic
	}
	info.ROIC = firstOf(bf, "roiTTM", "roiAnnual")
	info.ROE = firstOf(bf, "roeTTM", "roeRfy")
	info.ROA = firstOf(bf, "roaTTM", "roaRfy")
	info.PayoutRatio = firstOf(bf, "payoutRatioTTM", "payoutRatioAnnual")
}

func firstOf(bf *finnhub.BasicFinancials, keys ...string) *float64 {
	for _, key := range keys {
		if v := bf.MetricFloat(key); v != nil {
			return v
		}
	}
	return nil
}

// scaleDown converts a finnhub percent figure to a decimal
func scaleDown(v *float64) *float64 {
	if v == nil {
		return nil
	}
	scaled := *v / 100
	return &scaled
}

func positiveOnly(v *float64) *float64 {
	if v == nil || *v <= 0 {
		return nil
	}
	return v
}
