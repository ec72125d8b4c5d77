package earnings

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stock-scorecard/internal/cache"
	"github.com/aristath/stock-scorecard/internal/clients/edgar"
	"github.com/aristath/stock-scorecard/internal/clients/finnhub"
	"github.com/aristath/stock-scorecard/internal/domain"
)

const (
	// minQuarters is the minimum usable series length; fewer quarters and
	// the next tier is tried
	minQuarters = 3

	quarterlyTTL = 24 * time.Hour
	cikTTL       = 7 * 24 * time.Hour
)

// FinancialsClient is the slice of the finnhub client the pipeline uses
type FinancialsClient interface {
	GetQuarterlyFinancials(ctx context.Context, symbol string) (*finnhub.FinancialsReported, error)
}

// FactsClient is the slice of the EDGAR client the pipeline uses
type FactsClient interface {
	LookupCIK(ctx context.Context, ticker string) (string, error)
	GetCompanyFacts(ctx context.Context, cik string) (*edgar.CompanyFacts, error)
}

// Pipeline resolves standalone quarterly income data through a tiered
// fallback: cache, then Finnhub reported financials, then EDGAR facts.
// Tier failures are logged and swallowed; only total unavailability yields
// an empty series.
type Pipeline struct {
	finnhub FinancialsClient
	edgar   FactsClient
	cache   *cache.Store
	log     zerolog.Logger
}

// NewPipeline creates a quarterly data pipeline. Any client may be nil,
// which simply disables its tier.
func NewPipeline(fh FinancialsClient, ed FactsClient, cacheStore *cache.Store, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		finnhub: fh,
		edgar:   ed,
		cache:   cacheStore,
		log:     log.With().Str("component", "earnings_pipeline").Logger(),
	}
}

// GetQuarterlyIncome returns the standalone quarterly income series for a
// ticker, newest first, with the source that produced it
func (p *Pipeline) GetQuarterlyIncome(ctx context.Context, ticker string) (*domain.QuarterlySeries, error) {
	// Tier 1: cache, either source
	for _, source := range []string{"finnhub", "edgar"} {
		var quarters []domain.QuarterlyIncome
		if p.cache != nil && p.cache.Get(ticker, "quarterly_income", source, quarterlyTTL, &quarters) {
			if len(quarters) >= minQuarters {
				p.log.Debug().Str("ticker", ticker).Str("source", source).Int("quarters", len(quarters)).Msg("using cached quarterly data")
				return &domain.QuarterlySeries{Symbol: ticker, Quarters: quarters, Source: source}, nil
			}
		}
	}

	// Tier 2: Finnhub financials-reported
	if p.finnhub != nil {
		reported, err := p.finnhub.GetQuarterlyFinancials(ctx, ticker)
		if err != nil {
			p.log.Warn().Err(err).Str("ticker", ticker).Msg("finnhub financials-reported failed")
		} else if reported != nil {
			quarters := ParseFinnhubQuarterly(reported.Data)
			if len(quarters) >= minQuarters {
				p.cacheQuarters(ticker, "finnhub", quarters)
				p.log.Info().Str("ticker", ticker).Int("quarters", len(quarters)).Msg("quarterly data from finnhub")
				return &domain.QuarterlySeries{Symbol: ticker, Quarters: quarters, Source: "finnhub"}, nil
			}
		}
	}

	// Tier 3: SEC EDGAR
	if p.edgar != nil {
		quarters := p.fromEdgar(ctx, ticker)
		if len(quarters) >= minQuarters {
			p.cacheQuarters(ticker, "edgar", quarters)
			p.log.Info().Str("ticker", ticker).Int("quarters", len(quarters)).Msg("quarterly data from EDGAR")
			return &domain.QuarterlySeries{Symbol: ticker, Quarters: quarters, Source: "edgar"}, nil
		}
	}

	p.log.Warn().Str("ticker", ticker).Msg("no quarterly income data from any source")
	return &domain.QuarterlySeries{Symbol: ticker}, nil
}

// GetCashFlowHistory returns standalone quarterly cash flow data, newest
// first. Only the Finnhub tier carries cash flow statements.
func (p *Pipeline) GetCashFlowHistory(ctx context.Context, ticker string) []domain.CashFlowQuarter {
	var cached []domain.CashFlowQuarter
	if p.cache != nil && p.cache.Get(ticker, "cash_flow", "finnhub", quarterlyTTL, &cached) && len(cached) > 0 {
		return cached
	}

	if p.finnhub == nil {
		return nil
	}

	reported, err := p.finnhub.GetQuarterlyFinancials(ctx, ticker)
	if err != nil {
		p.log.Warn().Err(err).Str("ticker", ticker).Msg("finnhub cash flow fetch failed")
		return nil
	}
	if reported == nil {
		return nil
	}

	quarters := ParseFinnhubCashFlow(reported.Data)
	if len(quarters) > 0 && p.cache != nil {
		if err := p.cache.Set(ticker, "cash_flow", "finnhub", quarters); err != nil {
			p.log.Error().Err(err).Str("ticker", ticker).Msg("failed to cache cash flow history")
		}
	}
	return quarters
}

// ResolveCIK looks up and caches the SEC CIK for a ticker
func (p *Pipeline) ResolveCIK(ctx context.Context, ticker string) (string, error) {
	var cik string
	if p.cache != nil && p.cache.Get(ticker, "cik_mapping", "edgar", cikTTL, &cik) && cik != "" {
		return cik, nil
	}

	if p.edgar == nil {
		return "", fmt.Errorf("edgar client not configured")
	}

	cik, err := p.edgar.LookupCIK(ctx, ticker)
	if err != nil {
		return "", err
	}

	if p.cache != nil {
		if err := p.cache.Set(ticker, "cik_mapping", "edgar", cik); err != nil {
			p.log.Error().Err(err).Str("ticker", ticker).Msg("failed to cache CIK")
		}
	}
	return cik, nil
}

func (p *Pipeline) fromEdgar(ctx context.Context, ticker string) []domain.QuarterlyIncome {
	cik, err := p.ResolveCIK(ctx, ticker)
	if err != nil {
		p.log.Warn().Err(err).Str("ticker", ticker).Msg("CIK lookup failed")
		return nil
	}

	facts, err := p.edgar.GetCompanyFacts(ctx, cik)
	if err != nil {
		p.log.Warn().Err(err).Str("ticker", ticker).Str("cik", cik).Msg("EDGAR company facts failed")
		return nil
	}

	return ParseEdgarQuarterly(facts)
}

func (p *Pipeline) cacheQuarters(ticker, source string, quarters []domain.QuarterlyIncome) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Set(ticker, "quarterly_income", source, quarters); err != nil {
		p.log.Error().Err(err).Str("ticker", ticker).Str("source", source).Msg("failed to cache quarterly data")
	}
}
