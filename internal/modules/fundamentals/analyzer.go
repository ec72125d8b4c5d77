package fundamentals

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stock-scorecard/internal/cache"
	"github.com/aristath/stock-scorecard/internal/domain"
	"github.com/aristath/stock-scorecard/internal/modules/benchmarks"
	"github.com/aristath/stock-scorecard/pkg/scoring"
)

// Fixed metric inventory sizes per issuer category, used for the
// confidence calculation
const (
	standardInventory = 18
	bankInventory     = 14
)

// QuarterlyProvider supplies standalone quarterly statement data
type QuarterlyProvider interface {
	GetQuarterlyIncome(ctx context.Context, ticker string) (*domain.QuarterlySeries, error)
	GetCashFlowHistory(ctx context.Context, ticker string) []domain.CashFlowQuarter
}

// BenchmarkProvider resolves the peer or sector comparison set for a ticker
type BenchmarkProvider interface {
	BenchmarkFor(ctx context.Context, ticker, sector, exchange string) benchmarks.Benchmark
}

// Analyzer produces the three-pillar fundamental analysis
type Analyzer struct {
	info       *infoFetcher
	quarterly  QuarterlyProvider
	benchmarks BenchmarkProvider
	log        zerolog.Logger
}

// NewAnalyzer wires the fundamental analyzer. quarterly and benchmarkSvc may
// be nil, degrading the affected metrics to data gaps.
func NewAnalyzer(metrics MetricsClient, quotes QuoteClient, quarterly QuarterlyProvider, benchmarkSvc BenchmarkProvider, cacheStore *cache.Store, infoTTL time.Duration, log zerolog.Logger) *Analyzer {
	componentLog := log.With().Str("component", "fundamentals").Logger()
	return &Analyzer{
		info: &infoFetcher{
			metrics: metrics,
			quotes:  quotes,
			cache:   cacheStore,
			ttl:     infoTTL,
			log:     componentLog,
		},
		quarterly:  quarterly,
		benchmarks: benchmarkSvc,
		log:        componentLog,
	}
}

// Analyze scores a ticker across valuation, growth and quality. Returns nil
// without error when no company identity can be resolved at all; individual
// missing metrics are recorded as data gaps instead.
func (a *Analyzer) Analyze(ctx context.Context, ticker string) (*domain.FundamentalAnalysis, error) {
	info := a.info.fetch(ctx, ticker)
	if info == nil {
		a.log.Warn().Str("ticker", ticker).Msg("no company info from any source")
		return nil, nil
	}

	var series *domain.QuarterlySeries
	var cashflows []domain.CashFlowQuarter
	if a.quarterly != nil {
		s, err := a.quarterly.GetQuarterlyIncome(ctx, ticker)
		if err != nil {
			a.log.Warn().Err(err).Str("ticker", ticker).Msg("quarterly income unavailable")
		} else {
			series = s
		}
		cashflows = a.quarterly.GetCashFlowHistory(ctx, ticker)
	}

	sectorBench := benchmarks.SectorBenchmark(info.Sector)
	bench := sectorBench
	if a.benchmarks != nil {
		bench = a.benchmarks.BenchmarkFor(ctx, ticker, info.Sector, info.Exchange)
	}

	gaps := gapList{}
	growthRate := resolveGrowthRate(info, series)

	valuation := scoreValuation(info, bench, sectorBench, growthRate, series, &gaps)
	growth := scoreGrowth(info, sectorBench, series, cashflows, &gaps)
	quality := scoreQuality(info, sectorBench, series, cashflows, &gaps)

	overall := scoring.WeightedAverage([]scoring.WeightedMetric{
		{Score: valuation.Score, Weight: valuation.Weight},
		{Score: growth.Score, Weight: growth.Weight},
		{Score: quality.Score, Weight: quality.Weight},
	})

	inventory := standardInventory
	if info.Category == CategoryBank {
		inventory = bankInventory
	}
	confidence := float64(inventory-len(gaps)) / float64(inventory)
	if confidence < 0 {
		confidence = 0
	}

	analysis := &domain.FundamentalAnalysis{
		Symbol:     ticker,
		Valuation:  valuation,
		Growth:     growth,
		Quality:    quality,
		Overall:    round1(overall),
		Grade:      scoring.Grade(overall),
		Confidence: round2(confidence),
		DataGaps:   gaps,
		IsBank:     info.Category == CategoryBank,
		AnalyzedAt: time.Now().UTC(),
	}

	a.log.Info().
		Str("ticker", ticker).
		Float64("overall", analysis.Overall).
		Str("grade", analysis.Grade).
		Float64("confidence", analysis.Confidence).
		Int("data_gaps", len(gaps)).
		Msg("fundamental analysis complete")

	return analysis, nil
}
