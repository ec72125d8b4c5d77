package benchmarks

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stock-scorecard/internal/cache"
	"github.com/aristath/stock-scorecard/internal/clients/finnhub"
	"github.com/aristath/stock-scorecard/internal/marketcal"
	"github.com/aristath/stock-scorecard/pkg/formulas"
)

const (
	maxPeers = 8
	// minPeerPoints is the minimum valid peer values per metric before the
	// peer median replaces the sector fallback
	minPeerPoints = 3
)

// MetricsProvider supplies per-ticker metric maps, normally the finnhub client
type MetricsProvider interface {
	GetPeers(ctx context.Context, symbol string, maxPeers int) ([]string, error)
	GetBasicFinancials(ctx context.Context, symbol string) (*finnhub.BasicFinancials, error)
}

// Service resolves benchmarks for a ticker, preferring live peer medians
// over the static sector tables
type Service struct {
	provider MetricsProvider
	cache    *cache.Store
	cal      *marketcal.Service
	log      zerolog.Logger
}

// NewService creates a benchmark service. cache and cal may be nil in tests;
// peer benchmarks are then recomputed on every call.
func NewService(provider MetricsProvider, cacheStore *cache.Store, cal *marketcal.Service, log zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		cache:    cacheStore,
		cal:      cal,
		log:      log.With().Str("component", "benchmarks").Logger(),
	}
}

// BenchmarkFor returns the benchmark for a ticker. Peer medians are used per
// metric when at least minPeerPoints peers report it; everything else falls
// back to the sector table. Results are cached until the exchange's next
// close, since peer multiples only move with prices.
func (s *Service) BenchmarkFor(ctx context.Context, ticker, sector, exchange string) Benchmark {
	sectorBench := SectorBenchmark(sector)

	if s.provider == nil {
		return sectorBench
	}

	if s.cache != nil && s.cal != nil {
		var cached Benchmark
		ttl := time.Until(s.cal.NextClose(exchange, time.Now()))
		if s.cache.Get(ticker, "benchmark", "peers", ttl, &cached) {
			return cached
		}
	}

	peers, err := s.provider.GetPeers(ctx, ticker, maxPeers)
	if err != nil || len(peers) < minPeerPoints {
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("peer lookup failed, using sector benchmark")
		}
		return sectorBench
	}

	medians := s.collectPeerMedians(ctx, peers)
	bench := mergePeerMedians(sectorBench, medians)

	if s.cache != nil {
		if err := s.cache.Set(ticker, "benchmark", "peers", bench); err != nil {
			s.log.Error().Err(err).Str("ticker", ticker).Msg("failed to cache peer benchmark")
		}
	}

	return bench
}

// peerMetricKeys maps our metric names to finnhub metric keys
var peerMetricKeys = map[string]string{
	"pe":        "peBasicExclExtraTTM",
	"pb":        "pbAnnual",
	"ps":        "psTTM",
	"ev_ebitda": "currentEv/ebitdaTTM",
}

// collectPeerMedians fans out one metrics call per peer and reduces valid
// positive values to per-metric medians. A failing peer only removes its
// own data points.
func (s *Service) collectPeerMedians(ctx context.Context, peers []string) map[string]float64 {
	type peerResult struct {
		metrics *finnhub.BasicFinancials
	}

	results := make(chan peerResult, len(peers))
	var wg sync.WaitGroup

	for _, peer := range peers {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()

			metrics, err := s.provider.GetBasicFinancials(ctx, symbol)
			if err != nil {
				s.log.Debug().Err(err).Str("peer", symbol).Msg("peer metrics unavailable")
				return
			}
			results <- peerResult{metrics: metrics}
		}(peer)
	}

	wg.Wait()
	close(results)

	values := make(map[string][]float64)
	for res := range results {
		for name, key := range peerMetricKeys {
			if v := res.metrics.MetricFloat(key); v != nil && *v > 0 {
				values[name] = append(values[name], *v)
			}
		}
	}

	medians := make(map[string]float64)
	for name, points := range values {
		if len(points) >= minPeerPoints {
			medians[name] = formulas.Median(points)
		}
	}
	return medians
}

// mergePeerMedians overlays peer medians on the sector benchmark. Forward PE
// rarely appears in peer metric maps, so it is derived from the peer PE
// median; PEG and the margin/growth medians always come from the sector.
func mergePeerMedians(sectorBench Benchmark, medians map[string]float64) Benchmark {
	if len(medians) == 0 {
		return sectorBench
	}

	bench := sectorBench
	bench.Source = "peers"

	if pe, ok := medians["pe"]; ok {
		bench.PE = pe
		bench.ForwardPE = pe * 0.85
	}
	if pb, ok := medians["pb"]; ok {
		bench.PB = pb
	}
	if ps, ok := medians["ps"]; ok {
		bench.PS = ps
	}
	if ev, ok := medians["ev_ebitda"]; ok {
		bench.EVEbitda = ev
	}

	return bench
}
