package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stock-scorecard/internal/domain"
	"github.com/aristath/stock-scorecard/internal/marketcal"
)

// ScorecardGenerator produces a full scorecard for one ticker
type ScorecardGenerator interface {
	GenerateScorecard(ctx context.Context, ticker string) (*domain.Scorecard, error)
}

// RefreshJob pre-warms scorecards for the configured watchlist so dashboard
// requests hit warm caches during trading hours
type RefreshJob struct {
	log        zerolog.Logger
	watchlist  []string
	markets    *marketcal.Service
	scorecards ScorecardGenerator
	timeout    time.Duration
}

// RefreshConfig holds configuration for the watchlist refresh job
type RefreshConfig struct {
	Log        zerolog.Logger
	Watchlist  []string
	Markets    *marketcal.Service
	Scorecards ScorecardGenerator
	Timeout    time.Duration // per-ticker budget, defaults to 2 minutes
}

// NewRefreshJob creates a new watchlist refresh job
func NewRefreshJob(cfg RefreshConfig) *RefreshJob {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &RefreshJob{
		log:        cfg.Log.With().Str("job", "scorecard_refresh").Logger(),
		watchlist:  cfg.Watchlist,
		markets:    cfg.Markets,
		scorecards: cfg.Scorecards,
		timeout:    timeout,
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "scorecard_refresh"
}

// Run refreshes every watchlist ticker in sequence. Individual failures are
// logged and skipped; the job fails only when no ticker could be refreshed.
func (j *RefreshJob) Run() error {
	if len(j.watchlist) == 0 {
		j.log.Debug().Msg("Watchlist empty, nothing to refresh")
		return nil
	}

	// Scorecards barely move outside trading hours and the nightly downstream
	// caches are long-lived, so skip the cycle entirely when NYSE is closed
	if j.markets != nil && !j.markets.IsMarketOpen("NYSE") {
		j.log.Debug().Msg("Market closed, skipping watchlist refresh")
		return nil
	}

	start := time.Now()
	failed := 0

	for _, ticker := range j.watchlist {
		if err := j.refreshOne(ticker); err != nil {
			failed++
			j.log.Warn().Err(err).Str("ticker", ticker).Msg("Scorecard refresh failed")
		}
	}

	j.log.Info().
		Int("total", len(j.watchlist)).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Watchlist refresh complete")

	if failed == len(j.watchlist) {
		return fmt.Errorf("all %d watchlist refreshes failed", failed)
	}
	return nil
}

func (j *RefreshJob) refreshOne(ticker string) error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	card, err := j.scorecards.GenerateScorecard(ctx, ticker)
	if err != nil {
		return err
	}
	if card == nil {
		j.log.Debug().Str("ticker", ticker).Msg("Not enough price history to score")
	}
	return nil
}
