package scheduler

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stock-scorecard/internal/cache"
	"github.com/aristath/stock-scorecard/internal/database"
)

// CacheMaintenanceJob prunes expired API cache entries and verifies the
// SQLite file is still healthy. Runs nightly.
type CacheMaintenanceJob struct {
	log    zerolog.Logger
	cache  *cache.Store
	db     *database.DB
	maxAge time.Duration
}

// NewCacheMaintenanceJob creates a new cache maintenance job.
// maxAge defaults to one week when non-positive.
func NewCacheMaintenanceJob(log zerolog.Logger, cacheStore *cache.Store, db *database.DB, maxAge time.Duration) *CacheMaintenanceJob {
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}

	return &CacheMaintenanceJob{
		log:    log.With().Str("job", "cache_maintenance").Logger(),
		cache:  cacheStore,
		db:     db,
		maxAge: maxAge,
	}
}

// Name returns the job name
func (j *CacheMaintenanceJob) Name() string {
	return "cache_maintenance"
}

// Run prunes stale cache rows, checks database integrity and truncates the WAL
func (j *CacheMaintenanceJob) Run() error {
	removed, err := j.cache.Prune(j.maxAge)
	if err != nil {
		return fmt.Errorf("cache prune: %w", err)
	}

	var result string
	if err := j.db.QueryRow(`PRAGMA integrity_check`).Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}

	// The WAL grows unbounded on a long-running process without checkpoints
	if _, err := j.db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		j.log.Warn().Err(err).Msg("WAL checkpoint failed")
	}

	j.log.Info().
		Int64("removed", removed).
		Dur("max_age", j.maxAge).
		Msg("Cache maintenance complete")

	return nil
}
