package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stock-scorecard/internal/cache"
	"github.com/aristath/stock-scorecard/internal/database"
	"github.com/aristath/stock-scorecard/internal/domain"
)

type fakeGenerator struct {
	calls   []string
	failFor map[string]bool
}

func (f *fakeGenerator) GenerateScorecard(ctx context.Context, ticker string) (*domain.Scorecard, error) {
	f.calls = append(f.calls, ticker)
	if f.failFor[ticker] {
		return nil, errors.New("upstream unavailable")
	}
	return &domain.Scorecard{Symbol: ticker}, nil
}

func TestRefreshJobVisitsWholeWatchlist(t *testing.T) {
	gen := &fakeGenerator{}
	job := NewRefreshJob(RefreshConfig{
		Log:        zerolog.Nop(),
		Watchlist:  []string{"AAPL", "MSFT", "NVDA"},
		Scorecards: gen,
	})

	if err := job.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(gen.calls) != 3 {
		t.Fatalf("generated %d scorecards, want 3", len(gen.calls))
	}
}

func TestRefreshJobToleratesPartialFailure(t *testing.T) {
	gen := &fakeGenerator{failFor: map[string]bool{"MSFT": true}}
	job := NewRefreshJob(RefreshConfig{
		Log:        zerolog.Nop(),
		Watchlist:  []string{"AAPL", "MSFT"},
		Scorecards: gen,
	})

	if err := job.Run(); err != nil {
		t.Fatalf("Run should tolerate a single failure, got %v", err)
	}
	if len(gen.calls) != 2 {
		t.Fatalf("generated %d scorecards, want 2", len(gen.calls))
	}
}

func TestRefreshJobFailsWhenNothingSucceeds(t *testing.T) {
	gen := &fakeGenerator{failFor: map[string]bool{"AAPL": true, "MSFT": true}}
	job := NewRefreshJob(RefreshConfig{
		Log:        zerolog.Nop(),
		Watchlist:  []string{"AAPL", "MSFT"},
		Scorecards: gen,
	})

	if err := job.Run(); err == nil {
		t.Fatal("expected error when every refresh fails")
	}
}

func TestRefreshJobEmptyWatchlist(t *testing.T) {
	gen := &fakeGenerator{}
	job := NewRefreshJob(RefreshConfig{
		Log:        zerolog.Nop(),
		Scorecards: gen,
	})

	if err := job.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(gen.calls) != 0 {
		t.Fatalf("generated %d scorecards, want 0", len(gen.calls))
	}
}

func TestCacheMaintenancePrunesStaleEntries(t *testing.T) {
	db, err := database.New(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	store := cache.New(db, zerolog.Nop())

	if err := store.Set("AAPL", "overview", "composite", map[string]string{"name": "Apple"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set("MSFT", "overview", "composite", map[string]string{"name": "Microsoft"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Age one entry past the retention window
	stale := time.Now().Add(-10 * 24 * time.Hour).Unix()
	if _, err := db.Exec(`UPDATE api_cache SET fetched_at = ? WHERE ticker = 'AAPL'`, stale); err != nil {
		t.Fatalf("failed to age entry: %v", err)
	}

	job := NewCacheMaintenanceJob(zerolog.Nop(), store, db, 7*24*time.Hour)
	if err := job.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var remaining int
	if err := db.QueryRow(`SELECT COUNT(*) FROM api_cache`).Scan(&remaining); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if remaining != 1 {
		t.Errorf("remaining entries = %d, want 1", remaining)
	}
}
