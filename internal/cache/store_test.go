package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stock-scorecard/internal/database"
)

type samplePayload struct {
	Symbol string  `msgpack:"symbol"`
	Price  float64 `msgpack:"price"`
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return New(db, zerolog.Nop())
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	in := samplePayload{Symbol: "AAPL", Price: 187.5}
	if err := store.Set("AAPL", "quote", "yahoo", in); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var out samplePayload
	if !store.Get("AAPL", "quote", "yahoo", time.Hour, &out) {
		t.Fatal("expected cache hit")
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

func TestStoreMiss(t *testing.T) {
	store := newTestStore(t)

	var out samplePayload
	if store.Get("MSFT", "quote", "yahoo", time.Hour, &out) {
		t.Error("expected miss for absent key")
	}
}

func TestStoreStaleEntry(t *testing.T) {
	store := newTestStore(t)

	if err := store.Set("AAPL", "quote", "yahoo", samplePayload{Symbol: "AAPL"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var out samplePayload
	if store.Get("AAPL", "quote", "yahoo", 0, &out) {
		t.Error("expected miss with zero TTL")
	}
}

func TestStoreOverwrite(t *testing.T) {
	store := newTestStore(t)

	if err := store.Set("AAPL", "quote", "yahoo", samplePayload{Symbol: "AAPL", Price: 1}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set("AAPL", "quote", "yahoo", samplePayload{Symbol: "AAPL", Price: 2}); err != nil {
		t.Fatalf("second Set failed: %v", err)
	}

	var out samplePayload
	if !store.Get("AAPL", "quote", "yahoo", time.Hour, &out) {
		t.Fatal("expected cache hit")
	}
	if out.Price != 2 {
		t.Errorf("got price %v, want 2", out.Price)
	}
}

func TestStorePrune(t *testing.T) {
	store := newTestStore(t)

	if err := store.Set("AAPL", "quote", "yahoo", samplePayload{Symbol: "AAPL"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	removed, err := store.Prune(-time.Second)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	var out samplePayload
	if store.Get("AAPL", "quote", "yahoo", time.Hour, &out) {
		t.Error("expected miss after prune")
	}
}
