// Package cache provides a sqlite-backed cache for upstream API payloads.
// Entries are keyed by (ticker, data type, source) and checked for staleness
// on read, so a stale row is simply ignored and overwritten by the next set.
package cache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/stock-scorecard/internal/database"
)

// Store reads and writes cached API payloads
type Store struct {
	db  *database.DB
	log zerolog.Logger
}

// New creates a cache store
func New(db *database.DB, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With().Str("component", "cache").Logger(),
	}
}

// Get loads a cached payload into dest if a fresh entry exists.
// Returns false on miss or stale entry; errors are logged, not returned,
// because a cache failure must never fail the request.
func (s *Store) Get(ticker, dataType, source string, ttl time.Duration, dest interface{}) bool {
	var payload []byte
	var fetchedAt int64

	err := s.db.QueryRow(
		`SELECT payload, fetched_at FROM api_cache WHERE ticker = ? AND data_type = ? AND source = ?`,
		ticker, dataType, source,
	).Scan(&payload, &fetchedAt)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", ticker).Str("type", dataType).Msg("cache read failed")
		return false
	}

	age := time.Since(time.Unix(fetchedAt, 0))
	if age > ttl {
		s.log.Debug().Str("ticker", ticker).Str("type", dataType).Dur("age", age).Msg("cache entry stale")
		return false
	}

	if err := msgpack.Unmarshal(payload, dest); err != nil {
		s.log.Warn().Err(err).Str("ticker", ticker).Str("type", dataType).Msg("cache decode failed")
		return false
	}

	return true
}

// Set stores a payload, replacing any previous entry for the key
func (s *Store) Set(ticker, dataType, source string, value interface{}) error {
	payload, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache payload: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO api_cache (ticker, data_type, source, payload, fetched_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(ticker, data_type, source) DO UPDATE SET
		 payload = excluded.payload, fetched_at = excluded.fetched_at`,
		ticker, dataType, source, payload, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	return nil
}

// Prune deletes entries older than maxAge and returns the number removed
func (s *Store) Prune(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Unix()
	res, err := s.db.Exec(`DELETE FROM api_cache WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}

	removed, _ := res.RowsAffected()
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Msg("pruned stale cache entries")
	}
	return removed, nil
}
