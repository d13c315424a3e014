package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/milvoyage/tdy-engine/internal/rates"
)

// RateCacheRepository is the sqlite-backed implementation of rates.Cache.
// Expired rows are treated as misses and lazily deleted.
type RateCacheRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRateCacheRepository creates a rate cache repository.
func NewRateCacheRepository(db *sql.DB, logger *zap.Logger) *RateCacheRepository {
	return &RateCacheRepository{db: db, logger: logger}
}

// Get returns the cached rate for the key, reporting presence with the
// second return value.
func (r *RateCacheRepository) Get(ctx context.Context, key string) (*rates.Rate, bool, error) {
	var rate rates.Rate
	var expiresAt time.Time
	err := r.db.QueryRowContext(ctx, `
		SELECT mie_cents, lodging_cap_cents, source, expires_at
		FROM rate_cache
		WHERE cache_key = ?
	`, key).Scan(&rate.MIECents, &rate.LodgingCapCents, &rate.Source, &expiresAt)

	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read rate cache: %w", err)
	}

	if time.Now().After(expiresAt) {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM rate_cache WHERE cache_key = ?`, key); err != nil {
			r.logger.Warn("Failed to evict expired rate cache entry",
				zap.String("key", key),
				zap.Error(err))
		}
		return nil, false, nil
	}
	return &rate, true, nil
}

// Set upserts the cached rate with the given TTL.
func (r *RateCacheRepository) Set(ctx context.Context, key string, rate *rates.Rate, ttl time.Duration) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rate_cache (cache_key, mie_cents, lodging_cap_cents, source, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			mie_cents = excluded.mie_cents,
			lodging_cap_cents = excluded.lodging_cap_cents,
			source = excluded.source,
			expires_at = excluded.expires_at
	`, key, rate.MIECents, rate.LodgingCapCents, rate.Source, time.Now().Add(ttl))
	if err != nil {
		return fmt.Errorf("failed to write rate cache: %w", err)
	}
	return nil
}
