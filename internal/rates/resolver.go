package rates

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/milvoyage/tdy-engine/internal/dates"
	"github.com/milvoyage/tdy-engine/internal/domain/entity"
	"github.com/milvoyage/tdy-engine/internal/locality"
)

// Resolver answers "what is the per-diem rate for this locality on this
// date", cache-first, with a fixed fallback when the authority is
// unavailable. Rates are assumed stable within a calendar month, so the
// cache key carries only the year-month of the date.
type Resolver struct {
	cache     Cache
	authority Authority
	cfg       Config
	logger    *zap.Logger
}

// NewResolver creates a per-diem rate resolver.
func NewResolver(cache Cache, authority Authority, cfg Config, logger *zap.Logger) *Resolver {
	return &Resolver{
		cache:     cache,
		authority: authority,
		cfg:       cfg,
		logger:    logger,
	}
}

// CacheKey builds the cache key for a locality and ISO date.
func CacheKey(localityRaw, date string) string {
	return fmt.Sprintf("perdiem:%s:%s", locality.Normalize(localityRaw), dates.YearMonth(date))
}

// GetPerDiemRate resolves a locality and ISO date to a rate. On any
// authority failure it returns the configured fallback rate and caches
// nothing, so a transient outage is not masked longer than necessary.
// A malformed date is the one unrecoverable input: it yields a zero rate
// marked SourceUnavailable, never cached.
func (r *Resolver) GetPerDiemRate(ctx context.Context, localityRaw, date string) *Rate {
	year := dates.Year(date)
	if year == 0 {
		r.logger.Warn("Cannot resolve rate for malformed date",
			zap.String("date", date),
			zap.String("locality", localityRaw))
		return &Rate{Source: SourceUnavailable}
	}

	key := CacheKey(localityRaw, date)
	if cached, ok, err := r.cache.Get(ctx, key); err != nil {
		r.logger.Warn("Rate cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return cached
	}

	search := locality.Split(locality.Normalize(localityRaw))
	meals, lodging, err := r.authority.Lookup(ctx, search, year)
	if err != nil {
		r.logger.Info("Rate authority unavailable, using fallback rate",
			zap.String("key", key),
			zap.Error(err))
		return &Rate{
			MIECents:        r.cfg.FallbackMIECents,
			LodgingCapCents: r.cfg.FallbackLodgingCents,
			Source:          SourceFallback,
		}
	}

	rate := &Rate{
		MIECents:        meals * 100,
		LodgingCapCents: lodging * 100,
		Source:          SourceAuthoritative,
	}
	if err := r.cache.Set(ctx, key, rate, r.cfg.CacheTTL); err != nil {
		r.logger.Warn("Rate cache write failed", zap.String("key", key), zap.Error(err))
	}
	return rate
}

// ComputePerDiemSpans builds the per-diem spans for a trip's date range.
// Version 1 assumes a single locality for the whole trip: one span covering
// [startDate, endDate] resolved from the start date. When the rate comes
// back SourceUnavailable the span still exists with zero rates, an explicit
// "rates unknown" signal rather than silently treating $0/day as real.
func (r *Resolver) ComputePerDiemSpans(ctx context.Context, tripID, destination, startDate, endDate string) []entity.PerDiemSpan {
	if startDate > endDate {
		return nil
	}

	rate := r.GetPerDiemRate(ctx, destination, startDate)

	return []entity.PerDiemSpan{{
		TripID:          tripID,
		Locality:        locality.Normalize(destination),
		StartDate:       startDate,
		EndDate:         endDate,
		MIECents:        rate.MIECents,
		LodgingCapCents: rate.LodgingCapCents,
	}}
}
