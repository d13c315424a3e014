// Package rates resolves a locality and date to authoritative M&IE and
// lodging-cap rates, cache-first with a deterministic fallback when the
// external authority is unreachable.
package rates

import (
	"context"
	"time"

	"github.com/milvoyage/tdy-engine/internal/locality"
)

// Rate sources. Callers and tests can tell an authoritative rate from a
// degraded fallback or an unresolvable input without relying on side
// channels like logging.
const (
	SourceAuthoritative = "authoritative"
	SourceFallback      = "fallback"
	SourceUnavailable   = "unavailable"
)

// Rate is a resolved per-diem rate in integer cents.
type Rate struct {
	MIECents        int64  `json:"mie_cents"`
	LodgingCapCents int64  `json:"lodging_cap_cents"`
	Source          string `json:"source"`
}

// Cache is a generic get/set-with-TTL store keyed by string. The second
// return value of Get reports whether the key was present and unexpired.
type Cache interface {
	Get(ctx context.Context, key string) (*Rate, bool, error)
	Set(ctx context.Context, key string, rate *Rate, ttl time.Duration) error
}

// Authority is the external rate provider. It returns meals and lodging
// rates in whole currency units; the engine converts to cents. Any error
// is treated as "unavailable" and triggers the fallback rate.
type Authority interface {
	Lookup(ctx context.Context, key locality.SearchKey, year int) (mealsWhole, lodgingWhole int64, err error)
}

// Config holds the resolver's tunables. The fallback values are explicit
// constants of the deployment so the engine degrades to a usable,
// clearly-an-estimate ledger instead of failing the whole computation.
type Config struct {
	FallbackMIECents     int64
	FallbackLodgingCents int64
	CacheTTL             time.Duration
}

// DefaultConfig returns the standard CONUS default rates and a 30-day
// cache TTL.
func DefaultConfig() Config {
	return Config{
		FallbackMIECents:     5900,
		FallbackLodgingCents: 9800,
		CacheTTL:             30 * 24 * time.Hour,
	}
}
