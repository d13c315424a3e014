// Package estimator builds the day-by-day reimbursement ledger and the
// category totals for a trip.
package estimator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/milvoyage/tdy-engine/internal/dates"
	"github.com/milvoyage/tdy-engine/internal/domain/entity"
	"github.com/milvoyage/tdy-engine/internal/money"
)

// ErrTripNotFound is returned when the trip does not exist for the caller.
var ErrTripNotFound = errors.New("trip not found")

// travelDayFraction is the partial M&IE allowance on the first and last
// calendar day of a trip.
const travelDayFraction = 0.75

// TripStore reads trips scoped to their owner.
type TripStore interface {
	GetByIDAndUser(ctx context.Context, id, userID string) (*entity.Trip, error)
}

// ItemStore reads a trip's normalized expense items.
type ItemStore interface {
	GetByTripID(ctx context.Context, tripID string) ([]entity.ExpenseItem, error)
}

// SpanStore persists freshly computed per-diem spans, replacing any prior
// set for the trip.
type SpanStore interface {
	ReplaceForTrip(ctx context.Context, tripID string, spans []entity.PerDiemSpan) error
}

// SpanResolver computes the per-diem spans covering a trip's date range.
type SpanResolver interface {
	ComputePerDiemSpans(ctx context.Context, tripID, destination, startDate, endDate string) []entity.PerDiemSpan
}

// Service orchestrates the estimate: load, resolve rates, persist spans,
// build the ledger, total the categories.
type Service struct {
	trips    TripStore
	items    ItemStore
	spans    SpanStore
	resolver SpanResolver
	logger   *zap.Logger
}

// NewService creates a trip estimator service.
func NewService(trips TripStore, items ItemStore, spans SpanStore, resolver SpanResolver, logger *zap.Logger) *Service {
	return &Service{
		trips:    trips,
		items:    items,
		spans:    spans,
		resolver: resolver,
		logger:   logger,
	}
}

// EstimateTrip computes the full reimbursement estimate for a trip. A
// missing trip is a hard ErrTripNotFound; a missing rate for some dates
// degrades the ledger (zero M&IE for those dates) but never aborts the
// computation. A span persistence failure does abort: an unpersisted span
// set would cause the next read to silently use stale data.
func (s *Service) EstimateTrip(ctx context.Context, tripID, userID string) (*entity.EstimateTotals, error) {
	trip, err := s.trips.GetByIDAndUser(ctx, tripID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trip: %w", err)
	}
	if trip == nil {
		return nil, ErrTripNotFound
	}

	items, err := s.items.GetByTripID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to load expense items: %w", err)
	}

	spans := s.resolver.ComputePerDiemSpans(ctx, trip.ID, trip.Destination, trip.StartDate, trip.EndDate)
	if err := s.spans.ReplaceForTrip(ctx, tripID, spans); err != nil {
		return nil, fmt.Errorf("failed to persist per-diem spans: %w", err)
	}

	ledger := BuildLedger(trip.StartDate, trip.EndDate, spans)

	totals := &entity.EstimateTotals{Ledger: ledger}
	for _, day := range ledger {
		totals.MIETotalCents += day.MIEAllowedCents
	}

	capByDate := make(map[string]int64, len(ledger))
	for _, day := range ledger {
		capByDate[day.Date] = day.LodgingCapCents
	}

	for i := range items {
		item := &items[i]
		switch item.ItemType {
		case entity.ItemTypeLodging:
			totals.LodgingAllowedCents += lodgingAllowed(item, capByDate)
		case entity.ItemTypeMileage:
			totals.MileageTotalCents += item.AmountCents
		case entity.ItemTypeMisc:
			totals.MiscTotalCents += item.AmountCents
		}
	}

	totals.GrandTotalCents = totals.MIETotalCents +
		totals.LodgingAllowedCents +
		totals.MileageTotalCents +
		totals.MiscTotalCents

	s.logger.Info("Trip estimate computed",
		zap.String("trip_id", tripID),
		zap.Int("ledger_days", len(ledger)),
		zap.Int64("grand_total_cents", totals.GrandTotalCents))

	return totals, nil
}

// BuildLedger enumerates every calendar date of the trip and computes the
// day's allowances. The first and last dates are travel days and receive
// the partial M&IE rate; a single-day trip is both boundaries at once and
// is still travel-day-flagged. A date no span covers gets zero rates.
func BuildLedger(startDate, endDate string, spans []entity.PerDiemSpan) []entity.DayLedgerEntry {
	days := dates.Range(startDate, endDate)
	ledger := make([]entity.DayLedgerEntry, 0, len(days))

	for i, date := range days {
		isTravelDay := i == 0 || i == len(days)-1

		var mie, cap int64
		for j := range spans {
			if spans[j].Contains(date) {
				mie = spans[j].MIECents
				cap = spans[j].LodgingCapCents
				break
			}
		}

		allowed := mie
		if isTravelDay {
			allowed = money.RoundHalfAwayFromZero(float64(mie) * travelDayFraction)
		}

		ledger = append(ledger, entity.DayLedgerEntry{
			Date:            date,
			MIEAllowedCents: allowed,
			LodgingCapCents: cap,
			IsTravelDay:     isTravelDay,
		})
	}
	return ledger
}

// lodgingAllowed computes one lodging item's reimbursable amount. The
// nightly cap applies only to the pre-tax room rate; taxes are an
// unavoidable pass-through cost and are reimbursed in full, never capped.
func lodgingAllowed(item *entity.ExpenseItem, capByDate map[string]int64) int64 {
	nights, ok := item.MetaInt64(entity.MetaNights)
	if !ok || nights < 1 {
		nights = 1
	}

	taxCents, _ := item.MetaInt64(entity.MetaTaxCents)

	nightlyRate, ok := item.MetaInt64(entity.MetaNightlyRateCents)
	if !ok {
		nightlyRate = item.AmountCents / nights
	}

	cap := capByDate[item.TxnDate]
	cappedNightly := nightlyRate
	if cap < cappedNightly {
		cappedNightly = cap
	}

	return cappedNightly*nights + taxCents
}
