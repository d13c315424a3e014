package estimator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/milvoyage/tdy-engine/internal/domain/entity"
)

type mockTripStore struct {
	trip *entity.Trip
	err  error
}

func (m *mockTripStore) GetByIDAndUser(_ context.Context, _, _ string) (*entity.Trip, error) {
	return m.trip, m.err
}

type mockItemStore struct {
	items []entity.ExpenseItem
	err   error
}

func (m *mockItemStore) GetByTripID(_ context.Context, _ string) ([]entity.ExpenseItem, error) {
	return m.items, m.err
}

type mockSpanStore struct {
	replaced []entity.PerDiemSpan
	err      error
}

func (m *mockSpanStore) ReplaceForTrip(_ context.Context, _ string, spans []entity.PerDiemSpan) error {
	if m.err != nil {
		return m.err
	}
	m.replaced = spans
	return nil
}

type mockSpanResolver struct {
	spans []entity.PerDiemSpan
}

func (m *mockSpanResolver) ComputePerDiemSpans(_ context.Context, _, _, _, _ string) []entity.PerDiemSpan {
	return m.spans
}

func fiveDayTrip() *entity.Trip {
	return &entity.Trip{
		ID:          "trip-1",
		UserID:      "user-1",
		Destination: "Austin, TX",
		StartDate:   "2025-06-01",
		EndDate:     "2025-06-05",
	}
}

func austinSpan(mie, cap int64) entity.PerDiemSpan {
	return entity.PerDiemSpan{
		TripID:          "trip-1",
		Locality:        "CITY:AUSTIN, TX",
		StartDate:       "2025-06-01",
		EndDate:         "2025-06-05",
		MIECents:        mie,
		LodgingCapCents: cap,
	}
}

func newTestService(trips TripStore, items ItemStore, spans SpanStore, resolver SpanResolver) *Service {
	return NewService(trips, items, spans, resolver, zap.NewNop())
}

func TestEstimateTripMIEWithTravelDays(t *testing.T) {
	spanStore := &mockSpanStore{}
	svc := newTestService(
		&mockTripStore{trip: fiveDayTrip()},
		&mockItemStore{},
		spanStore,
		&mockSpanResolver{spans: []entity.PerDiemSpan{austinSpan(6000, 10000)}},
	)

	totals, err := svc.EstimateTrip(context.Background(), "trip-1", "user-1")
	require.NoError(t, err)

	// 5 days at $60: first and last at 75%, three full days between.
	// 2*4500 + 3*6000 = 27000.
	assert.Equal(t, int64(27000), totals.MIETotalCents)
	require.Len(t, totals.Ledger, 5)
	assert.True(t, totals.Ledger[0].IsTravelDay)
	assert.Equal(t, int64(4500), totals.Ledger[0].MIEAllowedCents)
	assert.False(t, totals.Ledger[2].IsTravelDay)
	assert.Equal(t, int64(6000), totals.Ledger[2].MIEAllowedCents)
	assert.True(t, totals.Ledger[4].IsTravelDay)
	assert.Equal(t, int64(4500), totals.Ledger[4].MIEAllowedCents)

	require.Len(t, spanStore.replaced, 1)
}

func TestEstimateTripLodgingCapWithTaxPassThrough(t *testing.T) {
	item := entity.ExpenseItem{
		ID:          "item-1",
		TripID:      "trip-1",
		ItemType:    entity.ItemTypeLodging,
		TxnDate:     "2025-06-01",
		AmountCents: 39000,
		Meta: map[string]any{
			entity.MetaNights:           int64(3),
			entity.MetaNightlyRateCents: int64(12000),
			entity.MetaTaxCents:         int64(3000),
		},
	}
	svc := newTestService(
		&mockTripStore{trip: fiveDayTrip()},
		&mockItemStore{items: []entity.ExpenseItem{item}},
		&mockSpanStore{},
		&mockSpanResolver{spans: []entity.PerDiemSpan{austinSpan(6000, 10000)}},
	)

	totals, err := svc.EstimateTrip(context.Background(), "trip-1", "user-1")
	require.NoError(t, err)

	// $120 nightly rate capped to $100 for 3 nights, plus $30 tax in full:
	// 10000*3 + 3000 = 33000.
	assert.Equal(t, int64(33000), totals.LodgingAllowedCents)
}

func TestEstimateTripLodgingUnderCapReimbursedInFull(t *testing.T) {
	item := entity.ExpenseItem{
		ItemType:    entity.ItemTypeLodging,
		TxnDate:     "2025-06-01",
		AmountCents: 20000,
		Meta: map[string]any{
			entity.MetaNights:           int64(2),
			entity.MetaNightlyRateCents: int64(9500),
			entity.MetaTaxCents:         int64(1000),
		},
	}
	svc := newTestService(
		&mockTripStore{trip: fiveDayTrip()},
		&mockItemStore{items: []entity.ExpenseItem{item}},
		&mockSpanStore{},
		&mockSpanResolver{spans: []entity.PerDiemSpan{austinSpan(6000, 10000)}},
	)

	totals, err := svc.EstimateTrip(context.Background(), "trip-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(20000), totals.LodgingAllowedCents)
}

func TestEstimateTripGrandTotal(t *testing.T) {
	items := []entity.ExpenseItem{
		{
			ItemType:    entity.ItemTypeLodging,
			TxnDate:     "2025-06-01",
			AmountCents: 39000,
			Meta: map[string]any{
				entity.MetaNights:           int64(3),
				entity.MetaNightlyRateCents: int64(12000),
				entity.MetaTaxCents:         int64(3000),
			},
		},
		{ItemType: entity.ItemTypeMileage, TxnDate: "2025-06-01", AmountCents: 14338},
		{ItemType: entity.ItemTypeMisc, TxnDate: "2025-06-03", AmountCents: 2400},
		// Meals receipts inform the record but never add to the total;
		// M&IE is a flat allowance.
		{ItemType: entity.ItemTypeMeals, TxnDate: "2025-06-02", AmountCents: 1875},
	}
	svc := newTestService(
		&mockTripStore{trip: fiveDayTrip()},
		&mockItemStore{items: items},
		&mockSpanStore{},
		&mockSpanResolver{spans: []entity.PerDiemSpan{austinSpan(6000, 10000)}},
	)

	totals, err := svc.EstimateTrip(context.Background(), "trip-1", "user-1")
	require.NoError(t, err)

	assert.Equal(t, int64(27000), totals.MIETotalCents)
	assert.Equal(t, int64(33000), totals.LodgingAllowedCents)
	assert.Equal(t, int64(14338), totals.MileageTotalCents)
	assert.Equal(t, int64(2400), totals.MiscTotalCents)
	assert.Equal(t, int64(27000+33000+14338+2400), totals.GrandTotalCents)
}

func TestEstimateTripNotFound(t *testing.T) {
	svc := newTestService(&mockTripStore{}, &mockItemStore{}, &mockSpanStore{}, &mockSpanResolver{})

	_, err := svc.EstimateTrip(context.Background(), "trip-1", "user-1")
	assert.ErrorIs(t, err, ErrTripNotFound)
}

func TestEstimateTripStoreError(t *testing.T) {
	svc := newTestService(
		&mockTripStore{err: errors.New("db closed")},
		&mockItemStore{}, &mockSpanStore{}, &mockSpanResolver{},
	)

	_, err := svc.EstimateTrip(context.Background(), "trip-1", "user-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTripNotFound)
}

func TestEstimateTripSpanPersistFailureAborts(t *testing.T) {
	svc := newTestService(
		&mockTripStore{trip: fiveDayTrip()},
		&mockItemStore{},
		&mockSpanStore{err: errors.New("locked")},
		&mockSpanResolver{spans: []entity.PerDiemSpan{austinSpan(6000, 10000)}},
	)

	_, err := svc.EstimateTrip(context.Background(), "trip-1", "user-1")
	assert.ErrorContains(t, err, "per-diem spans")
}

func TestBuildLedgerSingleDayTrip(t *testing.T) {
	span := entity.PerDiemSpan{
		StartDate: "2025-06-01", EndDate: "2025-06-01",
		MIECents: 6000, LodgingCapCents: 10000,
	}
	ledger := BuildLedger("2025-06-01", "2025-06-01", []entity.PerDiemSpan{span})
	require.Len(t, ledger, 1)
	assert.True(t, ledger[0].IsTravelDay)
	assert.Equal(t, int64(4500), ledger[0].MIEAllowedCents)
}

func TestBuildLedgerUncoveredDateGetsZeroRates(t *testing.T) {
	span := entity.PerDiemSpan{
		StartDate: "2025-06-01", EndDate: "2025-06-03",
		MIECents: 6000, LodgingCapCents: 10000,
	}
	ledger := BuildLedger("2025-06-01", "2025-06-05", []entity.PerDiemSpan{span})
	require.Len(t, ledger, 5)
	assert.Equal(t, int64(6000), ledger[1].MIEAllowedCents)
	assert.Zero(t, ledger[3].MIEAllowedCents)
	assert.Zero(t, ledger[3].LodgingCapCents)
	assert.Zero(t, ledger[4].MIEAllowedCents)
}

func TestBuildLedgerOddRateRoundsHalfUpOnTravelDays(t *testing.T) {
	span := entity.PerDiemSpan{
		StartDate: "2025-06-01", EndDate: "2025-06-02",
		MIECents: 50, LodgingCapCents: 0,
	}
	ledger := BuildLedger("2025-06-01", "2025-06-02", []entity.PerDiemSpan{span})
	require.Len(t, ledger, 2)
	// 50 * 0.75 = 37.5, rounded half away from zero.
	assert.Equal(t, int64(38), ledger[0].MIEAllowedCents)
	assert.Equal(t, int64(38), ledger[1].MIEAllowedCents)
}
