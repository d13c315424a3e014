package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/milvoyage/tdy-engine/internal/domain/entity"
	"github.com/milvoyage/tdy-engine/internal/rates"
	"github.com/milvoyage/tdy-engine/pkg/database"
)

func setupDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	migrator := database.NewMigrator(db, zap.NewNop())
	require.NoError(t, migrator.Run("../../migrations"))
	return db
}

func insertTrip(t *testing.T, db *database.DB) *entity.Trip {
	t.Helper()

	trip := &entity.Trip{
		ID:          uuid.New().String(),
		UserID:      "user-1",
		Destination: "Austin, TX",
		StartDate:   "2025-06-01",
		EndDate:     "2025-06-05",
	}
	repo := NewTripRepository(db.DB, zap.NewNop())
	require.NoError(t, repo.Create(context.Background(), trip))
	return trip
}

func TestTripRepositoryCreateAndGet(t *testing.T) {
	db := setupDB(t)
	repo := NewTripRepository(db.DB, zap.NewNop())
	trip := insertTrip(t, db)

	got, err := repo.GetByIDAndUser(context.Background(), trip.ID, "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, trip.Destination, got.Destination)
	assert.Equal(t, trip.StartDate, got.StartDate)
	assert.Equal(t, trip.EndDate, got.EndDate)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestTripRepositoryGetScopedToOwner(t *testing.T) {
	db := setupDB(t)
	repo := NewTripRepository(db.DB, zap.NewNop())
	trip := insertTrip(t, db)

	got, err := repo.GetByIDAndUser(context.Background(), trip.ID, "someone-else")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTripRepositoryGetMissing(t *testing.T) {
	db := setupDB(t)
	repo := NewTripRepository(db.DB, zap.NewNop())

	got, err := repo.GetByIDAndUser(context.Background(), "no-such-trip", "user-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestItemRepositoryMetaRoundTrip(t *testing.T) {
	db := setupDB(t)
	trip := insertTrip(t, db)
	repo := NewItemRepository(db.DB, zap.NewNop())

	item := &entity.ExpenseItem{
		ID:          uuid.New().String(),
		TripID:      trip.ID,
		ItemType:    entity.ItemTypeLodging,
		TxnDate:     "2025-06-01",
		Vendor:      "Grand Hotel Austin",
		AmountCents: 39000,
		Meta: map[string]any{
			entity.MetaNights:           int64(3),
			entity.MetaNightlyRateCents: int64(12000),
			entity.MetaTaxCents:         int64(3000),
		},
	}
	require.NoError(t, repo.Create(context.Background(), item))

	items, err := repo.GetByTripID(context.Background(), trip.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	// JSON widens integers to float64; MetaInt64 narrows them back.
	nights, ok := items[0].MetaInt64(entity.MetaNights)
	require.True(t, ok)
	assert.Equal(t, int64(3), nights)
	rate, ok := items[0].MetaInt64(entity.MetaNightlyRateCents)
	require.True(t, ok)
	assert.Equal(t, int64(12000), rate)
}

func TestItemRepositoryCreateBatchAndOrdering(t *testing.T) {
	db := setupDB(t)
	trip := insertTrip(t, db)
	repo := NewItemRepository(db.DB, zap.NewNop())

	batch := []entity.ExpenseItem{
		{ID: uuid.New().String(), TripID: trip.ID, ItemType: entity.ItemTypeMisc, TxnDate: "2025-06-03", AmountCents: 2400},
		{ID: uuid.New().String(), TripID: trip.ID, ItemType: entity.ItemTypeMeals, TxnDate: "2025-06-01", AmountCents: 1875},
	}
	require.NoError(t, repo.CreateBatch(context.Background(), batch))

	items, err := repo.GetByTripID(context.Background(), trip.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "2025-06-01", items[0].TxnDate)
	assert.Equal(t, "2025-06-03", items[1].TxnDate)
}

func TestItemRepositoryCorruptMetaDegradesItemOnly(t *testing.T) {
	db := setupDB(t)
	trip := insertTrip(t, db)
	repo := NewItemRepository(db.DB, zap.NewNop())

	_, err := db.Exec(`
		INSERT INTO expense_items (id, trip_id, item_type, txn_date, amount_cents, meta)
		VALUES (?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), trip.ID, entity.ItemTypeMisc, "2025-06-02", 500, "{not json")
	require.NoError(t, err)

	items, err := repo.GetByTripID(context.Background(), trip.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].Meta)
	assert.Equal(t, int64(500), items[0].AmountCents)
}

func TestSpanRepositoryReplaceForTrip(t *testing.T) {
	db := setupDB(t)
	trip := insertTrip(t, db)
	repo := NewSpanRepository(db, zap.NewNop())

	first := []entity.PerDiemSpan{{
		TripID: trip.ID, Locality: "CITY:AUSTIN, TX",
		StartDate: "2025-06-01", EndDate: "2025-06-05",
		MIECents: 6000, LodgingCapCents: 10000,
	}}
	require.NoError(t, repo.ReplaceForTrip(context.Background(), trip.ID, first))

	second := []entity.PerDiemSpan{{
		TripID: trip.ID, Locality: "CITY:AUSTIN, TX",
		StartDate: "2025-06-01", EndDate: "2025-06-05",
		MIECents: 6400, LodgingCapCents: 10700,
	}}
	require.NoError(t, repo.ReplaceForTrip(context.Background(), trip.ID, second))

	spans, err := repo.GetByTripID(context.Background(), trip.ID)
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, int64(6400), spans[0].MIECents)
	assert.Equal(t, int64(10700), spans[0].LodgingCapCents)
}

func TestSpanRepositoryReplaceWithEmptyClears(t *testing.T) {
	db := setupDB(t)
	trip := insertTrip(t, db)
	repo := NewSpanRepository(db, zap.NewNop())

	require.NoError(t, repo.ReplaceForTrip(context.Background(), trip.ID, []entity.PerDiemSpan{{
		TripID: trip.ID, Locality: "CITY:AUSTIN, TX",
		StartDate: "2025-06-01", EndDate: "2025-06-05",
	}}))
	require.NoError(t, repo.ReplaceForTrip(context.Background(), trip.ID, nil))

	spans, err := repo.GetByTripID(context.Background(), trip.ID)
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestRateCacheRepositoryRoundTrip(t *testing.T) {
	db := setupDB(t)
	repo := NewRateCacheRepository(db.DB, zap.NewNop())

	rate := &rates.Rate{MIECents: 6400, LodgingCapCents: 10700, Source: rates.SourceAuthoritative}
	require.NoError(t, repo.Set(context.Background(), "perdiem:CITY:AUSTIN, TX:2025-06", rate, time.Hour))

	got, ok, err := repo.Get(context.Background(), "perdiem:CITY:AUSTIN, TX:2025-06")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(6400), got.MIECents)
	assert.Equal(t, int64(10700), got.LodgingCapCents)
	assert.Equal(t, rates.SourceAuthoritative, got.Source)
}

func TestRateCacheRepositoryMiss(t *testing.T) {
	db := setupDB(t)
	repo := NewRateCacheRepository(db.DB, zap.NewNop())

	got, ok, err := repo.Get(context.Background(), "perdiem:ZIP:99999:2025-01")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestRateCacheRepositoryExpiryIsAMiss(t *testing.T) {
	db := setupDB(t)
	repo := NewRateCacheRepository(db.DB, zap.NewNop())

	rate := &rates.Rate{MIECents: 6400, LodgingCapCents: 10700, Source: rates.SourceAuthoritative}
	require.NoError(t, repo.Set(context.Background(), "perdiem:ZIP:78701:2025-06", rate, -time.Minute))

	_, ok, err := repo.Get(context.Background(), "perdiem:ZIP:78701:2025-06")
	require.NoError(t, err)
	assert.False(t, ok)

	// The expired row is gone, not just skipped.
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM rate_cache`).Scan(&count))
	assert.Zero(t, count)
}

func TestRateCacheRepositoryUpsert(t *testing.T) {
	db := setupDB(t)
	repo := NewRateCacheRepository(db.DB, zap.NewNop())

	key := "perdiem:ZIP:78701:2025-06"
	require.NoError(t, repo.Set(context.Background(), key, &rates.Rate{MIECents: 5900, LodgingCapCents: 9800, Source: rates.SourceAuthoritative}, time.Hour))
	require.NoError(t, repo.Set(context.Background(), key, &rates.Rate{MIECents: 6400, LodgingCapCents: 10700, Source: rates.SourceAuthoritative}, time.Hour))

	got, ok, err := repo.Get(context.Background(), key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(6400), got.MIECents)
}
