package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/milvoyage/tdy-engine/internal/domain/entity"
	"github.com/milvoyage/tdy-engine/pkg/database"
)

// SpanRepository handles per-diem span persistence. Spans are a derived
// cache of the rate resolver's output, replaced wholesale on every
// estimate, never hand-edited.
type SpanRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewSpanRepository creates a span repository.
func NewSpanRepository(db *database.DB, logger *zap.Logger) *SpanRepository {
	return &SpanRepository{db: db, logger: logger}
}

// ReplaceForTrip deletes the trip's stored spans and inserts the freshly
// computed ones in a single transaction, so concurrent estimates for the
// same trip serialize on the write lock and a reader never observes a
// half-replaced set.
func (r *SpanRepository) ReplaceForTrip(ctx context.Context, tripID string, spans []entity.PerDiemSpan) error {
	err := r.db.WithTransaction(func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM per_diem_spans WHERE trip_id = ?`, tripID); err != nil {
			return fmt.Errorf("failed to delete spans: %w", err)
		}
		for _, span := range spans {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO per_diem_spans (trip_id, locality, start_date, end_date, mie_cents, lodging_cap_cents)
				VALUES (?, ?, ?, ?, ?, ?)
			`, span.TripID, span.Locality, span.StartDate, span.EndDate, span.MIECents, span.LodgingCapCents)
			if err != nil {
				return fmt.Errorf("failed to insert span: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to replace per-diem spans",
			zap.String("trip_id", tripID),
			zap.Int("span_count", len(spans)),
			zap.Error(err))
		return err
	}
	return nil
}

// GetByTripID returns the stored spans for a trip in date order.
func (r *SpanRepository) GetByTripID(ctx context.Context, tripID string) ([]entity.PerDiemSpan, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT trip_id, locality, start_date, end_date, mie_cents, lodging_cap_cents
		FROM per_diem_spans
		WHERE trip_id = ?
		ORDER BY start_date
	`, tripID)
	if err != nil {
		r.logger.Error("Failed to get per-diem spans", zap.String("trip_id", tripID), zap.Error(err))
		return nil, fmt.Errorf("failed to get spans: %w", err)
	}
	defer rows.Close()

	var spans []entity.PerDiemSpan
	for rows.Next() {
		var span entity.PerDiemSpan
		if err := rows.Scan(
			&span.TripID,
			&span.Locality,
			&span.StartDate,
			&span.EndDate,
			&span.MIECents,
			&span.LodgingCapCents,
		); err != nil {
			return nil, fmt.Errorf("failed to scan span: %w", err)
		}
		spans = append(spans, span)
	}
	return spans, rows.Err()
}
