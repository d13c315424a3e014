// Package repository implements the sqlite-backed stores for trips,
// expense items, per-diem spans, and the rate cache.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/milvoyage/tdy-engine/internal/domain/entity"
)

// TripRepository handles trip persistence.
type TripRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTripRepository creates a trip repository.
func NewTripRepository(db *sql.DB, logger *zap.Logger) *TripRepository {
	return &TripRepository{db: db, logger: logger}
}

// Create inserts a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *entity.Trip) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO trips (id, user_id, destination, start_date, end_date)
		VALUES (?, ?, ?, ?, ?)
	`, trip.ID, trip.UserID, trip.Destination, trip.StartDate, trip.EndDate)
	if err != nil {
		r.logger.Error("Failed to create trip", zap.String("trip_id", trip.ID), zap.Error(err))
		return fmt.Errorf("failed to create trip: %w", err)
	}
	return nil
}

// GetByIDAndUser returns the trip owned by the user, or (nil, nil) when no
// such trip exists.
func (r *TripRepository) GetByIDAndUser(ctx context.Context, id, userID string) (*entity.Trip, error) {
	var trip entity.Trip
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, destination, start_date, end_date, created_at
		FROM trips
		WHERE id = ? AND user_id = ?
	`, id, userID).Scan(
		&trip.ID,
		&trip.UserID,
		&trip.Destination,
		&trip.StartDate,
		&trip.EndDate,
		&trip.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get trip", zap.String("trip_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return &trip, nil
}
