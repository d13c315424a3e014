package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/milvoyage/tdy-engine/internal/domain/entity"
)

// ItemRepository handles expense item persistence. Items are append-only:
// corrections are modeled as new items, never updates.
type ItemRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewItemRepository creates an expense item repository.
func NewItemRepository(db *sql.DB, logger *zap.Logger) *ItemRepository {
	return &ItemRepository{db: db, logger: logger}
}

// Create inserts one expense item; the meta map is stored as JSON.
func (r *ItemRepository) Create(ctx context.Context, item *entity.ExpenseItem) error {
	meta := item.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode item meta: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO expense_items (id, trip_id, item_type, txn_date, vendor, description, amount_cents, meta)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.TripID, item.ItemType, item.TxnDate, item.Vendor, item.Description, item.AmountCents, string(metaJSON))
	if err != nil {
		r.logger.Error("Failed to create expense item",
			zap.String("trip_id", item.TripID),
			zap.String("item_type", item.ItemType),
			zap.Error(err))
		return fmt.Errorf("failed to create expense item: %w", err)
	}
	return nil
}

// CreateBatch inserts all items, stopping at the first failure.
func (r *ItemRepository) CreateBatch(ctx context.Context, items []entity.ExpenseItem) error {
	for i := range items {
		if err := r.Create(ctx, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

// GetByTripID returns every expense item recorded for a trip.
func (r *ItemRepository) GetByTripID(ctx context.Context, tripID string) ([]entity.ExpenseItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, trip_id, item_type, txn_date, vendor, description, amount_cents, meta, created_at
		FROM expense_items
		WHERE trip_id = ?
		ORDER BY txn_date, created_at
	`, tripID)
	if err != nil {
		r.logger.Error("Failed to get expense items", zap.String("trip_id", tripID), zap.Error(err))
		return nil, fmt.Errorf("failed to get expense items: %w", err)
	}
	defer rows.Close()

	var items []entity.ExpenseItem
	for rows.Next() {
		var item entity.ExpenseItem
		var metaJSON string
		if err := rows.Scan(
			&item.ID,
			&item.TripID,
			&item.ItemType,
			&item.TxnDate,
			&item.Vendor,
			&item.Description,
			&item.AmountCents,
			&metaJSON,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan expense item: %w", err)
		}
		if err := json.Unmarshal([]byte(metaJSON), &item.Meta); err != nil {
			// A corrupt meta blob degrades that item, not the whole read.
			r.logger.Warn("Failed to decode item meta",
				zap.String("item_id", item.ID),
				zap.Error(err))
			item.Meta = nil
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
