package entity

import "time"

// Trip represents a temporary-duty trip as submitted by the traveler.
// Dates are ISO YYYY-MM-DD strings with no time component; the engine never
// needs wall-clock precision, only calendar arithmetic.
type Trip struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Destination string    `json:"destination"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// ExpenseItem is one typed expense extracted from a receipt or entered by
// hand. Items are immutable after creation; corrections are new items.
// All money is integer cents.
type ExpenseItem struct {
	ID          string         `json:"id"`
	TripID      string         `json:"trip_id"`
	ItemType    string         `json:"item_type"`
	TxnDate     string         `json:"txn_date"`
	Vendor      string         `json:"vendor,omitempty"`
	Description string         `json:"description,omitempty"`
	AmountCents int64          `json:"amount_cents"`
	Meta        map[string]any `json:"meta,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// MetaInt64 reads an integer fact out of the item's meta map, tolerating the
// numeric widening JSON round-trips introduce.
func (i *ExpenseItem) MetaInt64(key string) (int64, bool) {
	if i.Meta == nil {
		return 0, false
	}
	switch v := i.Meta[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	}
	return 0, false
}
