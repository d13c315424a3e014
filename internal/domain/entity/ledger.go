package entity

// PerDiemSpan is a contiguous date range [StartDate, EndDate] over which a
// single per-diem rate applies for one locality. Spans for a trip cover the
// whole trip range with no gaps; when a rate lookup fails the span still
// exists with zero rates so downstream consumers see "rate unavailable"
// instead of missing days.
type PerDiemSpan struct {
	TripID          string `json:"trip_id"`
	Locality        string `json:"locality"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	MIECents        int64  `json:"mie_cents"`
	LodgingCapCents int64  `json:"lodging_cap_cents"`
}

// Contains reports whether the ISO date falls within the span, inclusive.
// ISO dates compare correctly as strings.
func (s *PerDiemSpan) Contains(date string) bool {
	return s.StartDate <= date && date <= s.EndDate
}

// DayLedgerEntry is one calendar date of the trip with its computed
// allowances. MIEAllowedCents is already adjusted for the travel-day
// partial rate.
type DayLedgerEntry struct {
	Date            string `json:"date"`
	MIEAllowedCents int64  `json:"mie_allowed_cents"`
	LodgingCapCents int64  `json:"lodging_cap_cents"`
	IsTravelDay     bool   `json:"is_travel_day"`
}

// EstimateTotals is the computed reimbursement estimate for a trip. It is
// derived data, recomputable at any time from the trip's expense items and
// per-diem spans, and is never stored as a source of truth.
type EstimateTotals struct {
	MIETotalCents       int64            `json:"mie_total_cents"`
	LodgingAllowedCents int64            `json:"lodging_allowed_cents"`
	MileageTotalCents   int64            `json:"mileage_total_cents"`
	MiscTotalCents      int64            `json:"misc_total_cents"`
	GrandTotalCents     int64            `json:"grand_total_cents"`
	Ledger              []DayLedgerEntry `json:"ledger"`
}
