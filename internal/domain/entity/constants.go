package entity

// Expense item types produced by the receipt normalizer.
const (
	ItemTypeLodging = "lodging"
	ItemTypeMeals   = "meals"
	ItemTypeMileage = "mileage"
	ItemTypeMisc    = "misc"
)

// Declared document categories for uploaded receipts. ORDERS and OTHER never
// produce automatic items; those documents require manual entry.
const (
	DocTypeLodging = "LODGING"
	DocTypeMeals   = "MEALS"
	DocTypeMileage = "MILEAGE"
	DocTypeMisc    = "MISC"
	DocTypeOrders  = "ORDERS"
	DocTypeOther   = "OTHER"
)

// Meta map keys carried by typed expense items.
const (
	MetaNights           = "nights"
	MetaNightlyRateCents = "nightly_rate_cents"
	MetaTaxCents         = "tax_cents"
	MetaMiles            = "miles"
)

// ValidItemType reports whether t is a known expense item type.
func ValidItemType(t string) bool {
	switch t {
	case ItemTypeLodging, ItemTypeMeals, ItemTypeMileage, ItemTypeMisc:
		return true
	}
	return false
}

// ValidDocType reports whether t is a known declared document category.
func ValidDocType(t string) bool {
	switch t {
	case DocTypeLodging, DocTypeMeals, DocTypeMileage, DocTypeMisc, DocTypeOrders, DocTypeOther:
		return true
	}
	return false
}
