// Package receipt converts raw receipt text into typed expense items using
// heuristic pattern matching. Receipts are unstructured and adversarial, so
// the normalizer is deliberately conservative: it prefers emitting nothing
// over fabricating a plausible-looking but wrong line item, because the
// downstream totals feed a real reimbursement claim.
package receipt

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/milvoyage/tdy-engine/internal/dates"
	"github.com/milvoyage/tdy-engine/internal/domain/entity"
	"github.com/milvoyage/tdy-engine/internal/money"
)

// dateToken matches the date shapes that show up on receipts: 06/01/2025,
// 2025-06-01, Jun 1, 2025, and friends.
const dateToken = `(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}-\d{2}-\d{2}|[A-Za-z]{3,9}\.?\s+\d{1,2},?\s+\d{4})`

// moneyToken matches "$1,234.56", "$89", and bare "123.45". A bare integer
// without a dollar sign is not accepted; it is usually a quantity.
const moneyToken = `(\$\s*[\d,]+(?:\.\d{1,2})?|[\d,]+\.\d{2})`

var (
	// Ordered date extractors; first match wins. Labeled keywords beat a
	// bare date token found anywhere in the document.
	lodgingDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)check[\s-]*in(?:\s*date)?\s*[:#]?\s*` + dateToken),
		regexp.MustCompile(`(?i)arriv(?:al|e)(?:\s*date)?\s*[:#]?\s*` + dateToken),
		regexp.MustCompile(`(?i)date\s*[:#]?\s*` + dateToken),
		regexp.MustCompile(dateToken),
	}
	genericDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)date\s*[:#]?\s*` + dateToken),
		regexp.MustCompile(dateToken),
	}

	nightsPattern   = regexp.MustCompile(`(?i)(\d+)\s*night`)
	roomRatePattern = regexp.MustCompile(`(?i)(?:room(?:\s*rate)?|nightly\s*rate)\s*[:#]?\s*` + moneyToken)
	totalPattern    = regexp.MustCompile(`(?i)(?:sub\s*)?total(?:\s*(?:due|paid|charges?))?\s*[:#]?\s*` + moneyToken)
	taxPattern      = regexp.MustCompile(`(?i)tax(?:es)?\s*[:#]?\s*` + moneyToken)
	bareMoney       = regexp.MustCompile(moneyToken)
	milesPattern    = regexp.MustCompile(`(?i)([\d,]+(?:\.\d+)?)\s*miles?\b`)
)

// miscVocabulary maps receipt keywords to a human-readable description.
// Checked in order; the first hit wins.
var miscVocabulary = []struct {
	keyword     string
	description string
}{
	{"parking", "Parking"},
	{"toll", "Tolls"},
	{"baggage", "Baggage fee"},
	{"uber", "Rideshare"},
	{"lyft", "Rideshare"},
	{"rideshare", "Rideshare"},
	{"taxi", "Taxi"},
}

// Normalizer converts raw document text into zero or more expense items.
type Normalizer struct {
	logger *zap.Logger
}

// NewNormalizer creates a receipt normalizer.
func NewNormalizer(logger *zap.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize dispatches on the declared document category and returns the
// extracted items. It never fails on malformed input: anything that cannot
// be confidently extracted yields an empty slice. ORDERS and OTHER documents
// intentionally produce nothing; ambiguous paperwork requires a human to
// enter the item manually.
func (n *Normalizer) Normalize(trip *entity.Trip, docType, rawText string, mileageRateCents int64) []entity.ExpenseItem {
	var items []entity.ExpenseItem
	switch docType {
	case entity.DocTypeLodging:
		items = n.extractLodging(trip, rawText)
	case entity.DocTypeMeals:
		items = n.extractMeals(trip, rawText)
	case entity.DocTypeMileage:
		items = n.extractMileage(trip, rawText, mileageRateCents)
	case entity.DocTypeMisc:
		items = n.extractMisc(trip, rawText)
	case entity.DocTypeOrders, entity.DocTypeOther:
		// manual entry only
	default:
		n.logger.Info("Unknown document type, skipping extraction",
			zap.String("doc_type", docType))
	}
	if len(items) == 0 {
		n.logger.Info("No items extracted from document",
			zap.String("trip_id", trip.ID),
			zap.String("doc_type", docType))
	}
	return items
}

// extractLodging pulls a check-in date, night count, nightly rate and tax
// out of a hotel folio. When an explicit room rate is present the total is
// rate*nights+tax; otherwise the first bare currency token is taken as the
// total and the rate is back-derived by subtracting tax. A folio with
// neither a usable date nor a usable total produces nothing: a partial
// record with a fabricated date is worse than no record.
func (n *Normalizer) extractLodging(trip *entity.Trip, text string) []entity.ExpenseItem {
	date, dateOK := firstDate(lodgingDatePatterns, text)

	nights := int64(1)
	if m := nightsPattern.FindStringSubmatch(text); len(m) > 1 {
		if v, err := strconv.ParseInt(m[1], 10, 64); err == nil && v > 0 {
			nights = v
		}
	}

	var taxCents int64
	if m := taxPattern.FindStringSubmatch(text); len(m) > 1 {
		taxCents = money.ParseCurrency(m[1])
	}

	var totalCents, nightlyCents int64
	if m := roomRatePattern.FindStringSubmatch(text); len(m) > 1 {
		nightlyCents = money.ParseCurrency(m[1])
		totalCents = nightlyCents*nights + taxCents
	} else if m := totalPattern.FindStringSubmatch(text); len(m) > 1 {
		totalCents = money.ParseCurrency(m[1])
		nightlyCents = (totalCents - taxCents) / nights
	} else if m := bareMoney.FindStringSubmatch(text); len(m) > 1 {
		totalCents = money.ParseCurrency(m[1])
		nightlyCents = (totalCents - taxCents) / nights
	}

	if !dateOK || totalCents <= 0 {
		return nil
	}
	if nightlyCents < 0 {
		nightlyCents = 0
	}

	return []entity.ExpenseItem{{
		ID:          uuid.NewString(),
		TripID:      trip.ID,
		ItemType:    entity.ItemTypeLodging,
		TxnDate:     date,
		Vendor:      firstLine(text),
		Description: "Lodging",
		AmountCents: totalCents,
		Meta: map[string]any{
			entity.MetaNights:           nights,
			entity.MetaNightlyRateCents: nightlyCents,
			entity.MetaTaxCents:         taxCents,
		},
		CreatedAt: time.Now(),
	}}
}

// extractMeals requires both a date and a total-adjacent amount; the vendor
// is the first non-empty line of the document, a low-cost heuristic for
// "who was paid".
func (n *Normalizer) extractMeals(trip *entity.Trip, text string) []entity.ExpenseItem {
	date, dateOK := firstDate(genericDatePatterns, text)

	var amountCents int64
	if m := totalPattern.FindStringSubmatch(text); len(m) > 1 {
		amountCents = money.ParseCurrency(m[1])
	}

	if !dateOK || amountCents <= 0 {
		return nil
	}

	return []entity.ExpenseItem{{
		ID:          uuid.NewString(),
		TripID:      trip.ID,
		ItemType:    entity.ItemTypeMeals,
		TxnDate:     date,
		Vendor:      firstLine(text),
		Description: "Meals",
		AmountCents: amountCents,
		CreatedAt:   time.Now(),
	}}
}

// extractMileage looks for an "<N> miles" token and applies the
// caller-supplied cents-per-mile rate, so rate changes never touch this
// parser. Mileage logs are frequently dateless summaries; the transaction
// date defaults to today when the document carries none.
func (n *Normalizer) extractMileage(trip *entity.Trip, text string, mileageRateCents int64) []entity.ExpenseItem {
	m := milesPattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return nil
	}
	miles, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil || miles <= 0 {
		return nil
	}
	amountCents := money.RoundHalfAwayFromZero(miles * float64(mileageRateCents))

	date, ok := firstDate(genericDatePatterns, text)
	if !ok {
		date = dates.Today()
	}

	return []entity.ExpenseItem{{
		ID:          uuid.NewString(),
		TripID:      trip.ID,
		ItemType:    entity.ItemTypeMileage,
		TxnDate:     date,
		Description: "Mileage",
		AmountCents: amountCents,
		Meta: map[string]any{
			entity.MetaMiles: miles,
		},
		CreatedAt: time.Now(),
	}}
}

// extractMisc takes one date token and the first bare currency token, and
// classifies the description against a small fixed keyword vocabulary.
func (n *Normalizer) extractMisc(trip *entity.Trip, text string) []entity.ExpenseItem {
	date, dateOK := firstDate(genericDatePatterns, text)

	var amountCents int64
	if m := bareMoney.FindStringSubmatch(text); len(m) > 1 {
		amountCents = money.ParseCurrency(m[1])
	}

	if !dateOK || amountCents <= 0 {
		return nil
	}

	description := "Misc expense"
	lower := strings.ToLower(text)
	for _, entry := range miscVocabulary {
		if strings.Contains(lower, entry.keyword) {
			description = entry.description
			break
		}
	}

	return []entity.ExpenseItem{{
		ID:          uuid.NewString(),
		TripID:      trip.ID,
		ItemType:    entity.ItemTypeMisc,
		TxnDate:     date,
		Vendor:      firstLine(text),
		Description: description,
		AmountCents: amountCents,
		CreatedAt:   time.Now(),
	}}
}

// firstDate runs the ordered pattern list and returns the first token that
// parses into an ISO date. A token that matches a pattern but fails to
// parse is skipped rather than aborting the document.
func firstDate(patterns []*regexp.Regexp, text string) (string, bool) {
	for _, p := range patterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			if len(m) < 2 {
				continue
			}
			if iso, ok := dates.Parse(m[1]); ok {
				return iso, true
			}
		}
	}
	return "", false
}

// firstLine returns the first non-empty line of the document, truncated to
// 50 characters.
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if len(trimmed) > 50 {
			return trimmed[:50]
		}
		return trimmed
	}
	return ""
}
