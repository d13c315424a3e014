// Package export renders a computed trip estimate into an Excel workbook
// for accountants and travel approvers.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/milvoyage/tdy-engine/internal/domain/entity"
	"github.com/milvoyage/tdy-engine/internal/money"
)

const sheetName = "TDY Estimate"

// LedgerWriter writes estimate workbooks.
type LedgerWriter struct {
	logger *zap.Logger
}

// NewLedgerWriter creates an Excel ledger writer.
func NewLedgerWriter(logger *zap.Logger) *LedgerWriter {
	return &LedgerWriter{logger: logger}
}

// Write renders the trip header, the day-by-day ledger, and the category
// totals to outputPath. The workbook is a presentation of derived data;
// regenerating it is always safe.
func (w *LedgerWriter) Write(trip *entity.Trip, totals *entity.EstimateTotals, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		w.logger.Warn("Failed to remove default sheet", zap.Error(err))
	}

	// Header block
	w.setCell(f, "A1", "Trip ID")
	w.setCell(f, "B1", trip.ID)
	w.setCell(f, "A2", "Destination")
	w.setCell(f, "B2", trip.Destination)
	w.setCell(f, "A3", "Dates")
	w.setCell(f, "B3", fmt.Sprintf("%s through %s", trip.StartDate, trip.EndDate))

	// Ledger table
	headerRow := 5
	w.setCell(f, fmt.Sprintf("A%d", headerRow), "Date")
	w.setCell(f, fmt.Sprintf("B%d", headerRow), "Travel Day")
	w.setCell(f, fmt.Sprintf("C%d", headerRow), "M&IE Allowed")
	w.setCell(f, fmt.Sprintf("D%d", headerRow), "Lodging Cap")

	row := headerRow + 1
	for _, day := range totals.Ledger {
		travel := ""
		if day.IsTravelDay {
			travel = "Yes"
		}
		w.setCell(f, fmt.Sprintf("A%d", row), day.Date)
		w.setCell(f, fmt.Sprintf("B%d", row), travel)
		w.setCell(f, fmt.Sprintf("C%d", row), money.FormatCents(day.MIEAllowedCents))
		w.setCell(f, fmt.Sprintf("D%d", row), money.FormatCents(day.LodgingCapCents))
		row++
	}

	// Totals block
	row++
	for _, line := range []struct {
		label string
		cents int64
	}{
		{"M&IE Total", totals.MIETotalCents},
		{"Lodging Allowed", totals.LodgingAllowedCents},
		{"Mileage Total", totals.MileageTotalCents},
		{"Misc Total", totals.MiscTotalCents},
		{"Grand Total", totals.GrandTotalCents},
	} {
		w.setCell(f, fmt.Sprintf("A%d", row), line.label)
		w.setCell(f, fmt.Sprintf("C%d", row), money.FormatCents(line.cents))
		row++
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info("Estimate workbook written",
		zap.String("trip_id", trip.ID),
		zap.String("output_path", outputPath))
	return nil
}

func (w *LedgerWriter) setCell(f *excelize.File, cell string, value any) {
	if err := f.SetCellValue(sheetName, cell, value); err != nil {
		w.logger.Warn("Failed to set cell value",
			zap.String("cell", cell),
			zap.Error(err))
	}
}
