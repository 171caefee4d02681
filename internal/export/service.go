package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fdsanalytics/pmix-importer/internal/repository"
)

// Service is a tiny façade over the sales repository that produces XLSX bytes
// for exports.
type Service struct {
	records repository.SalesRecordRepository
	logger  *slog.Logger
}

func NewService(records repository.SalesRecordRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{records: records, logger: logger}
}

// ExportItemSalesXLSX returns an XLSX workbook (as bytes) for the given location and date window.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> all records for the location.
func (s *Service) ExportItemSalesXLSX(ctx context.Context, location string, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	// Normalize dates (date-only, UTC)
	var fromDate, toDate *time.Time
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		fromDate = &f
	}
	if to != nil {
		t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		today := time.Now().UTC()
		t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}

	recs, err := s.records.ListRange(ctx, location, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("query item sales: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Item Sales"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Report Date",
		"Location",
		"Primary Category",
		"Category",
		"Item",
		"Quantity Sold",
		"Net Sales",
		"Discount",
		"Data Source",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		primary, category := "", ""
		if r.PrimaryCategory != nil {
			primary = *r.PrimaryCategory
		}
		if r.Category != nil {
			category = *r.Category
		}

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		// 1) Report Date
		if !r.ReportDate.IsZero() {
			write(1, r.ReportDate.Format("2006-01-02"))
		} else {
			write(1, "")
		}
		// 2) Location
		write(2, r.Location)

		// 3) Primary Category
		write(3, primary)

		// 4) Category
		write(4, category)

		// 5) Item
		write(5, r.ItemName)

		// 6) Quantity Sold
		write(6, r.QuantitySold)

		// 7) Net Sales
		write(7, r.NetSales)

		// 8) Discount
		write(8, r.Discount)

		// 9) Data Source
		write(9, r.DataSource)

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 12) // date
	_ = f.SetColWidth(sheet, "B", "B", 16) // location
	_ = f.SetColWidth(sheet, "C", "D", 18) // categories
	_ = f.SetColWidth(sheet, "E", "E", 32) // item
	_ = f.SetColWidth(sheet, "F", "H", 13) // numbers
	_ = f.SetColWidth(sheet, "I", "I", 36) // source file

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"location", location,
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
