package validate

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdsanalytics/pmix-importer/constants"
	"github.com/fdsanalytics/pmix-importer/internal/entity"
	"github.com/fdsanalytics/pmix-importer/internal/pdftext"
)

func vDoc() *pdftext.Document {
	return &pdftext.Document{
		FileName:   "pmix-senso-2025-06-14.pdf",
		ReportDate: time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC),
	}
}

func rec(primary, category, item string, qty int, net float64) entity.SalesRecord {
	r := entity.SalesRecord{
		ReportDate:   time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC),
		Location:     "senso-sushi",
		ItemName:     item,
		QuantitySold: qty,
		NetSales:     net,
		DataSource:   "pdf:pmix-senso-2025-06-14.pdf",
	}
	if primary != "" {
		r.PrimaryCategory = &primary
	}
	if category != "" {
		r.Category = &category
	}
	return r
}

func printed(v float64) entity.ReportTotals {
	return entity.ReportTotals{GrandTotal: &v}
}

func TestCheckApproved(t *testing.T) {
	records := []entity.SalesRecord{
		rec("(Food)", "Kids", "Kids Bento", 5, 75),
		rec("(Food)", "Beer", "Sapporo", 12, 60),
	}

	entry := Validator{}.Check(vDoc(), records, printed(135), nil)

	assert.Equal(t, constants.ValidationApproved, entry.Status)
	assert.False(t, entry.Flagged())
	assert.Empty(t, entry.Issues)
	assert.Equal(t, 135.0, entry.CalculatedTotal)
	assert.Nil(t, entry.Discrepancy)
	assert.Equal(t, 2, entry.RecordCount)
	assert.Equal(t, 17, entry.TotalQuantity)
	assert.Equal(t, map[string]int{"(Food)": 2}, entry.Categories)
	assert.Equal(t, "2025-06-14", entry.Date)
	assert.Equal(t, "pmix-senso-2025-06-14.pdf", entry.PDF)
	assert.NotZero(t, entry.ID)
}

func TestCheckTotalMismatch(t *testing.T) {
	records := []entity.SalesRecord{rec("", "Wine", "House Red", 13, 97.50)}

	entry := Validator{}.Check(vDoc(), records, printed(100), nil)

	assert.Equal(t, constants.ValidationFlagged, entry.Status)
	require.Len(t, entry.Issues, 1)
	assert.Contains(t, entry.Issues[0], "Total mismatch")
	assert.Contains(t, entry.Issues[0], "$97.50")
	assert.Contains(t, entry.Issues[0], "$100.00")
	require.NotNil(t, entry.Discrepancy)
	assert.Equal(t, -2.5, *entry.Discrepancy)
	assert.Equal(t, map[string]int{"Unknown": 1}, entry.Categories)
}

func TestCheckTolerance(t *testing.T) {
	records := []entity.SalesRecord{rec("", "Wine", "House Red", 13, 97.50)}

	entry := Validator{ToleranceUSD: 5}.Check(vDoc(), records, printed(100), nil)
	assert.Equal(t, constants.ValidationApproved, entry.Status)

	// Up to the tolerance, inclusive, passes.
	entry = Validator{}.Check(vDoc(), []entity.SalesRecord{rec("", "Wine", "House Red", 13, 99.00)}, printed(100), nil)
	assert.Equal(t, constants.ValidationApproved, entry.Status)
}

func TestCheckNoPrintedTotal(t *testing.T) {
	records := []entity.SalesRecord{rec("", "Wine", "House Red", 13, 97.50)}

	entry := Validator{}.Check(vDoc(), records, entity.ReportTotals{}, nil)
	assert.Equal(t, constants.ValidationApproved, entry.Status)
	assert.Nil(t, entry.PrintedTotal)
}

func TestCheckCategorySubtotals(t *testing.T) {
	records := []entity.SalesRecord{
		rec("", "Beer", "Sapporo", 12, 60),
		rec("", "Wine", "House Red", 2, 30),
	}
	totals := entity.ReportTotals{
		Categories: map[string]entity.CategoryTotal{
			"Beer": {Quantity: 12, NetSales: 80}, // printed 80, rows say 60
			"Wine": {Quantity: 2, NetSales: 30},
		},
	}

	entry := Validator{}.Check(vDoc(), records, totals, nil)

	assert.Equal(t, constants.ValidationFlagged, entry.Status)
	require.Len(t, entry.Issues, 1)
	assert.Contains(t, entry.Issues[0], `Category "Beer"`)
	assert.Contains(t, entry.Issues[0], "$60.00")
	assert.Contains(t, entry.Issues[0], "$80.00")
}

func TestCheckShortItemNames(t *testing.T) {
	records := []entity.SalesRecord{
		rec("", "Rolls", "X", 1, 5),   // fragment, flag it
		rec("", "Rolls", "GF", 1, 5),  // real abbreviation
		rec("", "Rolls", "Ika", 1, 5), // fine
	}

	entry := Validator{}.Check(vDoc(), records, entity.ReportTotals{}, nil)

	require.Len(t, entry.Issues, 1)
	assert.Contains(t, entry.Issues[0], `Short item name "X"`)
}

func TestCheckDuplicateCategoryWords(t *testing.T) {
	records := []entity.SalesRecord{
		rec("", "Beer Beer", "Sapporo", 1, 5),
	}

	entry := Validator{}.Check(vDoc(), records, entity.ReportTotals{}, nil)

	require.Len(t, entry.Issues, 1)
	assert.Contains(t, entry.Issues[0], "Duplicate words in category")
}

func TestCheckHeuristicWindow(t *testing.T) {
	var records []entity.SalesRecord
	for i := 0; i < 22; i++ {
		records = append(records, rec("", "Rolls", fmt.Sprintf("Roll %02d", i), 1, 5))
	}
	// Past the window: not inspected.
	records = append(records, rec("", "Rolls", "Z", 1, 5))

	entry := Validator{}.Check(vDoc(), records, entity.ReportTotals{}, nil)
	assert.Equal(t, constants.ValidationApproved, entry.Status)
}

func TestCheckIssueCap(t *testing.T) {
	var records []entity.SalesRecord
	for i := 0; i < 15; i++ {
		records = append(records, rec("", "Rolls", "Z", 1, 5))
	}

	entry := Validator{}.Check(vDoc(), records, entity.ReportTotals{}, nil)
	assert.Len(t, entry.Issues, 10)
}

func TestCheckContentDate(t *testing.T) {
	doc := vDoc()
	doc.Pages = []pdftext.Page{{Number: 1, Words: []pdftext.Word{
		{Text: "Report 6/15/2025", X: 200, Y: 770},
	}}}
	records := []entity.SalesRecord{rec("", "Beer", "Sapporo", 1, 5)}

	entry := Validator{}.Check(doc, records, entity.ReportTotals{}, nil)
	assert.Equal(t, constants.ValidationFlagged, entry.Status)
	require.Len(t, entry.Issues, 1)
	assert.Contains(t, entry.Issues[0], "2025-06-14")

	// Matching date: clean.
	doc.Pages[0].Words[0].Text = "Report 6/14/2025"
	entry = Validator{}.Check(doc, records, entity.ReportTotals{}, nil)
	assert.Equal(t, constants.ValidationApproved, entry.Status)
}

func TestCheckCarriesWarnings(t *testing.T) {
	records := []entity.SalesRecord{rec("", "Beer", "Sapporo", 1, 5)}
	warnings := []string{`page 1: category "Specialty Rolls" runs into the item column`}

	entry := Validator{}.Check(vDoc(), records, entity.ReportTotals{}, warnings)
	assert.Equal(t, constants.ValidationFlagged, entry.Status)
	assert.Equal(t, warnings[0], entry.Issues[0])
}
