// Package validate audits parsed reports against the document's own printed
// totals plus a handful of review heuristics, and keeps the JSON audit log
// reviewers work from.
package validate

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fdsanalytics/pmix-importer/constants"
	"github.com/fdsanalytics/pmix-importer/internal/entity"
	"github.com/fdsanalytics/pmix-importer/internal/pdftext"
)

// maxIssues caps the issue list per entry; past that the file needs a human,
// not a longer list.
const maxIssues = 10

// heuristicWindow bounds how many records the name heuristics inspect.
const heuristicWindow = 20

// shortNameAllowlist holds real menu abbreviations that look like extraction
// fragments but are not.
var shortNameAllowlist = map[string]struct{}{
	"GF": {},
	"V":  {},
	"VG": {},
}

// Validator checks a parsed document's records against its printed totals.
// A zero ToleranceUSD falls back to the production default.
type Validator struct {
	ToleranceUSD float64
}

// Check builds the validation entry for one parsed file. warnings are
// upstream observations (extraction ambiguities, dropped rows) that belong
// in the same entry. Check never fails: any finding flags the entry instead.
func (v Validator) Check(doc *pdftext.Document, records []entity.SalesRecord, totals entity.ReportTotals, warnings []string) entity.ValidationEntry {
	tol := v.ToleranceUSD
	if tol <= 0 {
		tol = constants.DefaultToleranceUSD
	}

	issues := append([]string(nil), warnings...)
	calculated := round2(entity.TotalSales(records))

	var discrepancy *float64
	if totals.GrandTotal != nil {
		diff := calculated - *totals.GrandTotal
		if math.Abs(diff) > tol {
			issues = append(issues, fmt.Sprintf("Total mismatch: calculated $%.2f, PDF shows $%.2f (diff: $%.2f)",
				calculated, *totals.GrandTotal, math.Abs(diff)))
			d := round2(diff)
			discrepancy = &d
		}
	}

	issues = append(issues, v.checkCategoryTotals(records, totals, tol)...)
	issues = append(issues, checkNames(records)...)

	if dates := doc.ContentDates(); len(dates) > 0 && !containsDate(dates, doc.ReportDate) {
		issues = append(issues, fmt.Sprintf("Report date %s from the file name not printed in the document",
			doc.ReportDate.Format("2006-01-02")))
	}

	if len(issues) > maxIssues {
		issues = issues[:maxIssues]
	}

	status := constants.ValidationApproved
	if len(issues) > 0 {
		status = constants.ValidationFlagged
	}

	return entity.ValidationEntry{
		ID:              uuid.New(),
		Date:            doc.ReportDate.Format("2006-01-02"),
		PDF:             doc.FileName,
		Timestamp:       time.Now().UTC(),
		Status:          status,
		Issues:          issues,
		CalculatedTotal: calculated,
		PrintedTotal:    totals.GrandTotal,
		Discrepancy:     discrepancy,
		RecordCount:     len(records),
		TotalQuantity:   entity.TotalQuantity(records),
		Categories:      countByPrimary(records),
	}
}

func (v Validator) checkCategoryTotals(records []entity.SalesRecord, totals entity.ReportTotals, tol float64) []string {
	if len(totals.Categories) == 0 {
		return nil
	}
	computed := make(map[string]float64)
	for _, r := range records {
		if r.Category == nil {
			continue
		}
		computed[*r.Category] += r.NetSales
	}

	names := make([]string, 0, len(totals.Categories))
	for name := range totals.Categories {
		names = append(names, name)
	}
	sort.Strings(names)

	var issues []string
	for _, name := range names {
		printed := totals.Categories[name].NetSales
		got := round2(computed[name])
		if math.Abs(got-printed) > tol {
			issues = append(issues, fmt.Sprintf("Category %q subtotal mismatch: calculated $%.2f, PDF shows $%.2f",
				name, got, printed))
		}
	}
	return issues
}

// checkNames sniffs the first records for signs of a bad column split:
// item names reduced to fragments, or category text that doubled up.
func checkNames(records []entity.SalesRecord) []string {
	var issues []string
	limit := len(records)
	if limit > heuristicWindow {
		limit = heuristicWindow
	}
	for _, r := range records[:limit] {
		if len(r.ItemName) <= 2 {
			if _, ok := shortNameAllowlist[r.ItemName]; !ok {
				issues = append(issues, fmt.Sprintf("Short item name %q in category %q", r.ItemName, deref(r.Category)))
			}
		}
		if cat := deref(r.Category); hasDuplicateWords(cat) {
			issues = append(issues, fmt.Sprintf("Duplicate words in category %q", cat))
		}
	}
	return issues
}

func hasDuplicateWords(s string) bool {
	fields := strings.Fields(s)
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			return true
		}
		seen[f] = struct{}{}
	}
	return false
}

func countByPrimary(records []entity.SalesRecord) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		key := "Unknown"
		if r.PrimaryCategory != nil {
			key = *r.PrimaryCategory
		}
		counts[key]++
	}
	return counts
}

func containsDate(dates []time.Time, want time.Time) bool {
	for _, d := range dates {
		if d.Equal(want) {
			return true
		}
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
