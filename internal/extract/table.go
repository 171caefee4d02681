package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fdsanalytics/pmix-importer/internal/entity"
	"github.com/fdsanalytics/pmix-importer/internal/normalize"
	"github.com/fdsanalytics/pmix-importer/internal/pdftext"
)

// Table columns, left to right: category, item, qty, net sales, avg price,
// discount, % net sales, % category sales.
const tableColumns = 8

// headerSlack lets right-aligned numbers that start a hair left of their
// column label still land in the right cell.
const headerSlack = 2.0

var (
	qtyCellRE     = regexp.MustCompile(`^[\d.,]`)
	subtotalRowRE = regexp.MustCompile(`(?i)\b(subtotal|total|gift card)\b`)
)

// TableExtractor handles the pre-April-2025 template. The ruled grid is
// invisible in the text stream, so cells are recovered by aligning words to
// the x positions of the header labels.
type TableExtractor struct {
	Boundaries Boundaries
}

type headerSpans struct {
	starts [tableColumns]float64
}

// headerSpansFrom recognizes a complete header line and records each column
// label's x position.
func headerSpansFrom(ln textLine) (headerSpans, bool) {
	var spans headerSpans
	var found [tableColumns]bool
	for _, w := range ln.words {
		t := strings.ToLower(strings.TrimSpace(w.Text))
		col := -1
		switch {
		case strings.Contains(t, "menu group") || t == "category":
			col = 0
		case t == "item" || t == "item name":
			col = 1
		case t == "qty" || t == "quantity":
			col = 2
		case strings.HasPrefix(t, "%") && strings.Contains(t, "net"):
			col = 6
		case strings.HasPrefix(t, "%") && strings.Contains(t, "category"):
			col = 7
		case strings.Contains(t, "net sales"):
			col = 3
		case strings.Contains(t, "avg price"):
			col = 4
		case t == "discount" || t == "discounts":
			col = 5
		}
		if col >= 0 && !found[col] {
			spans.starts[col] = w.X
			found[col] = true
		}
	}
	for _, ok := range found {
		if !ok {
			return headerSpans{}, false
		}
	}
	return spans, true
}

func (h headerSpans) colFor(x float64) int {
	col := 0
	for k := 1; k < tableColumns; k++ {
		if x >= h.starts[k]-headerSlack {
			col = k
		}
	}
	return col
}

func (h headerSpans) cells(ln textLine) [tableColumns]string {
	var cells [tableColumns]string
	for _, w := range ln.words {
		col := h.colFor(w.X)
		if cells[col] == "" {
			cells[col] = w.Text
		} else {
			cells[col] += " " + w.Text
		}
	}
	return cells
}

func (e *TableExtractor) Extract(doc *pdftext.Document) (Result, error) {
	b := e.Boundaries.withDefaults()
	res := Result{Layout: LayoutTable, Totals: newTotals()}
	var spans *headerSpans
	var primary string
	for _, page := range doc.Pages {
		for _, ln := range groupLines(page.Words, b.LineYTol) {
			// Later pages may reprint the header; realign when they do.
			if hs, ok := headerSpansFrom(ln); ok {
				spans = &hs
				continue
			}
			if spans == nil {
				continue // report title and date banner above the header
			}

			cells := spans.cells(ln)
			category := cells[0]
			if strings.Contains(category, "Menu Group") || strings.Contains(category, "Category") {
				continue // wrapped header remnants
			}
			if isParenthesized(category) {
				primary = category
				continue
			}
			if strings.Contains(category, "Grand Total") {
				if cells[3] != "" {
					if v, err := normalize.ParseCurrency(cells[3]); err == nil {
						res.Totals.GrandTotal = &v
					}
				}
				if q, err := normalize.ParseQuantity(cells[2]); err == nil {
					res.Totals.GrandQuantity = &q
				}
				continue
			}
			if !qtyCellRE.MatchString(cells[2]) {
				continue
			}
			// Category summary rows have no item cell. The % of category
			// column reading 100.00% catches them even when the label is an
			// unparenthesized name like "Gift Card".
			if cells[1] == "" && (cells[7] == "100.00%" || subtotalRowRE.MatchString(category)) {
				addCategoryTotal(res.Totals, category, cells[2], cells[3])
				continue
			}
			res.Rows = append(res.Rows, entity.ExtractedRow{
				PrimaryCategory: primary,
				Category:        category,
				ItemName:        cells[1],
				Quantity:        cells[2],
				NetSales:        cells[3],
				Discount:        cells[5],
				Page:            page.Number,
				Y:               ln.y,
			})
		}
	}
	if spans == nil {
		return res, fmt.Errorf("%w: no table header found", ErrLayoutUnrecognized)
	}
	return res, nil
}

// addCategoryTotal accumulates a printed subtotal row. Unparseable pieces
// are dropped rather than failing extraction: the totals exist only to be
// compared against, and validation reports any gap.
func addCategoryTotal(totals entity.ReportTotals, category, qty, net string) {
	ct := totals.Categories[category]
	if q, err := normalize.ParseQuantity(qty); err == nil {
		ct.Quantity += q
	}
	if v, err := normalize.ParseCurrency(net); err == nil {
		ct.NetSales += v
	}
	totals.Categories[category] = ct
}
