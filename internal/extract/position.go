package extract

import (
	"fmt"
	"math"
	"strings"

	"github.com/fdsanalytics/pmix-importer/internal/entity"
	"github.com/fdsanalytics/pmix-importer/internal/normalize"
	"github.com/fdsanalytics/pmix-importer/internal/pdftext"
)

// Boundaries fixes the x-axis column zones and y merge tolerances for the
// position layout, in PDF points.
type Boundaries struct {
	CategoryMaxX  float64 // category zone: x < CategoryMaxX
	ItemMaxX      float64 // item zone: CategoryMaxX <= x < ItemMaxX
	QtyMaxX       float64 // quantity zone: ItemMaxX <= x < QtyMaxX
	PctMarkerMinX float64 // a "100.00" right of this marks a subtotal row
	CategoryYTol  float64 // wrapped category text merges within this y-distance
	ItemYTol      float64 // wrapped item names merge within this y-distance
	LineYTol      float64 // fragments within this y-distance form one line
}

// DefaultBoundaries returns the tuning for the current production template.
// CategoryMaxX sits at 85 because wrapped item names start near x=89; an
// earlier, wider cut swallowed them into the category column.
func DefaultBoundaries() Boundaries {
	return Boundaries{
		CategoryMaxX:  85,
		ItemMaxX:      185,
		QtyMaxX:       220,
		PctMarkerMinX: 500,
		CategoryYTol:  10,
		ItemYTol:      15,
		LineYTol:      2,
	}
}

func (b Boundaries) withDefaults() Boundaries {
	if b == (Boundaries{}) {
		return DefaultBoundaries()
	}
	if b.LineYTol <= 0 {
		b.LineYTol = 2
	}
	return b
}

// edgeMargin flags category text ending this close to the item boundary;
// such rows are ambiguous and belong in front of a reviewer.
const edgeMargin = 3.0

// PositionExtractor handles the template in production since April 2025.
// Nothing in its text stream says which column a word belongs to, so words
// are assigned by x zone, and category/item text that wraps onto neighboring
// lines is stitched back by y proximity.
type PositionExtractor struct {
	Boundaries Boundaries
}

func (e *PositionExtractor) Extract(doc *pdftext.Document) (Result, error) {
	b := e.Boundaries.withDefaults()
	res := Result{Layout: LayoutPosition, Totals: newTotals()}
	var primary string
	for _, page := range doc.Pages {
		lines := groupLines(page.Words, b.LineYTol)
		for _, ln := range lines {
			qty, ok := ln.qtyWord(b)
			if !ok {
				continue
			}
			category, catEnd := zoneText(lines, ln.y, b.CategoryYTol, 0, b.CategoryMaxX)
			item, _ := zoneText(lines, ln.y, b.ItemYTol, b.CategoryMaxX, b.ItemMaxX)
			money := currencyTokens(ln, b.QtyMaxX)
			// Money columns print in a fixed order: refunds, net sales,
			// avg price, discount.
			net := moneyAt(money, 1)
			discount := moneyAt(money, 3)

			switch {
			case isParenthesized(category):
				primary = category
			case strings.Contains(category, "Grand") && strings.Contains(category, "Total"):
				if net != "" {
					if v, err := normalize.ParseCurrency(net); err == nil {
						res.Totals.GrandTotal = &v
					}
				}
				if q, err := normalize.ParseQuantity(qty); err == nil {
					res.Totals.GrandQuantity = &q
				}
			case hasPctMarker(ln, b) && item == "":
				addCategoryTotal(res.Totals, category, qty, net)
			case category == "":
				// continuation fragment of a row handled on its anchor line
			default:
				if catEnd > b.CategoryMaxX-edgeMargin {
					res.Warnings = append(res.Warnings, fmt.Sprintf(
						"page %d: category %q runs into the item column (ends at x=%.1f, boundary %.0f)",
						page.Number, category, catEnd, b.CategoryMaxX))
				}
				res.Rows = append(res.Rows, entity.ExtractedRow{
					PrimaryCategory: primary,
					Category:        category,
					ItemName:        item,
					Quantity:        qty,
					NetSales:        net,
					Discount:        discount,
					Page:            page.Number,
					Y:               ln.y,
				})
			}
		}
	}
	return res, nil
}

// zoneText gathers words inside [minX, maxX) from every line within yTol of
// y and returns the joined text plus the rightmost x it reaches. Lines come
// in top-first and words left-first, which is exactly reading order for a
// wrapped label.
func zoneText(lines []textLine, y, yTol, minX, maxX float64) (string, float64) {
	var parts []string
	var end float64
	for _, ln := range lines {
		if math.Abs(ln.y-y) > yTol {
			continue
		}
		for _, w := range ln.words {
			if w.X >= minX && w.X < maxX {
				parts = append(parts, w.Text)
				if w.X+w.W > end {
					end = w.X + w.W
				}
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, " ")), end
}

func currencyTokens(ln textLine, minX float64) []string {
	var out []string
	for _, w := range ln.words {
		if w.X >= minX && isCurrencyToken(w.Text) {
			out = append(out, w.Text)
		}
	}
	return out
}

func moneyAt(tokens []string, i int) string {
	if i < len(tokens) {
		return tokens[i]
	}
	return ""
}

func hasPctMarker(ln textLine, b Boundaries) bool {
	for _, w := range ln.words {
		if w.X > b.PctMarkerMinX && w.Text == "100.00" {
			return true
		}
	}
	return false
}
