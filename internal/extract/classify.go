package extract

import (
	"fmt"
	"strings"

	"github.com/fdsanalytics/pmix-importer/internal/pdftext"
)

// Classify decides which extraction strategy fits doc, in signal order:
//
//  1. A column header carrying a Refunds label: the new template. Only the
//     position layout prints that column.
//  2. A column header without Refunds, followed by more than ten numeric
//     lines: the old ruled table.
//  3. No header at all, but integer words inside the configured quantity
//     zone: position layout (continuation-style pages).
//
// Anything else fails with ErrLayoutUnrecognized; there is no default,
// because extracting with the wrong strategy yields well-formed nonsense.
func Classify(doc *pdftext.Document, b Boundaries) (Layout, error) {
	b = b.withDefaults()
	for _, page := range doc.Pages {
		lines := groupLines(page.Words, b.LineYTol)
		for i, ln := range lines {
			labels, hasRefunds := headerProfile(ln)
			if labels < 6 {
				continue
			}
			if hasRefunds {
				return LayoutPosition, nil
			}
			data := 0
			for _, rest := range lines[i+1:] {
				if rest.hasNumericWord() {
					data++
				}
			}
			if data > 10 {
				return LayoutTable, nil
			}
		}
	}
	for _, page := range doc.Pages {
		for _, ln := range groupLines(page.Words, b.LineYTol) {
			if _, ok := ln.qtyWord(b); ok {
				return LayoutPosition, nil
			}
		}
	}
	return "", fmt.Errorf("%w: no column header and no quantity column between x=%.0f and x=%.0f",
		ErrLayoutUnrecognized, b.ItemMaxX, b.QtyMaxX)
}

// headerProfile counts the distinct column labels a line carries and whether
// one of them is the Refunds column.
func headerProfile(ln textLine) (int, bool) {
	var menuGroup, item, qty, refunds, netSales, avgPrice, discount, pctNet, pctCategory bool
	for _, w := range ln.words {
		t := strings.ToLower(strings.TrimSpace(w.Text))
		switch {
		case strings.Contains(t, "menu group") || t == "category":
			menuGroup = true
		case t == "item" || t == "item name":
			item = true
		case t == "qty" || t == "quantity":
			qty = true
		case t == "refunds":
			refunds = true
		case strings.HasPrefix(t, "%") && strings.Contains(t, "net"):
			pctNet = true
		case strings.HasPrefix(t, "%") && strings.Contains(t, "category"):
			pctCategory = true
		case strings.Contains(t, "net sales"):
			netSales = true
		case strings.Contains(t, "avg price"):
			avgPrice = true
		case t == "discount" || t == "discounts":
			discount = true
		}
	}
	count := 0
	for _, ok := range []bool{menuGroup, item, qty, refunds, netSales, avgPrice, discount, pctNet, pctCategory} {
		if ok {
			count++
		}
	}
	return count, refunds
}
