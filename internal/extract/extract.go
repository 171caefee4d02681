// Package extract recovers item rows and printed control totals from a
// loaded report, choosing a strategy per layout era. The POS vendor changed
// the report template in April 2025: the old era renders a ruled table whose
// cells align under header labels, the new era free-places text and is only
// decodable by x-coordinate zones.
package extract

import (
	"errors"
	"fmt"

	"github.com/fdsanalytics/pmix-importer/internal/entity"
	"github.com/fdsanalytics/pmix-importer/internal/pdftext"
)

// Layout names a report template era.
type Layout string

const (
	LayoutTable    Layout = "table"
	LayoutPosition Layout = "position"
)

// ErrLayoutUnrecognized means neither extraction strategy applies. Callers
// must fail the file rather than guess: a half-understood layout produces
// plausible-looking garbage rows.
var ErrLayoutUnrecognized = errors.New("report layout unrecognized")

// Result is the output of one extraction pass. Warnings carry ambiguities
// that are not fatal but should reach the validation log.
type Result struct {
	Layout   Layout
	Rows     []entity.ExtractedRow
	Totals   entity.ReportTotals
	Warnings []string
}

// Extractor recovers rows and printed totals from a document.
type Extractor interface {
	Extract(doc *pdftext.Document) (Result, error)
}

// ForLayout returns the extractor for a classified layout.
func ForLayout(layout Layout, b Boundaries) (Extractor, error) {
	switch layout {
	case LayoutTable:
		return &TableExtractor{Boundaries: b}, nil
	case LayoutPosition:
		return &PositionExtractor{Boundaries: b}, nil
	}
	return nil, fmt.Errorf("%w: no extractor for layout %q", ErrLayoutUnrecognized, layout)
}

func newTotals() entity.ReportTotals {
	return entity.ReportTotals{Categories: make(map[string]entity.CategoryTotal)}
}
