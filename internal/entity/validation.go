package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/fdsanalytics/pmix-importer/constants"
)

// ValidationEntry is one element of the JSON validation log, written per
// file for human review.
type ValidationEntry struct {
	ID              uuid.UUID                  `json:"id"`
	Date            string                     `json:"date"`
	PDF             string                     `json:"pdf"`
	Timestamp       time.Time                  `json:"timestamp"`
	Status          constants.ValidationStatus `json:"status"`
	Issues          []string                   `json:"issues"`
	CalculatedTotal float64                    `json:"calculated_total"`
	PrintedTotal    *float64                   `json:"pdf_total"`
	Discrepancy     *float64                   `json:"discrepancy,omitempty"`
	RecordCount     int                        `json:"record_count"`
	TotalQuantity   int                        `json:"total_qty"`
	Categories      map[string]int             `json:"categories"`
}

// Flagged reports whether the entry needs human review.
func (e ValidationEntry) Flagged() bool {
	return e.Status == constants.ValidationFlagged
}
