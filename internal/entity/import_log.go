package entity

import (
	"time"

	"github.com/fdsanalytics/pmix-importer/constants"
)

// ImportLogEntry is one row of pmix_import_log: the durable record of a
// file-level import attempt, keyed by (file_name, report_date).
type ImportLogEntry struct {
	FileName     string                 `json:"file_name"`
	ReportDate   time.Time              `json:"report_date"`
	ProcessedAt  time.Time              `json:"processed_at"`
	Status       constants.ImportStatus `json:"status"`
	RecordCount  *int                   `json:"record_count,omitempty"`
	TotalSales   *float64               `json:"total_sales,omitempty"`
	ErrorMessage *string                `json:"error_message,omitempty"`
}
