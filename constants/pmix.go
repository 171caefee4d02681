package constants

// ClosedDaySentinel marks a report whose only content says the location was
// closed. Rows carrying it are never persisted; the date simply has no rows
// in item_sales.
const ClosedDaySentinel = "[CLOSED]"

// DefaultLocation identifies the single restaurant location this deployment
// imports for. Override with PMIX_LOCATION.
const DefaultLocation = "senso-sushi"

// DefaultFilePrefix is the expected report filename prefix; report files are
// named <prefix>-YYYY-MM-DD.pdf. Override with PMIX_FILE_PREFIX.
const DefaultFilePrefix = "pmix-senso"

// DefaultToleranceUSD is the absolute dollar slack allowed when comparing
// computed totals against the figures printed on the report.
const DefaultToleranceUSD = 1.00

// DefaultValidationLog is where per-file validation entries accumulate.
const DefaultValidationLog = "validation_log.json"

// DataSourcePDF builds the provenance tag stored with every record parsed
// out of a PDF report.
func DataSourcePDF(fileName string) string {
	return "pdf:" + fileName
}
