package constants

// ImportStatus is the outcome of one file-level import attempt as recorded
// in pmix_import_log.
type ImportStatus string

const (
	ImportStatusSuccess ImportStatus = "success"
	ImportStatusFailed  ImportStatus = "failed"
	ImportStatusSkipped ImportStatus = "skipped"
)

// ValidationStatus is the review outcome written to the validation log.
type ValidationStatus string

const (
	ValidationApproved ValidationStatus = "approved"
	ValidationFlagged  ValidationStatus = "flagged"
)
