package pdftext

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var stemDateRE = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})$`)

// ReportDateFromName pulls the report date from a file name whose stem ends
// in YYYY-MM-DD, e.g. pmix-senso-2025-06-14.pdf.
func ReportDateFromName(name string) (time.Time, error) {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	m := stemDateRE.FindStringSubmatch(stem)
	if m == nil {
		return time.Time{}, fmt.Errorf("no report date in filename %q", base)
	}
	d, err := time.ParseInLocation("2006-01-02", m[1], time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid report date in filename %q: %w", base, err)
	}
	return d, nil
}

// MatchReportFile reports whether base is exactly <prefix>-YYYY-MM-DD.pdf
// and, when it is, the embedded date. Batch scans and the watcher use this
// strict form so stray files in the drop directory are left alone.
func MatchReportFile(prefix, base string) (time.Time, bool) {
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `-(\d{4}-\d{2}-\d{2})\.pdf$`)
	m := re.FindStringSubmatch(base)
	if m == nil {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation("2006-01-02", m[1], time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
