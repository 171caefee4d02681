// Package importer drives the end-to-end flow for PMIX report files:
// read the PDF, pick an extractor for its layout, normalize the rows,
// run the review checks, and land the day in the store.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fdsanalytics/pmix-importer/constants"
	"github.com/fdsanalytics/pmix-importer/internal/common"
	"github.com/fdsanalytics/pmix-importer/internal/entity"
	"github.com/fdsanalytics/pmix-importer/internal/extract"
	"github.com/fdsanalytics/pmix-importer/internal/normalize"
	"github.com/fdsanalytics/pmix-importer/internal/pdftext"
	"github.com/fdsanalytics/pmix-importer/internal/repository"
	"github.com/fdsanalytics/pmix-importer/internal/validate"
)

// ErrValidationFlagged is returned in strict mode when a report parses
// cleanly but fails a review check.
var ErrValidationFlagged = errors.New("report flagged by validation")

// Options control a single run. The zero value is a plain sequential
// import: persist everything, flag-and-continue on validation issues,
// fail on malformed rows.
type Options struct {
	DryRun         bool
	Strict         bool
	Lenient        bool
	SkipValidation bool
	Workers        int
	From           *time.Time
	To             *time.Time
}

type Config struct {
	Location     string
	FilePrefix   string
	ToleranceUSD float64
	Boundaries   extract.Boundaries
}

type Importer struct {
	cfg       Config
	records   repository.SalesRecordRepository
	importLog repository.ImportLogRepository
	valLog    *validate.Log
	validator validate.Validator
	norm      normalize.Normalizer
	logger    *slog.Logger

	// loadDoc is swappable so tests can feed documents directly.
	loadDoc func(path string) (*pdftext.Document, error)
}

func New(
	cfg Config,
	records repository.SalesRecordRepository,
	importLog repository.ImportLogRepository,
	valLog *validate.Log,
	logger *slog.Logger,
) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Location == "" {
		cfg.Location = constants.DefaultLocation
	}
	if cfg.FilePrefix == "" {
		cfg.FilePrefix = constants.DefaultFilePrefix
	}
	return &Importer{
		cfg:       cfg,
		records:   records,
		importLog: importLog,
		valLog:    valLog,
		validator: validate.Validator{ToleranceUSD: cfg.ToleranceUSD},
		norm:      normalize.Normalizer{Location: cfg.Location},
		logger:    logger,
		loadDoc:   pdftext.Open,
	}
}

// ImportFile processes one report file and records the outcome in the
// import log. Skipped files and files whose names carry no report date
// are returned but never written to the log: a skip must not overwrite
// the success row it was skipped because of.
func (imp *Importer) ImportFile(ctx context.Context, path string, opts Options) (entity.ImportLogEntry, *entity.ValidationEntry, error) {
	entry, valEntry, err := imp.importFile(ctx, path, opts)

	if opts.DryRun || entry.Status == constants.ImportStatusSkipped || entry.ReportDate.IsZero() {
		return entry, valEntry, err
	}
	if recErr := imp.importLog.Record(ctx, entry); recErr != nil {
		imp.logger.Warn("failed to record import outcome", "file", entry.FileName, "error", recErr)
	}
	return entry, valEntry, err
}

func (imp *Importer) importFile(ctx context.Context, path string, opts Options) (entity.ImportLogEntry, *entity.ValidationEntry, error) {
	base := filepath.Base(path)
	ctx = common.WithFileName(ctx, base)

	date, ok := pdftext.MatchReportFile(imp.cfg.FilePrefix, base)
	if !ok {
		err := fmt.Errorf("file name %q does not match %s-YYYY-MM-DD.pdf", base, imp.cfg.FilePrefix)
		imp.logger.Warn("import.name.rejected", "file", base)
		return failEntry(base, time.Time{}, err), nil, err
	}
	day := date.Format("2006-01-02")

	done, err := imp.importLog.HasSuccess(ctx, base, date)
	if err != nil {
		err = fmt.Errorf("check import log: %w", err)
		return failEntry(base, date, err), nil, err
	}
	if done {
		imp.logger.Info("import.skipped", "file", base, "report_date", day)
		return entity.ImportLogEntry{
			FileName:    base,
			ReportDate:  date,
			ProcessedAt: time.Now(),
			Status:      constants.ImportStatusSkipped,
		}, nil, nil
	}

	doc, err := imp.loadDoc(path)
	if err != nil {
		err = fmt.Errorf("read pdf: %w", err)
		imp.logger.Error("import.read.failed", "file", base, "error", err)
		return failEntry(base, date, err), nil, err
	}

	layout, err := extract.Classify(doc, imp.cfg.Boundaries)
	if err != nil {
		imp.logger.Error("import.classify.failed", "file", base, "error", err)
		return failEntry(base, date, err), nil, err
	}
	ex, err := extract.ForLayout(layout, imp.cfg.Boundaries)
	if err != nil {
		return failEntry(base, date, err), nil, err
	}
	result, err := ex.Extract(doc)
	if err != nil {
		err = fmt.Errorf("extract %s layout: %w", layout, err)
		imp.logger.Error("import.extract.failed", "file", base, "error", err)
		return failEntry(base, date, err), nil, err
	}
	imp.logger.Debug("import.extracted", "file", base, "layout", layout, "rows", len(result.Rows))

	out, err := imp.norm.Normalize(doc, result.Rows, opts.Lenient)
	if err != nil {
		err = fmt.Errorf("normalize: %w", err)
		imp.logger.Error("import.normalize.failed", "file", base, "error", err)
		return failEntry(base, date, err), nil, err
	}
	if len(out.Records) == 0 && !out.Closed {
		err := fmt.Errorf("no records found in %s", base)
		return failEntry(base, date, err), nil, err
	}

	if err := validate.ValidateRecords(out.Records); err != nil {
		err = fmt.Errorf("schema check: %w", err)
		imp.logger.Error("import.schema.failed", "file", base, "error", err)
		return failEntry(base, date, err), nil, err
	}

	var valEntry *entity.ValidationEntry
	if !opts.SkipValidation {
		warnings := append([]string(nil), result.Warnings...)
		for _, dropped := range out.Dropped {
			warnings = append(warnings, "Dropped row: "+dropped)
		}
		if out.Merged > 0 {
			warnings = append(warnings, fmt.Sprintf("Merged %d duplicate item name(s)", out.Merged))
		}
		e := imp.validator.Check(doc, out.Records, result.Totals, warnings)
		valEntry = &e
		if imp.valLog != nil {
			if logErr := imp.valLog.Append(e); logErr != nil {
				imp.logger.Warn("failed to append validation log", "file", base, "error", logErr)
			}
		}
		if e.Flagged() {
			imp.logger.Warn("import.flagged", "file", base, "report_date", day, "issues", strings.Join(e.Issues, "; "))
			if opts.Strict {
				err := fmt.Errorf("%w: %s", ErrValidationFlagged, strings.Join(e.Issues, "; "))
				return failEntry(base, date, err), valEntry, err
			}
		}
	}

	if !opts.DryRun {
		if err := imp.records.ReplaceDay(ctx, date, imp.cfg.Location, out.Records); err != nil {
			err = fmt.Errorf("persist day: %w", err)
			imp.logger.Error("import.persist.failed", "file", base, "error", err)
			return failEntry(base, date, err), valEntry, err
		}
	}

	rc := len(out.Records)
	total := entity.TotalSales(out.Records)
	entry := entity.ImportLogEntry{
		FileName:    base,
		ReportDate:  date,
		ProcessedAt: time.Now(),
		Status:      constants.ImportStatusSuccess,
		RecordCount: &rc,
		TotalSales:  &total,
	}
	if len(out.Dropped) > 0 {
		msg := fmt.Sprintf("imported with %d malformed row(s) dropped", len(out.Dropped))
		entry.ErrorMessage = &msg
	}
	if out.Closed {
		imp.logger.Info("import.closed_day", "file", base, "report_date", day)
	}
	imp.logger.Info("import.success",
		"file", base,
		"report_date", day,
		"records", rc,
		"total_sales", total,
		"dry_run", opts.DryRun,
	)
	return entry, valEntry, nil
}

func failEntry(fileName string, date time.Time, err error) entity.ImportLogEntry {
	msg := err.Error()
	return entity.ImportLogEntry{
		FileName:     fileName,
		ReportDate:   date,
		ProcessedAt:  time.Now(),
		Status:       constants.ImportStatusFailed,
		ErrorMessage: &msg,
	}
}
