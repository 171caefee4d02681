package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fdsanalytics/pmix-importer/internal/common"
	"github.com/fdsanalytics/pmix-importer/internal/extract"
	"github.com/fdsanalytics/pmix-importer/internal/normalize"
	"github.com/fdsanalytics/pmix-importer/internal/pdftext"
	"github.com/fdsanalytics/pmix-importer/internal/validate"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		out     = flag.String("o", "", "write NDJSON records to this file instead of stdout")
		verbose = flag.Bool("v", false, "enable debug logging")
		strict  = flag.Bool("strict", false, "abort on malformed rows instead of dropping them")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		printError("usage: pmix-parse [-o out.ndjson] [-v] [-strict] report.pdf\n")
		os.Exit(2)
	}
	path := flag.Arg(0)

	// Records go to stdout, so logs go to stderr.
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	boundaries := extract.Boundaries{
		CategoryMaxX:  cfg.Layout.CategoryMaxX,
		ItemMaxX:      cfg.Layout.ItemMaxX,
		QtyMaxX:       cfg.Layout.QtyMaxX,
		PctMarkerMinX: cfg.Layout.PctMarkerMinX,
		CategoryYTol:  cfg.Layout.CategoryYTol,
		ItemYTol:      cfg.Layout.ItemYTol,
		LineYTol:      cfg.Layout.LineYTol,
	}

	doc, err := pdftext.Open(path)
	if err != nil {
		logger.Error("failed to read pdf", "file", filepath.Base(path), "error", err)
		os.Exit(1)
	}

	layout, err := extract.Classify(doc, boundaries)
	if err != nil {
		logger.Error("failed to classify layout", "file", doc.FileName, "error", err)
		os.Exit(1)
	}
	logger.Debug("classified layout", "file", doc.FileName, "layout", layout)

	ex, err := extract.ForLayout(layout, boundaries)
	if err != nil {
		logger.Error("no extractor for layout", "layout", layout, "error", err)
		os.Exit(1)
	}
	result, err := ex.Extract(doc)
	if err != nil {
		logger.Error("extraction failed", "file", doc.FileName, "layout", layout, "error", err)
		os.Exit(1)
	}

	norm := normalize.Normalizer{Location: cfg.Importer.Location}
	parsed, err := norm.Normalize(doc, result.Rows, !*strict)
	if err != nil {
		var malformed *normalize.MalformedRowError
		if errors.As(err, &malformed) {
			logger.Error("malformed row", "file", doc.FileName, "field", malformed.Field, "value", malformed.Value, "error", err)
		} else {
			logger.Error("normalization failed", "file", doc.FileName, "error", err)
		}
		os.Exit(1)
	}
	if len(parsed.Records) == 0 && !parsed.Closed {
		logger.Error("no records found", "file", doc.FileName)
		os.Exit(1)
	}

	if err := validate.ValidateRecords(parsed.Records); err != nil {
		logger.Error("schema check failed", "file", doc.FileName, "error", err)
		os.Exit(1)
	}

	warnings := append([]string(nil), result.Warnings...)
	for _, dropped := range parsed.Dropped {
		warnings = append(warnings, "Dropped row: "+dropped)
	}
	if parsed.Merged > 0 {
		warnings = append(warnings, fmt.Sprintf("Merged %d duplicate item name(s)", parsed.Merged))
	}
	validator := validate.Validator{ToleranceUSD: cfg.Importer.ToleranceUSD}
	entry := validator.Check(doc, parsed.Records, result.Totals, warnings)

	valLog := validate.NewLog(cfg.Importer.ValidationLog)
	if err := valLog.Append(entry); err != nil {
		logger.Warn("failed to append validation log", "path", valLog.Path(), "error", err)
	}

	// Emit records as NDJSON
	w := io.Writer(os.Stdout)
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			logger.Error("failed to create output file", "path", *out, "error", err)
			os.Exit(1)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				logger.Error("failed to close output file", "path", *out, "error", cerr)
			}
		}()
		w = f
	}
	enc := json.NewEncoder(w)
	for _, rec := range parsed.Records {
		if err := enc.Encode(rec); err != nil {
			logger.Error("failed to write record", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("parse complete",
		"file", doc.FileName,
		"layout", layout,
		"status", entry.Status,
		"records", entry.RecordCount,
		"total_qty", entry.TotalQuantity,
		"calculated_total", entry.CalculatedTotal,
	)

	printError("Parsed %s (%s layout)\n", doc.FileName, layout)
	if parsed.Closed {
		printError("- Closed day: no item records\n")
	}
	printError("- Records: %d\n", entry.RecordCount)
	printError("- Quantity: %d\n", entry.TotalQuantity)
	printError("- Net sales: $%.2f\n", entry.CalculatedTotal)
	printError("- Status: %s\n", entry.Status)
	if entry.Flagged() {
		printError("- Issues:\n")
		for i, issue := range entry.Issues {
			printError("  %d. %s\n", i+1, issue)
		}
		os.Exit(1)
	}
}
