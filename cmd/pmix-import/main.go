package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fdsanalytics/pmix-importer/internal/common"
	"github.com/fdsanalytics/pmix-importer/internal/extract"
	"github.com/fdsanalytics/pmix-importer/internal/importer"
	repo "github.com/fdsanalytics/pmix-importer/internal/repository"
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
		dir            = flag.String("dir", "", "directory of report PDFs to import (required)")
		dryRun         = flag.Bool("dry-run", false, "parse and validate without writing to the database")
		strict         = flag.Bool("strict", false, "fail files whose validation is flagged")
		lenient        = flag.Bool("lenient", false, "drop malformed rows instead of failing the file")
		workers        = flag.Int("workers", 1, "number of files to import concurrently")
		fromStr        = flag.String("from", "", "only import report dates >= this date (YYYY-MM-DD)")
		toStr          = flag.String("to", "", "only import report dates <= this date (YYYY-MM-DD)")
		skipValidation = flag.Bool("skip-validation", false, "skip totals validation (records are still schema-checked)")
	)
	flag.Parse()

	// Validate required flags
	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}

	// Parse date filters
	var from, to *time.Time
	if *fromStr != "" {
		if parsed, err := time.Parse("2006-01-02", *fromStr); err != nil {
			printError("Error: invalid --from date format, use YYYY-MM-DD: %v\n", err)
			os.Exit(1)
		} else {
			from = &parsed
		}
	}
	if *toStr != "" {
		if parsed, err := time.Parse("2006-01-02", *toStr); err != nil {
			printError("Error: invalid --to date format, use YYYY-MM-DD: %v\n", err)
			os.Exit(1)
		} else {
			to = &parsed
		}
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := common.LoadConfig()

	// Dry runs work without a database: an in-memory store satisfies the
	// import-log lookups and evaporates afterwards.
	dbURL := cfg.Database.DSN
	if dbURL == "" {
		if !*dryRun {
			printError("Error: DB_URL env var is required (or pass --dry-run)\n")
			os.Exit(2)
		}
		dbURL = ":memory:"
		logger.Info("no DB_URL set, dry run uses an in-memory store")
	}

	store, err := repo.Open(ctx, repo.Config{
		DSN:              dbURL,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Wire repositories
	records := repo.NewSalesRecordRepository(store, logger)
	importLog := repo.NewImportLogRepository(store, logger)
	valLog := validate.NewLog(cfg.Importer.ValidationLog)

	imp := importer.New(importer.Config{
		Location:     cfg.Importer.Location,
		FilePrefix:   cfg.Importer.FilePrefix,
		ToleranceUSD: cfg.Importer.ToleranceUSD,
		Boundaries: extract.Boundaries{
			CategoryMaxX:  cfg.Layout.CategoryMaxX,
			ItemMaxX:      cfg.Layout.ItemMaxX,
			QtyMaxX:       cfg.Layout.QtyMaxX,
			PctMarkerMinX: cfg.Layout.PctMarkerMinX,
			CategoryYTol:  cfg.Layout.CategoryYTol,
			ItemYTol:      cfg.Layout.ItemYTol,
			LineYTol:      cfg.Layout.LineYTol,
		},
	}, records, importLog, valLog, logger)

	sum, err := imp.ImportDirectory(ctx, *dir, importer.Options{
		DryRun:         *dryRun,
		Strict:         *strict,
		Lenient:        *lenient,
		SkipValidation: *skipValidation,
		Workers:        *workers,
		From:           from,
		To:             to,
	})
	if err != nil {
		logger.Error("import run failed", "error", err)
		os.Exit(1)
	}

	// Print summary
	title := "PMIX IMPORT SUMMARY"
	if *dryRun {
		title += " (DRY RUN)"
	}
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Run ID:           %s\n", sum.RunID)
	fmt.Printf("Files matched:    %d\n", sum.Matched)
	fmt.Printf("Succeeded:        %d\n", sum.Succeeded)
	fmt.Printf("Skipped:          %d\n", sum.Skipped)
	fmt.Printf("Failed:           %d\n", sum.Failed)
	fmt.Printf("Flagged:          %d\n", sum.Flagged)
	fmt.Printf("Closed days:      %d\n", sum.ClosedDays)
	fmt.Printf("Records imported: %d\n", sum.Records)
	fmt.Printf("Total quantity:   %d\n", sum.TotalQuantity)
	fmt.Printf("Total sales:      $%.2f\n", sum.TotalSales)
	fmt.Println(strings.Repeat("=", 50))
	if !*skipValidation {
		fmt.Printf("Validation log:   %s\n", valLog.Path())
	}

	if sum.Failed > 0 {
		os.Exit(1)
	}
}
