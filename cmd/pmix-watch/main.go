package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/fdsanalytics/pmix-importer/internal/common"
	"github.com/fdsanalytics/pmix-importer/internal/extract"
	"github.com/fdsanalytics/pmix-importer/internal/importer"
	repo "github.com/fdsanalytics/pmix-importer/internal/repository"
	"github.com/fdsanalytics/pmix-importer/internal/validate"
)

func main() {
	cfg := common.LoadConfig()

	// Parse CLI flags
	var (
		dir         = flag.String("dir", "", "incoming directory to watch (required)")
		workers     = flag.Int("workers", cfg.Importer.Workers, "number of import workers")
		debounce    = flag.Duration("debounce", cfg.Watch.Debounce, "settle time before importing a changed file")
		initialScan = flag.Bool("initial-scan", false, "import reports already present at startup")
	)
	flag.Parse()

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if *dir == "" {
		logger.Error("usage", "cmd", "pmix-watch -dir DIR [-workers N] [-debounce 2s] [-initial-scan]")
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := repo.Open(ctx, repo.Config{
		DSN:              cfg.Database.DSN,
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

	// Healthcheck DB on startup
	if err := store.HealthCheck(ctx, 3*time.Second); err != nil {
		logger.Error("DB health failed", "error", err)
		os.Exit(1)
	}
	logger.Info("DB health OK")

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

	// Each dropped file becomes one queue job. Re-imports of an already
	// succeeded date are skipped inside ImportFile, so re-delivered events
	// are harmless.
	queue := importer.NewQueue(func(ctx context.Context, path string) error {
		_, _, err := imp.ImportFile(ctx, path, importer.Options{})
		return err
	}, logger,
		importer.WithWorkers(*workers),
		importer.WithQueueSize(cfg.Importer.QueueSize),
	)

	events, watchErrs, err := importer.StartWatcher(ctx, importer.WatchConfig{
		Roots:       []string{*dir},
		Prefix:      cfg.Importer.FilePrefix,
		InitialScan: *initialScan,
		Debounce:    *debounce,
	}, logger)
	if err != nil {
		logger.Error("failed to start watcher", "dir", *dir, "error", err)
		os.Exit(1)
	}
	logger.Info("watching for reports", "dir", *dir, "workers", *workers, "debounce", debounce.String())

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for path := range events {
			_ = queue.Enqueue(ctx, importer.Job{Path: path, SubmittedAt: time.Now()})
		}
	}()
	go func() {
		// Watcher errors are already logged at the source; this keeps the
		// channel from backing up.
		for range watchErrs {
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")
	<-drained

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	fmt.Println("stopped.")
}
