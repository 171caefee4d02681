package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fdsanalytics/pmix-importer/constants"
	"github.com/fdsanalytics/pmix-importer/internal/common"
	"github.com/fdsanalytics/pmix-importer/internal/entity"
	"github.com/fdsanalytics/pmix-importer/internal/pdftext"
)

// Summary aggregates one directory run. TotalQuantity comes from the
// validation entries, so it stays zero under SkipValidation.
type Summary struct {
	RunID         uuid.UUID
	Matched       int
	Succeeded     int
	Failed        int
	Skipped       int
	Flagged       int
	ClosedDays    int
	Records       int
	TotalQuantity int
	TotalSales    float64
}

func (s *Summary) apply(entry entity.ImportLogEntry, valEntry *entity.ValidationEntry, err error) {
	if err != nil {
		s.Failed++
		if valEntry != nil && valEntry.Flagged() {
			s.Flagged++
		}
		return
	}
	if entry.Status == constants.ImportStatusSkipped {
		s.Skipped++
		return
	}
	s.Succeeded++
	if entry.RecordCount != nil {
		s.Records += *entry.RecordCount
		if *entry.RecordCount == 0 {
			s.ClosedDays++
		}
	}
	if entry.TotalSales != nil {
		s.TotalSales += *entry.TotalSales
	}
	if valEntry != nil {
		s.TotalQuantity += valEntry.TotalQuantity
		if valEntry.Flagged() {
			s.Flagged++
		}
	}
}

// ImportDirectory imports every matching report file under dir, oldest
// date first. Files fail in isolation; a bad PDF never stops the run.
func (imp *Importer) ImportDirectory(ctx context.Context, dir string, opts Options) (Summary, error) {
	runID := uuid.New()
	ctx = common.WithRunID(ctx, runID.String())
	sum := Summary{RunID: runID}

	files, err := imp.listReportFiles(dir, opts)
	if err != nil {
		return sum, err
	}
	if len(files) == 0 {
		return sum, fmt.Errorf("no %s-YYYY-MM-DD.pdf files in %s", imp.cfg.FilePrefix, dir)
	}
	sum.Matched = len(files)

	// Each run rebuilds the validation log from scratch, like the batch
	// script did.
	if !opts.SkipValidation && imp.valLog != nil {
		if err := imp.valLog.Reset(); err != nil {
			imp.logger.Warn("failed to reset validation log", "error", err)
		}
	}

	imp.logger.Info("import.run.start",
		"run_id", runID,
		"dir", dir,
		"files", len(files),
		"workers", opts.Workers,
		"dry_run", opts.DryRun,
	)

	if opts.Workers > 1 {
		imp.importParallel(ctx, files, opts, &sum)
	} else {
		for _, path := range files {
			entry, valEntry, err := imp.ImportFile(ctx, path, opts)
			sum.apply(entry, valEntry, err)
		}
	}

	imp.logger.Info("import.run.done",
		"run_id", runID,
		"succeeded", sum.Succeeded,
		"failed", sum.Failed,
		"skipped", sum.Skipped,
		"flagged", sum.Flagged,
		"records", sum.Records,
	)
	return sum, nil
}

func (imp *Importer) importParallel(ctx context.Context, files []string, opts Options, sum *Summary) {
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	jobs := make(chan string)
	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				entry, valEntry, err := imp.ImportFile(ctx, path, opts)
				mu.Lock()
				sum.apply(entry, valEntry, err)
				mu.Unlock()
			}
		}()
	}
	for _, path := range files {
		jobs <- path
	}
	close(jobs)
	wg.Wait()
}

func (imp *Importer) listReportFiles(dir string, opts Options) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	type datedFile struct {
		path string
		date time.Time
	}
	var files []datedFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		date, ok := pdftext.MatchReportFile(imp.cfg.FilePrefix, e.Name())
		if !ok {
			if constants.IsAllowedExt(filepath.Ext(e.Name())) {
				imp.logger.Warn("skipping pdf with unexpected name", "file", e.Name())
			}
			continue
		}
		if opts.From != nil && date.Before(*opts.From) {
			continue
		}
		if opts.To != nil && date.After(*opts.To) {
			continue
		}
		files = append(files, datedFile{path: filepath.Join(dir, e.Name()), date: date})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].date.Before(files[j].date) })
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}
