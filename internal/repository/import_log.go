package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fdsanalytics/pmix-importer/constants"
	"github.com/fdsanalytics/pmix-importer/internal/entity"
)

type ImportLogRepository interface {
	HasSuccess(ctx context.Context, fileName string, reportDate time.Time) (bool, error)
	Record(ctx context.Context, entry entity.ImportLogEntry) error
	Recent(ctx context.Context, limit int) ([]entity.ImportLogEntry, error)
	CountByStatus(ctx context.Context) (map[constants.ImportStatus]int, error)
}

type importLogRepository struct {
	store  *Store
	logger *slog.Logger
}

func NewImportLogRepository(store *Store, logger *slog.Logger) ImportLogRepository {
	return &importLogRepository{
		store:  store,
		logger: logger,
	}
}

type importLogRow struct {
	FileName     string   `db:"file_name"`
	ReportDate   string   `db:"report_date"`
	ProcessedAt  string   `db:"processed_at"`
	Status       string   `db:"status"`
	RecordCount  *int     `db:"record_count"`
	TotalSales   *float64 `db:"total_sales"`
	ErrorMessage *string  `db:"error_message"`
}

func (row importLogRow) toEntity() (entity.ImportLogEntry, error) {
	date, err := time.Parse(dateLayout, row.ReportDate)
	if err != nil {
		return entity.ImportLogEntry{}, fmt.Errorf("bad report_date %q: %w", row.ReportDate, err)
	}
	processed, err := time.Parse(time.RFC3339, row.ProcessedAt)
	if err != nil {
		return entity.ImportLogEntry{}, fmt.Errorf("bad processed_at %q: %w", row.ProcessedAt, err)
	}
	return entity.ImportLogEntry{
		FileName:     row.FileName,
		ReportDate:   date,
		ProcessedAt:  processed,
		Status:       constants.ImportStatus(row.Status),
		RecordCount:  row.RecordCount,
		TotalSales:   row.TotalSales,
		ErrorMessage: row.ErrorMessage,
	}, nil
}

// HasSuccess reports whether this file/date pair has already imported cleanly.
func (r *importLogRepository) HasSuccess(ctx context.Context, fileName string, reportDate time.Time) (bool, error) {
	query := r.store.rebind(`SELECT 1 FROM pmix_import_log
		WHERE file_name = ? AND report_date = ? AND status = ? LIMIT 1`)
	var one int
	err := r.store.db.GetContext(ctx, &one, query,
		fileName, reportDate.Format(dateLayout), string(constants.ImportStatusSuccess))
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		r.logger.Error("failed to check import log", "file_name", fileName, "error", err)
		return false, err
	}
	return true, nil
}

const upsertImportLog = `
	INSERT INTO pmix_import_log
		(file_name, report_date, processed_at, status, record_count, total_sales, error_message)
	VALUES
		(:file_name, :report_date, :processed_at, :status, :record_count, :total_sales, :error_message)
	ON CONFLICT (file_name, report_date) DO UPDATE SET
		processed_at  = excluded.processed_at,
		status        = excluded.status,
		record_count  = excluded.record_count,
		total_sales   = excluded.total_sales,
		error_message = excluded.error_message`

// Record upserts the outcome for a file/date pair; a later attempt
// overwrites the earlier row, so the log always holds the latest run.
func (r *importLogRepository) Record(ctx context.Context, entry entity.ImportLogEntry) error {
	processed := entry.ProcessedAt
	if processed.IsZero() {
		processed = time.Now()
	}
	row := importLogRow{
		FileName:     entry.FileName,
		ReportDate:   entry.ReportDate.Format(dateLayout),
		ProcessedAt:  processed.UTC().Format(time.RFC3339),
		Status:       string(entry.Status),
		RecordCount:  entry.RecordCount,
		TotalSales:   entry.TotalSales,
		ErrorMessage: entry.ErrorMessage,
	}
	if _, err := r.store.db.NamedExecContext(ctx, upsertImportLog, row); err != nil {
		ctxLogger(ctx, r.logger).Error("failed to record import", "file_name", entry.FileName, "status", entry.Status, "error", err)
		return err
	}
	return nil
}

func (r *importLogRepository) Recent(ctx context.Context, limit int) ([]entity.ImportLogEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	query := r.store.rebind(`SELECT file_name, report_date, processed_at, status, record_count, total_sales, error_message
		FROM pmix_import_log ORDER BY processed_at DESC, file_name LIMIT ?`)
	var rows []importLogRow
	if err := r.store.db.SelectContext(ctx, &rows, query, limit); err != nil {
		r.logger.Error("failed to list import log", "error", err)
		return nil, err
	}
	result := make([]entity.ImportLogEntry, len(rows))
	for i, row := range rows {
		e, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}

func (r *importLogRepository) CountByStatus(ctx context.Context) (map[constants.ImportStatus]int, error) {
	var rows []struct {
		Status string `db:"status"`
		N      int    `db:"n"`
	}
	query := `SELECT status, COUNT(*) AS n FROM pmix_import_log GROUP BY status`
	if err := r.store.db.SelectContext(ctx, &rows, query); err != nil {
		r.logger.Error("failed to count import log", "error", err)
		return nil, err
	}
	counts := make(map[constants.ImportStatus]int, len(rows))
	for _, row := range rows {
		counts[constants.ImportStatus(row.Status)] = row.N
	}
	return counts, nil
}
