package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fdsanalytics/pmix-importer/internal/entity"
)

type SalesRecordRepository interface {
	ReplaceDay(ctx context.Context, date time.Time, location string, records []entity.SalesRecord) error
	ListRange(ctx context.Context, location string, fromDate, toDate *time.Time) ([]entity.SalesRecord, error)
	SumForDate(ctx context.Context, date time.Time, location string) (float64, int, error)
}

type salesRecordRepository struct {
	store  *Store
	logger *slog.Logger
}

func NewSalesRecordRepository(store *Store, logger *slog.Logger) SalesRecordRepository {
	return &salesRecordRepository{
		store:  store,
		logger: logger,
	}
}

// salesRow mirrors item_sales. Dates travel as ISO strings so the same
// struct scans under both drivers.
type salesRow struct {
	ReportDate      string  `db:"report_date"`
	Location        string  `db:"location"`
	PrimaryCategory *string `db:"primary_category"`
	Category        *string `db:"category"`
	ItemName        string  `db:"item_name"`
	QuantitySold    int     `db:"quantity_sold"`
	NetSales        float64 `db:"net_sales"`
	Discount        float64 `db:"discount"`
	DataSource      string  `db:"data_source"`
}

func toSalesRow(rec entity.SalesRecord) salesRow {
	return salesRow{
		ReportDate:      rec.ReportDate.Format(dateLayout),
		Location:        rec.Location,
		PrimaryCategory: rec.PrimaryCategory,
		Category:        rec.Category,
		ItemName:        rec.ItemName,
		QuantitySold:    rec.QuantitySold,
		NetSales:        rec.NetSales,
		Discount:        rec.Discount,
		DataSource:      rec.DataSource,
	}
}

func (row salesRow) toEntity() (entity.SalesRecord, error) {
	date, err := time.Parse(dateLayout, row.ReportDate)
	if err != nil {
		return entity.SalesRecord{}, fmt.Errorf("bad report_date %q: %w", row.ReportDate, err)
	}
	return entity.SalesRecord{
		ReportDate:      date,
		Location:        row.Location,
		PrimaryCategory: row.PrimaryCategory,
		Category:        row.Category,
		ItemName:        row.ItemName,
		QuantitySold:    row.QuantitySold,
		NetSales:        row.NetSales,
		Discount:        row.Discount,
		DataSource:      row.DataSource,
	}, nil
}

const insertSalesRecord = `
	INSERT INTO item_sales
		(report_date, location, primary_category, category, item_name, quantity_sold, net_sales, discount, data_source)
	VALUES
		(:report_date, :location, :primary_category, :category, :item_name, :quantity_sold, :net_sales, :discount, :data_source)`

// ReplaceDay swaps out the whole day's rows for a location inside one
// transaction, so re-importing a file is idempotent and a closed day still
// clears anything imported earlier by mistake.
func (r *salesRecordRepository) ReplaceDay(ctx context.Context, date time.Time, location string, records []entity.SalesRecord) error {
	day := date.Format(dateLayout)

	tx, err := r.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	deleteDay := r.store.rebind(`DELETE FROM item_sales WHERE report_date = ? AND location = ?`)
	if _, err := tx.ExecContext(ctx, deleteDay, day, location); err != nil {
		r.logger.Error("failed to clear existing day", "report_date", day, "location", location, "error", err)
		return err
	}

	for _, rec := range records {
		if _, err := tx.NamedExecContext(ctx, insertSalesRecord, toSalesRow(rec)); err != nil {
			r.logger.Error("failed to insert sales record", "report_date", day, "item_name", rec.ItemName, "error", err)
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	ctxLogger(ctx, r.logger).Info("replaced day", "report_date", day, "location", location, "records", len(records))
	return nil
}

func (r *salesRecordRepository) ListRange(ctx context.Context, location string, fromDate, toDate *time.Time) ([]entity.SalesRecord, error) {
	query := `SELECT report_date, location, primary_category, category, item_name,
			quantity_sold, net_sales, discount, data_source
		FROM item_sales WHERE location = ?`
	args := []any{location}
	if fromDate != nil {
		query += ` AND report_date >= ?`
		args = append(args, fromDate.Format(dateLayout))
	}
	if toDate != nil {
		query += ` AND report_date <= ?`
		args = append(args, toDate.Format(dateLayout))
	}
	query += ` ORDER BY report_date, item_name`

	var rows []salesRow
	if err := r.store.db.SelectContext(ctx, &rows, r.store.rebind(query), args...); err != nil {
		r.logger.Error("failed to list sales records", "location", location, "error", err)
		return nil, err
	}

	result := make([]entity.SalesRecord, len(rows))
	for i, row := range rows {
		rec, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		result[i] = rec
	}
	return result, nil
}

// SumForDate reports the stored net sales total and row count for one day,
// for cross-checking an import against the source PDF.
func (r *salesRecordRepository) SumForDate(ctx context.Context, date time.Time, location string) (float64, int, error) {
	day := date.Format(dateLayout)
	var agg struct {
		Total float64 `db:"total"`
		N     int     `db:"n"`
	}
	query := r.store.rebind(`SELECT COALESCE(SUM(net_sales), 0) AS total, COUNT(*) AS n
		FROM item_sales WHERE report_date = ? AND location = ?`)
	if err := r.store.db.GetContext(ctx, &agg, query, day, location); err != nil {
		r.logger.Error("failed to sum day", "report_date", day, "location", location, "error", err)
		return 0, 0, err
	}
	return agg.Total, agg.N, nil
}
