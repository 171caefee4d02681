// Package repository persists sales records and the import log over SQL.
// Postgres DSNs route through a pgx pool for deployments with a remote
// warehouse; everything else is treated as a SQLite path, which serves local
// batch runs and tests.
package repository

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/fdsanalytics/pmix-importer/internal/common"
)

type Config struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// Store wraps the SQL handle together with the dialect it speaks.
type Store struct {
	db      *sqlx.DB
	pool    *pgxpool.Pool // nil for sqlite
	dialect string
	logger  *slog.Logger
}

// Open connects per the DSN scheme, applies the schema, and returns the
// store ready for use.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("connecting to database", "dsn", cfg.DSN)

	var (
		s   *Store
		err error
	)
	if strings.HasPrefix(cfg.DSN, "postgres://") || strings.HasPrefix(cfg.DSN, "postgresql://") {
		s, err = openPostgres(ctx, cfg, logger)
	} else {
		s, err = openSQLite(cfg, logger)
	}
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	if err := s.migrate(ctx); err != nil {
		s.Close()
		logger.Error("failed to apply schema", "error", err)
		return nil, common.NewAppError("DB_MIGRATE_ERROR", "applying schema", err)
	}
	logger.Info("successfully connected to database", "dialect", s.dialect)
	return s, nil
}

func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "pmix-importer"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = cfg.StatementTimeout.String()
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, err
	}

	// Wrap pool as *sql.DB for sqlx
	db := sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx")
	return &Store{db: db, pool: pool, dialect: "postgres", logger: logger}, nil
}

func openSQLite(cfg Config, logger *slog.Logger) (*Store, error) {
	// modernc registers itself as "sqlite", which sqlx does not know.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)

	dsn := strings.TrimPrefix(cfg.DSN, "sqlite://")
	memory := strings.Contains(dsn, ":memory:")
	if !memory && !strings.Contains(dsn, "_pragma") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if memory {
		// Each pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	return &Store{db: db, dialect: "sqlite", logger: logger}, nil
}

// migrations run on every Open; each statement is a no-op once applied.
// The SQL sticks to the dialect intersection: TEXT dates in ISO form,
// DOUBLE PRECISION money, excluded-row upserts.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS item_sales (
		report_date      TEXT NOT NULL,
		location         TEXT NOT NULL,
		primary_category TEXT,
		category         TEXT,
		item_name        TEXT NOT NULL,
		quantity_sold    INTEGER NOT NULL,
		net_sales        DOUBLE PRECISION NOT NULL,
		discount         DOUBLE PRECISION NOT NULL DEFAULT 0,
		data_source      TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_item_sales_day_item
		ON item_sales (report_date, location, item_name)`,
	`CREATE TABLE IF NOT EXISTS pmix_import_log (
		file_name     TEXT NOT NULL,
		report_date   TEXT NOT NULL,
		processed_at  TEXT NOT NULL,
		status        TEXT NOT NULL,
		record_count  INTEGER,
		total_sales   DOUBLE PRECISION,
		error_message TEXT,
		PRIMARY KEY (file_name, report_date)
	)`,
	`CREATE INDEX IF NOT EXISTS ix_import_log_status
		ON pmix_import_log (status)`,
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connections gracefully
func (s *Store) Close() {
	s.logger.Info("closing database connections")
	if err := s.db.Close(); err != nil {
		s.logger.Error("failed to close database", "error", err)
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

// HealthCheck pings the database to catch DSN issues early.
func (s *Store) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.db.PingContext(ctx)
}

// rebind translates ? placeholders into the store's dialect.
func (s *Store) rebind(query string) string {
	return s.db.Rebind(query)
}

// ctxLogger enriches a logger with the batch run and file carried in ctx,
// so repository log lines correlate with the import that caused them.
func ctxLogger(ctx context.Context, base *slog.Logger) *slog.Logger {
	if runID := common.RunIDFromContext(ctx); runID != "" {
		base = base.With("run_id", runID)
	}
	if file := common.FileNameFromContext(ctx); file != "" {
		base = base.With("file", file)
	}
	return base
}

const dateLayout = "2006-01-02"
