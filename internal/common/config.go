package common

import (
	"os"
	"strconv"
	"time"

	"github.com/fdsanalytics/pmix-importer/constants"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Importer ImporterConfig
	Layout   LayoutConfig
	Watch    WatchConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ImporterConfig holds import pipeline configuration
type ImporterConfig struct {
	Location      string
	FilePrefix    string
	ToleranceUSD  float64
	ValidationLog string
	Workers       int
	QueueSize     int
}

// LayoutConfig holds the position-layout column boundaries in PDF points.
// The values are template-specific: a report from a different POS template
// needs retuning here, not code changes.
type LayoutConfig struct {
	CategoryMaxX  float64
	ItemMaxX      float64
	QtyMaxX       float64
	PctMarkerMinX float64
	CategoryYTol  float64
	ItemYTol      float64
	LineYTol      float64
}

// WatchConfig holds incoming-directory watcher configuration
type WatchConfig struct {
	Debounce time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Importer: ImporterConfig{
			Location:      getEnv("PMIX_LOCATION", constants.DefaultLocation),
			FilePrefix:    getEnv("PMIX_FILE_PREFIX", constants.DefaultFilePrefix),
			ToleranceUSD:  getEnvAsFloat64("PMIX_TOLERANCE_USD", constants.DefaultToleranceUSD),
			ValidationLog: getEnv("PMIX_VALIDATION_LOG", constants.DefaultValidationLog),
			Workers:       getEnvAsInt("PMIX_WORKERS", 4),
			QueueSize:     getEnvAsInt("PMIX_QUEUE_SIZE", 64),
		},
		Layout: LayoutConfig{
			CategoryMaxX:  getEnvAsFloat64("PMIX_COL_CATEGORY_MAX_X", 85),
			ItemMaxX:      getEnvAsFloat64("PMIX_COL_ITEM_MAX_X", 185),
			QtyMaxX:       getEnvAsFloat64("PMIX_COL_QTY_MAX_X", 220),
			PctMarkerMinX: getEnvAsFloat64("PMIX_PCT_MARKER_MIN_X", 500),
			CategoryYTol:  getEnvAsFloat64("PMIX_CATEGORY_Y_TOL", 10),
			ItemYTol:      getEnvAsFloat64("PMIX_ITEM_Y_TOL", 15),
			LineYTol:      getEnvAsFloat64("PMIX_LINE_Y_TOL", 2),
		},
		Watch: WatchConfig{
			Debounce: getEnvAsDuration("PMIX_WATCH_DEBOUNCE", 2*time.Second),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the loaded configuration using common validation
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("DB_URL", c.Database.DSN, Required)
	v.Field("PMIX_LOCATION", c.Importer.Location, Required)
	v.Field("PMIX_FILE_PREFIX", c.Importer.FilePrefix, Required)
	v.Field("PMIX_TOLERANCE_USD", c.Importer.ToleranceUSD, NonNegative)
	v.Field("PMIX_WORKERS", c.Importer.Workers, Positive)
	if c.Layout.CategoryMaxX >= c.Layout.ItemMaxX || c.Layout.ItemMaxX >= c.Layout.QtyMaxX {
		v.Add("PMIX_COL_*", c.Layout, "column boundaries must be ordered: category < item < qty")
	}

	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}
