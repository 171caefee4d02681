package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "senso-sushi", cfg.Importer.Location)
	assert.Equal(t, "pmix-senso", cfg.Importer.FilePrefix)
	assert.Equal(t, 1.00, cfg.Importer.ToleranceUSD)
	assert.Equal(t, "validation_log.json", cfg.Importer.ValidationLog)
	assert.Equal(t, 4, cfg.Importer.Workers)

	assert.Equal(t, 85.0, cfg.Layout.CategoryMaxX)
	assert.Equal(t, 185.0, cfg.Layout.ItemMaxX)
	assert.Equal(t, 220.0, cfg.Layout.QtyMaxX)
	assert.Equal(t, 500.0, cfg.Layout.PctMarkerMinX)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DB_URL", "postgres://user:pw@localhost:5432/pmix")
	t.Setenv("PMIX_LOCATION", "senso-downtown")
	t.Setenv("PMIX_TOLERANCE_USD", "0.50")
	t.Setenv("PMIX_COL_CATEGORY_MAX_X", "100")
	t.Setenv("PMIX_WATCH_DEBOUNCE", "500ms")

	cfg := LoadConfig()

	assert.Equal(t, "postgres://user:pw@localhost:5432/pmix", cfg.Database.DSN)
	assert.Equal(t, "senso-downtown", cfg.Importer.Location)
	assert.Equal(t, 0.50, cfg.Importer.ToleranceUSD)
	assert.Equal(t, 100.0, cfg.Layout.CategoryMaxX)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
}

func TestConfigValidate(t *testing.T) {
	t.Run("requires DB_URL", func(t *testing.T) {
		cfg := LoadConfig()
		cfg.Database.DSN = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DB_URL")
	})

	t.Run("rejects negative tolerance", func(t *testing.T) {
		cfg := LoadConfig()
		cfg.Database.DSN = "pmix.db"
		cfg.Importer.ToleranceUSD = -1
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PMIX_TOLERANCE_USD")
	})

	t.Run("rejects unordered boundaries", func(t *testing.T) {
		cfg := LoadConfig()
		cfg.Database.DSN = "pmix.db"
		cfg.Layout.ItemMaxX = 80
		err := cfg.Validate()
		require.Error(t, err)
	})

	t.Run("accepts a sane config", func(t *testing.T) {
		cfg := LoadConfig()
		cfg.Database.DSN = "pmix.db"
		require.NoError(t, cfg.Validate())
	})
}

func TestValidatorCollectsErrors(t *testing.T) {
	v := NewValidator()
	v.Field("name", "", Required)
	v.Field("tolerance", -0.5, NonNegative)
	v.Field("workers", 0, Positive)
	v.Field("location", "ok", Required)

	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 3)
	assert.Contains(t, v.ErrorMessage(), "'name'")
	assert.Contains(t, v.ErrorMessage(), "must not be negative")
	assert.Contains(t, v.ErrorMessage(), "must be positive")

	clean := NewValidator()
	clean.Field("name", "x", Required)
	require.NoError(t, clean.Error())
}
