package validate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdsanalytics/pmix-importer/constants"
	"github.com/fdsanalytics/pmix-importer/internal/entity"
)

func logEntry(pdf string) entity.ValidationEntry {
	return entity.ValidationEntry{
		ID:     uuid.New(),
		Date:   "2025-06-14",
		PDF:    pdf,
		Status: constants.ValidationApproved,
		Issues: []string{},
	}
}

func TestLogAppendAndEntries(t *testing.T) {
	log := NewLog(filepath.Join(t.TempDir(), "validation_log.json"))

	require.NoError(t, log.Append(logEntry("a.pdf")))
	require.NoError(t, log.Append(logEntry("b.pdf")))

	entries, err := log.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a.pdf", entries[0].PDF)
	assert.Equal(t, "b.pdf", entries[1].PDF)
}

func TestLogCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "validation_log.json")
	log := NewLog(path)

	require.NoError(t, log.Append(logEntry("a.pdf")))
	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestLogSupersedesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "validation_log.json")
	require.NoError(t, os.WriteFile(path, []byte("{{{ not json"), 0o644))

	log := NewLog(path)
	require.NoError(t, log.Append(logEntry("a.pdf")))

	entries, err := log.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.pdf", entries[0].PDF)
}

func TestLogReset(t *testing.T) {
	log := NewLog(filepath.Join(t.TempDir(), "validation_log.json"))

	// Reset with no file is fine.
	require.NoError(t, log.Reset())

	require.NoError(t, log.Append(logEntry("a.pdf")))
	require.NoError(t, log.Reset())

	entries, err := log.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}
