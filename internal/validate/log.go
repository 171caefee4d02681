package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fdsanalytics/pmix-importer/internal/entity"
)

// Log is the shared JSON validation log: a single array of entries at one
// path. Reads tolerate a corrupt or foreign file so one bad write never
// wedges the pipeline; the damaged content is simply superseded.
type Log struct {
	path string
	mu   sync.Mutex
}

// NewLog returns a log at path. The file and its directory are created on
// first append.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Path returns where the log lives.
func (l *Log) Path() string {
	return l.path
}

// Append rewrites the log with entry added at the end.
func (l *Log) Append(entry entity.ValidationEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var entries []any
	if data, err := os.ReadFile(l.path); err == nil {
		if err := json.Unmarshal(data, &entries); err != nil {
			entries = nil
		}
	}
	entries = append(entries, entry)

	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode validation log: %w", err)
	}
	if dir := filepath.Dir(l.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create validation log dir: %w", err)
		}
	}
	if err := os.WriteFile(l.path, out, 0o644); err != nil {
		return fmt.Errorf("write validation log: %w", err)
	}
	return nil
}

// Entries reads the log back. A missing file is an empty log.
func (l *Log) Entries() ([]entity.ValidationEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []entity.ValidationEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("validation log %s: %w", l.path, err)
	}
	return entries, nil
}

// Reset removes the log. Batch runs start fresh; watch mode appends forever.
func (l *Log) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
