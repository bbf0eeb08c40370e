// Package store owns the on-disk state: the expense and revenue CSV
// tables, the monthly results table, and the JSON processing history.
// It is the only component allowed to append to or overwrite them.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Data files inside the store directory.
const (
	expensesFile = "expenses.csv"
	revenuesFile = "revenues.csv"
	resultsFile  = "results.csv"
	historyFile  = "history.json"
	backupDir    = "backups"
)

// Mode selects how a save treats the existing table.
type Mode string

const (
	ModeAppend    Mode = "append"
	ModeOverwrite Mode = "overwrite"
)

// Options tune store behavior.
type Options struct {
	// AllowDuplicates disables (date, amount, counterparty) suppression
	// on append.
	AllowDuplicates bool
	// MaxHistory caps the processing history; older entries are dropped.
	MaxHistory int
}

// SaveResult reports what a save operation did.
type SaveResult struct {
	Added      int    `json:"added"`
	Duplicates int    `json:"duplicates"`
	Total      int    `json:"total"`
	Mode       Mode   `json:"mode"`
	SourceFile string `json:"sourceFile"`
}

// Store persists the clinic's tables under a single directory. A mutex
// serializes writers within the process; there is no cross-process
// locking, matching the single-user design.
type Store struct {
	dir  string
	opts Options

	mu sync.Mutex
}

// New opens (creating if needed) a store rooted at dir.
func New(dir string, opts Options) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = 100
	}
	return &Store{dir: dir, opts: opts}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// writeFileAtomic writes data to path via a temp file and rename, so a
// failed write never truncates an existing table.
func (s *Store) writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}
