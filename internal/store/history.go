package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"
)

// HistoryEntry records one processing event against the store.
type HistoryEntry struct {
	ID         string    `json:"id"`
	At         time.Time `json:"at"`
	Kind       string    `json:"kind"`
	SourceFile string    `json:"source_file"`
	Added      int       `json:"added"`
	TotalAfter int       `json:"total_after"`
}

// History is the processing log plus running totals, newest first.
type History struct {
	Entries       []HistoryEntry `json:"entries"`
	TotalImports  int            `json:"total_imports"`
	TotalExpenses int            `json:"total_expenses"`
	TotalRevenues int            `json:"total_revenues"`
}

// LoadHistory returns the processing log. A missing file reads as an
// empty log.
func (s *Store) LoadHistory() (History, error) {
	data, err := os.ReadFile(s.path(historyFile))
	if errors.Is(err, fs.ErrNotExist) {
		return History{}, nil
	}
	if err != nil {
		return History{}, fmt.Errorf("opening history: %w", err)
	}

	var hist History
	if err := json.Unmarshal(data, &hist); err != nil {
		return History{}, fmt.Errorf("decoding history: %w", err)
	}
	return hist, nil
}

// recordProcessing prepends an entry and recomputes totals. The log is
// capped at the configured maximum. Callers must hold s.mu.
func (s *Store) recordProcessing(kind, sourceFile string, added, totalAfter int) error {
	hist, err := s.LoadHistory()
	if err != nil {
		return err
	}

	entry := HistoryEntry{
		ID:         uuid.NewString(),
		At:         time.Now().UTC(),
		Kind:       kind,
		SourceFile: sourceFile,
		Added:      added,
		TotalAfter: totalAfter,
	}
	hist.Entries = append([]HistoryEntry{entry}, hist.Entries...)
	if max := s.opts.MaxHistory; max > 0 && len(hist.Entries) > max {
		hist.Entries = hist.Entries[:max]
	}

	hist.TotalImports++
	switch kind {
	case "expenses":
		hist.TotalExpenses = totalAfter
	case "revenues":
		hist.TotalRevenues = totalAfter
	}

	data, err := json.MarshalIndent(hist, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	return s.writeFileAtomic(s.path(historyFile), data)
}
