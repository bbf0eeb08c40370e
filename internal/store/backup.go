package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// BackupInfo describes one snapshot taken by Backup.
type BackupInfo struct {
	Dir   string   `json:"dir"`
	At    string   `json:"at"`
	Files []string `json:"files"`
}

// Backup snapshots the data files into a timestamped directory under
// backups/. Missing files are skipped.
func (s *Store) Backup() (BackupInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := time.Now().UTC().Format("20060102T150405Z")
	dir := filepath.Join(s.dir, backupDir, stamp)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return BackupInfo{}, fmt.Errorf("creating backup dir: %w", err)
	}

	info := BackupInfo{Dir: dir, At: stamp}
	for _, name := range []string{expensesFile, revenuesFile, resultsFile, historyFile} {
		data, err := os.ReadFile(s.path(name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return BackupInfo{}, fmt.Errorf("reading %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return BackupInfo{}, fmt.Errorf("copying %s: %w", name, err)
		}
		info.Files = append(info.Files, name)
	}
	return info, nil
}

// Reset takes a backup and then removes the live data files. The
// backups themselves are never touched.
func (s *Store) Reset() (BackupInfo, error) {
	info, err := s.Backup()
	if err != nil {
		return BackupInfo{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range []string{expensesFile, revenuesFile, resultsFile, historyFile} {
		if err := os.Remove(s.path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return info, fmt.Errorf("removing %s: %w", name, err)
		}
	}
	return info, nil
}
