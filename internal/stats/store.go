// Package stats keeps a rolling history of sync runs as JSON Lines.
package stats

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spiffcs/prsync/internal/constants"
	"github.com/spiffcs/prsync/internal/log"
)

// Snapshot captures the outcome of a single sync run.
type Snapshot struct {
	RunID      string        `json:"run"`
	Timestamp  time.Time     `json:"ts"`
	Duration   time.Duration `json:"durationNs"`
	Username   string        `json:"user"`
	Found      int           `json:"found"`
	Fetched    int           `json:"fetched"`
	Cached     int           `json:"cached"`
	Skipped    int           `json:"skipped"`
	Invalid    int           `json:"invalid,omitempty"`
	Failed     int           `json:"failed"`
	Stale      int           `json:"stale"`
	Featured   int           `json:"featured"`
	Written    int           `json:"written"`
	CacheSaved bool          `json:"cacheSaved"`
}

// Store manages persistence of run snapshots.
type Store struct {
	path string
	max  int
	mu   sync.Mutex
}

// DefaultPath returns the history file location under the user cache dir.
func DefaultPath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "prsync", "history.jsonl"), nil
}

// NewStore creates a store at the default location.
func NewStore() (*Store, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return NewStoreWithPath(path), nil
}

// NewStoreWithPath creates a store at the given path.
func NewStoreWithPath(path string) *Store {
	return &Store{path: path, max: constants.MaxHistoryRecords}
}

// Path returns the history file location.
func (s *Store) Path() string {
	return s.path
}

// Append adds a snapshot, keeping only the most recent records.
func (s *Store) Append(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		log.Debug("could not read history, starting fresh", "path", s.path, "error", err)
		records = nil
	}

	records = append(records, snap)
	if len(records) > s.max {
		records = records[len(records)-s.max:]
	}

	return s.writeAll(records)
}

// Recent returns the last n snapshots, oldest first.
func (s *Store) Recent(n int) []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil || n <= 0 {
		return nil
	}
	if len(records) <= n {
		return records
	}
	return records[len(records)-n:]
}

func (s *Store) readAll() ([]Snapshot, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var records []Snapshot
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal(line, &snap); err != nil {
			log.Trace("skipping malformed history line", "error", err)
			continue
		}
		records = append(records, snap)
	}
	return records, scanner.Err()
}

// writeAll replaces the history file through a temporary file and rename.
func (s *Store) writeAll(records []Snapshot) (err error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			_ = f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, s.path)
}
