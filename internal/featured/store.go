// Package featured reads and edits the operator-curated list of pull
// requests to highlight on the portfolio home page.
package featured

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spiffcs/prsync/internal/log"
	"github.com/spiffcs/prsync/internal/model"
)

// Store holds the featured entries in file order.
type Store struct {
	path    string
	entries []model.FeaturedEntry
	mu      sync.RWMutex
}

// Load reads the featured config at path. It never fails: a missing file
// means nothing is featured, and an unreadable or corrupt file is treated
// the same way with a warning.
func Load(path string) *Store {
	s, err := Open(path)
	if err != nil {
		log.Warn("ignoring featured config, nothing featured", "path", path, "error", err)
		return &Store{path: path}
	}
	return s
}

// Open reads the featured config at path for editing. A missing file gives
// an empty store; any other read or parse failure is returned so the file
// is never overwritten from a partial view.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Debug("no featured config, nothing featured", "path", path)
			return s, nil
		}
		return nil, fmt.Errorf("failed to read featured config: %w", err)
	}

	var entries []model.FeaturedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("featured config %s is not a JSON array of entries: %w", path, err)
	}

	s.entries = entries
	log.Debug("loaded featured config", "path", path, "entries", len(entries))
	return s, nil
}

// Path returns the file the store is bound to.
func (s *Store) Path() string {
	return s.path
}

// Lookup returns the featured status for a pull request ID. When an ID is
// listed more than once the last entry wins.
func (s *Store) Lookup(id int64) model.FeaturedStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.entries) - 1; i >= 0; i-- {
		if e := s.entries[i]; e.ID == id {
			order := e.FeaturedOrder
			return model.FeaturedStatus{Featured: true, Order: &order}
		}
	}
	return model.FeaturedStatus{}
}

// Add features id at order, replacing any existing entry for it.
func (s *Store) Add(id int64, order int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = without(s.entries, id)
	s.entries = append(s.entries, model.FeaturedEntry{ID: id, FeaturedOrder: order})
}

// Remove drops id from the list. It reports whether anything was removed.
func (s *Store) Remove(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.entries)
	s.entries = without(s.entries, id)
	return len(s.entries) != before
}

// NextOrder returns one past the highest order in use.
func (s *Store) NextOrder() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	next := 1
	for _, e := range s.entries {
		if e.FeaturedOrder >= next {
			next = e.FeaturedOrder + 1
		}
	}
	return next
}

// Entries returns a copy of the entries sorted by featured order.
func (s *Store) Entries() []model.FeaturedEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.FeaturedEntry, len(s.entries))
	copy(out, s.entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FeaturedOrder < out[j].FeaturedOrder
	})
	return out
}

// Save writes the entries, sorted by order, as a pretty-printed JSON array.
func (s *Store) Save() error {
	entries := s.Entries()

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal featured config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create featured config directory: %w", err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write featured config: %w", err)
	}
	return nil
}

func without(entries []model.FeaturedEntry, id int64) []model.FeaturedEntry {
	out := entries[:0:0]
	for _, e := range entries {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return out
}
