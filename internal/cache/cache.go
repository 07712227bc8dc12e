// Package cache persists enriched pull request records between runs so that
// unchanged pull requests are not fetched again.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/spiffcs/prsync/internal/log"
	"github.com/spiffcs/prsync/internal/model"
)

// Cacher defines the interface for cache operations.
// This interface enables mocking the cache in unit tests.
type Cacher interface {
	Get(key string) (model.PullRequest, bool)
	Fresh(key string, updatedAt time.Time) (model.PullRequest, bool)
	Set(key string, pr model.PullRequest)
	Save(now time.Time) error
}

// Ensure Cache implements Cacher interface.
var _ Cacher = (*Cache)(nil)

// fileFormat is the on-disk layout of the cache file.
type fileFormat struct {
	PRs       map[string]model.PullRequest `json:"prs"`
	LastFetch *time.Time                   `json:"lastFetch"`
}

// Cache is an in-memory view of the cache file. Changes are only persisted
// by Save.
type Cache struct {
	path      string
	prs       map[string]model.PullRequest
	lastFetch *time.Time
	mu        sync.RWMutex
}

// Key returns the cache key for a pull request: "<repoName>#<number>".
// The owner is not part of the key.
func Key(repoName string, number int) string {
	return repoName + "#" + strconv.Itoa(number)
}

// New returns an empty cache bound to path.
func New(path string) *Cache {
	return &Cache{
		path: path,
		prs:  make(map[string]model.PullRequest),
	}
}

// Load reads the cache file at path. It never fails: a missing file yields
// an empty cache, and an unreadable or corrupt file yields an empty cache
// plus a warning.
func Load(path string) *Cache {
	c := New(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Debug("no cache file, starting empty", "path", path)
		} else {
			log.Warn("could not read cache, starting empty", "path", path, "error", err)
		}
		return c
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		log.Warn("cache file is corrupt, starting empty", "path", path, "error", err)
		return c
	}

	if f.PRs != nil {
		c.prs = f.PRs
	}
	c.lastFetch = f.LastFetch
	log.Debug("loaded cache", "path", path, "entries", len(c.prs))
	return c
}

// Path returns the file the cache is bound to.
func (c *Cache) Path() string {
	return c.path
}

// Get returns the stored record for key regardless of freshness.
func (c *Cache) Get(key string) (model.PullRequest, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	pr, ok := c.prs[key]
	return pr, ok
}

// Fresh returns the stored record for key only when its updated_at is the
// same instant as updatedAt.
func (c *Cache) Fresh(key string, updatedAt time.Time) (model.PullRequest, bool) {
	pr, ok := c.Get(key)
	if !ok || !pr.UpdatedAt.Equal(updatedAt) {
		return model.PullRequest{}, false
	}
	return pr, true
}

// Set stores pr under key, replacing any previous entry.
func (c *Cache) Set(key string, pr model.PullRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prs[key] = pr
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.prs)
}

// LastFetch returns the time of the last successful save, if any.
func (c *Cache) LastFetch() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.lastFetch == nil {
		return time.Time{}, false
	}
	return *c.lastFetch, true
}

// Save stamps lastFetch with now and overwrites the cache file, creating its
// directory when needed.
func (c *Cache) Save(now time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now = now.UTC()
	f := fileFormat{PRs: c.prs, LastFetch: &now}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}

	c.lastFetch = &now
	return nil
}

// Clear removes the cache file and empties the in-memory view.
// A missing file is not an error.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prs = make(map[string]model.PullRequest)
	c.lastFetch = nil

	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove cache file: %w", err)
	}
	return nil
}

// Stats summarizes the cache contents.
type Stats struct {
	Entries      int
	Repositories int
	Merged       int
	Featured     int
	LastFetch    *time.Time
}

// Stats returns summary counts for the cache.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	repos := make(map[string]struct{})
	s := Stats{Entries: len(c.prs), LastFetch: c.lastFetch}
	for _, pr := range c.prs {
		repos[pr.RepositoryFullName] = struct{}{}
		if pr.Merged {
			s.Merged++
		}
		if pr.Featured {
			s.Featured++
		}
	}
	s.Repositories = len(repos)
	return s
}
