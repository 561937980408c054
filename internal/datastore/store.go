// Package datastore memoizes loaded spreadsheet tables keyed by
// (path, mtime). A table is recomputed once when the underlying file
// changes and the cached entry is replaced atomically, so a render never
// observes a partially-loaded table.
package datastore

import (
	"log"
	"os"
	"sync"
	"time"

	"eyedash/domain/table"
	"eyedash/internal/errors"

	"golang.org/x/sync/singleflight"
)

// Loader reads one file into a table; satisfied by the excel adapter.
type Loader func(path string) (*table.Table, error)

type entry struct {
	table *table.Table
	mtime time.Time
}

// Store is the process-wide read-through table cache.
type Store struct {
	loader Loader

	mu    sync.RWMutex
	cache map[string]entry

	group singleflight.Group
}

// NewStore creates a cache around the given loader.
func NewStore(loader Loader) *Store {
	return &Store{
		loader: loader,
		cache:  make(map[string]entry),
	}
}

// Load returns the table for path, reloading when the file's mtime moved.
// Concurrent requests for the same stale path collapse into a single
// reload via singleflight.
func (s *Store) Load(path string) (*table.Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.DataSourceMissing(path, err)
	}
	mtime := info.ModTime()

	s.mu.RLock()
	e, ok := s.cache[path]
	s.mu.RUnlock()
	if ok && e.mtime.Equal(mtime) {
		return e.table, nil
	}

	v, err, _ := s.group.Do(path, func() (interface{}, error) {
		// Re-check under the flight: another caller may have refreshed.
		s.mu.RLock()
		e, ok := s.cache[path]
		s.mu.RUnlock()
		if ok && e.mtime.Equal(mtime) {
			return e.table, nil
		}

		log.Printf("[datastore] reloading %s (mtime %s)", path, mtime.Format(time.RFC3339))
		tbl, err := s.loader(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load %s", path)
		}
		s.mu.Lock()
		s.cache[path] = entry{table: tbl, mtime: mtime}
		s.mu.Unlock()
		return tbl, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*table.Table), nil
}

// Invalidate drops the cached entry for path.
func (s *Store) Invalidate(path string) {
	s.mu.Lock()
	delete(s.cache, path)
	s.mu.Unlock()
}

// ModTime reports the file's last-modified time for the "last updated"
// header caption; the zero time when unavailable.
func (s *Store) ModTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
