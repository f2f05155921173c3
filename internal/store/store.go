// Package store implements the metadata store: the persistent mapping of
// tracked page ids to local paths and last-known versions. It survives
// local file deletions and lets Status and Push detect drift without
// re-reading every file.
package store

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/shouhanzen/confluence-sync/pkg/constants"
	"github.com/shouhanzen/confluence-sync/pkg/errors"
)

// Entry is one tracked page. SyncedHash records the markdown body as last
// pulled or pushed, so local edits are detectable without a network call.
type Entry struct {
	PageID     string    `yaml:"page_id"`
	LocalPath  string    `yaml:"local_path"`
	Title      string    `yaml:"title"`
	Version    int       `yaml:"version"`
	SyncedHash string    `yaml:"synced_hash,omitempty"`
	SyncedAt   time.Time `yaml:"synced_at,omitempty"`
}

// fileFormat is the on-disk shape of the store.
type fileFormat struct {
	Pages map[string]Entry `yaml:"pages"`
}

// Store is a durable page_id → Entry mapping backed by a YAML file.
// Saves replace the file atomically so a crash never leaves a partial
// write behind. The store assumes a single writer per invocation;
// in-process callers are serialized by the mutex.
type Store struct {
	path string

	mu      sync.Mutex
	entries map[string]Entry
}

// Open loads the store at path. A missing file yields an empty store,
// not an error; the first save creates it.
func Open(path string) (*Store, error) {
	s := &Store{
		path:    path,
		entries: make(map[string]Entry),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var file fileFormat
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	if file.Pages != nil {
		s.entries = file.Pages
	}
	return s, nil
}

// Get returns the entry for a page id.
func (s *Store) Get(pageID string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[pageID]
	return entry, ok
}

// ByPath returns the entry tracking the given local path.
func (s *Store) ByPath(localPath string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.entries {
		if entry.LocalPath == localPath {
			return entry, true
		}
	}
	return Entry{}, false
}

// Put inserts or replaces an entry, keyed by its page id.
func (s *Store) Put(entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.PageID] = entry
}

// Remove deletes the entry for a page id. Removing an unknown id is a no-op.
func (s *Store) Remove(pageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, pageID)
}

// List returns all entries sorted by local path for stable iteration.
func (s *Store) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		list = append(list, entry)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].LocalPath < list[j].LocalPath
	})
	return list
}

// Len returns the number of tracked pages.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Save writes the store to disk via a temp file and rename, so readers
// never observe a partially written store.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(fileFormat{Pages: s.entries})
	if err != nil {
		return errors.WrapParse("yaml", s.path, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "metadata_*.yaml")
	if err != nil {
		return errors.WrapIO("create", s.path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errors.WrapIO("write", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.WrapIO("close", s.path, err)
	}
	if err := os.Chmod(tmpPath, constants.FilePermissions); err != nil {
		_ = os.Remove(tmpPath)
		return errors.WrapIO("chmod", s.path, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.WrapIO("rename", s.path, err)
	}
	return nil
}
