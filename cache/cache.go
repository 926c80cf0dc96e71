// Package cache implements the Key Cache (spec §4.G): a persistent store
// of primary-key and index tuples that survives across validator runs,
// supporting invalidate, read-only, warm-up, and lazy-load modes.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-yaml"
)

// Entry is a persisted key tuple, keyed by (SchemaID, Name, Origin-aware
// elements) as required by spec §4.G. Elems holds the tuple's element
// values as plain strings (for provider entries, the raw value the feed
// returned); the root package canonicalizes them into a KeyTuple when it
// reads them back, so this package has no dependency on the root package.
type Entry struct {
	SchemaID string   `yaml:"schema_id"`
	Name     string   `yaml:"name,omitempty"`
	Elems    []string `yaml:"elems"`
	Origin   string   `yaml:"origin"`
	SourceURL string  `yaml:"source_url,omitempty"`
}

// Store is a directory-backed cache of [Entry] values. It is single-writer
// within a run (spec §5); concurrent readers see a consistent snapshot
// because writes always replace the backing file atomically.
type Store struct {
	mu      sync.RWMutex
	dir     string
	entries []Entry
	dirty   bool
}

const cacheFileName = "entries.yaml"

// Open loads an existing cache directory, creating it if absent. An
// absent or empty cache file is not an error; it simply yields an empty
// Store.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir %q: %w", dir, err)
	}

	s := &Store{dir: dir}

	path := filepath.Join(dir, cacheFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}

		return nil, fmt.Errorf("reading cache file %q: %w", path, err)
	}

	if len(data) == 0 {
		return s, nil
	}
	if err := yaml.Unmarshal(data, &s.entries); err != nil {
		return nil, fmt.Errorf("parsing cache file %q: %w", path, err)
	}

	return s, nil
}

// Invalidate discards every entry in memory. Callers in invalidate mode
// should call this immediately after Open, before any reads, then rebuild
// from providers and local instances (spec §4.G).
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.dirty = true
}

// Entries returns a snapshot of every cached entry.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)

	return out
}

// Put appends entries to the in-memory cache. It does not write to disk;
// call [Store.Flush] to persist.
func (s *Store) Put(entries ...Entry) {
	if len(entries) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
	s.dirty = true
}

// Flush atomically replaces the backing file with the current in-memory
// entry set: write to a temp file in the same directory, then rename,
// so a crash mid-write never leaves a truncated cache file (spec §4.G).
// A read-only store should never call Flush.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}

	data, err := yaml.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("marshaling cache entries: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, cacheFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)

		return fmt.Errorf("writing temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)

		return fmt.Errorf("closing temp cache file: %w", err)
	}

	path := filepath.Join(s.dir, cacheFileName)
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)

		return fmt.Errorf("renaming temp cache file into place: %w", err)
	}

	s.dirty = false

	return nil
}
