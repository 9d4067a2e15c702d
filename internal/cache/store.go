package cache

import (
	"encoding/json"
	"fmt"
	"gemtracks/internal/components/telemetry"
	"os"
	"path/filepath"
	"sync"
)

const (
	report_store_load = "store.load"
)

// Store is a persistent, write-once mapping of request identities to raw
// response payloads. It is loaded once when opened and the whole mapping is
// rewritten after every Put.
type Store struct {
	path string

	mutex   sync.Mutex
	entries map[string]json.RawMessage
}

// Open loads the cache at path. A missing, unreadable or malformed file is
// treated as an empty cache.
func Open(path string, tel telemetry.API) *Store {
	tel = telemetry.NewScopedAPI("cache", tel)
	return &Store{
		path:    path,
		entries: load(path, tel),
	}
}

// NewMemory returns a store that is never persisted.
func NewMemory() *Store {
	return &Store{entries: map[string]json.RawMessage{}}
}

func load(path string, tel telemetry.API) map[string]json.RawMessage {
	entries := map[string]json.RawMessage{}
	if path == "" {
		return entries
	}

	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return entries
	}
	if err != nil {
		tel.ReportWarning(report_store_load, fmt.Errorf("read, starting empty: %w", err), path)
		return entries
	}

	var persisted map[string]json.RawMessage
	err = json.Unmarshal(contents, &persisted)
	if err != nil {
		tel.ReportWarning(report_store_load, fmt.Errorf("malformed, starting empty: %w", err), path)
		return entries
	}
	for k, v := range persisted {
		if v == nil {
			continue
		}
		entries[k] = v
	}
	tel.ReportDebug("loaded cache", path, len(entries))
	return entries
}

// Path returns the file backing the store, it is empty for memory stores.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.entries)
}

func (s *Store) Get(key string) (json.RawMessage, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	value, ok := s.entries[key]
	return value, ok
}

// Put stores value under key and persists the store. An existing entry is
// never replaced, Put returns the value that ends up stored.
func (s *Store) Put(key string, value json.RawMessage) (json.RawMessage, error) {
	if !json.Valid(value) {
		return nil, fmt.Errorf("cache: value for %q is not valid json", key)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	existing, ok := s.entries[key]
	if ok {
		return existing, nil
	}
	stored := make(json.RawMessage, len(value))
	copy(stored, value)
	s.entries[key] = stored

	err := s.saveLocked()
	if err != nil {
		return stored, err
	}
	return stored, nil
}

// Save rewrites the whole mapping to disk.
func (s *Store) Save() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.saveLocked()
}

// saveLocked writes into a sibling temp file and renames it over the cache
// file so a failed write leaves the previous cache intact.
func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}

	serialized, err := json.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("cache: serialize: %w", err)
	}

	dir := filepath.Dir(s.path)
	err = os.MkdirAll(dir, 0o755)
	if err != nil {
		return fmt.Errorf("cache: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("cache: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, err = tmp.Write(serialized)
	if err == nil {
		err = tmp.Sync()
	}
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("cache: write: %w", err)
	}

	err = os.Rename(tmpPath, s.path)
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("cache: replace: %w", err)
	}
	return nil
}
