// Package cache keeps the persistent, deduplicated collection of
// normalized extraction records.
package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/Veraticus/serena/internal/model"
)

// FileName is the default cache file name.
const FileName = "cache.json"

// Cache is an ordered set of normalized records. Two records are the same
// when every field matches, source_path included. All mutation goes
// through one mutex.
type Cache struct {
	keys    map[string]struct{}
	path    string
	records []model.NormalizedRecord
	mu      sync.Mutex
}

// New returns an empty cache that saves to path.
func New(path string) *Cache {
	return &Cache{path: path, keys: make(map[string]struct{})}
}

// Load reads the cache at path. A missing file yields an empty cache; a
// corrupt one is logged and also yields an empty cache.
func Load(path string, logger *slog.Logger) *Cache {
	c := New(path)

	data, err := os.ReadFile(path) //nolint:gosec // configured cache location
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("failed to read cache, starting empty", "path", path, "error", err)
		}
		return c
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return c
	}

	var records []model.NormalizedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		logger.Warn("cache is corrupt, starting empty", "path", path, "error", err)
		return c
	}

	for _, rec := range records {
		c.add(rec)
	}
	logger.Debug("loaded cache", "path", path, "records", len(c.records))
	return c
}

// Path returns where the cache is saved.
func (c *Cache) Path() string {
	return c.path
}

// Contains reports whether a structurally identical record is present.
func (c *Cache) Contains(rec model.NormalizedRecord) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.keys[rec.Key()]
	return ok
}

// Add appends rec unless an identical record is already present. It
// reports whether rec was added.
func (c *Cache) Add(rec model.NormalizedRecord) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.add(rec)
}

func (c *Cache) add(rec model.NormalizedRecord) bool {
	key := rec.Key()
	if _, ok := c.keys[key]; ok {
		return false
	}
	c.keys[key] = struct{}{}
	c.records = append(c.records, rec)
	return true
}

// Len returns the number of records.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Records returns a copy of the records in insertion order.
func (c *Cache) Records() []model.NormalizedRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.NormalizedRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Save writes the cache atomically: a temporary file in the same directory
// is written, synced and renamed over the previous cache.
func (c *Cache) Save() error {
	c.mu.Lock()
	records := make([]model.NormalizedRecord, len(c.records))
	copy(records, c.records)
	c.mu.Unlock()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	return writeAtomic(c.path, buf.Bytes())
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temp cache file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace cache: %w", err)
	}
	return nil
}
