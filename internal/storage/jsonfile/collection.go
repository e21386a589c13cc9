// Package jsonfile implements the record store over one JSON document per
// collection. Reads fail open to an empty collection; writes replace the
// whole document through an atomic rename; mutations are serialized by a
// per-collection mutex so the load-mutate-save window cannot interleave.
package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"fintrack/internal/core"
)

// ErrConflict reports that an insert's uniqueness check matched an existing
// record.
var ErrConflict = errors.New("conflicting record")

// Collection is a named sequence of JSON-serializable records with
// collection-wide integer identifiers.
type Collection[T any] struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
	id     func(T) int64
	owner  func(T) int64
}

// NewCollection binds a collection to a file path. id extracts a record's
// identifier; owner extracts the owning user ID (for unowned collections
// such as users, pass the id extractor).
func NewCollection[T any](path string, id, owner func(T) int64, logger *slog.Logger) *Collection[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collection[T]{path: path, logger: logger, id: id, owner: owner}
}

// LoadAll returns every record in the collection. A missing file is an
// empty collection; an unreadable or unparsable file is logged as a warning
// and also treated as empty, never surfaced as an error.
func (c *Collection[T]) LoadAll() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked()
}

// NextID returns one plus the maximum existing identifier, or 1 for an
// empty collection. It is recomputed from contents, not a sequence counter.
func (c *Collection[T]) NextID(records []T) int64 {
	var max int64
	for _, rec := range records {
		if id := c.id(rec); id > max {
			max = id
		}
	}
	return max + 1
}

// Insert assigns the next identifier, builds the record and appends it.
// When conflict is non-nil and matches an existing record, nothing is
// written and ErrConflict is returned.
func (c *Collection[T]) Insert(conflict func(T) bool, build func(id int64) T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	records := c.loadLocked()
	if conflict != nil {
		for _, rec := range records {
			if conflict(rec) {
				return zero, ErrConflict
			}
		}
	}

	rec := build(c.NextID(records))
	if err := c.saveLocked(append(records, rec)); err != nil {
		return zero, err
	}
	return rec, nil
}

// Find returns the records matching filter, in stored order.
func (c *Collection[T]) Find(filter func(T) bool) []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []T
	for _, rec := range c.loadLocked() {
		if filter(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// UpdateByID applies fn to the record whose identifier and owner both
// match and persists the collection. Returns core.ErrNotFound otherwise,
// including when the record belongs to a different owner.
func (c *Collection[T]) UpdateByID(id, owner int64, fn func(T) T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	records := c.loadLocked()
	for i, rec := range records {
		if c.id(rec) != id || c.owner(rec) != owner {
			continue
		}
		updated := fn(rec)
		records[i] = updated
		if err := c.saveLocked(records); err != nil {
			return zero, err
		}
		return updated, nil
	}
	return zero, core.ErrNotFound
}

// DeleteByID removes the first record whose identifier and owner both
// match and returns it. Returns core.ErrNotFound otherwise.
func (c *Collection[T]) DeleteByID(id, owner int64) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	records := c.loadLocked()
	for i, rec := range records {
		if c.id(rec) != id || c.owner(rec) != owner {
			continue
		}
		remaining := append(append([]T{}, records[:i]...), records[i+1:]...)
		if err := c.saveLocked(remaining); err != nil {
			return zero, err
		}
		return rec, nil
	}
	return zero, core.ErrNotFound
}

// Upsert replaces the first record matching match, keeping its identifier,
// or inserts a new record when none matches.
func (c *Collection[T]) Upsert(match func(T) bool, build func(id int64) T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	records := c.loadLocked()
	for i, rec := range records {
		if !match(rec) {
			continue
		}
		updated := build(c.id(rec))
		records[i] = updated
		if err := c.saveLocked(records); err != nil {
			return zero, err
		}
		return updated, nil
	}

	rec := build(c.NextID(records))
	if err := c.saveLocked(append(records, rec)); err != nil {
		return zero, err
	}
	return rec, nil
}

func (c *Collection[T]) loadLocked() []T {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("Collection unreadable, treating as empty",
				"path", c.path, "error", err)
		}
		return nil
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		c.logger.Warn("Collection does not parse, treating as empty",
			"path", c.path, "error", err)
		return nil
	}
	return records
}

// saveLocked replaces the collection contents. The document is written to a
// temp file in the same directory, synced, then renamed over the old one so
// a crash mid-write cannot leave a truncated collection.
func (c *Collection[T]) saveLocked(records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", c.path, err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create collection directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", c.path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write collection %s: %w", c.path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync collection %s: %w", c.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file for %s: %w", c.path, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("chmod temp file for %s: %w", c.path, err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("commit collection %s: %w", c.path, err)
	}
	return nil
}
