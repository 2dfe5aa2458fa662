// Package store implements the JSON-file-backed record collections behind
// the portfolio API. Each collection owns one file, serializes its own
// read-modify-write cycles with a mutex, and persists atomically
// (temp file, fsync, rename).
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/starford/gitfolio/internal/checksum"
)

// Collection is a mutex-guarded, whole-file JSON record set.
//
// Loading is fail-soft: a missing or corrupt file yields an empty
// collection (or the seed, when provided) so read paths stay available
// after manual file corruption.
type Collection[T any] struct {
	path string

	mu      sync.Mutex
	items   []T
	lastSum string // digest of the bytes last read from or written to disk
}

// OpenCollection opens the collection file at path. When the file does not
// exist and seed is non-nil, the seed is persisted as the initial content.
func OpenCollection[T any](path string, seed []T) (*Collection[T], error) {
	c := &Collection[T]{path: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if seed != nil {
			c.items = seed
			if err := c.persistLocked(); err != nil {
				return nil, err
			}
		}
		return c, nil
	case err != nil:
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	}

	if jsonErr := json.Unmarshal(data, &c.items); jsonErr != nil {
		slog.Warn("store: collection file corrupt, starting empty",
			slog.String("path", path),
			slog.String("error", jsonErr.Error()))
		c.items = nil
	}
	c.lastSum = checksum.Sum(data)
	return c, nil
}

// Path returns the backing file path.
func (c *Collection[T]) Path() string {
	return c.path
}

// All returns a copy of the current items.
func (c *Collection[T]) All() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Update applies fn to the items under the collection lock and persists the
// result. fn receives a copy of the item slice, so it may mutate or compact
// it freely: when fn returns an error or the persist fails, nothing is
// written and the in-memory state is left untouched.
func (c *Collection[T]) Update(fn func(items []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	work := make([]T, len(c.items))
	copy(work, c.items)

	next, err := fn(work)
	if err != nil {
		return err
	}
	prev := c.items
	c.items = next
	if err := c.persistLocked(); err != nil {
		c.items = prev
		return err
	}
	return nil
}

// Reload re-reads the backing file, replacing the in-memory items. It
// returns false without touching state when the on-disk bytes match what
// the collection last read or wrote, so watcher events caused by our own
// persists are cheap no-ops.
func (c *Collection[T]) Reload() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.items = nil
			c.lastSum = ""
			return true, nil
		}
		return false, fmt.Errorf("store: reload %s: %w", c.path, err)
	}
	sum := checksum.Sum(data)
	if sum == c.lastSum {
		return false, nil
	}

	var items []T
	if jsonErr := json.Unmarshal(data, &items); jsonErr != nil {
		slog.Warn("store: collection file corrupt on reload, starting empty",
			slog.String("path", c.path),
			slog.String("error", jsonErr.Error()))
		items = nil
	}
	c.items = items
	c.lastSum = sum
	return true, nil
}

// persistLocked writes the full item set atomically. Caller must hold mu.
func (c *Collection[T]) persistLocked() error {
	data, err := json.MarshalIndent(c.items, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal %s: %w", c.path, err)
	}
	if err := writeAtomic(c.path, data); err != nil {
		return err
	}
	c.lastSum = checksum.Sum(data)
	return nil
}

// writeAtomic writes data via temp file, fsync, and rename so a crash never
// leaves a collection file half-written.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".gitfolio-tmp-*")
	if err != nil {
		return fmt.Errorf("store: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("store: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("store: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("store: rename: %w", err)
	}
	success = true
	return nil
}
