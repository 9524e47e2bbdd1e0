// Package primcache is the content-addressed primitive cache: a process-wide
// map from deterministic keys to sanitized SVG entries, flushed to a durable
// store on every insert. Entries are write-once and never evicted; unbounded
// growth is a known, accepted gap.
package primcache

import (
	"context"
	"fmt"
	"sync"

	"github.com/yungbote/kydy-backend/internal/logger"
)

type Cache struct {
	log   *logger.Logger
	store Store

	mu      sync.RWMutex
	entries map[string]Entry
}

// New loads persisted entries through the store. Unreadable entries have
// already been discarded by the store; a store that cannot load at all is a
// startup failure.
func New(store Store, log *logger.Logger) (*Cache, error) {
	cacheLog := log.With("component", "PrimitiveCache")
	entries, err := store.Load(context.Background())
	if err != nil {
		return nil, fmt.Errorf("load primitive cache: %w", err)
	}
	cacheLog.Info("Primitive cache loaded", "entries", len(entries))
	return &Cache{log: cacheLog, store: store, entries: entries}, nil
}

func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return entry, ok
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Put inserts an entry and flushes it to the durable store before returning.
// Writing a key that already exists is an idempotent no-op success, which is
// what makes concurrent resolutions for the same key safe without locking at
// the call site: one winner's bytes persist, every caller sees equivalent
// content. A store failure keeps the in-memory entry (the caller still gets a
// value) but reports the lost durability.
func (c *Cache) Put(ctx context.Context, key string, entry Entry) error {
	c.mu.Lock()
	if _, exists := c.entries[key]; exists {
		c.mu.Unlock()
		return nil
	}
	c.entries[key] = entry
	c.mu.Unlock()

	if err := c.store.Put(ctx, key, entry); err != nil {
		return fmt.Errorf("persist cache entry %s: %w", key[:12], err)
	}
	return nil
}
