// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package dynamicindex

import (
	"fmt"
	"sync"
	"time"

	"github.com/plenoaudit/logengine/internal/cache"
)

// DefaultTTL and MaxEntries are spec §3's dynamic-index cache parameters:
// entries expire 5 minutes after creation, and at most 3 distinct windows
// are held at once.
const (
	DefaultTTL = 5 * time.Minute
	MaxEntries = 3
)

// Cache holds at most MaxEntries built Index values, keyed by window,
// evicting the oldest (by creation time) once full. It is a thin
// domain-specific wrapper around internal/cache's generic MinHeap, which
// already implements "evict smallest timestamp when over capacity".
type Cache struct {
	ttl  time.Duration
	heap *cache.MinHeap[entry]

	mu        sync.Mutex
	expiresAt map[string]time.Time
}

type entry struct {
	index *Index
}

// New creates a Cache with the given TTL (DefaultTTL if ttl <= 0).
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:       ttl,
		heap:      cache.NewMinHeap[entry](MaxEntries),
		expiresAt: make(map[string]time.Time),
	}
}

func windowKey(w Window) string {
	return fmt.Sprintf("%d:%d", w.Since, w.Until)
}

// Set inserts idx into the cache under its window, evicting the oldest
// window if the cache is already at MaxEntries.
func (c *Cache) Set(idx *Index) {
	key := windowKey(idx.Window)
	now := time.Now()

	c.mu.Lock()
	c.expiresAt[key] = now.Add(c.ttl)
	c.mu.Unlock()

	evicted := c.heap.Push(key, entry{index: idx}, now)
	if evicted != nil {
		c.mu.Lock()
		delete(c.expiresAt, evicted.Key)
		c.mu.Unlock()
	}
}

// Get returns the cached Index for window, or a miss if absent or expired.
func (c *Cache) Get(window Window) (*Index, bool) {
	key := windowKey(window)

	c.mu.Lock()
	expiry, ok := c.expiresAt[key]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}

	if time.Now().After(expiry) {
		c.heap.Remove(key)
		c.mu.Lock()
		delete(c.expiresAt, key)
		c.mu.Unlock()
		return nil, false
	}

	he := c.heap.Get(key)
	if he == nil {
		return nil, false
	}
	return he.Value.index, true
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.heap.Clear()
	c.mu.Lock()
	c.expiresAt = make(map[string]time.Time)
	c.mu.Unlock()
}

// Len returns the number of windows currently cached.
func (c *Cache) Len() int {
	return c.heap.Len()
}
