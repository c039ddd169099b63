// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package statscache

import (
	"time"

	"github.com/plenoaudit/logengine/internal/cache"
)

// DefaultTTL is spec §4.6's default stats-entry lifetime.
const DefaultTTL = 5 * time.Minute

// Cache holds one PartitionStats per partition key with a TTL, backed by
// internal/cache's generic expiring map.
type Cache struct {
	inner *cache.Cache
}

// New creates a Cache with the given TTL (DefaultTTL if ttl <= 0).
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{inner: cache.New(ttl)}
}

// Set inserts or overwrites stats for stats.Key.
func (c *Cache) Set(stats PartitionStats) {
	c.inner.Set(stats.Key, stats)
}

// Get returns the cached stats for key. A miss is reported both when the
// key was never set and when the underlying TTL has expired it.
func (c *Cache) Get(key string) (PartitionStats, bool) {
	data, ok := c.inner.Get(key)
	if !ok {
		return PartitionStats{}, false
	}
	stats, ok := data.(PartitionStats)
	return stats, ok
}

// Invalidate evicts the cached entry for key, if any.
func (c *Cache) Invalidate(key string) {
	c.inner.Delete(key)
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.inner.Clear()
}

// Stats reports hit/miss/eviction counters from the underlying cache.
func (c *Cache) Stats() cache.Stats {
	return c.inner.GetStats()
}
