// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package cache provides the two generic in-memory data structures the
engine's read-side caches are built on: a TTL-expiring map and a
timestamp-ordered min-heap.

# Components

  - Cache: a thread-safe map with per-entry or default TTL, lazy
    expiration on Get, and a background cleanup goroutine. Wrapped by
    internal/statscache's per-partition column-statistics cache.
  - MinHeap: a generic (Go 1.18+ type-parameterized) min-heap ordered by
    timestamp, with O(log n) Push/Pop and O(1) key lookup via a parallel
    map. Wrapped by internal/dynamicindex to evict the least-recently-built
    cached query window once its bounded entry count (spec §4.7, at most
    3 entries) is exceeded.

# Usage

	c := cache.New(5 * time.Minute)
	c.Set("partition:csp_violations:2026-07", stats)
	if value, ok := c.Get("partition:csp_violations:2026-07"); ok {
	    stats := value.(statscache.PartitionStats)
	}

	h := cache.NewMinHeap[*dynamicindex.Index](3)
	h.Push("window:0:now", idx, time.Now())
	oldest := h.Pop()

# Cache Key Conventions

Both internal/statscache and internal/dynamicindex build their own keys
(a partition key, or a since/until window pair) rather than using
GenerateKey directly — GenerateKey exists for callers that need a
collision-resistant key from an arbitrary parameter struct.

# Thread Safety

Both types are safe for concurrent access via internal sync.RWMutex/sync.Mutex
locking. Cache's background cleanup goroutine runs for the cache's
lifetime; there is no Close — callers that create short-lived caches in
tests should expect that goroutine to leak until the TTL-driven cleanup
ticker is garbage collected along with the process.
*/
package cache
