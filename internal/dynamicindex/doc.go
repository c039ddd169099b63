// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package dynamicindex builds, per query window, an in-memory inverted
// index (domain -> row indices for CSP violations and network requests,
// type -> row indices for events) plus aggregate counts. Built indexes are
// cached keyed by (since, until) with a TTL and a 3-entry capacity, oldest
// window evicted first, reusing the generic min-heap internal/cache
// already provides for exactly this "evict oldest by timestamp" shape.
package dynamicindex
