// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package partition tracks in-memory metadata about every partition the
// engine knows about: type, date, record count, size, and last-modified
// time. It answers date-range and "which partitions are small/old" queries
// without touching the KV store, generalizing the min/max-bound tracking
// a storage engine's block metadata does for its own on-disk segments.
package partition
