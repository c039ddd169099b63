// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package statscache computes and caches per-partition column statistics
// (min, max, null count, distinct count) and answers whether a partition
// can be skipped entirely for a given predicate, enabling predicate
// pushdown without decoding every partition in a query window. It is built
// as a thin domain layer over internal/cache's generic TTL map.
package statscache
