// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package query implements the load -> decode -> filter -> sort -> paginate
// pipeline shared by every read operation the store facade exposes. It
// applies stats-cache predicate pushdown to skip whole partitions before
// decoding, then coerces the schema's mixed timestamp representations
// (ISO-8601 strings for CSP/requests, epoch milliseconds for events) onto
// a single int64-millisecond ordering scale for filtering and sorting.
package query
