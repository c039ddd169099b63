// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package kvstore implements the blob key-value adapter contract: an
// opaque persistent mapping from partition key to {type, date, blob,
// record_count, size_bytes, created_at, last_modified}, with secondary
// lookups by type and by type+date-range. It is backed by BadgerDB,
// generalized from the teacher's write-ahead log (internal/wal) which
// solves the same "durable keyed blob store with prefix-scanned secondary
// indexes" problem for a different kind of entry.
package kvstore
