// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package engine composes the blob KV adapter, write buffer, partition
// manager, stats cache, dynamic index, query pipeline, and retention
// manager into the store facade's public surface: init, write,
// insert_reports, add_events, the get_* read operations, delete_old_reports,
// clear_all, export/import_to_parquet, apply_retention_policy, compact, and
// the capacity/retention-policy accessors.
//
// Every mutating operation is funneled through a single FIFO task queue, the
// engine-level generalization of the teacher's eventprocessor.Appender
// flushMu discipline: one worker goroutine executes submitted closures in
// submission order, so write/insert_reports/add_events/clear_all/
// delete_old_reports/compact/import_from_parquet/set_*_config never
// interleave with each other. Read operations (the get_* methods) bypass
// the queue entirely and may run concurrently with it and each other,
// reading whatever partition/cache state happens to be current.
package engine
