// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package circuit wraps the blob KV adapter in a gobreaker circuit
// breaker so repeated BadgerDB failures (disk full, corrupted value log,
// a stuck compaction) fail every caller fast instead of letting each one
// queue up behind the same dying dependency.
package circuit
