// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package retention implements the two maintenance operations the store
// facade exposes over its own data: age-based deletion of whole partitions
// and same-month compaction of undersized ones. Both run on demand (called
// directly); age-based deletion also runs periodically from the engine's
// supervised background sweep, which logs a failed sweep and tries again on
// the next tick rather than taking the engine down. Compaction has no
// background loop.
package retention
