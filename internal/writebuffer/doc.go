// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package writebuffer batches rows per log type in memory and flushes them
// to the store facade's merge-on-flush callback, either when a per-type
// size threshold is reached or after a debounce interval of inactivity.
// It generalizes the teacher's event-processing Appender (which batches
// one kind of event into one store) to an arbitrary number of independently
// buffered, independently debounced log types. Rows not dated today flush
// straight through rather than entering the debounced buffer, since a
// backdated batch never receives the further same-day writes buffering
// exists to smooth.
package writebuffer
