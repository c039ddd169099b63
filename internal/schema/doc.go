// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package schema declares the closed set of log types the storage engine
// accepts, their ordered field lists, and the record/row conversions every
// other package (codec, write buffer, query engine) builds on.
package schema
