// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package engine

import "errors"

// ErrClosed is returned by any operation submitted after Close has run.
var ErrClosed = errors.New("engine: closed")

// ErrUnknownType is returned when a caller names a log type outside the
// closed schema.Registry enum.
var ErrUnknownType = errors.New("engine: unknown log type")
