// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package codec

import (
	"bytes"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/plenoaudit/logengine/internal/schema"
)

// columnarEnabled toggles the Arrow IPC encode/decode path. It is a package
// variable rather than a build-time constant so tests can exercise the
// fallback path deterministically, mirroring the teacher's
// feature-toggle-via-config style rather than a compile-time-only switch.
var columnarEnabled = true

// IsAvailable reports whether the columnar (Arrow) encoding path is active.
// When false, Encode/Decode use the self-describing JSON fallback, which is
// always required to round-trip regardless of columnar availability.
func IsAvailable() bool {
	return columnarEnabled
}

// SetColumnarEnabled is exposed for tests exercising the fallback path; it
// has no production caller.
func SetColumnarEnabled(enabled bool) {
	columnarEnabled = enabled
}

var allocator = memory.NewGoAllocator()

// jsonFallbackMagic prefixes the fallback encoding. It is chosen to never
// collide with the Arrow IPC stream format's leading 0xFFFFFFFF
// continuation marker, so Decode can tell the two apart by inspecting only
// the first bytes of a blob.
var jsonFallbackMagic = []byte("PLNOJSON1")

// Encode serializes rows under type t's schema into a partition blob. Empty
// input produces empty output.
func Encode(t schema.LogType, rows []schema.Row) ([]byte, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	if !columnarEnabled {
		return encodeFallback(rows)
	}

	data, err := encodeColumnar(t, rows)
	if err != nil {
		return nil, fmt.Errorf("codec: encode %q: %w", t, err)
	}
	return data, nil
}

// Decode deserializes a partition blob back into rows, auto-detecting the
// columnar vs. fallback format by magic prefix. Empty bytes decode to an
// empty row list.
func Decode(data []byte) ([]schema.Row, error) {
	return decodeColumns(data, nil)
}

// DecodeWithColumns decodes only the named columns from a partition blob.
// Unknown column names are ignored; an empty column list decodes to an
// empty row list.
func DecodeWithColumns(data []byte, columns []string) ([]schema.Row, error) {
	if len(columns) == 0 {
		return []schema.Row{}, nil
	}
	return decodeColumns(data, columns)
}

func decodeColumns(data []byte, columns []string) ([]schema.Row, error) {
	if len(data) == 0 {
		return []schema.Row{}, nil
	}

	if bytes.HasPrefix(data, jsonFallbackMagic) {
		return decodeFallback(data, columns)
	}

	rows, err := decodeColumnar(data, columns)
	if err != nil {
		return nil, fmt.Errorf("codec: decode: %w", err)
	}
	return rows, nil
}

func wantColumn(columns []string, name string) bool {
	if columns == nil {
		return true
	}
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}
