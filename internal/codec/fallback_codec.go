// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package codec

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/plenoaudit/logengine/internal/schema"
)

// encodeFallback serializes rows as length-prefixed-by-nothing UTF-8 JSON
// behind a magic marker, grounded on the teacher's goccy/go-json use for
// WAL entries and cache values — a plain JSON array is already
// self-describing, so no further framing is needed beyond the magic prefix
// that lets Decode recognize this format.
func encodeFallback(rows []schema.Row) ([]byte, error) {
	body, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("codec: marshal fallback rows: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(jsonFallbackMagic)
	buf.Write(body)
	return buf.Bytes(), nil
}

func decodeFallback(data []byte, columns []string) ([]schema.Row, error) {
	body := bytes.TrimPrefix(data, jsonFallbackMagic)

	var rows []schema.Row
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("codec: unmarshal fallback rows: %w", err)
	}

	if columns == nil {
		return rows, nil
	}

	projected := make([]schema.Row, len(rows))
	for i, row := range rows {
		out := schema.Row{}
		for _, name := range columns {
			if v, ok := row[name]; ok {
				out[name] = v
			}
		}
		projected[i] = out
	}
	return projected, nil
}
