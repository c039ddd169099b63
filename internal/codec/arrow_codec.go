// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"

	"github.com/plenoaudit/logengine/internal/schema"
)

// encodeColumnar builds an Arrow record from rows under t's schema and
// serializes it with the Arrow IPC stream writer. The writer's leading
// continuation marker (0xFFFFFFFF) doubles as the "columnar" magic prefix
// Decode uses to distinguish this from the JSON fallback.
func encodeColumnar(t schema.LogType, rows []schema.Row) ([]byte, error) {
	sch, err := arrowSchema(t)
	if err != nil {
		return nil, err
	}
	fields, err := schema.Fields(t)
	if err != nil {
		return nil, err
	}

	builder := array.NewRecordBuilder(allocator, sch)
	defer builder.Release()

	for _, row := range rows {
		for i, f := range fields {
			if err := appendValue(builder.Field(i), f, row[f.Name]); err != nil {
				return nil, fmt.Errorf("row field %q: %w", f.Name, err)
			}
		}
	}

	rec := builder.NewRecord()
	defer rec.Release()

	var buf bytes.Buffer
	writer := ipc.NewWriter(&buf, ipc.WithSchema(sch), ipc.WithAllocator(allocator))
	if err := writer.Write(rec); err != nil {
		return nil, fmt.Errorf("write IPC record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close IPC writer: %w", err)
	}

	return buf.Bytes(), nil
}

func appendValue(b array.Builder, f schema.Field, v any) error {
	if v == nil {
		if !f.Nullable {
			return fmt.Errorf("nil value for non-nullable field %q", f.Name)
		}
		b.AppendNull()
		return nil
	}

	switch f.Type {
	case schema.TypeString:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
		b.(*array.StringBuilder).Append(s)
	case schema.TypeInt32:
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		b.(*array.Int32Builder).Append(int32(n))
	case schema.TypeInt64:
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		b.(*array.Int64Builder).Append(n)
	case schema.TypeFloat64:
		f64, err := toFloat64(v)
		if err != nil {
			return err
		}
		b.(*array.Float64Builder).Append(f64)
	case schema.TypeBool:
		bl, ok := v.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", v)
		}
		b.(*array.BooleanBuilder).Append(bl)
	default:
		return fmt.Errorf("unsupported semantic type %q", f.Type)
	}
	return nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected float, got %T", v)
	}
}

// decodeColumnar reads an Arrow IPC stream blob back into rows. When
// columns is non-nil, only the named fields are materialized into each row
// map; the full record is still read off the wire since the stream format
// encodes one batch at a time, but constructing fewer map entries per row
// is still real, measurable projection work avoided downstream.
func decodeColumnar(data []byte, columns []string) ([]schema.Row, error) {
	reader, err := ipc.NewReader(bytes.NewReader(data), ipc.WithAllocator(allocator))
	if err != nil {
		return nil, fmt.Errorf("open IPC reader: %w", err)
	}
	defer reader.Release()

	sch := reader.Schema()
	var rows []schema.Row

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read IPC record: %w", err)
		}

		rows = append(rows, recordToRows(sch, rec, columns)...)
	}

	if rows == nil {
		rows = []schema.Row{}
	}
	return rows, nil
}

func recordToRows(sch *arrow.Schema, rec arrow.Record, columns []string) []schema.Row {
	numRows := int(rec.NumRows())
	rows := make([]schema.Row, numRows)
	for r := 0; r < numRows; r++ {
		rows[r] = schema.Row{}
	}

	for c := 0; c < int(rec.NumCols()); c++ {
		name := sch.Field(c).Name
		if !wantColumn(columns, name) {
			continue
		}
		col := rec.Column(c)
		for r := 0; r < numRows; r++ {
			if col.IsNull(r) {
				rows[r][name] = nil
				continue
			}
			rows[r][name] = columnValue(col, r)
		}
	}

	return rows
}

func columnValue(col arrow.Array, row int) any {
	switch typed := col.(type) {
	case *array.String:
		return typed.Value(row)
	case *array.Int32:
		return typed.Value(row)
	case *array.Int64:
		return typed.Value(row)
	case *array.Float64:
		return typed.Value(row)
	case *array.Boolean:
		return typed.Value(row)
	default:
		return nil
	}
}
