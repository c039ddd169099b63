// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package codec

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/plenoaudit/logengine/internal/schema"
)

// arrowSchema builds the arrow.Schema for t's field list, preserving field
// order exactly as declared in the registry — order is part of the on-disk
// contract, not an implementation detail.
func arrowSchema(t schema.LogType) (*arrow.Schema, error) {
	fields, err := schema.Fields(t)
	if err != nil {
		return nil, err
	}

	arrowFields := make([]arrow.Field, len(fields))
	for i, f := range fields {
		dt, err := arrowType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("codec: field %q: %w", f.Name, err)
		}
		arrowFields[i] = arrow.Field{
			Name:     f.Name,
			Type:     dt,
			Nullable: f.Nullable,
		}
	}

	return arrow.NewSchema(arrowFields, nil), nil
}

func arrowType(t schema.FieldType) (arrow.DataType, error) {
	switch t {
	case schema.TypeString:
		return arrow.BinaryTypes.String, nil
	case schema.TypeInt32:
		return arrow.PrimitiveTypes.Int32, nil
	case schema.TypeInt64:
		return arrow.PrimitiveTypes.Int64, nil
	case schema.TypeFloat64:
		return arrow.PrimitiveTypes.Float64, nil
	case schema.TypeBool:
		return arrow.FixedWidthTypes.Boolean, nil
	default:
		return nil, fmt.Errorf("codec: unsupported semantic type %q", t)
	}
}
