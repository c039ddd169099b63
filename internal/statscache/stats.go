// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package statscache

import (
	"fmt"
	"time"

	"github.com/plenoaudit/logengine/internal/schema"
)

// ColumnStats holds the min/max/null/distinct summary for one column
// across a partition's rows.
type ColumnStats struct {
	Min           any
	Max           any
	NullCount     int
	DistinctCount int
}

// PartitionStats is the cached per-partition summary described in spec
// §4.6's ParquetFileStats.
type PartitionStats struct {
	Key         string
	Type        schema.LogType
	Date        string
	RecordCount int
	Columns     map[string]ColumnStats
	CreatedAt   time.Time
}

// Predicate describes a single-column filter condition a query wants to
// push down to the partition level.
type Predicate struct {
	Column string
	Op     Op
	Value  any
	Value2 any   // used by OpBetween
	Values []any // used by OpIn
}

// Op is one of the predicate operators spec §4.6 defines skip rules for.
type Op string

const (
	OpEq      Op = "eq"
	OpNe      Op = "ne"
	OpGt      Op = "gt"
	OpGte     Op = "gte"
	OpLt      Op = "lt"
	OpLte     Op = "lte"
	OpBetween Op = "between"
	OpIn      Op = "in"
)

// Compute scans rows and produces a PartitionStats covering the requested
// columns. Rows not containing a requested column are treated as null for
// that column.
func Compute(key string, t schema.LogType, date string, rows []schema.Row, columns []string) PartitionStats {
	stats := PartitionStats{
		Key:         key,
		Type:        t,
		Date:        date,
		RecordCount: len(rows),
		Columns:     make(map[string]ColumnStats, len(columns)),
		CreatedAt:   time.Now(),
	}

	for _, col := range columns {
		stats.Columns[col] = computeColumn(rows, col)
	}
	return stats
}

func computeColumn(rows []schema.Row, col string) ColumnStats {
	var cs ColumnStats
	var hasBound bool
	seen := make(map[string]struct{})

	for _, row := range rows {
		v, ok := row[col]
		if !ok || v == nil {
			cs.NullCount++
			continue
		}

		key := fmt.Sprintf("%T:%v", v, v)
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			cs.DistinctCount++
		}

		if !hasBound {
			cs.Min, cs.Max = v, v
			hasBound = true
			continue
		}
		if compare(v, cs.Min) < 0 {
			cs.Min = v
		}
		if compare(v, cs.Max) > 0 {
			cs.Max = v
		}
	}
	return cs
}

// compare orders two values per spec §4.6: numeric vs numeric uses numeric
// compare; string vs string uses lexicographic code-point compare;
// anything mismatched is coerced to string and compared lexicographically.
func compare(a, b any) int {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}

	as, bs := asString(a), asString(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// CanSkip reports whether a partition's stats for pred.Column indicate the
// partition cannot possibly match pred, per the §4.6 skip table. Missing
// min/max (no non-null values observed) always returns false.
func CanSkip(stats PartitionStats, pred Predicate) bool {
	col, ok := stats.Columns[pred.Column]
	if !ok || col.Min == nil || col.Max == nil {
		return false
	}

	switch pred.Op {
	case OpEq:
		return compare(pred.Value, col.Min) < 0 || compare(pred.Value, col.Max) > 0
	case OpNe:
		return compare(col.Min, col.Max) == 0 && compare(pred.Value, col.Min) == 0
	case OpGt:
		return compare(col.Max, pred.Value) <= 0
	case OpGte:
		return compare(col.Max, pred.Value) < 0
	case OpLt:
		return compare(col.Min, pred.Value) >= 0
	case OpLte:
		return compare(col.Min, pred.Value) > 0
	case OpBetween:
		return compare(col.Min, pred.Value2) > 0 || compare(col.Max, pred.Value) < 0
	case OpIn:
		for _, v := range pred.Values {
			if compare(v, col.Min) >= 0 && compare(v, col.Max) <= 0 {
				return false
			}
		}
		return true
	default:
		return false
	}
}
