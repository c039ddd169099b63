// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package statscache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plenoaudit/logengine/internal/schema"
)

func sampleRows() []schema.Row {
	return []schema.Row{
		{"domain": "a.com", "count": int64(10)},
		{"domain": "b.com", "count": int64(20)},
		{"domain": "b.com", "count": int64(5)},
		{"domain": nil, "count": nil},
	}
}

func TestCompute_TracksMinMaxNullDistinct(t *testing.T) {
	stats := Compute("network-requests-2026-07-15", schema.NetworkRequests, "2026-07-15", sampleRows(), []string{"domain", "count"})

	assert.Equal(t, 4, stats.RecordCount)

	domain := stats.Columns["domain"]
	assert.Equal(t, "a.com", domain.Min)
	assert.Equal(t, "b.com", domain.Max)
	assert.Equal(t, 1, domain.NullCount)
	assert.Equal(t, 2, domain.DistinctCount)

	count := stats.Columns["count"]
	assert.EqualValues(t, 5, count.Min)
	assert.EqualValues(t, 20, count.Max)
	assert.Equal(t, 1, count.NullCount)
	assert.Equal(t, 3, count.DistinctCount)
}

func TestCompute_AllNullColumnHasNoBounds(t *testing.T) {
	rows := []schema.Row{{"x": nil}, {"x": nil}}
	stats := Compute("k", schema.Events, "2026-07-15", rows, []string{"x"})

	x := stats.Columns["x"]
	assert.Nil(t, x.Min)
	assert.Nil(t, x.Max)
	assert.Equal(t, 2, x.NullCount)
}

func TestCanSkip_MissingBoundsNeverSkips(t *testing.T) {
	stats := PartitionStats{Columns: map[string]ColumnStats{"x": {}}}
	assert.False(t, CanSkip(stats, Predicate{Column: "x", Op: OpEq, Value: 5}))
}

func TestCanSkip_Eq(t *testing.T) {
	stats := PartitionStats{Columns: map[string]ColumnStats{"n": {Min: int64(10), Max: int64(20)}}}
	assert.True(t, CanSkip(stats, Predicate{Column: "n", Op: OpEq, Value: int64(5)}))
	assert.True(t, CanSkip(stats, Predicate{Column: "n", Op: OpEq, Value: int64(25)}))
	assert.False(t, CanSkip(stats, Predicate{Column: "n", Op: OpEq, Value: int64(15)}))
}

func TestCanSkip_Ne(t *testing.T) {
	constant := PartitionStats{Columns: map[string]ColumnStats{"n": {Min: int64(7), Max: int64(7)}}}
	assert.True(t, CanSkip(constant, Predicate{Column: "n", Op: OpNe, Value: int64(7)}))
	assert.False(t, CanSkip(constant, Predicate{Column: "n", Op: OpNe, Value: int64(8)}))

	varying := PartitionStats{Columns: map[string]ColumnStats{"n": {Min: int64(1), Max: int64(9)}}}
	assert.False(t, CanSkip(varying, Predicate{Column: "n", Op: OpNe, Value: int64(5)}))
}

func TestCanSkip_Comparisons(t *testing.T) {
	stats := PartitionStats{Columns: map[string]ColumnStats{"n": {Min: int64(10), Max: int64(20)}}}

	assert.True(t, CanSkip(stats, Predicate{Column: "n", Op: OpGt, Value: int64(20)}))
	assert.False(t, CanSkip(stats, Predicate{Column: "n", Op: OpGt, Value: int64(19)}))

	assert.True(t, CanSkip(stats, Predicate{Column: "n", Op: OpGte, Value: int64(21)}))
	assert.False(t, CanSkip(stats, Predicate{Column: "n", Op: OpGte, Value: int64(20)}))

	assert.True(t, CanSkip(stats, Predicate{Column: "n", Op: OpLt, Value: int64(10)}))
	assert.False(t, CanSkip(stats, Predicate{Column: "n", Op: OpLt, Value: int64(11)}))

	assert.True(t, CanSkip(stats, Predicate{Column: "n", Op: OpLte, Value: int64(9)}))
	assert.False(t, CanSkip(stats, Predicate{Column: "n", Op: OpLte, Value: int64(10)}))
}

func TestCanSkip_Between(t *testing.T) {
	stats := PartitionStats{Columns: map[string]ColumnStats{"n": {Min: int64(10), Max: int64(20)}}}
	assert.True(t, CanSkip(stats, Predicate{Column: "n", Op: OpBetween, Value: int64(21), Value2: int64(30)}))
	assert.True(t, CanSkip(stats, Predicate{Column: "n", Op: OpBetween, Value: int64(1), Value2: int64(5)}))
	assert.False(t, CanSkip(stats, Predicate{Column: "n", Op: OpBetween, Value: int64(15), Value2: int64(25)}))
}

func TestCanSkip_In(t *testing.T) {
	stats := PartitionStats{Columns: map[string]ColumnStats{"n": {Min: int64(10), Max: int64(20)}}}
	assert.True(t, CanSkip(stats, Predicate{Column: "n", Op: OpIn, Values: []any{int64(1), int64(2), int64(30)}}))
	assert.False(t, CanSkip(stats, Predicate{Column: "n", Op: OpIn, Values: []any{int64(1), int64(15)}}))
}

func TestCache_SetGetInvalidate(t *testing.T) {
	c := New(50 * time.Millisecond)
	stats := PartitionStats{Key: "k1", RecordCount: 3}
	c.Set(stats)

	got, ok := c.Get("k1")
	require.True(t, ok)
	assert.Equal(t, 3, got.RecordCount)

	c.Invalidate("k1")
	_, ok = c.Get("k1")
	assert.False(t, ok)
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.Set(PartitionStats{Key: "k1"})

	require.Eventually(t, func() bool {
		_, ok := c.Get("k1")
		return !ok
	}, time.Second, 5*time.Millisecond)
}
