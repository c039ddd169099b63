// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package partition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plenoaudit/logengine/internal/schema"
)

func seedInfo(date string, size int64, records int) Info {
	return Info{
		Type:         schema.NetworkRequests,
		Date:         date,
		Key:          "network-requests-" + date,
		RecordCount:  records,
		SizeBytes:    size,
		LastModified: time.Now(),
	}
}

func TestManager_UpdateAndGet(t *testing.T) {
	m := New()
	info := seedInfo("2026-07-15", 1000, 10)
	m.Update(info)

	got, ok := m.Get(info.Key)
	require.True(t, ok)
	assert.Equal(t, info, got)
}

func TestManager_Remove(t *testing.T) {
	m := New()
	info := seedInfo("2026-07-15", 1000, 10)
	m.Update(info)
	m.Remove(info.Key)

	_, ok := m.Get(info.Key)
	assert.False(t, ok)
}

func TestManager_ForDateRangeInclusiveSortedAscending(t *testing.T) {
	m := New()
	m.Update(seedInfo("2026-07-20", 100, 1))
	m.Update(seedInfo("2026-07-10", 100, 1))
	m.Update(seedInfo("2026-07-15", 100, 1))
	m.Update(seedInfo("2026-07-30", 100, 1))

	results := m.ForDateRange(schema.NetworkRequests, "2026-07-10", "2026-07-20")
	require.Len(t, results, 3)
	assert.Equal(t, "2026-07-10", results[0].Date)
	assert.Equal(t, "2026-07-15", results[1].Date)
	assert.Equal(t, "2026-07-20", results[2].Date)
}

func TestShouldSkip(t *testing.T) {
	assert.True(t, ShouldSkip("2026-07-01", "2026-07-10", "2026-07-20"))
	assert.True(t, ShouldSkip("2026-07-25", "2026-07-10", "2026-07-20"))
	assert.False(t, ShouldSkip("2026-07-15", "2026-07-10", "2026-07-20"))
	assert.False(t, ShouldSkip("2026-07-10", "2026-07-10", "2026-07-20"))
	assert.False(t, ShouldSkip("2026-07-20", "2026-07-10", "2026-07-20"))
}

func TestManager_SmallPartitionsUsesDefaultThreshold(t *testing.T) {
	m := New()
	m.Update(seedInfo("2026-07-10", 50*1024, 1))
	m.Update(seedInfo("2026-07-15", 200*1024, 1))

	small := m.SmallPartitions(schema.NetworkRequests, 0)
	require.Len(t, small, 1)
	assert.Equal(t, "2026-07-10", small[0].Date)
}

func TestManager_SmallPartitionsSortedAscending(t *testing.T) {
	m := New()
	m.Update(seedInfo("2026-07-15", 10, 1))
	m.Update(seedInfo("2026-07-05", 10, 1))

	small := m.SmallPartitions(schema.NetworkRequests, 1024)
	require.Len(t, small, 2)
	assert.Equal(t, "2026-07-05", small[0].Date)
	assert.Equal(t, "2026-07-15", small[1].Date)
}

func TestManager_OlderThan(t *testing.T) {
	m := New()
	old := time.Now().UTC().AddDate(0, 0, -800).Format("2006-01-02")
	recent := time.Now().UTC().Format("2006-01-02")
	m.Update(seedInfo(old, 10, 1))
	m.Update(seedInfo(recent, 10, 1))

	results := m.OlderThan(730)
	require.Len(t, results, 1)
	assert.Equal(t, old, results[0].Date)
}

func TestManager_Before(t *testing.T) {
	m := New()
	m.Update(seedInfo("2024-02-15", 10, 1))
	m.Update(seedInfo("2024-03-01", 10, 1))

	results := m.Before("2024-03-01")
	require.Len(t, results, 1)
	assert.Equal(t, "2024-02-15", results[0].Date)
}

func TestManager_Stats(t *testing.T) {
	m := New()
	m.Update(seedInfo("2026-07-10", 100, 5))
	m.Update(seedInfo("2026-07-20", 200, 10))

	s := m.Stats()
	assert.Equal(t, 2, s.TotalPartitions)
	assert.Equal(t, 15, s.TotalRecords)
	assert.EqualValues(t, 300, s.TotalSizeBytes)
	assert.Equal(t, "2026-07-10", s.OldestDate)
	assert.Equal(t, "2026-07-20", s.NewestDate)
	assert.Equal(t, 2, s.ByType[schema.NetworkRequests])
}

func TestManager_MonthlyStatsGroupsByMonth(t *testing.T) {
	m := New()
	m.Update(seedInfo("2026-07-10", 100, 5))
	m.Update(seedInfo("2026-07-20", 200, 10))
	m.Update(seedInfo("2026-08-01", 50, 1))

	monthly := m.MonthlyStats()
	require.Len(t, monthly, 2)
	assert.Equal(t, 2, monthly["2026-07"].TotalPartitions)
	assert.Equal(t, 1, monthly["2026-08"].TotalPartitions)
}
