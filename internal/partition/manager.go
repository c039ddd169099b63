// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package partition

import (
	"sort"
	"sync"
	"time"

	"github.com/plenoaudit/logengine/internal/kvstore"
	"github.com/plenoaudit/logengine/internal/schema"
)

// defaultSmallPartitionBytes is the §4.5 default threshold for
// small_partitions.
const defaultSmallPartitionBytes = 100 * 1024

// Info mirrors one partition's KV-level metadata, kept in memory so the
// engine can answer range/rollup queries without a KV round trip.
type Info struct {
	Type         schema.LogType
	Date         string
	Key          string
	RecordCount  int
	SizeBytes    int64
	LastModified time.Time
}

// Stats is the aggregate summary returned by Manager.Stats.
type Stats struct {
	TotalPartitions int
	TotalRecords    int
	TotalSizeBytes  int64
	OldestDate      string
	NewestDate      string
	ByType          map[schema.LogType]int
}

// MonthlyStats maps "YYYY-MM" to the aggregate stats for that month.
type MonthlyStats map[string]Stats

// Manager holds the in-memory key -> Info map. It is the engine's private
// cache of partition metadata; only the store facade's serialization queue
// is expected to mutate it, but every method is individually safe for
// concurrent use.
type Manager struct {
	mu    sync.RWMutex
	infos map[string]Info
}

// New creates an empty Manager.
func New() *Manager {
	return &Manager{infos: make(map[string]Info)}
}

// Rebuild repopulates the manager from a full KV record listing, as done
// once at engine startup since the map does not persist across restarts.
func Rebuild(records []kvstore.Record) *Manager {
	m := New()
	for _, r := range records {
		m.Update(Info{
			Type:         r.Type,
			Date:         r.Date,
			Key:          r.Key,
			RecordCount:  r.RecordCount,
			SizeBytes:    r.SizeBytes,
			LastModified: r.LastModified,
		})
	}
	return m
}

// Update inserts or overwrites the Info for info.Key.
func (m *Manager) Update(info Info) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos[info.Key] = info
}

// Reset discards every tracked Info, in place, for callers (clear_all) that
// need the existing Manager's identity preserved rather than replaced.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = make(map[string]Info)
}

// Remove deletes the Info for key, if present.
func (m *Manager) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.infos, key)
}

// Get returns the Info for key, if tracked.
func (m *Manager) Get(key string) (Info, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.infos[key]
	return info, ok
}

// ForDateRange returns every partition of type t whose date falls in
// [start, end] inclusive, sorted ascending by date.
func (m *Manager) ForDateRange(t schema.LogType, start, end string) []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Info
	for _, info := range m.infos {
		if info.Type != t {
			continue
		}
		if info.Date < start || info.Date > end {
			continue
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// ShouldSkip reports whether a partition dated partitionDate falls outside
// [start, end] and can be skipped entirely for a query over that window.
func ShouldSkip(partitionDate, start, end string) bool {
	return partitionDate < start || partitionDate > end
}

// SmallPartitions returns partitions of type t whose size is at most
// maxBytes (defaultSmallPartitionBytes if maxBytes <= 0), ascending by
// date. Used by compaction to find merge candidates.
func (m *Manager) SmallPartitions(t schema.LogType, maxBytes int64) []Info {
	if maxBytes <= 0 {
		maxBytes = defaultSmallPartitionBytes
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Info
	for _, info := range m.infos {
		if info.Type != t {
			continue
		}
		if info.SizeBytes > maxBytes {
			continue
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// OlderThan returns every partition whose date is more than days before
// the current UTC date, used by retention to find deletion candidates.
func (m *Manager) OlderThan(days int) []Info {
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")
	return m.Before(cutoff)
}

// Before returns every tracked partition (any type) whose date is
// strictly less than cutoff, ascending by date then key. Used by
// delete_old_reports, which takes an explicit cutoff rather than a
// days-before-now offset.
func (m *Manager) Before(cutoff string) []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Info
	for _, info := range m.infos {
		if info.Date < cutoff {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Stats returns the aggregate summary across every tracked partition.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Stats{ByType: make(map[schema.LogType]int)}
	for _, info := range m.infos {
		s.TotalPartitions++
		s.TotalRecords += info.RecordCount
		s.TotalSizeBytes += info.SizeBytes
		s.ByType[info.Type]++

		if s.OldestDate == "" || info.Date < s.OldestDate {
			s.OldestDate = info.Date
		}
		if s.NewestDate == "" || info.Date > s.NewestDate {
			s.NewestDate = info.Date
		}
	}
	return s
}

// MonthlyStats groups every tracked partition by its "YYYY-MM" month and
// returns the aggregate Stats for each group.
func (m *Manager) MonthlyStats() MonthlyStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(MonthlyStats)
	for _, info := range m.infos {
		month := info.Date
		if len(month) >= 7 {
			month = month[:7]
		}
		s := out[month]
		if s.ByType == nil {
			s.ByType = make(map[schema.LogType]int)
		}
		s.TotalPartitions++
		s.TotalRecords += info.RecordCount
		s.TotalSizeBytes += info.SizeBytes
		s.ByType[info.Type]++
		if s.OldestDate == "" || info.Date < s.OldestDate {
			s.OldestDate = info.Date
		}
		if s.NewestDate == "" || info.Date > s.NewestDate {
			s.NewestDate = info.Date
		}
		out[month] = s
	}
	return out
}
