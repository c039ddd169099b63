// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package retention

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/plenoaudit/logengine/internal/codec"
	"github.com/plenoaudit/logengine/internal/config"
	"github.com/plenoaudit/logengine/internal/kvstore"
	"github.com/plenoaudit/logengine/internal/logging"
	"github.com/plenoaudit/logengine/internal/partition"
	"github.com/plenoaudit/logengine/internal/schema"
)

// defaultGCDiscardRatio mirrors the KV adapter's own default for the
// value-log GC sweep compaction triggers after removing partitions.
const defaultGCDiscardRatio = 0.5

// KVStore is the narrow slice of the blob KV adapter retention and
// compaction need.
type KVStore interface {
	Load(key string) (kvstore.Record, error)
	Save(record kvstore.Record) error
	Delete(key string) error
	DeleteBeforeDate(t schema.LogType, beforeDate string) (int, error)
	RunGC(discardRatio float64) error
}

// PartitionIndex is the narrow slice of the in-memory partition manager
// retention and compaction need.
type PartitionIndex interface {
	SmallPartitions(t schema.LogType, maxBytes int64) []partition.Info
	OlderThan(days int) []partition.Info
	Before(cutoff string) []partition.Info
	Update(info partition.Info)
	Remove(key string)
}

// StatsInvalidator lets compaction and retention drop stale column
// statistics for partitions they rewrite or remove.
type StatsInvalidator interface {
	Invalidate(key string)
}

// Result is returned by ApplyPolicy.
type Result struct {
	Deleted              int
	LastCleanupTimestamp time.Time
}

// CompactResult is returned by Compact.
type CompactResult struct {
	CompactedPartitions int
	ReducedSizeBytes    int64
	Timestamp           time.Time
}

// Manager runs the age-based deletion and small-partition compaction
// maintenance operations (§4.9) against a KV adapter and the engine's
// in-memory partition/stats caches.
type Manager struct {
	mu         sync.RWMutex
	cfg        config.RetentionConfig
	kv         KVStore
	partitions PartitionIndex
	stats      StatsInvalidator
}

// New creates a Manager. stats may be nil if no predicate-pushdown cache
// is wired.
func New(cfg config.RetentionConfig, kv KVStore, partitions PartitionIndex, stats StatsInvalidator) *Manager {
	return &Manager{cfg: cfg, kv: kv, partitions: partitions, stats: stats}
}

// Config returns the currently active policy, per set_retention_policy's
// read-back sibling get_retention_policy.
func (m *Manager) Config() config.RetentionConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// SetConfig replaces the active policy. Safe to call concurrently with
// ApplyPolicy/Compact, which always read the policy fresh via Config.
func (m *Manager) SetConfig(cfg config.RetentionConfig) {
	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()
}

// ApplyPolicy deletes every partition older than cfg.MaxAgeDays across all
// registered log types and returns the total number of records removed.
// MaxAgeDays == 0 disables cleanup.
func (m *Manager) ApplyPolicy(ctx context.Context) (Result, error) {
	cfg := m.Config()
	now := time.Now().UTC()
	if !cfg.Enabled || cfg.MaxAgeDays <= 0 {
		return Result{LastCleanupTimestamp: now}, nil
	}

	cutoff := now.AddDate(0, 0, -cfg.MaxAgeDays).Format("2006-01-02")
	total, err := m.deleteBefore(ctx, cutoff)
	if err != nil {
		return Result{}, err
	}

	if err := m.runGC(ctx); err != nil {
		logging.Warn().Err(err).Msg("retention: value-log GC after apply_retention_policy failed")
	}

	return Result{Deleted: total, LastCleanupTimestamp: now}, nil
}

// DeleteOldReports deletes every partition of every type dated strictly
// before cutoff ("YYYY-MM-DD"), independent of the configured retention
// policy — the explicit-cutoff sibling of ApplyPolicy. Per the resolved
// open question, it purges both the partition manager and the stats
// cache for every removed key, not just the dynamic index.
func (m *Manager) DeleteOldReports(ctx context.Context, cutoff string) (int, error) {
	total, err := m.deleteBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if err := m.runGC(ctx); err != nil {
		logging.Warn().Err(err).Msg("retention: value-log GC after delete_old_reports failed")
	}
	return total, nil
}

// deleteBefore removes every partition of every registered type dated
// strictly before cutoff, from both the KV backend and the in-memory
// partition/stats caches.
func (m *Manager) deleteBefore(ctx context.Context, cutoff string) (int, error) {
	stale := m.partitions.Before(cutoff)

	total := 0
	for _, t := range schema.AllTypes() {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		n, err := m.kv.DeleteBeforeDate(t, cutoff)
		if err != nil {
			return 0, fmt.Errorf("retention: delete_before_date(%s, %s): %w", t, cutoff, err)
		}
		total += n
	}

	for _, info := range stale {
		m.partitions.Remove(info.Key)
		if m.stats != nil {
			m.stats.Invalidate(info.Key)
		}
	}

	return total, nil
}

// Compact merges every group of ≥2 same-month small partitions of type t
// into one, keyed by the earliest date in the group. When targetMonth is
// non-empty, only partitions in that "YYYY-MM" month are considered.
func (m *Manager) Compact(ctx context.Context, t schema.LogType, targetMonth string) (CompactResult, error) {
	small := m.partitions.SmallPartitions(t, m.Config().CompactionMaxBytes)
	if targetMonth != "" {
		filtered := small[:0]
		for _, info := range small {
			if len(info.Date) >= 7 && info.Date[:7] == targetMonth {
				filtered = append(filtered, info)
			}
		}
		small = filtered
	}

	result := CompactResult{Timestamp: time.Now().UTC()}

	for _, group := range groupByMonth(small) {
		if len(group) < 2 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return CompactResult{}, err
		}

		n, reduced, err := m.compactGroup(t, group)
		if err != nil {
			return CompactResult{}, fmt.Errorf("retention: compact %s: %w", t, err)
		}
		result.CompactedPartitions += n
		result.ReducedSizeBytes += reduced
	}

	if result.CompactedPartitions > 0 {
		if err := m.runGC(ctx); err != nil {
			logging.Warn().Err(err).Msg("retention: value-log GC after compact failed")
		}
	}

	return result, nil
}

// compactGroup decodes and concatenates every partition in group (date
// ascending), overwrites the earliest-date partition with the merged
// result, and deletes the rest.
func (m *Manager) compactGroup(t schema.LogType, group []partition.Info) (compactedCount int, reducedBytes int64, err error) {
	sort.Slice(group, func(i, j int) bool { return group[i].Date < group[j].Date })

	var allRows []schema.Row
	var sizeBefore int64
	for _, info := range group {
		record, loadErr := m.kv.Load(info.Key)
		if loadErr != nil {
			return 0, 0, fmt.Errorf("load %s: %w", info.Key, loadErr)
		}
		rows, decodeErr := codec.Decode(record.Blob)
		if decodeErr != nil {
			return 0, 0, fmt.Errorf("decode %s: %w", info.Key, decodeErr)
		}
		allRows = append(allRows, rows...)
		sizeBefore += info.SizeBytes
	}

	targetDate := group[0].Date
	targetKey := kvstore.PartitionKey(t, targetDate)

	blob, err := codec.Encode(t, allRows)
	if err != nil {
		return 0, 0, fmt.Errorf("encode merged partition: %w", err)
	}

	now := time.Now().UTC()
	merged := kvstore.Record{
		Key:          targetKey,
		Type:         t,
		Date:         targetDate,
		Blob:         blob,
		RecordCount:  len(allRows),
		SizeBytes:    int64(len(blob)),
		CreatedAt:    now,
		LastModified: now,
	}

	if err := m.kv.Save(merged); err != nil {
		return 0, 0, fmt.Errorf("save merged partition %s: %w", targetKey, err)
	}
	m.partitions.Update(partition.Info{
		Type:         t,
		Date:         targetDate,
		Key:          targetKey,
		RecordCount:  merged.RecordCount,
		SizeBytes:    merged.SizeBytes,
		LastModified: now,
	})
	if m.stats != nil {
		m.stats.Invalidate(targetKey)
	}

	for _, info := range group[1:] {
		if err := m.kv.Delete(info.Key); err != nil {
			return 0, 0, fmt.Errorf("delete superseded partition %s: %w", info.Key, err)
		}
		m.partitions.Remove(info.Key)
		if m.stats != nil {
			m.stats.Invalidate(info.Key)
		}
	}

	return len(group), sizeBefore - merged.SizeBytes, nil
}

// groupByMonth buckets infos by their "YYYY-MM" month, preserving the
// ascending-date order SmallPartitions already returns within each bucket.
func groupByMonth(infos []partition.Info) map[string][]partition.Info {
	groups := make(map[string][]partition.Info)
	for _, info := range infos {
		month := info.Date
		if len(month) >= 7 {
			month = month[:7]
		}
		groups[month] = append(groups[month], info)
	}
	return groups
}

// runGC wraps the KV adapter's value-log GC sweep in a bounded exponential
// backoff, so a transient Badger compaction failure doesn't abort the
// whole retention/compaction call.
func (m *Manager) runGC(ctx context.Context) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	return backoff.Retry(func() error {
		return m.kv.RunGC(defaultGCDiscardRatio)
	}, policy)
}
