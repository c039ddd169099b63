// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package config

import "time"

// KVConfig controls the BadgerDB-backed blob key-value adapter.
type KVConfig struct {
	// Path is the directory BadgerDB stores its files in.
	Path string `koanf:"path" validate:"required"`

	// SyncWrites forces fsync after every write. Off by default since
	// partitions are append-mostly and replayable from upstream logs.
	SyncWrites bool `koanf:"sync_writes"`

	// MemTableSize is the size of each Badger memtable in bytes.
	MemTableSize int64 `koanf:"memtable_size_bytes" validate:"gte=1048576"`

	// ValueLogFileSize is the size of each Badger value log file in bytes.
	ValueLogFileSize int64 `koanf:"value_log_file_size_bytes" validate:"gte=1048576"`

	// NumCompactors is the number of Badger compaction workers.
	NumCompactors int `koanf:"num_compactors" validate:"gte=2"`

	// GCInterval is how often the value-log GC sweep runs.
	GCInterval time.Duration `koanf:"gc_interval" validate:"gte=1m"`

	// GCDiscardRatio is the ratio passed to RunValueLogGC.
	GCDiscardRatio float64 `koanf:"gc_discard_ratio" validate:"gt=0,lt=1"`
}

// BufferConfig controls the per-log-type write buffer.
type BufferConfig struct {
	// FlushSize is the number of buffered rows that triggers an immediate flush.
	FlushSize int `koanf:"flush_size" validate:"gte=1"`

	// FlushInterval is the debounce window for time-based flushing.
	FlushInterval time.Duration `koanf:"flush_interval" validate:"gte=1s"`

	// MaxBufferedRows is checked by Validate (at least 1, and positive while
	// capacity.max_total_bytes is set); the write buffer does not read it, so
	// write() never blocks on a buffered-row count.
	MaxBufferedRows int `koanf:"max_buffered_rows" validate:"gte=1"`
}

// StatsCacheConfig controls the per-partition column statistics cache used
// for predicate pushdown.
type StatsCacheConfig struct {
	TTL     time.Duration `koanf:"ttl" validate:"gte=1s"`
	Enabled bool          `koanf:"enabled"`
}

// DynamicIndexConfig controls the bounded inverted index over recent query
// windows.
type DynamicIndexConfig struct {
	TTL          time.Duration `koanf:"ttl" validate:"gte=1s"`
	MaxEntries   int           `koanf:"max_entries" validate:"gte=1,lte=3"`
	Enabled      bool          `koanf:"enabled"`
}

// RetentionConfig controls age-based deletion and small-partition compaction.
type RetentionConfig struct {
	// Enabled gates ApplyRetentionPolicy entirely; false skips it regardless
	// of MaxAgeDays.
	Enabled bool `koanf:"enabled"`

	// MaxAgeDays is how long a partition is kept before ApplyRetentionPolicy
	// deletes it. Zero disables age-based deletion even when Enabled.
	MaxAgeDays int `koanf:"max_age_days" validate:"gte=0"`

	// CompactionMaxBytes is the size threshold below which a partition is a
	// compaction candidate (passed to partition.Manager.SmallPartitions).
	CompactionMaxBytes int64 `koanf:"compaction_max_bytes" validate:"gte=1"`

	// SweepInterval is how often the background retention sweep runs; the
	// sweep applies the retention policy only and does not compact.
	SweepInterval time.Duration `koanf:"sweep_interval" validate:"gte=1m"`
}

// CapacityConfig controls the store's advertised capacity limits and the
// warning threshold exposed via GetCapacityInfo.
type CapacityConfig struct {
	MaxTotalBytes     int64   `koanf:"max_total_bytes" validate:"gte=0"`
	WarningThreshold  float64 `koanf:"warning_threshold" validate:"gt=0,lte=1"`
}

// CircuitConfig controls the gobreaker wrapper around the KV backend.
type CircuitConfig struct {
	MaxFailures  uint32        `koanf:"max_failures" validate:"gte=1"`
	OpenTimeout  time.Duration `koanf:"open_timeout" validate:"gte=1s"`
	HalfOpenMax  uint32        `koanf:"half_open_max_requests" validate:"gte=1"`
}

// LoggingConfig mirrors the teacher's logging.Config shape.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// MetricsConfig controls the prometheus registry exposed by cmd/enginectl.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Namespace string `koanf:"namespace" validate:"required"`
}

// ServerConfig controls the ops HTTP surface in cmd/enginectl.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"gte=0,lte=65535"`
	Timeout time.Duration `koanf:"timeout" validate:"gte=1s"`
}

// EngineConfig is the root configuration for the storage engine.
type EngineConfig struct {
	KV           KVConfig            `koanf:"kv"`
	Buffer       BufferConfig        `koanf:"buffer"`
	StatsCache   StatsCacheConfig    `koanf:"stats_cache"`
	DynamicIndex DynamicIndexConfig  `koanf:"dynamic_index"`
	Retention    RetentionConfig     `koanf:"retention"`
	Capacity     CapacityConfig      `koanf:"capacity"`
	Circuit      CircuitConfig       `koanf:"circuit"`
	Logging      LoggingConfig       `koanf:"logging"`
	Metrics      MetricsConfig       `koanf:"metrics"`
	Server       ServerConfig        `koanf:"server"`
}
