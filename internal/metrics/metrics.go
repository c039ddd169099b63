// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package instruments the storage engine's write path, KV backend,
// predicate-pushdown caches, retention/compaction sweeps, and the
// serialization queue that backs every mutating operation.

var (
	// Write Buffer Metrics
	FlushDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engine_flush_duration_seconds",
			Help:    "Duration of write-buffer flush-to-partition operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"log_type", "trigger"}, // trigger: "size", "debounce", "manual"
	)

	FlushErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_flush_errors_total",
			Help: "Total number of write-buffer flush failures",
		},
		[]string{"log_type"},
	)

	FlushRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_flush_rows_total",
			Help: "Total number of rows merged into partitions via flush",
		},
		[]string{"log_type"},
	)

	// Codec Metrics
	CodecEncodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engine_codec_encode_duration_seconds",
			Help:    "Duration of partition blob encoding",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"log_type"},
	)

	CodecDecodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engine_codec_decode_duration_seconds",
			Help:    "Duration of partition blob decoding",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"log_type"},
	)

	CodecFallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_codec_json_fallback_total",
			Help: "Total number of encodes/decodes that used the JSON fallback instead of columnar Arrow IPC",
		},
		[]string{"log_type", "direction"}, // direction: "encode", "decode"
	)

	// KV Backend Metrics
	KVOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engine_kv_op_duration_seconds",
			Help:    "Duration of blob KV backend operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "init", "save", "load", "delete", "delete_before_date", "list_by_type", "list_by_date_range", "size", "gc", "close"
	)

	KVOpErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_kv_op_errors_total",
			Help: "Total number of blob KV backend operation errors",
		},
		[]string{"operation"},
	)

	// Query Pipeline Metrics
	PartitionsScanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_partitions_scanned_total",
			Help: "Total number of partitions decoded to satisfy a read",
		},
		[]string{"log_type"},
	)

	PartitionsSkippedByStats = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_partitions_skipped_total",
			Help: "Total number of partitions skipped via stats-cache predicate pushdown",
		},
		[]string{"log_type"},
	)

	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engine_query_duration_seconds",
			Help:    "Duration of a full query pipeline run (load, decode, filter, sort, paginate)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "get_reports", "get_violations", "get_network_requests", "get_events", "get_stats"
	)

	// Cache Metrics (stats cache + dynamic index)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "stats", "dynamic_index"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "engine_cache_entries",
			Help: "Current number of entries tracked by a cache",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry or capacity)",
		},
		[]string{"cache_type"},
	)

	// Retention & Compaction Metrics
	RetentionDeletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_retention_deleted_records_total",
			Help: "Total number of records deleted by retention sweeps (apply_retention_policy and delete_old_reports)",
		},
		[]string{"trigger"}, // "sweep", "explicit_cutoff"
	)

	RetentionSweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "engine_retention_sweep_duration_seconds",
			Help:    "Duration of a background retention sweep",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
	)

	CompactionMergedPartitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_compaction_merged_partitions_total",
			Help: "Total number of small partitions merged by compaction",
		},
		[]string{"log_type"},
	)

	CompactionReducedBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_compaction_reduced_bytes_total",
			Help: "Total number of bytes reclaimed by compaction (pre-merge size minus merged size)",
		},
		[]string{"log_type"},
	)

	// Capacity & Backpressure Metrics
	CapacityUsedBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "engine_capacity_used_bytes",
			Help: "Current total size of the blob KV backend in bytes",
		},
	)

	CapacityWarning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "engine_capacity_warning",
			Help: "Whether the store has crossed its configured warning threshold (0 or 1)",
		},
	)

	BackpressureThrottled = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "engine_backpressure_throttled",
			Help: "Whether write-buffer backpressure throttling is currently engaged (0 or 1)",
		},
	)

	// Serialization Queue Metrics
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "engine_queue_depth",
			Help: "Current number of mutating operations waiting on the FIFO serialization queue",
		},
	)

	QueueWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "engine_queue_wait_duration_seconds",
			Help:    "Time a submitted mutating operation spent waiting for the worker goroutine",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "engine_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_circuit_breaker_requests_total",
			Help: "Total number of requests through the circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "engine_circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures observed by the circuit breaker",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "engine_app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "engine_app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordFlush records a write-buffer flush's duration, row count, and
// outcome for one log type.
func RecordFlush(logType, trigger string, duration time.Duration, rows int, err error) {
	FlushDuration.WithLabelValues(logType, trigger).Observe(duration.Seconds())
	if err != nil {
		FlushErrors.WithLabelValues(logType).Inc()
		return
	}
	FlushRowsTotal.WithLabelValues(logType).Add(float64(rows))
}

// RecordCodecEncode records an encode call's duration and whether it used
// the JSON fallback.
func RecordCodecEncode(logType string, duration time.Duration, usedFallback bool) {
	CodecEncodeDuration.WithLabelValues(logType).Observe(duration.Seconds())
	if usedFallback {
		CodecFallbackTotal.WithLabelValues(logType, "encode").Inc()
	}
}

// RecordCodecDecode records a decode call's duration and whether it hit
// the JSON fallback path.
func RecordCodecDecode(logType string, duration time.Duration, usedFallback bool) {
	CodecDecodeDuration.WithLabelValues(logType).Observe(duration.Seconds())
	if usedFallback {
		CodecFallbackTotal.WithLabelValues(logType, "decode").Inc()
	}
}

// RecordKVOp records one blob KV backend call.
func RecordKVOp(operation string, duration time.Duration, err error) {
	KVOpDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		KVOpErrors.WithLabelValues(operation).Inc()
	}
}

// RecordQuery records one read operation's total pipeline duration,
// partitions scanned, and partitions skipped via pushdown.
func RecordQuery(operation, logType string, duration time.Duration, scanned, skipped int) {
	QueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	PartitionsScanned.WithLabelValues(logType).Add(float64(scanned))
	if skipped > 0 {
		PartitionsSkippedByStats.WithLabelValues(logType).Add(float64(skipped))
	}
}

// RecordCacheLookup records a cache hit or miss for cacheType ("stats" or
// "dynamic_index").
func RecordCacheLookup(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
	} else {
		CacheMisses.WithLabelValues(cacheType).Inc()
	}
}

// RecordCacheEviction records a cache entry being evicted.
func RecordCacheEviction(cacheType string) {
	CacheEvictions.WithLabelValues(cacheType).Inc()
}

// SetCacheSize sets the current entry count for cacheType.
func SetCacheSize(cacheType string, size int) {
	CacheSize.WithLabelValues(cacheType).Set(float64(size))
}

// RecordRetentionSweep records the outcome of apply_retention_policy or
// delete_old_reports.
func RecordRetentionSweep(trigger string, duration time.Duration, deleted int) {
	RetentionSweepDuration.Observe(duration.Seconds())
	RetentionDeletedTotal.WithLabelValues(trigger).Add(float64(deleted))
}

// RecordCompaction records the outcome of a compact call for one log type.
func RecordCompaction(logType string, mergedPartitions int, reducedBytes int64) {
	CompactionMergedPartitions.WithLabelValues(logType).Add(float64(mergedPartitions))
	CompactionReducedBytes.WithLabelValues(logType).Add(float64(reducedBytes))
}

// UpdateCapacity sets the current usage/warning gauges from the engine's
// GetCapacityInfo result.
func UpdateCapacity(usedBytes int64, isWarning bool) {
	CapacityUsedBytes.Set(float64(usedBytes))
	if isWarning {
		CapacityWarning.Set(1)
	} else {
		CapacityWarning.Set(0)
	}
}

// SetBackpressureThrottled reflects the write buffer's current throttle
// state.
func SetBackpressureThrottled(throttled bool) {
	if throttled {
		BackpressureThrottled.Set(1)
	} else {
		BackpressureThrottled.Set(0)
	}
}

// RecordQueueWait records how long a submitted mutating operation waited
// before the worker goroutine picked it up.
func RecordQueueWait(duration time.Duration) {
	QueueWaitDuration.Observe(duration.Seconds())
}

// SetQueueDepth sets the current FIFO queue depth gauge.
func SetQueueDepth(depth int) {
	QueueDepth.Set(float64(depth))
}
