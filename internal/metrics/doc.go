// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package metrics provides Prometheus metrics collection and export for observability.

This package implements comprehensive application instrumentation using the Prometheus
client library, exposing metrics for monitoring the storage engine's write path, KV
backend, caches, and background maintenance sweeps.

# Overview

The package provides metrics for:
  - Write-buffer flush latency and outcome, per log type
  - Columnar codec encode/decode duration and JSON-fallback rate
  - Blob KV backend operation latency and errors
  - Query pipeline duration and predicate-pushdown skip rate
  - Stats-cache and dynamic-index hit/miss/eviction rates
  - Retention sweep and compaction outcomes
  - Capacity usage and backpressure throttle state
  - FIFO serialization queue depth and wait time
  - Circuit breaker state transitions

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8090/metrics

# Available Metrics

Write Buffer Metrics:
  - engine_flush_duration_seconds: Flush-to-partition duration (histogram)
    Labels: log_type, trigger (size, debounce, manual)
  - engine_flush_errors_total: Failed flushes (counter)
    Labels: log_type
  - engine_flush_rows_total: Rows merged via flush (counter)
    Labels: log_type

Codec Metrics:
  - engine_codec_encode_duration_seconds: Encode duration (histogram)
    Labels: log_type
  - engine_codec_decode_duration_seconds: Decode duration (histogram)
    Labels: log_type
  - engine_codec_json_fallback_total: Encodes/decodes using the JSON fallback (counter)
    Labels: log_type, direction (encode, decode)

KV Backend Metrics:
  - engine_kv_op_duration_seconds: Backend call duration (histogram)
    Labels: operation (init, save, load, delete, delete_before_date, list_by_type, list_by_date_range, size, gc, close)
  - engine_kv_op_errors_total: Backend call errors (counter)
    Labels: operation

Query Pipeline Metrics:
  - engine_partitions_scanned_total: Partitions decoded to satisfy a read (counter)
    Labels: log_type
  - engine_partitions_skipped_total: Partitions skipped via stats pushdown (counter)
    Labels: log_type
  - engine_query_duration_seconds: Full pipeline run duration (histogram)
    Labels: operation (get_reports, get_violations, get_network_requests, get_events, get_stats)

Cache Metrics:
  - engine_cache_hits_total / engine_cache_misses_total (counter)
    Labels: cache_type (stats, dynamic_index)
  - engine_cache_entries: Current entry count (gauge)
    Labels: cache_type
  - engine_cache_evictions_total: TTL/capacity evictions (counter)
    Labels: cache_type

Retention & Compaction Metrics:
  - engine_retention_deleted_records_total: Records deleted (counter)
    Labels: trigger (sweep, explicit_cutoff)
  - engine_retention_sweep_duration_seconds: Sweep duration (histogram)
  - engine_compaction_merged_partitions_total: Partitions merged (counter)
    Labels: log_type
  - engine_compaction_reduced_bytes_total: Bytes reclaimed (counter)
    Labels: log_type

Capacity & Queue Metrics:
  - engine_capacity_used_bytes / engine_capacity_warning (gauge)
  - engine_backpressure_throttled: Write-buffer throttle state (gauge)
  - engine_queue_depth: Pending FIFO tasks (gauge)
  - engine_queue_wait_duration_seconds: Time spent waiting for the worker (histogram)

Circuit Breaker Metrics:
  - engine_circuit_breaker_state: Current state (gauge)
    Labels: name
    Values: 0=closed, 1=half-open, 2=open
  - engine_circuit_breaker_requests_total (counter)
    Labels: name, result (success, failure, rejected)
  - engine_circuit_breaker_consecutive_failures (gauge)
    Labels: name
  - engine_circuit_breaker_state_transitions_total (counter)
    Labels: name, from_state, to_state

# Usage Example

Basic setup in cmd/enginectl:

	import (
	    "github.com/plenoaudit/logengine/internal/metrics"
	    "github.com/prometheus/client_golang/prometheus/promhttp"
	)

	func main() {
	    http.Handle("/metrics", promhttp.Handler())
	    metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
	}

Recording a flush from the write path:

	start := time.Now()
	err := flushPartition(ctx, t, rows, date)
	metrics.RecordFlush(string(t), "debounce", time.Since(start), len(rows), err)

# Prometheus Configuration

Example prometheus.yml configuration:

	scrape_configs:
	  - job_name: 'pleno-log-engine'
	    static_configs:
	      - targets: ['localhost:8090']
	    metrics_path: '/metrics'
	    scrape_interval: 15s

# Grafana Dashboards

The metrics support Grafana dashboards with panels for:

  - Flush latency (p50, p95, p99 percentiles) by log type
  - Codec JSON-fallback rate (Arrow IPC unavailable or row shape mismatch)
  - Cache hit rate (stats cache, dynamic index) over time
  - Retention/compaction throughput (records deleted, bytes reclaimed)
  - Capacity usage against the configured warning threshold
  - FIFO queue depth and wait time, as a proxy for write contention

Example PromQL queries:

	# Flush error rate
	rate(engine_flush_errors_total[5m])

	# p95 flush latency by log type
	histogram_quantile(0.95, sum(rate(engine_flush_duration_seconds_bucket[5m])) by (le, log_type))

	# Dynamic index hit rate
	sum(rate(engine_cache_hits_total{cache_type="dynamic_index"}[5m]))
	  / (sum(rate(engine_cache_hits_total{cache_type="dynamic_index"}[5m])) + sum(rate(engine_cache_misses_total{cache_type="dynamic_index"}[5m])))

	# Partitions skipped by predicate pushdown, as a fraction of scanned
	sum(rate(engine_partitions_skipped_total[5m])) / sum(rate(engine_partitions_scanned_total[5m]) + rate(engine_partitions_skipped_total[5m]))

# Thread Safety

All metric recording functions are thread-safe and designed for concurrent use
from multiple goroutines. The Prometheus client library handles synchronization
internally.

# Cardinality Management

To prevent high cardinality issues:

  - log_type labels are bound to the closed schema.LogType enum (12 values)
  - operation labels are bound to the fixed set of facade read methods
  - No per-domain, per-partition-key, or per-request labels are emitted

# Alerting Rules

Example Prometheus alerting rules:

	groups:
	  - name: pleno-log-engine
	    rules:
	      - alert: WriteBufferFlushFailing
	        expr: rate(engine_flush_errors_total[5m]) > 0
	        for: 5m
	        annotations:
	          summary: "Write-buffer flushes failing for {{ $labels.log_type }}"

	      - alert: CapacityWarning
	        expr: engine_capacity_warning == 1
	        for: 10m
	        annotations:
	          summary: "Storage engine capacity warning threshold crossed"

	      - alert: CircuitBreakerOpen
	        expr: engine_circuit_breaker_state > 0
	        for: 2m
	        annotations:
	          summary: "Circuit breaker open for {{ $labels.name }}"

# See Also

  - internal/writebuffer: flush timing and row-count instrumentation
  - internal/retention: sweep and compaction instrumentation
  - internal/circuit: circuit breaker state instrumentation
  - https://prometheus.io/docs/practices/naming/: Metric naming conventions
  - https://prometheus.io/docs/practices/instrumentation/: Instrumentation guide
*/
package metrics
