// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package query

import (
	"context"
	"sort"
	"time"

	"github.com/plenoaudit/logengine/internal/codec"
	"github.com/plenoaudit/logengine/internal/kvstore"
	"github.com/plenoaudit/logengine/internal/logging"
	"github.com/plenoaudit/logengine/internal/metrics"
	"github.com/plenoaudit/logengine/internal/schema"
	"github.com/plenoaudit/logengine/internal/statscache"
)

// PartitionSource is the narrow slice of the KV adapter the query engine
// needs: listing partitions in a type's date range.
type PartitionSource interface {
	ListByDateRange(t schema.LogType, startDate, endDate string) ([]kvstore.Record, error)
}

// StatsSource is the narrow slice of the stats cache the query engine
// needs for predicate pushdown.
type StatsSource interface {
	Get(key string) (statscache.PartitionStats, bool)
}

// Options are the per-query filters and pagination parameters shared by
// every read operation (spec §4.8 steps 4 and 6).
type Options struct {
	Window     Window
	StartDate  string
	EndDate    string
	Domain     string           // optional equality filter
	EventType  string           // optional, events-only
	Columns    []string         // projection; empty means full schema
	Predicates []statscache.Predicate
	Limit      int // -1 means unbounded; 0 is treated as "use caller's default"
	Offset     int
	// Operation names this run for engine_query_duration_seconds (e.g.
	// "get_reports", "get_violations"); empty skips metrics recording.
	Operation string
}

// Result is the paginated response shape every read operation returns.
type Result struct {
	Data    []schema.Row
	Total   int
	HasMore bool
}

// Engine runs the load -> decode -> filter -> sort -> paginate pipeline
// over one or more log types.
type Engine struct {
	source PartitionSource
	stats  StatsSource
}

// NewEngine creates an Engine backed by source and stats.
func NewEngine(source PartitionSource, stats StatsSource) *Engine {
	return &Engine{source: source, stats: stats}
}

type rowEntry struct {
	row  schema.Row
	tsMs int64
}

// Run executes the pipeline for a single log type t.
func (e *Engine) Run(ctx context.Context, t schema.LogType, opts Options) (Result, error) {
	return e.RunMulti(ctx, []schema.LogType{t}, opts)
}

// RunMulti executes the pipeline across multiple log types, unioning their
// rows before sort/paginate — used by query_reports to union CSP
// violations and network requests.
func (e *Engine) RunMulti(ctx context.Context, types []schema.LogType, opts Options) (Result, error) {
	start := time.Now()
	var entries []rowEntry

	for _, t := range types {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		partitions, err := e.source.ListByDateRange(t, opts.StartDate, opts.EndDate)
		if err != nil {
			return Result{}, err
		}
		sort.Slice(partitions, func(i, j int) bool { return partitions[i].Date < partitions[j].Date })

		var scanned, skipped int
		for _, p := range partitions {
			if e.skipByStats(p.Key, opts.Predicates) {
				skipped++
				continue
			}
			scanned++

			rows, err := decodePartition(p, opts.Columns)
			if err != nil {
				logging.Warn().Err(err).Str("partition_key", p.Key).Msg("query: skipping unreadable partition")
				continue
			}

			for _, row := range rows {
				entry, ok := e.matchRow(t, row, opts)
				if ok {
					entries = append(entries, entry)
				}
			}
		}

		if opts.Operation != "" {
			metrics.RecordQuery(opts.Operation, string(t), time.Since(start), scanned, skipped)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].tsMs > entries[j].tsMs })

	total := len(entries)
	data := paginate(entries, opts.Offset, opts.Limit)

	out := make([]schema.Row, len(data))
	for i, e := range data {
		out[i] = e.row
	}

	return Result{
		Data:    out,
		Total:   total,
		HasMore: opts.Offset+len(data) < total,
	}, nil
}

func (e *Engine) skipByStats(key string, predicates []statscache.Predicate) bool {
	if e.stats == nil || len(predicates) == 0 {
		return false
	}
	stats, ok := e.stats.Get(key)
	if !ok {
		return false
	}
	for _, pred := range predicates {
		if statscache.CanSkip(stats, pred) {
			return true
		}
	}
	return false
}

func decodePartition(p kvstore.Record, columns []string) ([]schema.Row, error) {
	if len(columns) > 0 {
		return codec.DecodeWithColumns(p.Blob, columns)
	}
	return codec.Decode(p.Blob)
}

func (e *Engine) matchRow(t schema.LogType, row schema.Row, opts Options) (rowEntry, bool) {
	tsMs, ok := TimestampMs(row["timestamp"])
	if !ok {
		return rowEntry{}, false
	}
	if tsMs < opts.Window.SinceMs || tsMs > opts.Window.UntilMs {
		return rowEntry{}, false
	}

	if opts.Domain != "" {
		domain, _ := row["domain"].(string)
		if domain != opts.Domain {
			return rowEntry{}, false
		}
	}

	if t == schema.Events && opts.EventType != "" {
		eventType, _ := row["type"].(string)
		if eventType != opts.EventType {
			return rowEntry{}, false
		}
	}

	return rowEntry{row: row, tsMs: tsMs}, true
}

// paginate applies offset/limit per spec §4.8 step 6. limit == -1 means
// unbounded (return everything after offset).
func paginate(entries []rowEntry, offset, limit int) []rowEntry {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(entries) {
		return nil
	}

	rest := entries[offset:]
	if limit < 0 {
		return rest
	}
	if limit >= len(rest) {
		return rest
	}
	return rest[:limit]
}

// UniqueDomains returns the sorted distinct set of "domain" values across
// CSP-violation and network-request partitions in the window, per
// get_unique_domains (§4.8).
func (e *Engine) UniqueDomains(ctx context.Context, w Window, startDate, endDate string) ([]string, error) {
	result, err := e.RunMulti(ctx, []schema.LogType{schema.CSPViolations, schema.NetworkRequests}, Options{
		Window:    w,
		StartDate: startDate,
		EndDate:   endDate,
		Limit:     -1,
		Operation: "get_unique_domains",
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, row := range result.Data {
		domain, _ := row["domain"].(string)
		if domain == "" {
			continue
		}
		seen[domain] = struct{}{}
	}

	domains := make([]string, 0, len(seen))
	for d := range seen {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains, nil
}
