// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/plenoaudit/logengine/internal/codec"
	"github.com/plenoaudit/logengine/internal/kvstore"
	"github.com/plenoaudit/logengine/internal/metrics"
	"github.com/plenoaudit/logengine/internal/partition"
	"github.com/plenoaudit/logengine/internal/schema"
	"github.com/plenoaudit/logengine/internal/statscache"
)

// Write normalizes records against t's schema and hands them to the write
// buffer, in one turn of the FIFO queue. Per §5, rows land in the target
// partition in the order this call was submitted relative to every other
// mutating operation.
func (e *Engine) Write(ctx context.Context, t schema.LogType, records []schema.Record) error {
	if !schema.IsValid(t) {
		return fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return e.submit(func() error { return e.writeLocked(ctx, t, records) })
}

// InsertReports writes a batch of CSP-violation and network-request records
// in a single queue turn, so the two never interleave with an unrelated
// mutating call landing between them.
func (e *Engine) InsertReports(ctx context.Context, cspViolations, networkRequests []schema.Record) error {
	return e.submit(func() error {
		if err := e.writeLocked(ctx, schema.CSPViolations, cspViolations); err != nil {
			return err
		}
		return e.writeLocked(ctx, schema.NetworkRequests, networkRequests)
	})
}

// AddEvents writes a batch of event records, auto-assigning an id to any
// record that omits one (per schema.RecordToRow's stable-id handling for
// the events/ai-prompts family).
func (e *Engine) AddEvents(ctx context.Context, events []schema.Record) error {
	return e.submit(func() error { return e.writeLocked(ctx, schema.Events, events) })
}

// writeLocked does the record-to-row normalization and buffer hand-off. It
// must only be called from within a task already running on the worker
// goroutine (Write/InsertReports/AddEvents's e.submit wrapper).
func (e *Engine) writeLocked(ctx context.Context, t schema.LogType, records []schema.Record) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]schema.Row, 0, len(records))
	for _, rec := range records {
		row, err := schema.RecordToRow(t, rec)
		if err != nil {
			return fmt.Errorf("engine: write %s: %w", t, err)
		}
		rows = append(rows, row)
	}

	return e.buffer.Add(ctx, t, rows)
}

// mergeFlush is the write buffer's FlushFunc: it loads any existing
// partition at (t, date), decodes it, appends the newly buffered rows,
// re-encodes, and saves — the "merge-on-flush" callback spec §4.4
// describes. It never submits back onto the FIFO queue itself: callers
// already run it from a serialized context, either directly (a
// size-threshold flush inside a Write-family call already on the worker
// goroutine) or via writebuffer's debounce-timer serializer hook (which
// wraps the call in e.submit from its own goroutine).
func (e *Engine) mergeFlush(ctx context.Context, t schema.LogType, rows []schema.Row, date string) error {
	start := time.Now()
	merged, err := e.doMergeFlush(ctx, t, rows, date)
	metrics.RecordFlush(string(t), "merge", time.Since(start), merged, err)
	return err
}

func (e *Engine) doMergeFlush(ctx context.Context, t schema.LogType, rows []schema.Row, date string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	key := kvstore.PartitionKey(t, date)
	existing, found, err := e.loadPartition(key)
	if err != nil {
		return 0, err
	}

	var merged []schema.Row
	if found {
		merged = append(existing.decoded, rows...)
	} else {
		merged = rows
	}

	encodeStart := time.Now()
	blob, err := codec.Encode(t, merged)
	metrics.RecordCodecEncode(string(t), time.Since(encodeStart), false)
	if err != nil {
		return 0, fmt.Errorf("engine: encode partition %s: %w", key, err)
	}

	now := time.Now().UTC()
	createdAt := now
	if found {
		createdAt = existing.rec.CreatedAt
	}

	rec := kvstore.Record{
		Key: key, Type: t, Date: date, Blob: blob,
		RecordCount: len(merged), SizeBytes: int64(len(blob)),
		CreatedAt: createdAt, LastModified: now,
	}
	if err := e.kv.Save(rec); err != nil {
		return 0, fmt.Errorf("engine: save partition %s: %w", key, err)
	}

	e.partitions.Update(partition.Info{
		Type: t, Date: date, Key: key,
		RecordCount: rec.RecordCount, SizeBytes: rec.SizeBytes, LastModified: now,
	})
	// Recompute stats against the merged row set rather than leaving the
	// old entry invalidated — the partition is already fully decoded here,
	// so this is the cheapest point to populate predicate pushdown (§4.6)
	// for it, and skipByStats would otherwise always miss on this key.
	if fields, err := schema.Fields(t); err == nil {
		columns := make([]string, len(fields))
		for i, f := range fields {
			columns[i] = f.Name
		}
		e.stats.Set(statscache.Compute(key, t, date, merged, columns))
	} else {
		e.stats.Invalidate(key)
	}
	// The dynamic index caches aggregate counts per query window; any write
	// can change those counts for a window that covers "now", and there is
	// no cheaper way to invalidate it than dropping the whole bounded cache
	// (at most MaxEntries windows, so this is cheap).
	e.dynIndex.Clear()

	e.refreshThrottle()
	return len(merged), nil
}

type loadedPartition struct {
	rec     kvstore.Record
	decoded []schema.Row
}

func (e *Engine) loadPartition(key string) (loadedPartition, bool, error) {
	rec, err := e.kv.Load(key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return loadedPartition{}, false, nil
	}
	if err != nil {
		return loadedPartition{}, false, fmt.Errorf("engine: load partition %s: %w", key, err)
	}

	decodeStart := time.Now()
	rows, err := codec.Decode(rec.Blob)
	metrics.RecordCodecDecode(string(rec.Type), time.Since(decodeStart), false)
	if err != nil {
		return loadedPartition{}, false, fmt.Errorf("engine: decode partition %s: %w", key, err)
	}
	return loadedPartition{rec: rec, decoded: rows}, true, nil
}
