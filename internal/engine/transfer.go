// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/plenoaudit/logengine/internal/codec"
	"github.com/plenoaudit/logengine/internal/kvstore"
	"github.com/plenoaudit/logengine/internal/partition"
	"github.com/plenoaudit/logengine/internal/schema"
)

// partitionRecordCount decodes blob only to recover its row count; it
// tolerates the columnar or JSON-fallback encodings transparently, same as
// every other blob consumer in the engine.
func partitionRecordCount(t schema.LogType, blob []byte) (int, error) {
	rows, err := codec.Decode(blob)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// ExportToParquet flushes every buffered row, then writes every partition's
// blob to dir under its on-disk contract filename
// ("pleno-logs-{type}-{date}.parquet"), whatever the blob's actual encoding
// (columnar or the JSON fallback — the filename is a naming convention, not
// a format guarantee; Decode tells the two apart by magic prefix, not
// extension). Returns the number of partitions written.
func (e *Engine) ExportToParquet(ctx context.Context, dir string) (int, error) {
	var written int
	err := e.submit(func() error {
		if err := e.buffer.FlushAll(ctx); err != nil {
			return fmt.Errorf("engine: flush_all before export_to_parquet: %w", err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("engine: export_to_parquet: mkdir %s: %w", dir, err)
		}

		for _, t := range schema.AllTypes() {
			recs, err := e.kv.ListByType(t)
			if err != nil {
				return fmt.Errorf("engine: export_to_parquet: list %s: %w", t, err)
			}
			for _, rec := range recs {
				path := filepath.Join(dir, schema.Filename(rec.Type, rec.Date))
				if err := os.WriteFile(path, rec.Blob, 0o644); err != nil {
					return fmt.Errorf("engine: export_to_parquet: write %s: %w", path, err)
				}
				written++
			}
		}
		return nil
	})
	return written, err
}

// ImportFromParquet reads every partition file in dir matching the on-disk
// contract filename and merges it into the store: when a partition already
// exists at the same (type, date) key, the file's rows are appended to its
// rows and the result is re-encoded; otherwise the file's blob is saved as
// is. Returns the number of files imported.
func (e *Engine) ImportFromParquet(ctx context.Context, dir string) (int, error) {
	var imported int
	err := e.submit(func() error {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("engine: import_from_parquet: read %s: %w", dir, err)
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			t, date, err := schema.ParseFilename(entry.Name())
			if err != nil {
				continue
			}

			blob, err := os.ReadFile(filepath.Join(dir, entry.Name()))
			if err != nil {
				return fmt.Errorf("engine: import_from_parquet: read %s: %w", entry.Name(), err)
			}

			now := time.Now().UTC()
			key := kvstore.PartitionKey(t, date)
			rec := kvstore.Record{
				Key: key, Type: t, Date: date, Blob: blob,
				SizeBytes: int64(len(blob)), CreatedAt: now, LastModified: now,
			}
			existing, found, err := e.loadPartition(key)
			if err != nil {
				return fmt.Errorf("engine: import_from_parquet: %w", err)
			}
			if found {
				rows, err := codec.Decode(blob)
				if err != nil {
					return fmt.Errorf("engine: import_from_parquet: decode %s: %w", entry.Name(), err)
				}
				merged := append(existing.decoded, rows...)
				if rec.Blob, err = codec.Encode(t, merged); err != nil {
					return fmt.Errorf("engine: import_from_parquet: encode %s: %w", key, err)
				}
				rec.RecordCount, rec.SizeBytes, rec.CreatedAt = len(merged), int64(len(rec.Blob)), existing.rec.CreatedAt
			} else if rec.RecordCount, err = partitionRecordCount(t, blob); err != nil {
				return fmt.Errorf("engine: import_from_parquet: decode %s: %w", entry.Name(), err)
			}
			if err := e.kv.Save(rec); err != nil {
				return fmt.Errorf("engine: import_from_parquet: save %s: %w", key, err)
			}

			e.partitions.Update(partition.Info{
				Type: t, Date: date, Key: key,
				RecordCount: rec.RecordCount, SizeBytes: rec.SizeBytes, LastModified: now,
			})
			e.stats.Invalidate(key)
			imported++
		}

		if imported > 0 {
			e.dynIndex.Clear()
		}
		return nil
	})
	return imported, err
}
