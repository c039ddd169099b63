// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/plenoaudit/logengine/internal/config"
	"github.com/plenoaudit/logengine/internal/logging"
	"github.com/plenoaudit/logengine/internal/metrics"
	"github.com/plenoaudit/logengine/internal/retention"
	"github.com/plenoaudit/logengine/internal/schema"
)

// ClearAll flushes every buffered row, then empties the KV backend, the
// partition manager, the stats cache, and the dynamic index — the facade's
// full-reset operation (§4.10).
func (e *Engine) ClearAll(ctx context.Context) error {
	return e.submit(func() error {
		if err := e.buffer.FlushAll(ctx); err != nil {
			logging.Warn().Err(err).Msg("engine: flush_all before clear_all reported errors")
		}
		e.buffer.Clear()

		if err := e.kv.Clear(); err != nil {
			return fmt.Errorf("engine: clear_all: %w", err)
		}
		e.partitions.Reset()
		e.stats.Clear()
		e.dynIndex.Clear()
		return nil
	})
}

// DeleteOldReports deletes every partition of every type dated strictly
// before cutoff ("YYYY-MM-DD"), independent of the configured retention
// policy, and returns the number of records removed.
func (e *Engine) DeleteOldReports(ctx context.Context, cutoff string) (int, error) {
	var deleted int
	start := time.Now()
	err := e.submit(func() error {
		n, err := e.retention.DeleteOldReports(ctx, cutoff)
		deleted = n
		if err == nil {
			e.dynIndex.Clear()
		}
		return err
	})
	if err == nil {
		metrics.RecordRetentionSweep("explicit_cutoff", time.Since(start), deleted)
	}
	return deleted, err
}

// ApplyRetentionPolicy deletes every partition older than the configured
// MaxAgeDays across all log types.
func (e *Engine) ApplyRetentionPolicy(ctx context.Context) (retention.Result, error) {
	var result retention.Result
	start := time.Now()
	err := e.submit(func() error {
		r, err := e.retention.ApplyPolicy(ctx)
		result = r
		if err == nil && r.Deleted > 0 {
			e.dynIndex.Clear()
		}
		return err
	})
	if err == nil {
		metrics.RecordRetentionSweep("sweep", time.Since(start), result.Deleted)
	}
	return result, err
}

// Compact merges small same-month partitions of type t, optionally
// restricted to targetMonth ("YYYY-MM"). The buffer for t is flushed first,
// so rows still sitting in memory aren't missed by the merge.
func (e *Engine) Compact(ctx context.Context, t schema.LogType, targetMonth string) (retention.CompactResult, error) {
	var result retention.CompactResult
	err := e.submit(func() error {
		if err := e.buffer.Flush(ctx, t); err != nil {
			return fmt.Errorf("engine: flush %s before compact: %w", t, err)
		}
		r, err := e.retention.Compact(ctx, t, targetMonth)
		result = r
		if err == nil && r.CompactedPartitions > 0 {
			e.dynIndex.Clear()
			metrics.RecordCompaction(string(t), r.CompactedPartitions, r.ReducedSizeBytes)
		}
		return err
	})
	return result, err
}

// GetRetentionPolicy returns the currently active retention/compaction
// configuration.
func (e *Engine) GetRetentionPolicy(ctx context.Context) config.RetentionConfig {
	return e.retention.Config()
}

// SetRetentionPolicy replaces the active retention/compaction
// configuration; it takes effect on the next sweep or explicit call.
func (e *Engine) SetRetentionPolicy(ctx context.Context, cfg config.RetentionConfig) error {
	return e.submit(func() error {
		e.retention.SetConfig(cfg)
		return nil
	})
}

// maintenanceService is a suture.Service running the periodic
// retention-sweep loop. It is a flattened, single-concern variant of the
// teacher's three-layer SupervisorTree (data/messaging/api): with exactly
// one background loop to supervise, a single suture.Supervisor already
// gives that loop the crash-isolation and exponential-backoff restart
// suture provides, and there is no separate lifecycle object to wrap in a
// WALStartStopper-style Start/Stop adapter.
type maintenanceService struct {
	engine   *Engine
	interval time.Duration
}

func (s *maintenanceService) String() string { return "engine-maintenance" }

func (s *maintenanceService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.engine.ApplyRetentionPolicy(ctx); err != nil {
				logging.Warn().Err(err).Msg("engine: maintenance sweep apply_retention_policy failed")
			}
		}
	}
}

// startMaintenance spins up a flat suture.Supervisor running
// maintenanceService on cfg.SweepInterval. A zero or negative interval
// disables the loop (there is nothing useful a zero-interval ticker could
// do).
func (e *Engine) startMaintenance(cfg config.RetentionConfig) {
	if cfg.SweepInterval <= 0 {
		return
	}

	handler := &sutureslog.Handler{Logger: logging.NewSlogLogger()}
	sup := suture.New("engine-maintenance", suture.Spec{
		EventHook: handler.MustHook(),
	})
	sup.Add(&maintenanceService{engine: e, interval: cfg.SweepInterval})

	ctx, cancel := context.WithCancel(context.Background())
	e.maintCancel = cancel
	e.maintenance = &maintenanceService{engine: e, interval: cfg.SweepInterval}

	e.maintWG.Add(1)
	go func() {
		defer e.maintWG.Done()
		if err := sup.Serve(ctx); err != nil {
			logging.Warn().Err(err).Msg("engine: maintenance supervisor exited")
		}
	}()
}

func (e *Engine) stopMaintenance() {
	if e.maintCancel != nil {
		e.maintCancel()
	}
	e.maintWG.Wait()
}
