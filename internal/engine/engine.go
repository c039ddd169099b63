// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/plenoaudit/logengine/internal/config"
	"github.com/plenoaudit/logengine/internal/dynamicindex"
	"github.com/plenoaudit/logengine/internal/kvstore"
	"github.com/plenoaudit/logengine/internal/logging"
	"github.com/plenoaudit/logengine/internal/metrics"
	"github.com/plenoaudit/logengine/internal/partition"
	"github.com/plenoaudit/logengine/internal/query"
	"github.com/plenoaudit/logengine/internal/retention"
	"github.com/plenoaudit/logengine/internal/schema"
	"github.com/plenoaudit/logengine/internal/statscache"
	"github.com/plenoaudit/logengine/internal/writebuffer"
)

// KVStore is the full blob KV adapter surface the engine depends on. Both
// *kvstore.Store and the gobreaker-wrapped *circuit.Store satisfy it.
type KVStore interface {
	Init() error
	Save(record kvstore.Record) error
	Load(key string) (kvstore.Record, error)
	ListByType(t schema.LogType) ([]kvstore.Record, error)
	ListByDateRange(t schema.LogType, startDate, endDate string) ([]kvstore.Record, error)
	Delete(key string) error
	DeleteBeforeDate(t schema.LogType, beforeDate string) (int, error)
	Clear() error
	Size() (int64, error)
	RunGC(discardRatio float64) error
	Close() error
}

// task is one closure submitted to the serialization queue, paired with the
// channel its caller blocks on for the result.
type task struct {
	fn       func() error
	done     chan error
	enqueued time.Time
}

// Engine is the store facade. It owns no goroutine-unsafe state directly;
// everything mutable lives in the subpackages it wires together, guarded
// either by their own locks (reads) or by the single worker goroutine that
// drains tasks (writes/maintenance).
type Engine struct {
	kv         KVStore
	partitions *partition.Manager
	stats      *statscache.Cache
	dynIndex   *dynamicindex.Cache
	buffer     *writebuffer.Manager
	query      *query.Engine
	retention  *retention.Manager

	capMu       sync.RWMutex
	capacityCfg config.CapacityConfig

	tasks      chan task
	queueDepth int32
	closeOnce  sync.Once
	closed     chan struct{}
	workerWG   sync.WaitGroup

	maintenance *maintenanceService
	maintWG     sync.WaitGroup
	maintCancel context.CancelFunc
}

// New constructs the engine against an already-opened KV backend. It is the
// facade's init(): kv.Init() is called, every registered log type is
// scanned once to rebuild the in-memory partition manager (the KV is the
// only thing that survives a restart — the partition index, stats cache,
// and dynamic index are all rebuilt or re-warmed from it), and the
// background retention sweep loop is started under a flat suture
// supervisor.
func New(cfg config.EngineConfig, kv KVStore) (*Engine, error) {
	if err := kv.Init(); err != nil {
		return nil, fmt.Errorf("engine: init kv backend: %w", err)
	}

	var allRecords []kvstore.Record
	for _, t := range schema.AllTypes() {
		recs, err := kv.ListByType(t)
		if err != nil {
			return nil, fmt.Errorf("engine: scan %s during init: %w", t, err)
		}
		allRecords = append(allRecords, recs...)
	}
	partitions := partition.Rebuild(allRecords)

	stats := statscache.New(cfg.StatsCache.TTL)
	dynIndex := dynamicindex.New(cfg.DynamicIndex.TTL)
	queryEngine := query.NewEngine(kv, stats)
	retentionMgr := retention.New(cfg.Retention, kv, partitions, stats)

	e := &Engine{
		kv:          kv,
		partitions:  partitions,
		stats:       stats,
		dynIndex:    dynIndex,
		query:       queryEngine,
		retention:   retentionMgr,
		capacityCfg: cfg.Capacity,
		tasks:       make(chan task),
		closed:      make(chan struct{}),
	}

	limiter := rate.NewLimiter(rate.Limit(500), 100)
	e.buffer = writebuffer.NewManager(cfg.Buffer, e.mergeFlush, limiter)
	e.buffer.SetSerializer(e.submit)

	e.workerWG.Add(1)
	go e.runWorker()

	e.startMaintenance(cfg.Retention)

	logging.Info().
		Int("partitions_recovered", len(allRecords)).
		Msg("engine: initialized")
	return e, nil
}

// submit enqueues fn on the FIFO worker and blocks until it has run,
// returning its error. Safe to call from any goroutine except the worker
// goroutine itself (nothing in this package does that — see mergeFlush and
// writebuffer's debounce-timer serializer hook).
func (e *Engine) submit(fn func() error) error {
	done := make(chan error, 1)
	depth := atomic.AddInt32(&e.queueDepth, 1)
	metrics.SetQueueDepth(int(depth))
	select {
	case e.tasks <- task{fn: fn, done: done, enqueued: time.Now()}:
	case <-e.closed:
		atomic.AddInt32(&e.queueDepth, -1)
		return ErrClosed
	}
	select {
	case err := <-done:
		return err
	case <-e.closed:
		return ErrClosed
	}
}

func (e *Engine) runWorker() {
	defer e.workerWG.Done()
	for {
		select {
		case t := <-e.tasks:
			depth := atomic.AddInt32(&e.queueDepth, -1)
			metrics.SetQueueDepth(int(depth))
			metrics.RecordQueueWait(time.Since(t.enqueued))
			t.done <- t.fn()
		case <-e.closed:
			return
		}
	}
}

// Close flushes every buffered row, stops the maintenance loop, drains the
// worker, and closes the KV backend. Per the buffer-loss-on-crash design
// note, callers that need durability must let Close run (or call a flush
// themselves) rather than abandoning the process.
func (e *Engine) Close(ctx context.Context) error {
	var err error
	e.closeOnce.Do(func() {
		if flushErr := e.buffer.FlushAll(ctx); flushErr != nil {
			logging.Warn().Err(flushErr).Msg("engine: flush_all during close reported errors")
		}
		e.stopMaintenance()
		close(e.closed)
		e.workerWG.Wait()
		err = e.kv.Close()
	})
	return err
}
