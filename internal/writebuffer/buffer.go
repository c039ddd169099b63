// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package writebuffer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/plenoaudit/logengine/internal/config"
	"github.com/plenoaudit/logengine/internal/logging"
	"github.com/plenoaudit/logengine/internal/schema"
)

// FlushFunc merges rows into the partition for (t, targetDate). It is
// supplied by the store facade and is expected to load any existing
// partition, concatenate, re-encode, and save — §4.4's flush callback.
type FlushFunc func(ctx context.Context, t schema.LogType, rows []schema.Row, targetDate string) error

// Stats reports a type buffer's current state for capacity/ops reporting.
type Stats struct {
	Type       schema.LogType
	BufferSize int
	LastFlush  time.Time
	TargetDate string
}

// typeBuffer is the per-type accumulator described in spec §3's "Write
// buffer entry": an ordered row sequence plus last_flush and target_date.
type typeBuffer struct {
	mu         sync.Mutex
	rows       []schema.Row
	targetDate string
	lastFlush  time.Time
	timer      *time.Timer
}

// Manager owns one typeBuffer per log type and the debounce timers that
// drive their flushes. All exported methods are safe for concurrent use;
// the store facade is still expected to serialize mutating calls through
// its own FIFO queue (§5), but Manager does not depend on that for its own
// correctness.
type Manager struct {
	cfg   config.BufferConfig
	flush FlushFunc

	mu      sync.Mutex
	buffers map[schema.LogType]*typeBuffer

	limiter    *rate.Limiter
	throttling bool
	throttleMu sync.Mutex

	// serialize, if set, wraps a debounce-timer-triggered flush so it joins
	// the engine's FIFO mutating-operation queue instead of running on its
	// own timer goroutine unserialized. Flushes triggered synchronously from
	// Add (size threshold reached) don't use this hook: Add is always called
	// from a context the engine has already serialized.
	serialize func(func() error) error
}

// SetSerializer installs fn as the wrapper every debounce-timer-triggered
// flush runs through. Passing nil (the default) runs timer flushes directly.
func (m *Manager) SetSerializer(fn func(func() error) error) {
	m.mu.Lock()
	m.serialize = fn
	m.mu.Unlock()
}

// NewManager creates a Manager with the given config and flush callback.
// limiter is the backpressure gate applied to Add while the engine
// considers itself in a capacity warning state (see SetThrottled); it may
// be nil, in which case throttling is a no-op.
func NewManager(cfg config.BufferConfig, flush FlushFunc, limiter *rate.Limiter) *Manager {
	return &Manager{
		cfg:     cfg,
		flush:   flush,
		buffers: make(map[schema.LogType]*typeBuffer),
		limiter: limiter,
	}
}

// SetThrottled enables or disables the rate-limiter gate on Add. The
// engine calls this as GetCapacityInfo().IsWarning transitions, making the
// spec's "no unbounded queue" backpressure note an explicit, observable
// throttle instead of relying solely on the buffer size ceiling.
func (m *Manager) SetThrottled(enabled bool) {
	m.throttleMu.Lock()
	m.throttling = enabled
	m.throttleMu.Unlock()
}

func (m *Manager) isThrottled() bool {
	m.throttleMu.Lock()
	defer m.throttleMu.Unlock()
	return m.throttling
}

func (m *Manager) bufferFor(t schema.LogType) *typeBuffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buffers[t]
	if !ok {
		b = &typeBuffer{}
		m.buffers[t] = b
	}
	return b
}

// Add appends rows to type t's buffer, preserving order. Rows are first
// split by their own UTC calendar date (schema.RowDate): a group dated
// today joins the debounced per-type buffer as usual, while a group dated
// any other day is written straight through with an immediate flush, since
// a backdated or historical batch will never receive further same-day
// writes to smooth. If the debounced buffer's size ceiling is reached, it
// synchronously flushes and returns only once the flush completes.
func (m *Manager) Add(ctx context.Context, t schema.LogType, rows []schema.Row) error {
	if len(rows) == 0 {
		return nil
	}

	if m.limiter != nil && m.isThrottled() {
		if err := m.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("writebuffer: backpressure wait: %w", err)
		}
	}

	groups, order, err := groupByDate(t, rows)
	if err != nil {
		return fmt.Errorf("writebuffer: %w", err)
	}

	today := time.Now().UTC().Format("2006-01-02")
	var errs []error
	for _, date := range order {
		group := groups[date]
		if date != today {
			if err := m.flush(ctx, t, group, date); err != nil {
				errs = append(errs, fmt.Errorf("writebuffer: flush %s (%s): %w", t, date, err))
			}
			continue
		}
		if err := m.addToday(ctx, t, group); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// addToday appends rows (already known to be dated today) to type t's
// debounced buffer, flushing synchronously if the size ceiling is reached.
func (m *Manager) addToday(ctx context.Context, t schema.LogType, rows []schema.Row) error {
	b := m.bufferFor(t)

	b.mu.Lock()
	if len(b.rows) == 0 {
		b.targetDate = time.Now().UTC().Format("2006-01-02")
	}
	b.rows = append(b.rows, rows...)
	needsFlush := len(b.rows) >= m.cfg.FlushSize

	if needsFlush {
		if b.timer != nil {
			b.timer.Stop()
			b.timer = nil
		}
		b.mu.Unlock()
		return m.flushBuffer(ctx, t, b)
	}

	m.armTimer(b, t)
	b.mu.Unlock()
	return nil
}

// groupByDate splits rows by schema.RowDate, preserving first-seen date
// order so flush callbacks fire in chronological order for a batch
// spanning multiple days.
func groupByDate(t schema.LogType, rows []schema.Row) (map[string][]schema.Row, []string, error) {
	groups := make(map[string][]schema.Row)
	var order []string
	for _, row := range rows {
		date, err := schema.RowDate(t, row)
		if err != nil {
			return nil, nil, err
		}
		if _, ok := groups[date]; !ok {
			order = append(order, date)
		}
		groups[date] = append(groups[date], row)
	}
	return groups, order, nil
}

// armTimer (re)arms b's debounce timer. Callers must hold b.mu.
func (m *Manager) armTimer(b *typeBuffer, t schema.LogType) {
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(m.cfg.FlushInterval, func() {
		run := func() error {
			flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return m.flushBuffer(flushCtx, t, b)
		}

		m.mu.Lock()
		serialize := m.serialize
		m.mu.Unlock()

		var err error
		if serialize != nil {
			err = serialize(run)
		} else {
			err = run()
		}
		if err != nil {
			logging.Warn().Err(err).Str("log_type", string(t)).Msg("writebuffer: debounce flush failed")
		}
	})
}

// Flush synchronously flushes type t's buffer. No-op if empty or absent.
func (m *Manager) Flush(ctx context.Context, t schema.LogType) error {
	b := m.bufferFor(t)
	return m.flushBuffer(ctx, t, b)
}

// flushBuffer atomically takes ownership of b's pending rows and invokes
// the flush callback. An in-flight flush observes exactly the rows present
// at the moment it started; rows added afterward land in the next flush.
func (m *Manager) flushBuffer(ctx context.Context, t schema.LogType, b *typeBuffer) error {
	b.mu.Lock()
	if len(b.rows) == 0 {
		b.mu.Unlock()
		return nil
	}

	rows := b.rows
	date := b.targetDate
	b.rows = nil
	b.targetDate = ""
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.mu.Unlock()

	err := m.flush(ctx, t, rows, date)

	b.mu.Lock()
	if err == nil {
		b.lastFlush = time.Now()
	}
	b.mu.Unlock()

	if err != nil {
		return fmt.Errorf("writebuffer: flush %s: %w", t, err)
	}
	return nil
}

// FlushAll flushes every type that currently holds buffered rows. A
// failure on one type does not prevent attempts on the others; all errors
// are joined and returned together.
func (m *Manager) FlushAll(ctx context.Context) error {
	m.mu.Lock()
	types := make([]schema.LogType, 0, len(m.buffers))
	for t := range m.buffers {
		types = append(types, t)
	}
	m.mu.Unlock()

	var errs []error
	for _, t := range types {
		if err := m.Flush(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clear drops all buffered rows for every type without flushing them,
// cancelling any pending debounce timers.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.buffers {
		b.mu.Lock()
		if b.timer != nil {
			b.timer.Stop()
			b.timer = nil
		}
		b.rows = nil
		b.targetDate = ""
		b.mu.Unlock()
	}
}

// Stats returns a snapshot of every type buffer currently tracked.
func (m *Manager) Stats() []Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Stats, 0, len(m.buffers))
	for t, b := range m.buffers {
		b.mu.Lock()
		out = append(out, Stats{
			Type:       t,
			BufferSize: len(b.rows),
			LastFlush:  b.lastFlush,
			TargetDate: b.targetDate,
		})
		b.mu.Unlock()
	}
	return out
}
