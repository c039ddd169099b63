// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package writebuffer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plenoaudit/logengine/internal/config"
	"github.com/plenoaudit/logengine/internal/schema"
)

func testCfg() config.BufferConfig {
	return config.BufferConfig{
		FlushSize:       3,
		FlushInterval:   50 * time.Millisecond,
		MaxBufferedRows: 1000,
	}
}

type recordedFlush struct {
	Type schema.LogType
	Rows []schema.Row
	Date string
}

type flushRecorder struct {
	mu    sync.Mutex
	calls []recordedFlush
	err   error
}

func (r *flushRecorder) fn(_ context.Context, t schema.LogType, rows []schema.Row, date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedFlush{Type: t, Rows: append([]schema.Row{}, rows...), Date: date})
	return r.err
}

func (r *flushRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func row(i int) schema.Row {
	return schema.Row{
		"domain":    "example.com",
		"n":         i,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
}

func rowOnDate(date string) schema.Row {
	return schema.Row{
		"domain":    "example.com",
		"timestamp": date + "T00:00:00Z",
	}
}

func TestManager_SizeThresholdTriggersSynchronousFlush(t *testing.T) {
	rec := &flushRecorder{}
	m := NewManager(testCfg(), rec.fn, nil)

	err := m.Add(context.Background(), schema.NetworkRequests, []schema.Row{row(1), row(2), row(3)})
	require.NoError(t, err)

	assert.Equal(t, 1, rec.count())
	assert.Len(t, rec.calls[0].Rows, 3)
	assert.NotEmpty(t, rec.calls[0].Date)
}

func TestManager_DebounceTimerFlushesAfterInterval(t *testing.T) {
	rec := &flushRecorder{}
	m := NewManager(testCfg(), rec.fn, nil)

	err := m.Add(context.Background(), schema.NetworkRequests, []schema.Row{row(1)})
	require.NoError(t, err)
	assert.Equal(t, 0, rec.count())

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Len(t, rec.calls[0].Rows, 1)
}

func TestManager_ReAddResetsDebounceTimer(t *testing.T) {
	rec := &flushRecorder{}
	cfg := testCfg()
	cfg.FlushInterval = 100 * time.Millisecond
	m := NewManager(cfg, rec.fn, nil)

	require.NoError(t, m.Add(context.Background(), schema.NetworkRequests, []schema.Row{row(1)}))
	time.Sleep(60 * time.Millisecond)
	require.NoError(t, m.Add(context.Background(), schema.NetworkRequests, []schema.Row{row(2)}))

	// Had the first timer not been cancelled, it would have fired ~100ms
	// after the first Add, i.e. ~40ms from now; assert it did not.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, rec.count())

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Len(t, rec.calls[0].Rows, 2)
}

func TestManager_FlushNoopOnEmptyBuffer(t *testing.T) {
	rec := &flushRecorder{}
	m := NewManager(testCfg(), rec.fn, nil)

	require.NoError(t, m.Flush(context.Background(), schema.Events))
	assert.Equal(t, 0, rec.count())
}

func TestManager_FlushAllCoversEveryType(t *testing.T) {
	rec := &flushRecorder{}
	m := NewManager(testCfg(), rec.fn, nil)

	require.NoError(t, m.Add(context.Background(), schema.NetworkRequests, []schema.Row{row(1)}))
	require.NoError(t, m.Add(context.Background(), schema.Events, []schema.Row{row(2)}))

	require.NoError(t, m.FlushAll(context.Background()))
	assert.Equal(t, 2, rec.count())
}

func TestManager_FlushAllContinuesPastErrors(t *testing.T) {
	var calls atomic.Int32
	failing := errors.New("kv unavailable")
	fn := func(_ context.Context, t schema.LogType, rows []schema.Row, date string) error {
		calls.Add(1)
		if t == schema.NetworkRequests {
			return failing
		}
		return nil
	}
	m := NewManager(testCfg(), fn, nil)

	require.NoError(t, m.Add(context.Background(), schema.NetworkRequests, []schema.Row{row(1)}))
	require.NoError(t, m.Add(context.Background(), schema.Events, []schema.Row{row(2)}))

	err := m.FlushAll(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, failing))
	assert.EqualValues(t, 2, calls.Load())
}

func TestManager_ClearDropsBufferedRowsWithoutFlushing(t *testing.T) {
	rec := &flushRecorder{}
	cfg := testCfg()
	cfg.FlushInterval = 20 * time.Millisecond
	m := NewManager(cfg, rec.fn, nil)

	require.NoError(t, m.Add(context.Background(), schema.NetworkRequests, []schema.Row{row(1)}))
	m.Clear()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
}

func TestManager_StatsReportsBufferState(t *testing.T) {
	rec := &flushRecorder{}
	cfg := testCfg()
	cfg.FlushSize = 100
	m := NewManager(cfg, rec.fn, nil)

	require.NoError(t, m.Add(context.Background(), schema.NetworkRequests, []schema.Row{row(1), row(2)}))

	stats := m.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, schema.NetworkRequests, stats[0].Type)
	assert.Equal(t, 2, stats[0].BufferSize)
	assert.NotEmpty(t, stats[0].TargetDate)
}

func TestManager_HistoricalDateFlushesImmediatelyBypassingBuffer(t *testing.T) {
	rec := &flushRecorder{}
	m := NewManager(testCfg(), rec.fn, nil)

	require.NoError(t, m.Add(context.Background(), schema.NetworkRequests, []schema.Row{rowOnDate("2024-01-01")}))

	assert.Equal(t, 1, rec.count())
	assert.Equal(t, "2024-01-01", rec.calls[0].Date)
	assert.Empty(t, m.Stats())
}

func TestManager_BatchSpanningTwoDatesFlushesBothSeparately(t *testing.T) {
	rec := &flushRecorder{}
	m := NewManager(testCfg(), rec.fn, nil)

	rows := make([]schema.Row, 0, 100)
	for i := 0; i < 50; i++ {
		rows = append(rows, rowOnDate("2024-01-01"))
	}
	for i := 0; i < 50; i++ {
		rows = append(rows, rowOnDate("2024-01-02"))
	}

	require.NoError(t, m.Add(context.Background(), schema.NetworkRequests, rows))

	require.Equal(t, 2, rec.count())
	assert.Equal(t, "2024-01-01", rec.calls[0].Date)
	assert.Len(t, rec.calls[0].Rows, 50)
	assert.Equal(t, "2024-01-02", rec.calls[1].Date)
	assert.Len(t, rec.calls[1].Rows, 50)
}

func TestManager_SerializerWrapsDebounceTriggeredFlushOnly(t *testing.T) {
	rec := &flushRecorder{}
	cfg := testCfg()
	cfg.FlushInterval = 20 * time.Millisecond
	m := NewManager(cfg, rec.fn, nil)

	var wrapped atomic.Int32
	m.SetSerializer(func(fn func() error) error {
		wrapped.Add(1)
		return fn()
	})

	// Size-threshold flush: runs inline, must NOT go through the serializer.
	require.NoError(t, m.Add(context.Background(), schema.NetworkRequests, []schema.Row{row(1), row(2), row(3)}))
	assert.Equal(t, 1, rec.count())
	assert.EqualValues(t, 0, wrapped.Load())

	// Debounce-timer flush: must go through the serializer.
	require.NoError(t, m.Add(context.Background(), schema.Events, []schema.Row{row(4)}))
	require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 1, wrapped.Load())
}

func TestManager_InFlightFlushDoesNotObserveLaterAdds(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	var seen atomic.Int32
	fn := func(_ context.Context, _ schema.LogType, rows []schema.Row, _ string) error {
		seen.Store(int32(len(rows)))
		close(entered)
		<-release
		return nil
	}
	m := NewManager(testCfg(), fn, nil)

	done := make(chan error, 1)
	go func() {
		done <- m.Add(context.Background(), schema.NetworkRequests, []schema.Row{row(1), row(2), row(3)})
	}()

	<-entered
	// The flush already took ownership of rows 1-3; this Add lands in a
	// fresh buffer that the in-flight flush cannot observe.
	require.NoError(t, m.Add(context.Background(), schema.NetworkRequests, []schema.Row{row(4)}))

	stats := m.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].BufferSize)

	close(release)
	require.NoError(t, <-done)
	assert.EqualValues(t, 3, seen.Load())
}
