// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package circuit

import (
	"errors"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plenoaudit/logengine/internal/config"
	"github.com/plenoaudit/logengine/internal/kvstore"
	"github.com/plenoaudit/logengine/internal/schema"
)

var errBackend = errors.New("backend unavailable")

type failingKV struct {
	failLoad int
	loads    int
}

func (f *failingKV) Init() error { return nil }
func (f *failingKV) Save(kvstore.Record) error { return nil }

func (f *failingKV) Load(key string) (kvstore.Record, error) {
	f.loads++
	if f.loads <= f.failLoad {
		return kvstore.Record{}, errBackend
	}
	return kvstore.Record{Key: key}, nil
}

func (f *failingKV) ListByType(schema.LogType) ([]kvstore.Record, error)             { return nil, nil }
func (f *failingKV) ListByDateRange(schema.LogType, string, string) ([]kvstore.Record, error) {
	return nil, nil
}
func (f *failingKV) Delete(string) error                      { return nil }
func (f *failingKV) DeleteBeforeDate(schema.LogType, string) (int, error) { return 0, nil }
func (f *failingKV) Clear() error                              { return nil }
func (f *failingKV) Size() (int64, error)                      { return 0, nil }
func (f *failingKV) RunGC(float64) error                       { return nil }
func (f *failingKV) Close() error                              { return nil }

func testCfg() config.CircuitConfig {
	return config.CircuitConfig{MaxFailures: 3, OpenTimeout: 50 * time.Millisecond, HalfOpenMax: 1}
}

func TestStore_PassesThroughSuccessfulCalls(t *testing.T) {
	s := Wrap(&failingKV{}, testCfg())
	rec, err := s.Load("k")
	require.NoError(t, err)
	assert.Equal(t, "k", rec.Key)
	assert.Equal(t, "closed", s.State())
}

func TestStore_OpensAfterConsecutiveFailuresAndFailsFast(t *testing.T) {
	inner := &failingKV{failLoad: 10}
	s := Wrap(inner, testCfg())

	for i := 0; i < 3; i++ {
		_, err := s.Load("k")
		require.ErrorIs(t, err, errBackend)
	}

	assert.Equal(t, "open", s.State())

	loadsBefore := inner.loads
	_, err := s.Load("k")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, loadsBefore, inner.loads, "open breaker must not invoke the backend")
}

func TestStore_RecoversAfterTimeout(t *testing.T) {
	inner := &failingKV{failLoad: 3}
	s := Wrap(inner, testCfg())

	for i := 0; i < 3; i++ {
		_, _ = s.Load("k")
	}
	require.Equal(t, "open", s.State())

	time.Sleep(60 * time.Millisecond)

	rec, err := s.Load("k")
	require.NoError(t, err)
	assert.Equal(t, "k", rec.Key)
	assert.Equal(t, "closed", s.State())
}
