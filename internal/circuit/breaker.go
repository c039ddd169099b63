// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package circuit

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/plenoaudit/logengine/internal/config"
	"github.com/plenoaudit/logengine/internal/kvstore"
	"github.com/plenoaudit/logengine/internal/logging"
	"github.com/plenoaudit/logengine/internal/metrics"
	"github.com/plenoaudit/logengine/internal/schema"
)

const breakerName = "kvstore"

// stateValue maps a gobreaker.State onto the metrics package's
// 0=closed/1=half-open/2=open gauge convention.
func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

// KVStore is the full blob KV adapter surface the engine depends on.
// kvstore.Store satisfies it.
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

// Store wraps a KVStore with a gobreaker circuit breaker, in the style of
// eventprocessor.NewCircuitBreaker: a single generic breaker instance over
// `any` covers every method's differing return shape rather than one
// breaker per method signature.
type Store struct {
	inner KVStore
	cb    *gobreaker.CircuitBreaker[any]
}

// Wrap builds a Store around inner using cfg's trip/recovery thresholds.
func Wrap(inner KVStore, cfg config.CircuitConfig) *Store {
	settings := gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.HalfOpenMax,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit: kvstore breaker state changed")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	}
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(stateValue(gobreaker.StateClosed))
	return &Store{inner: inner, cb: gobreaker.NewCircuitBreaker[any](settings)}
}

// State reports the breaker's current state ("closed", "open", "half-open").
func (s *Store) State() string {
	return s.cb.State().String()
}

// execute runs fn through the breaker under the given operation name,
// recording both a circuit-breaker outcome — "rejected" when the breaker
// itself short-circuited the call (open, or half-open over its request
// cap), "failure" when fn ran and returned an error, "success" otherwise —
// and the underlying KV backend call's duration and error count.
func execute[T any](s *Store, operation string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := s.cb.Execute(func() (any, error) { return fn() })
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
	case err != nil:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
		metrics.RecordKVOp(operation, time.Since(start), err)
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
		metrics.RecordKVOp(operation, time.Since(start), nil)
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (s *Store) Init() error {
	_, err := execute(s, "init", func() (any, error) { return nil, s.inner.Init() })
	return err
}

func (s *Store) Save(record kvstore.Record) error {
	_, err := execute(s, "save", func() (any, error) { return nil, s.inner.Save(record) })
	return err
}

func (s *Store) Load(key string) (kvstore.Record, error) {
	return execute(s, "load", func() (kvstore.Record, error) { return s.inner.Load(key) })
}

func (s *Store) ListByType(t schema.LogType) ([]kvstore.Record, error) {
	return execute(s, "list_by_type", func() ([]kvstore.Record, error) { return s.inner.ListByType(t) })
}

func (s *Store) ListByDateRange(t schema.LogType, startDate, endDate string) ([]kvstore.Record, error) {
	return execute(s, "list_by_date_range", func() ([]kvstore.Record, error) { return s.inner.ListByDateRange(t, startDate, endDate) })
}

func (s *Store) Delete(key string) error {
	_, err := execute(s, "delete", func() (any, error) { return nil, s.inner.Delete(key) })
	return err
}

func (s *Store) DeleteBeforeDate(t schema.LogType, beforeDate string) (int, error) {
	return execute(s, "delete_before_date", func() (int, error) { return s.inner.DeleteBeforeDate(t, beforeDate) })
}

func (s *Store) Clear() error {
	_, err := execute(s, "clear", func() (any, error) { return nil, s.inner.Clear() })
	return err
}

func (s *Store) Size() (int64, error) {
	return execute(s, "size", func() (int64, error) { return s.inner.Size() })
}

func (s *Store) RunGC(discardRatio float64) error {
	_, err := execute(s, "gc", func() (any, error) { return nil, s.inner.RunGC(discardRatio) })
	return err
}

func (s *Store) Close() error {
	_, err := execute(s, "close", func() (any, error) { return nil, s.inner.Close() })
	return err
}
