// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package opsapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plenoaudit/logengine/internal/engine"
	"github.com/plenoaudit/logengine/internal/partition"
	"github.com/plenoaudit/logengine/internal/schema"
)

type fakeEngine struct {
	capacity    engine.CapacityInfo
	capacityErr error
	stats       partition.Stats
	monthly     partition.MonthlyStats
}

func (f *fakeEngine) GetCapacityInfo(ctx context.Context) (engine.CapacityInfo, error) {
	return f.capacity, f.capacityErr
}

func (f *fakeEngine) GetPartitionStats(ctx context.Context) partition.Stats {
	return f.stats
}

func (f *fakeEngine) GetMonthlyStats(ctx context.Context) partition.MonthlyStats {
	return f.monthly
}

func TestRouter_HealthzReportsOK(t *testing.T) {
	r := NewRouter(&fakeEngine{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRouter_MetricsServesPrometheusExposition(t *testing.T) {
	r := NewRouter(&fakeEngine{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# HELP")
}

func TestRouter_CapacityReturnsEngineInfo(t *testing.T) {
	fe := &fakeEngine{capacity: engine.CapacityInfo{UsedBytes: 1024, MaxBytes: 2048, IsWarning: true}}
	r := NewRouter(fe, nil)

	req := httptest.NewRequest(http.MethodGet, "/capacity", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"UsedBytes":1024`)
}

func TestRouter_CapacityPropagatesEngineErrorAs500(t *testing.T) {
	fe := &fakeEngine{capacityErr: assert.AnError}
	r := NewRouter(fe, nil)

	req := httptest.NewRequest(http.MethodGet, "/capacity", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"error"`)
}

func TestRouter_PartitionsReturnsAggregateStats(t *testing.T) {
	fe := &fakeEngine{stats: partition.Stats{
		TotalPartitions: 3,
		TotalRecords:    42,
		ByType:          map[schema.LogType]int{schema.CSPViolations: 3},
	}}
	r := NewRouter(fe, nil)

	req := httptest.NewRequest(http.MethodGet, "/partitions", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"TotalRecords":42`)
}

func TestRouter_PartitionsMonthlyReturnsGroupedStats(t *testing.T) {
	fe := &fakeEngine{monthly: partition.MonthlyStats{
		"2026-01": partition.Stats{TotalPartitions: 1},
	}}
	r := NewRouter(fe, nil)

	req := httptest.NewRequest(http.MethodGet, "/partitions/monthly", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"2026-01"`)
}
