// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plenoaudit/logengine/internal/codec"
	"github.com/plenoaudit/logengine/internal/kvstore"
	"github.com/plenoaudit/logengine/internal/schema"
	"github.com/plenoaudit/logengine/internal/statscache"
)

type fakeSource struct {
	byType map[schema.LogType][]kvstore.Record
}

func (f *fakeSource) ListByDateRange(t schema.LogType, startDate, endDate string) ([]kvstore.Record, error) {
	var out []kvstore.Record
	for _, r := range f.byType[t] {
		if r.Date >= startDate && r.Date <= endDate {
			out = append(out, r)
		}
	}
	return out, nil
}

func mustEncode(t *testing.T, typ schema.LogType, rows []schema.Row) []byte {
	t.Helper()
	data, err := codec.Encode(typ, rows)
	require.NoError(t, err)
	return data
}

func networkRow(domain, ts string) schema.Row {
	return schema.Row{
		"timestamp":    ts,
		"pageUrl":      "https://" + domain + "/",
		"url":          "https://cdn.example.com/x.js",
		"method":       "GET",
		"initiator":    "script",
		"domain":       domain,
		"resourceType": "script",
	}
}

func eventRow(typ, domain string, tsMs int64) schema.Row {
	return schema.Row{
		"id":        "evt-1",
		"type":      typ,
		"domain":    domain,
		"timestamp": tsMs,
		"details":   "{}",
	}
}

func TestEngine_FiltersByDomainAndWindow(t *testing.T) {
	rows := []schema.Row{
		networkRow("a.com", "2026-07-15T10:00:00Z"),
		networkRow("b.com", "2026-07-15T11:00:00Z"),
		networkRow("a.com", "2026-07-16T09:00:00Z"),
	}
	source := &fakeSource{byType: map[schema.LogType][]kvstore.Record{
		schema.NetworkRequests: {
			{Key: "network-requests-2026-07-15", Type: schema.NetworkRequests, Date: "2026-07-15", Blob: mustEncode(t, schema.NetworkRequests, rows[:2])},
			{Key: "network-requests-2026-07-16", Type: schema.NetworkRequests, Date: "2026-07-16", Blob: mustEncode(t, schema.NetworkRequests, rows[2:])},
		},
	}}

	e := NewEngine(source, nil)
	since := mustMs(t, "2026-07-15T00:00:00Z")
	until := mustMs(t, "2026-07-17T00:00:00Z")

	result, err := e.Run(context.Background(), schema.NetworkRequests, Options{
		Window:    Window{SinceMs: since, UntilMs: until},
		StartDate: "2026-07-15",
		EndDate:   "2026-07-16",
		Domain:    "a.com",
		Limit:     -1,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	for _, row := range result.Data {
		assert.Equal(t, "a.com", row["domain"])
	}
}

func TestEngine_SortsDescendingByTimestamp(t *testing.T) {
	rows := []schema.Row{
		networkRow("a.com", "2026-07-15T10:00:00Z"),
		networkRow("a.com", "2026-07-15T12:00:00Z"),
		networkRow("a.com", "2026-07-15T08:00:00Z"),
	}
	source := &fakeSource{byType: map[schema.LogType][]kvstore.Record{
		schema.NetworkRequests: {
			{Key: "network-requests-2026-07-15", Type: schema.NetworkRequests, Date: "2026-07-15", Blob: mustEncode(t, schema.NetworkRequests, rows)},
		},
	}}

	e := NewEngine(source, nil)
	result, err := e.Run(context.Background(), schema.NetworkRequests, Options{
		Window:    Window{SinceMs: 0, UntilMs: mustMs(t, "2026-12-31T00:00:00Z")},
		StartDate: "2026-07-15",
		EndDate:   "2026-07-15",
		Limit:     -1,
	})
	require.NoError(t, err)
	require.Len(t, result.Data, 3)
	assert.Equal(t, "2026-07-15T12:00:00Z", result.Data[0]["timestamp"])
	assert.Equal(t, "2026-07-15T10:00:00Z", result.Data[1]["timestamp"])
	assert.Equal(t, "2026-07-15T08:00:00Z", result.Data[2]["timestamp"])
}

func TestEngine_PaginatesWithHasMore(t *testing.T) {
	var rows []schema.Row
	for i := 0; i < 5; i++ {
		rows = append(rows, networkRow("a.com", "2026-07-15T10:00:00Z"))
	}
	source := &fakeSource{byType: map[schema.LogType][]kvstore.Record{
		schema.NetworkRequests: {
			{Key: "k", Type: schema.NetworkRequests, Date: "2026-07-15", Blob: mustEncode(t, schema.NetworkRequests, rows)},
		},
	}}

	e := NewEngine(source, nil)
	result, err := e.Run(context.Background(), schema.NetworkRequests, Options{
		Window:    Window{SinceMs: 0, UntilMs: mustMs(t, "2026-12-31T00:00:00Z")},
		StartDate: "2026-07-15",
		EndDate:   "2026-07-15",
		Limit:     2,
		Offset:    1,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, result.Total)
	assert.Len(t, result.Data, 2)
	assert.True(t, result.HasMore)
}

func TestEngine_EventsFilterByType(t *testing.T) {
	rows := []schema.Row{
		eventRow("login", "a.com", 1000),
		eventRow("logout", "a.com", 2000),
	}
	source := &fakeSource{byType: map[schema.LogType][]kvstore.Record{
		schema.Events: {
			{Key: "k", Type: schema.Events, Date: "2026-07-15", Blob: mustEncode(t, schema.Events, rows)},
		},
	}}

	e := NewEngine(source, nil)
	result, err := e.Run(context.Background(), schema.Events, Options{
		Window:    Window{SinceMs: 0, UntilMs: 3000},
		StartDate: "2026-07-15",
		EndDate:   "2026-07-15",
		EventType: "login",
		Limit:     -1,
	})
	require.NoError(t, err)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "login", result.Data[0]["type"])
}

type fakeStats struct {
	stats map[string]statscache.PartitionStats
}

func (f *fakeStats) Get(key string) (statscache.PartitionStats, bool) {
	s, ok := f.stats[key]
	return s, ok
}

func TestEngine_SkipsPartitionByStatsPushdown(t *testing.T) {
	rows := []schema.Row{networkRow("z.com", "2026-07-15T10:00:00Z")}
	source := &fakeSource{byType: map[schema.LogType][]kvstore.Record{
		schema.NetworkRequests: {
			{Key: "k", Type: schema.NetworkRequests, Date: "2026-07-15", Blob: mustEncode(t, schema.NetworkRequests, rows)},
		},
	}}
	stats := &fakeStats{stats: map[string]statscache.PartitionStats{
		"k": {Columns: map[string]statscache.ColumnStats{
			"domain": {Min: "a.com", Max: "a.com"},
		}},
	}}

	e := NewEngine(source, stats)
	result, err := e.Run(context.Background(), schema.NetworkRequests, Options{
		Window:     Window{SinceMs: 0, UntilMs: mustMs(t, "2026-12-31T00:00:00Z")},
		StartDate:  "2026-07-15",
		EndDate:    "2026-07-15",
		Limit:      -1,
		Predicates: []statscache.Predicate{{Column: "domain", Op: statscache.OpEq, Value: "z.com"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
}

func TestEngine_RunMultiUnionsTypes(t *testing.T) {
	csp := []schema.Row{
		{"timestamp": "2026-07-15T10:00:00Z", "pageUrl": "https://a.com/", "directive": "script-src", "blockedURL": "https://evil.com/x.js", "domain": "a.com"},
	}
	requests := []schema.Row{networkRow("b.com", "2026-07-15T09:00:00Z")}

	source := &fakeSource{byType: map[schema.LogType][]kvstore.Record{
		schema.CSPViolations:   {{Key: "csp", Type: schema.CSPViolations, Date: "2026-07-15", Blob: mustEncode(t, schema.CSPViolations, csp)}},
		schema.NetworkRequests: {{Key: "req", Type: schema.NetworkRequests, Date: "2026-07-15", Blob: mustEncode(t, schema.NetworkRequests, requests)}},
	}}

	e := NewEngine(source, nil)
	result, err := e.RunMulti(context.Background(), []schema.LogType{schema.CSPViolations, schema.NetworkRequests}, Options{
		Window:    Window{SinceMs: 0, UntilMs: mustMs(t, "2026-12-31T00:00:00Z")},
		StartDate: "2026-07-15",
		EndDate:   "2026-07-15",
		Limit:     -1,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
}

func TestEngine_UniqueDomainsSortedAcrossTypes(t *testing.T) {
	csp := []schema.Row{
		{"timestamp": "2026-07-15T10:00:00Z", "pageUrl": "x", "directive": "x", "blockedURL": "x", "domain": "zeta.com"},
	}
	requests := []schema.Row{networkRow("alpha.com", "2026-07-15T09:00:00Z")}

	source := &fakeSource{byType: map[schema.LogType][]kvstore.Record{
		schema.CSPViolations:   {{Key: "csp", Type: schema.CSPViolations, Date: "2026-07-15", Blob: mustEncode(t, schema.CSPViolations, csp)}},
		schema.NetworkRequests: {{Key: "req", Type: schema.NetworkRequests, Date: "2026-07-15", Blob: mustEncode(t, schema.NetworkRequests, requests)}},
	}}

	e := NewEngine(source, nil)
	domains, err := e.UniqueDomains(context.Background(), Window{SinceMs: 0, UntilMs: mustMs(t, "2026-12-31T00:00:00Z")}, "2026-07-15", "2026-07-15")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha.com", "zeta.com"}, domains)
}

func mustMs(t *testing.T, s string) int64 {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts.UnixMilli()
}

func TestResolveWindow_DefaultsUntilNowAndSinceThirtyDaysBack(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	w, start, end := ResolveWindow(nil, nil, now)

	assert.Equal(t, now.UnixMilli(), w.UntilMs)
	assert.Equal(t, now.Add(-DefaultWindow).UnixMilli(), w.SinceMs)
	assert.Equal(t, "2026-07-30", end)
	assert.Equal(t, "2026-06-30", start)
}

func TestParseTimeArg(t *testing.T) {
	ms, ok := ParseTimeArg(int64(1700000000000))
	require.True(t, ok)
	assert.Equal(t, int64(1700000000000), ms)

	ms, ok = ParseTimeArg("2026-07-15T10:00:00Z")
	require.True(t, ok)
	assert.Equal(t, mustMs(t, "2026-07-15T10:00:00Z"), ms)

	_, ok = ParseTimeArg(nil)
	assert.False(t, ok)
}
