// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package engine

import (
	"context"
	"time"

	"github.com/plenoaudit/logengine/internal/dynamicindex"
	"github.com/plenoaudit/logengine/internal/metrics"
	"github.com/plenoaudit/logengine/internal/query"
	"github.com/plenoaudit/logengine/internal/schema"
)

// defaultQueryLimit and defaultNetworkRequestLimit are §6's consumer-API
// pagination defaults: 50 for most read operations, overridden to 500 for
// get_network_requests since network-request volume per page load is an
// order of magnitude higher than CSP violations or events.
const (
	defaultQueryLimit          = 50
	defaultNetworkRequestLimit = 500
)

// QueryParams is the shared filter/pagination shape every get_* read
// operation accepts. Since/Until take either an ISO-8601 string or an
// epoch-millisecond number (int/int64/float64), per §6; a nil value falls
// back to query.ResolveWindow's default 30-day lookback ending now. Limit
// of 0 means "use this method's own default"; -1 means unbounded.
type QueryParams struct {
	Since     any
	Until     any
	Domain    string
	EventType string
	Limit     int
	Offset    int
}

func (e *Engine) resolveOptions(p QueryParams, defaultLimit int) query.Options {
	var sincePtr, untilPtr *int64
	if ms, ok := query.ParseTimeArg(p.Since); ok {
		sincePtr = &ms
	}
	if ms, ok := query.ParseTimeArg(p.Until); ok {
		untilPtr = &ms
	}
	w, startDate, endDate := query.ResolveWindow(sincePtr, untilPtr, time.Now().UTC())

	limit := p.Limit
	if limit == 0 {
		limit = defaultLimit
	}

	return query.Options{
		Window: w, StartDate: startDate, EndDate: endDate,
		Domain: p.Domain, EventType: p.EventType,
		Limit: limit, Offset: p.Offset,
	}
}

// GetReports unions CSP violations and network requests into one
// newest-first page, per the query_reports pipeline (§4.8).
func (e *Engine) GetReports(ctx context.Context, p QueryParams) (query.Result, error) {
	opts := e.resolveOptions(p, defaultQueryLimit)
	opts.Operation = "get_reports"
	return e.query.RunMulti(ctx, []schema.LogType{schema.CSPViolations, schema.NetworkRequests}, opts)
}

// GetViolations returns CSP-violation records only.
func (e *Engine) GetViolations(ctx context.Context, p QueryParams) (query.Result, error) {
	opts := e.resolveOptions(p, defaultQueryLimit)
	opts.Operation = "get_violations"
	return e.query.Run(ctx, schema.CSPViolations, opts)
}

// GetNetworkRequests returns network-request records only, defaulting to a
// wider page than the other read operations.
func (e *Engine) GetNetworkRequests(ctx context.Context, p QueryParams) (query.Result, error) {
	opts := e.resolveOptions(p, defaultNetworkRequestLimit)
	opts.Operation = "get_network_requests"
	return e.query.Run(ctx, schema.NetworkRequests, opts)
}

// GetEvents returns event records, optionally filtered by EventType.
func (e *Engine) GetEvents(ctx context.Context, p QueryParams) (query.Result, error) {
	opts := e.resolveOptions(p, defaultQueryLimit)
	opts.Operation = "get_events"
	return e.query.Run(ctx, schema.Events, opts)
}

// GetUniqueDomains returns the sorted distinct set of "domain" values across
// CSP-violation and network-request partitions in the resolved window.
func (e *Engine) GetUniqueDomains(ctx context.Context, p QueryParams) ([]string, error) {
	opts := e.resolveOptions(p, -1)
	return e.query.UniqueDomains(ctx, opts.Window, opts.StartDate, opts.EndDate)
}

// StatsSnapshot is get_stats's documented return shape (§4.8): violations
// and requests are counts after decoding, and UniqueDomains is the
// cardinality of the union of domain values across both — it deliberately
// does not surface the internal dynamic index's event counts or its
// per-domain occurrence map, neither of which get_stats's contract names.
type StatsSnapshot struct {
	Violations    int
	Requests      int
	UniqueDomains int
}

// GetStats returns violations/requests/unique_domains over the resolved
// window, building (and caching) a dynamicindex.Index for that exact
// window on a cache miss.
func (e *Engine) GetStats(ctx context.Context, p QueryParams) (StatsSnapshot, error) {
	opts := e.resolveOptions(p, -1)
	window := dynamicindex.Window{Since: opts.Window.SinceMs, Until: opts.Window.UntilMs}

	idx, ok := e.dynIndex.Get(window)
	metrics.RecordCacheLookup("dynamic_index", ok)
	if !ok {
		built, err := e.buildIndex(ctx, opts)
		if err != nil {
			return StatsSnapshot{}, err
		}
		e.dynIndex.Set(built)
		idx = built
	}

	return StatsSnapshot{
		Violations:    idx.ByType[schema.CSPViolations],
		Requests:      idx.ByType[schema.NetworkRequests],
		UniqueDomains: len(idx.ByDomain),
	}, nil
}

func (e *Engine) buildIndex(ctx context.Context, opts query.Options) (*dynamicindex.Index, error) {
	unbounded := opts
	unbounded.Limit = -1
	unbounded.Offset = 0
	unbounded.Operation = "get_stats"

	cspResult, err := e.query.Run(ctx, schema.CSPViolations, unbounded)
	if err != nil {
		return nil, err
	}
	requestResult, err := e.query.Run(ctx, schema.NetworkRequests, unbounded)
	if err != nil {
		return nil, err
	}
	eventResult, err := e.query.Run(ctx, schema.Events, unbounded)
	if err != nil {
		return nil, err
	}

	window := dynamicindex.Window{Since: opts.Window.SinceMs, Until: opts.Window.UntilMs}
	return dynamicindex.Build(window, cspResult.Data, requestResult.Data, eventResult.Data), nil
}
