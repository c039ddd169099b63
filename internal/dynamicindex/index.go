// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package dynamicindex

import (
	"github.com/plenoaudit/logengine/internal/schema"
)

// Window identifies the (since, until) millisecond range an index was
// built for.
type Window struct {
	Since int64
	Until int64
}

// Index is the per-query-window inverted index and aggregate counts
// described in spec §4.7.
type Index struct {
	Window Window

	CSPByDomain      map[string][]int
	RequestsByDomain map[string][]int
	EventsByType     map[string][]int

	TotalRecords int
	ByType       map[schema.LogType]int
	ByDomain     map[string]int
}

// Build constructs an Index for window from pre-decoded row lists. cspRows
// and requestRows are indexed by "domain"; eventRows are indexed by
// "type". ByDomain sums CSP and request occurrences of each domain.
func Build(window Window, cspRows, requestRows, eventRows []schema.Row) *Index {
	idx := &Index{
		Window:           window,
		CSPByDomain:      make(map[string][]int),
		RequestsByDomain: make(map[string][]int),
		EventsByType:     make(map[string][]int),
		ByType:           make(map[schema.LogType]int),
		ByDomain:         make(map[string]int),
	}

	for i, row := range cspRows {
		domain, _ := row["domain"].(string)
		if domain == "" {
			continue
		}
		idx.CSPByDomain[domain] = append(idx.CSPByDomain[domain], i)
		idx.ByDomain[domain]++
	}
	idx.ByType[schema.CSPViolations] = len(cspRows)

	for i, row := range requestRows {
		domain, _ := row["domain"].(string)
		if domain == "" {
			continue
		}
		idx.RequestsByDomain[domain] = append(idx.RequestsByDomain[domain], i)
		idx.ByDomain[domain]++
	}
	idx.ByType[schema.NetworkRequests] = len(requestRows)

	for i, row := range eventRows {
		typ, _ := row["type"].(string)
		if typ == "" {
			continue
		}
		idx.EventsByType[typ] = append(idx.EventsByType[typ], i)
	}
	idx.ByType[schema.Events] = len(eventRows)

	idx.TotalRecords = len(cspRows) + len(requestRows) + len(eventRows)
	return idx
}
