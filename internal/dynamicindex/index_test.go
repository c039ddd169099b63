// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package dynamicindex

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plenoaudit/logengine/internal/schema"
)

func TestBuild_InvertsByDomainAndType(t *testing.T) {
	csp := []schema.Row{
		{"domain": "a.com"},
		{"domain": "b.com"},
		{"domain": "a.com"},
	}
	requests := []schema.Row{
		{"domain": "a.com"},
		{"domain": "c.com"},
	}
	events := []schema.Row{
		{"type": "login"},
		{"type": "login"},
		{"type": "logout"},
	}

	idx := Build(Window{Since: 1, Until: 2}, csp, requests, events)

	assert.Equal(t, []int{0, 2}, idx.CSPByDomain["a.com"])
	assert.Equal(t, []int{0}, idx.RequestsByDomain["a.com"])
	assert.Equal(t, []int{1}, idx.RequestsByDomain["c.com"])
	assert.Equal(t, []int{0, 1}, idx.EventsByType["login"])
	assert.Equal(t, []int{2}, idx.EventsByType["logout"])

	assert.Equal(t, 3, idx.ByDomain["a.com"])
	assert.Equal(t, 1, idx.ByDomain["b.com"])
	assert.Equal(t, 1, idx.ByDomain["c.com"])

	assert.Equal(t, 3, idx.ByType[schema.CSPViolations])
	assert.Equal(t, 2, idx.ByType[schema.NetworkRequests])
	assert.Equal(t, 3, idx.ByType[schema.Events])

	assert.Equal(t, 8, idx.TotalRecords)
}

func TestBuild_EmptyRowsProducesEmptyIndex(t *testing.T) {
	idx := Build(Window{Since: 1, Until: 2}, nil, nil, nil)
	assert.Zero(t, idx.TotalRecords)
	assert.Empty(t, idx.CSPByDomain)
	assert.Empty(t, idx.ByDomain)
}

func TestBuild_SkipsRowsMissingKeyField(t *testing.T) {
	csp := []schema.Row{{"domain": nil}, {"other": "x"}}
	idx := Build(Window{Since: 1, Until: 2}, csp, nil, nil)
	assert.Empty(t, idx.CSPByDomain)
	assert.Equal(t, 2, idx.ByType[schema.CSPViolations])
}
