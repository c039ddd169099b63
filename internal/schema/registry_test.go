// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllTypesAreValidAndHaveFields(t *testing.T) {
	for _, typ := range AllTypes() {
		assert.True(t, IsValid(typ), "type %q should be valid", typ)
		fields, err := Fields(typ)
		require.NoError(t, err)
		assert.NotEmpty(t, fields, "type %q should declare at least one field", typ)
	}
}

func TestIsValidRejectsUnknownType(t *testing.T) {
	assert.False(t, IsValid(LogType("not-a-real-type")))
}

func TestRecordToRowAssignsIDForEvents(t *testing.T) {
	row, err := RecordToRow(Events, Record{
		"type":      "click",
		"domain":    "example.com",
		"timestamp": int64(1700000000000),
		"details":   "{}",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, row["id"])
}

func TestRecordToRowPreservesCallerSuppliedID(t *testing.T) {
	row, err := RecordToRow(Events, Record{
		"id":        "caller-assigned",
		"type":      "click",
		"domain":    "example.com",
		"timestamp": int64(1700000000000),
		"details":   "{}",
	})
	require.NoError(t, err)
	assert.Equal(t, "caller-assigned", row["id"])
}

func TestRecordToRowRejectsMissingRequiredField(t *testing.T) {
	_, err := RecordToRow(CSPViolations, Record{
		"timestamp": "2026-01-01T00:00:00Z",
	})
	require.Error(t, err)
}

func TestRecordToRowNullableFieldDefaultsToNil(t *testing.T) {
	row, err := RecordToRow(CSPViolations, Record{
		"timestamp":  "2026-01-01T00:00:00Z",
		"pageUrl":    "https://example.com",
		"directive":  "script-src",
		"blockedURL": "https://evil.example",
		"domain":     "example.com",
	})
	require.NoError(t, err)
	assert.Nil(t, row["disposition"])
}

func TestRowToRecordRoundTrip(t *testing.T) {
	record := Record{
		"timestamp":  "2026-01-01T00:00:00Z",
		"pageUrl":    "https://example.com",
		"directive":  "script-src",
		"blockedURL": "https://evil.example",
		"domain":     "example.com",
	}
	row, err := RecordToRow(CSPViolations, record)
	require.NoError(t, err)

	back, err := RowToRecord(CSPViolations, row)
	require.NoError(t, err)
	assert.Equal(t, record, back)
}

func TestFilenameRoundTrip(t *testing.T) {
	name := Filename(NetworkRequests, "2026-03-15")
	assert.Equal(t, "pleno-logs-network-requests-2026-03-15.parquet", name)

	typ, date, err := ParseFilename(name)
	require.NoError(t, err)
	assert.Equal(t, NetworkRequests, typ)
	assert.Equal(t, "2026-03-15", date)
}

func TestParseFilenameRejectsGarbage(t *testing.T) {
	_, _, err := ParseFilename("not-a-partition-file.txt")
	assert.Error(t, err)

	_, _, err = ParseFilename("pleno-logs-not-a-type-2026-03-15.parquet")
	assert.Error(t, err)
}

func TestDeriveRiskLevel(t *testing.T) {
	assert.Equal(t, RiskCritical, DeriveRiskLevel(true, true, false, 0))
	assert.Equal(t, RiskHigh, DeriveRiskLevel(true, false, false, 0))
	assert.Equal(t, RiskHigh, DeriveRiskLevel(false, true, false, 0))
	assert.Equal(t, RiskMedium, DeriveRiskLevel(false, false, true, 0))
	assert.Equal(t, RiskMedium, DeriveRiskLevel(false, false, false, 3))
	assert.Equal(t, RiskLow, DeriveRiskLevel(false, false, false, 0))
}

func TestNewIDIsUnique(t *testing.T) {
	a := NewID()
	b := NewID()
	assert.NotEqual(t, a, b)
}
