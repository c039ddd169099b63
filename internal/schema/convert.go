// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package schema

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// RecordToRow normalizes a producer-supplied record into a Row: every
// declared field is present (nil for an absent nullable field), fields not
// declared in the schema are dropped, and field order is implied by the
// schema rather than by the map (Go maps have none).
func RecordToRow(t LogType, record Record) (Row, error) {
	fields, err := Fields(t)
	if err != nil {
		return nil, err
	}

	row := make(Row, len(fields))
	for _, f := range fields {
		v, present := record[f.Name]
		if !present || v == nil {
			if !f.Nullable {
				return nil, fmt.Errorf("schema: field %q is required for %q", f.Name, t)
			}
			row[f.Name] = nil
			continue
		}
		row[f.Name] = v
	}

	if usesStableID(t) {
		if id, ok := row["id"].(string); !ok || id == "" {
			row["id"] = NewID()
		}
	}

	return row, nil
}

// RowToRecord maps a Row back to the record shape callers expect. Absent or
// null optional fields surface as "undefined" — represented here as the key
// being omitted from the returned map, matching the tie-break rule's
// caller-facing contract.
func RowToRecord(t LogType, row Row) (Record, error) {
	fields, err := Fields(t)
	if err != nil {
		return nil, err
	}

	record := make(Record, len(fields))
	for _, f := range fields {
		v, ok := row[f.Name]
		if !ok || v == nil {
			if f.Nullable {
				continue
			}
			return nil, fmt.Errorf("schema: required field %q missing for %q", f.Name, t)
		}
		record[f.Name] = v
	}
	return record, nil
}

// NewID assigns a fresh unique string id for records of log types that
// don't carry a stable caller-supplied id. Uniqueness is over all ids ever
// generated within the process lifetime, grounded on the teacher's
// uuid.New().String() entry-ID generation in its write-ahead log.
func NewID() string {
	return uuid.New().String()
}

var filenamePattern = regexp.MustCompile(`^pleno-logs-([a-z0-9-]+)-(\d{4}-\d{2}-\d{2})\.parquet$`)

// Filename returns the on-disk partition filename for (type, date), where
// date is a UTC calendar date in YYYY-MM-DD form.
func Filename(t LogType, date string) string {
	return fmt.Sprintf("pleno-logs-%s-%s.parquet", t, date)
}

// ParseFilename reverses Filename, failing on anything the engine wouldn't
// itself have emitted.
func ParseFilename(name string) (t LogType, date string, err error) {
	m := filenamePattern.FindStringSubmatch(name)
	if m == nil {
		return "", "", fmt.Errorf("schema: %q is not a valid partition filename", name)
	}
	candidate := LogType(m[1])
	if !IsValid(candidate) {
		return "", "", fmt.Errorf("schema: %q is not a registered log type", m[1])
	}
	return candidate, m[2], nil
}

// RiskLevel is the closed set of values domain-risk-profiles.riskLevel may
// take.
type RiskLevel string

const (
	RiskCritical RiskLevel = "critical"
	RiskHigh     RiskLevel = "high"
	RiskMedium   RiskLevel = "medium"
	RiskLow      RiskLevel = "low"
)

// timestampField returns the field whose value anchors a row to a calendar
// date for partitioning. Most types carry a literal "timestamp"; the
// *-profiles family uses whichever field marks when the profile was struck.
func timestampField(t LogType) string {
	switch t {
	case DomainRiskProfiles:
		return "profiledAt"
	case ServiceInventory:
		return "firstSeen"
	default:
		return "timestamp"
	}
}

// RowDate returns the UTC calendar date ("YYYY-MM-DD") a row belongs to,
// read from its type's timestamp-bearing field. The field is either an
// RFC3339 string or an int64 epoch-millisecond value, per the field's
// declared FieldType in Registry.
func RowDate(t LogType, row Row) (string, error) {
	fields, err := Fields(t)
	if err != nil {
		return "", err
	}

	name := timestampField(t)
	var fieldType FieldType
	found := false
	for _, f := range fields {
		if f.Name == name {
			fieldType = f.Type
			found = true
			break
		}
	}
	if !found {
		return "", fmt.Errorf("schema: %q has no timestamp-bearing field", t)
	}

	v, ok := row[name]
	if !ok || v == nil {
		return "", fmt.Errorf("schema: row missing required field %q for %q", name, t)
	}

	switch fieldType {
	case TypeString:
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("schema: field %q of %q is not a string", name, t)
		}
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return "", fmt.Errorf("schema: field %q of %q is not RFC3339: %w", name, t, err)
		}
		return ts.UTC().Format("2006-01-02"), nil
	case TypeInt64:
		ms, err := toInt64(v)
		if err != nil {
			return "", fmt.Errorf("schema: field %q of %q: %w", name, t, err)
		}
		return time.UnixMilli(ms).UTC().Format("2006-01-02"), nil
	default:
		return "", fmt.Errorf("schema: field %q of %q has unsupported timestamp type %q", name, t, fieldType)
	}
}

// toInt64 accepts the handful of numeric representations that may arrive
// through a JSON-decoded or directly-constructed Row for an int64 field.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("value %v (%T) is not numeric", v, v)
	}
}

// DeriveRiskLevel implements the domain-risk-profiles riskLevel derivation
// from spec.md §6: critical if both NRD and typosquat, high if exactly one,
// medium if neither but the domain shows AI activity or sets cookies, else
// low.
func DeriveRiskLevel(isNRD, isTyposquat, hasAIActivity bool, cookieCount int32) RiskLevel {
	switch {
	case isNRD && isTyposquat:
		return RiskCritical
	case isNRD || isTyposquat:
		return RiskHigh
	case hasAIActivity || cookieCount > 0:
		return RiskMedium
	default:
		return RiskLow
	}
}
