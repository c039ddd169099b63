// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package schema

// LogType is a closed enumeration of the kinds of records the engine
// accepts. The set is fixed at build time; there is no dynamic registration.
type LogType string

const (
	CSPViolations      LogType = "csp-violations"
	NetworkRequests    LogType = "network-requests"
	Events             LogType = "events"
	AIPrompts          LogType = "ai-prompts"
	Cookies            LogType = "cookies"
	LoginDetections    LogType = "login-detections"
	PrivacyPolicies    LogType = "privacy-policies"
	TermsOfService     LogType = "terms-of-service"
	NRDDetections      LogType = "nrd-detections"
	TyposquatDetections LogType = "typosquat-detections"
	DomainRiskProfiles LogType = "domain-risk-profiles"
	ServiceInventory   LogType = "service-inventory"
)

// FieldType is the semantic type of a schema field.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInt32   FieldType = "int32"
	TypeInt64   FieldType = "int64"
	TypeFloat64 FieldType = "float64"
	TypeBool    FieldType = "bool"
)

// Field describes one column of a log type's schema. Order within a
// schema's field list is stable and part of the on-disk contract: the
// codec encodes columns in this order and the query engine's column
// projection references fields by this name.
type Field struct {
	Name     string
	Type     FieldType
	Nullable bool
}

// Row is the normalized representation shared by the codec, write buffer,
// and query engine. Values are one of string, int32, int64, float64, bool,
// or nil (only legal for a Nullable field).
type Row map[string]any

// Record is the producer-facing representation accepted by write() and
// friends before normalization into a Row. It has the same shape as Row;
// the distinction is purely about which side of record_to_row/row_to_record
// a value sits on.
type Record map[string]any
