// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package schema

import "fmt"

// Registry maps each closed log type to its ordered field list. This is a
// fixed table, not an open interface: the set of keys never changes at
// runtime, mirroring the teacher's single CREATE TABLE statement being the
// one source of truth for a table's columns.
var Registry = map[LogType][]Field{
	CSPViolations: {
		{Name: "timestamp", Type: TypeString},
		{Name: "pageUrl", Type: TypeString},
		{Name: "directive", Type: TypeString},
		{Name: "blockedURL", Type: TypeString},
		{Name: "domain", Type: TypeString},
		{Name: "disposition", Type: TypeString, Nullable: true},
		{Name: "originalPolicy", Type: TypeString, Nullable: true},
		{Name: "sourceFile", Type: TypeString, Nullable: true},
		{Name: "lineNumber", Type: TypeInt32, Nullable: true},
		{Name: "columnNumber", Type: TypeInt32, Nullable: true},
		{Name: "statusCode", Type: TypeInt32, Nullable: true},
	},
	NetworkRequests: {
		{Name: "timestamp", Type: TypeString},
		{Name: "pageUrl", Type: TypeString},
		{Name: "url", Type: TypeString},
		{Name: "method", Type: TypeString},
		{Name: "initiator", Type: TypeString},
		{Name: "domain", Type: TypeString},
		{Name: "resourceType", Type: TypeString, Nullable: true},
	},
	Events: {
		{Name: "id", Type: TypeString},
		{Name: "type", Type: TypeString},
		{Name: "domain", Type: TypeString},
		{Name: "timestamp", Type: TypeInt64},
		{Name: "details", Type: TypeString},
	},
	AIPrompts: {
		{Name: "id", Type: TypeString},
		{Name: "domain", Type: TypeString},
		{Name: "provider", Type: TypeString},
		{Name: "timestamp", Type: TypeInt64},
		{Name: "prompt", Type: TypeString},
		{Name: "responseLength", Type: TypeInt32, Nullable: true},
	},
	Cookies: {
		{Name: "timestamp", Type: TypeString},
		{Name: "domain", Type: TypeString},
		{Name: "name", Type: TypeString},
		{Name: "value", Type: TypeString, Nullable: true},
		{Name: "secure", Type: TypeBool},
		{Name: "httpOnly", Type: TypeBool},
		{Name: "sameSite", Type: TypeString, Nullable: true},
		{Name: "expirationDate", Type: TypeFloat64, Nullable: true},
	},
	LoginDetections: {
		{Name: "timestamp", Type: TypeString},
		{Name: "pageUrl", Type: TypeString},
		{Name: "domain", Type: TypeString},
		{Name: "formAction", Type: TypeString, Nullable: true},
		{Name: "confidence", Type: TypeFloat64},
	},
	PrivacyPolicies: {
		{Name: "timestamp", Type: TypeString},
		{Name: "domain", Type: TypeString},
		{Name: "url", Type: TypeString},
		{Name: "contentHash", Type: TypeString, Nullable: true},
	},
	TermsOfService: {
		{Name: "timestamp", Type: TypeString},
		{Name: "domain", Type: TypeString},
		{Name: "url", Type: TypeString},
		{Name: "contentHash", Type: TypeString, Nullable: true},
	},
	NRDDetections: {
		{Name: "timestamp", Type: TypeString},
		{Name: "domain", Type: TypeString},
		{Name: "registrationDate", Type: TypeString, Nullable: true},
		{Name: "ageDays", Type: TypeInt32, Nullable: true},
	},
	TyposquatDetections: {
		{Name: "timestamp", Type: TypeString},
		{Name: "domain", Type: TypeString},
		{Name: "targetDomain", Type: TypeString},
		{Name: "distance", Type: TypeInt32},
	},
	DomainRiskProfiles: {
		{Name: "domain", Type: TypeString},
		{Name: "profiledAt", Type: TypeInt64},
		{Name: "isNRD", Type: TypeBool},
		{Name: "isTyposquat", Type: TypeBool},
		{Name: "hasLoginPage", Type: TypeBool},
		{Name: "hasPrivacyPolicy", Type: TypeBool},
		{Name: "hasTermsOfService", Type: TypeBool},
		{Name: "hasAIActivity", Type: TypeBool},
		{Name: "cookieCount", Type: TypeInt32},
		{Name: "faviconUrl", Type: TypeString, Nullable: true},
		{Name: "aiProviders", Type: TypeString, Nullable: true},
		{Name: "riskLevel", Type: TypeString},
	},
	// ServiceInventory is not given a field list in the excerpt (spec.md
	// calls it "non-exhaustive") — this is a supplemented schema consistent
	// with the *-profiles family, required because the registry must have
	// a concrete field list for every member of the closed enum.
	ServiceInventory: {
		{Name: "serviceName", Type: TypeString},
		{Name: "domain", Type: TypeString},
		{Name: "category", Type: TypeString, Nullable: true},
		{Name: "firstSeen", Type: TypeInt64},
		{Name: "lastSeen", Type: TypeInt64},
		{Name: "riskLevel", Type: TypeString, Nullable: true},
	},
}

// orderedTypes fixes an iteration order for callers (e.g. ApplyRetentionPolicy
// sweeping every type) that need determinism independent of Go's randomized
// map iteration.
var orderedTypes = []LogType{
	CSPViolations, NetworkRequests, Events, AIPrompts, Cookies,
	LoginDetections, PrivacyPolicies, TermsOfService, NRDDetections,
	TyposquatDetections, DomainRiskProfiles, ServiceInventory,
}

// AllTypes returns every registered log type in a fixed order.
func AllTypes() []LogType {
	out := make([]LogType, len(orderedTypes))
	copy(out, orderedTypes)
	return out
}

// IsValid reports whether t is a member of the closed log-type enum.
func IsValid(t LogType) bool {
	_, ok := Registry[t]
	return ok
}

// Fields returns the ordered field list for t, or an error if t isn't
// registered.
func Fields(t LogType) ([]Field, error) {
	fields, ok := Registry[t]
	if !ok {
		return nil, fmt.Errorf("schema: unknown log type %q", t)
	}
	return fields, nil
}

// usesStableID reports whether log type t carries a caller-supplied or
// registry-assigned stable "id" field, per spec.md's tie-break rule for
// events/ai-prompts.
func usesStableID(t LogType) bool {
	return t == Events || t == AIPrompts
}
