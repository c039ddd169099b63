// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package query

import (
	"strconv"
	"time"
)

const dayLayout = "2006-01-02"

// DefaultWindow is spec §4.8 step 1's fallback lookback when no since is
// supplied.
const DefaultWindow = 30 * 24 * time.Hour

// Window is a resolved [Since, Until] range in epoch milliseconds.
type Window struct {
	SinceMs int64
	UntilMs int64
}

// ResolveWindow implements spec §4.8 step 1: until defaults to now, since
// defaults to until minus DefaultWindow. It returns the millisecond window
// plus the UTC YYYY-MM-DD date strings used for the KV date-range lookup.
func ResolveWindow(sinceMs, untilMs *int64, now time.Time) (w Window, startDate, endDate string) {
	if untilMs != nil {
		w.UntilMs = *untilMs
	} else {
		w.UntilMs = now.UnixMilli()
	}

	if sinceMs != nil {
		w.SinceMs = *sinceMs
	} else {
		w.SinceMs = w.UntilMs - DefaultWindow.Milliseconds()
	}

	startDate = time.UnixMilli(w.SinceMs).UTC().Format(dayLayout)
	endDate = time.UnixMilli(w.UntilMs).UTC().Format(dayLayout)
	return w, startDate, endDate
}

// ParseTimeArg normalizes a since/until argument that may arrive as an
// ISO-8601 string or an epoch-millisecond integer (as either an int64 or
// a numeric string), per spec §6's consumer API.
func ParseTimeArg(v any) (int64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	case string:
		if t == "" {
			return 0, false
		}
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n, true
		}
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return ts.UnixMilli(), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// TimestampMs coerces a row's "timestamp" field value onto epoch
// milliseconds, handling both schema conventions (§3): ISO-8601 string for
// csp-violations/network-requests/*-detections/cookies, int64 milliseconds
// for events/ai-prompts.
func TimestampMs(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int32:
		return int64(t), true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	case string:
		ts, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return 0, false
		}
		return ts.UnixMilli(), true
	default:
		return 0, false
	}
}
