// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package kvstore

import (
	"fmt"
	"time"

	"github.com/plenoaudit/logengine/internal/schema"
)

// Record is one partition as the KV adapter sees it: an opaque blob plus
// the metadata the store facade and stats cache need without decoding it.
type Record struct {
	Key          string         `json:"key"`
	Type         schema.LogType `json:"type"`
	Date         string         `json:"date"`
	Blob         []byte         `json:"blob"`
	RecordCount  int            `json:"record_count"`
	SizeBytes    int64          `json:"size_bytes"`
	CreatedAt    time.Time      `json:"created_at"`
	LastModified time.Time      `json:"last_modified"`
}

// PartitionKey builds the "{type}-{date}" primary key spec.md §3 defines.
func PartitionKey(t schema.LogType, date string) string {
	return fmt.Sprintf("%s-%s", t, date)
}
