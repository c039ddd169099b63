// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package engine

import (
	"context"

	"github.com/plenoaudit/logengine/internal/partition"
)

// GetPartitionStats returns the aggregate partition summary (total
// partitions/records/bytes, oldest/newest date, per-type counts) across
// every registered log type.
func (e *Engine) GetPartitionStats(ctx context.Context) partition.Stats {
	return e.partitions.Stats()
}

// GetMonthlyStats returns the aggregate partition summary grouped by
// "YYYY-MM" month.
func (e *Engine) GetMonthlyStats(ctx context.Context) partition.MonthlyStats {
	return e.partitions.MonthlyStats()
}

// GetOldPartitions lists every tracked partition older than days, the same
// candidate set apply_retention_policy would delete with MaxAgeDays == days.
func (e *Engine) GetOldPartitions(ctx context.Context, days int) []partition.Info {
	return e.partitions.OlderThan(days)
}
