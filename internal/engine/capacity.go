// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package engine

import (
	"context"
	"fmt"

	"github.com/plenoaudit/logengine/internal/config"
	"github.com/plenoaudit/logengine/internal/logging"
	"github.com/plenoaudit/logengine/internal/metrics"
)

// CapacityInfo is get_capacity_info's return shape (§4.10): the current
// used size against the configured ceiling and warning threshold.
type CapacityInfo struct {
	UsedBytes        int64
	MaxBytes         int64
	WarningThreshold float64
	IsWarning        bool
	IsFull           bool
}

// GetCapacityInfo reports the store's current size against its configured
// limits. Reads the KV backend directly and is not serialized through the
// FIFO queue — like every other get_* method, a torn read here just means a
// concurrent write's bytes may or may not be counted yet.
func (e *Engine) GetCapacityInfo(ctx context.Context) (CapacityInfo, error) {
	used, err := e.kv.Size()
	if err != nil {
		return CapacityInfo{}, fmt.Errorf("engine: get_capacity_info: %w", err)
	}
	return e.capacityInfoFor(used), nil
}

func (e *Engine) capacityInfoFor(used int64) CapacityInfo {
	e.capMu.RLock()
	cfg := e.capacityCfg
	e.capMu.RUnlock()

	info := CapacityInfo{UsedBytes: used, MaxBytes: cfg.MaxTotalBytes, WarningThreshold: cfg.WarningThreshold}
	if cfg.MaxTotalBytes > 0 {
		ratio := float64(used) / float64(cfg.MaxTotalBytes)
		info.IsWarning = ratio >= cfg.WarningThreshold
		info.IsFull = ratio >= 1.0
	}
	metrics.UpdateCapacity(info.UsedBytes, info.IsWarning)
	return info
}

// SetCapacityConfig replaces the capacity ceiling/warning threshold used by
// GetCapacityInfo and the write-buffer backpressure gate, taking effect
// immediately for the next write.
func (e *Engine) SetCapacityConfig(ctx context.Context, cfg config.CapacityConfig) error {
	return e.submit(func() error {
		e.capMu.Lock()
		e.capacityCfg = cfg
		e.capMu.Unlock()
		e.refreshThrottle()
		return nil
	})
}

// refreshThrottle re-evaluates capacity against the configured warning
// threshold and toggles the write buffer's backpressure gate accordingly.
// Called after every flush and every capacity-config change; failures to
// read size just leave the current throttle state in place.
func (e *Engine) refreshThrottle() {
	used, err := e.kv.Size()
	if err != nil {
		logging.Warn().Err(err).Msg("engine: size check for backpressure failed")
		return
	}
	throttled := e.capacityInfoFor(used).IsWarning
	e.buffer.SetThrottled(throttled)
	metrics.SetBackpressureThrottled(throttled)
}
