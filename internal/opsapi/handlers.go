// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package opsapi

import (
	"encoding/json"
	"net/http"
	"time"
)

// envelope is a trimmed-down version of the teacher's APIResponse: a
// status string, the payload, and a timestamp. The ops surface has no
// pagination or error-code taxonomy to carry, so it skips the rest of
// models.APIResponse.
type envelope struct {
	Status    string      `json:"status"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func respondJSON(w http.ResponseWriter, statusCode int, env envelope) {
	env.Timestamp = time.Now().UTC()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(env)
}

func respondError(w http.ResponseWriter, statusCode int, msg string) {
	respondJSON(w, statusCode, envelope{Status: "error", Error: msg})
}

// healthz is a liveness probe: 200 as long as the process can answer HTTP,
// regardless of KV backend state. Readiness (capacity/partitions
// reachability) is what /capacity and /partitions themselves prove.
func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, envelope{
		Status: "ok",
		Data: map[string]any{
			"uptime_seconds": time.Since(h.startedAt).Seconds(),
		},
	})
}

// capacity reports get_capacity_info (§4.10): used bytes against the
// configured ceiling and warning threshold.
func (h *handler) capacity(w http.ResponseWriter, r *http.Request) {
	info, err := h.engine.GetCapacityInfo(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, envelope{Status: "ok", Data: info})
}

// partitions reports the aggregate partition summary across every
// registered log type.
func (h *handler) partitions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, envelope{Status: "ok", Data: h.engine.GetPartitionStats(r.Context())})
}

// monthlyPartitions reports the same summary grouped by "YYYY-MM" month.
func (h *handler) monthlyPartitions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, envelope{Status: "ok", Data: h.engine.GetMonthlyStats(r.Context())})
}
