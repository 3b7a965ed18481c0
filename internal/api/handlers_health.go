// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package api

import (
	"context"
	"net/http"
	"time"
)

// readinessTimeout bounds all readiness probes together.
const readinessTimeout = 5 * time.Second

// HealthLive reports that the process is serving requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"alive":   true,
		"version": h.deps.Version,
		"uptime":  time.Since(h.startTime).Seconds(),
	}, time.Now())
}

// ReadinessStatus is the body of /health/ready.
type ReadinessStatus struct {
	Ready        bool              `json:"ready"`
	Checks       map[string]string `json:"checks"`
	SyncRunning  bool              `json:"sync_running"`
	LastSyncTime *time.Time        `json:"last_sync_time,omitempty"`
}

// HealthReady runs every readiness check and answers 503 if any fails.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := ReadinessStatus{Ready: true, Checks: make(map[string]string, len(h.deps.Readiness))}
	for _, c := range h.deps.Readiness {
		if err := c.Check(ctx); err != nil {
			status.Ready = false
			status.Checks[c.Name] = err.Error()
			continue
		}
		status.Checks[c.Name] = "ok"
	}
	if h.deps.Sync != nil {
		status.SyncRunning = h.deps.Sync.Running()
		if last := h.deps.Sync.LastSyncTime(); !last.IsZero() {
			status.LastSyncTime = &last
		}
	}

	code := http.StatusOK
	if !status.Ready {
		code = http.StatusServiceUnavailable
	}
	respondSuccess(w, code, status, start)
}
