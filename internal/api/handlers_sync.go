// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/storyspot/internal/logging"
	syncpkg "github.com/tomtom215/storyspot/internal/sync"
)

// SyncStatusResponse is the body of GET /api/v1/sync/status.
type SyncStatusResponse struct {
	LoopRunning  bool                 `json:"loop_running"`
	LastSyncTime *time.Time           `json:"last_sync_time,omitempty"`
	LastReport   *syncpkg.CycleReport `json:"last_report,omitempty"`
}

// SyncTriggerResponse acknowledges a started cycle.
type SyncTriggerResponse struct {
	Started       bool   `json:"started"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// SyncStatus handles GET /api/v1/sync/status.
func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	if h.deps.Sync == nil {
		respondDomainError(w, ErrNotConfigured)
		return
	}
	start := time.Now()

	resp := SyncStatusResponse{
		LoopRunning: h.deps.Sync.Running(),
		LastReport:  h.deps.Sync.LastReport(),
	}
	if last := h.deps.Sync.LastSyncTime(); !last.IsZero() {
		resp.LastSyncTime = &last
	}
	respondSuccess(w, http.StatusOK, resp, start)
}

// TriggerSync handles POST /api/v1/sync. The cycle runs in the background
// and the request returns 202; 409 means a cycle is already running.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if h.deps.Sync == nil {
		respondDomainError(w, ErrNotConfigured)
		return
	}
	start := time.Now()

	if err := h.deps.Sync.TryTriggerSync(r.Context()); err != nil {
		respondDomainError(w, err)
		return
	}

	correlationID := logging.CorrelationIDFromContext(r.Context())
	logging.Ctx(r.Context()).Info().Msg("Sync cycle triggered via API")
	respondSuccess(w, http.StatusAccepted, SyncTriggerResponse{Started: true, CorrelationID: correlationID}, start)
}
