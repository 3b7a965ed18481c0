// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/storyspot/internal/logging"
	"github.com/tomtom215/storyspot/internal/mirror"
)

type locationRequest struct {
	Location string `validate:"location"`
}

// DedupeResponse reports a dedupe run.
type DedupeResponse struct {
	Location string `json:"location"`
	Removed  int    `json:"removed"`
}

// DedupeLocation handles POST /api/v1/mirror/locations/{location}/dedupe,
// keeping only the oldest mirrored copy of each story in the location
// directory.
func (h *Handler) DedupeLocation(w http.ResponseWriter, r *http.Request) {
	if h.deps.Store == nil {
		respondDomainError(w, ErrNotConfigured)
		return
	}
	start := time.Now()

	req := locationRequest{Location: chi.URLParam(r, "location")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	dirID, err := h.deps.Store.ResolveDirectory(r.Context(), req.Location, h.deps.RootDirectoryID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	removed, err := mirror.RemoveDuplicates(r.Context(), h.deps.Store, dirID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	if h.deps.Index != nil && removed > 0 {
		if err := h.deps.Index.Invalidate(req.Location); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Str("location", req.Location).Msg("Failed to invalidate story index")
		}
	}

	logging.Ctx(r.Context()).Info().
		Str("location", req.Location).
		Int("removed", removed).
		Msg("Mirror location deduplicated via API")
	respondSuccess(w, http.StatusOK, DedupeResponse{Location: req.Location, Removed: removed}, start)
}
