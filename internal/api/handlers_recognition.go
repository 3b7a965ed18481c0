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
	"github.com/tomtom215/storyspot/internal/recognition"
)

// fileIDRequest validates an id taken from the path.
type fileIDRequest struct {
	ID string `validate:"fileid"`
}

// RecognizeResponse is the three-way result for one story.
type RecognizeResponse struct {
	FileID string `json:"file_id"`
	recognition.Result
}

// RescanRequest is the body of POST /api/v1/recognition/rescan.
type RescanRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=1000,dive,fileid"`
}

// RecognizeStory handles POST /api/v1/stories/{fileID}/recognize. A
// completed identification answers 200 whatever its outcome; only failures
// to fetch the story are errors.
func (h *Handler) RecognizeStory(w http.ResponseWriter, r *http.Request) {
	if h.deps.Recognizer == nil {
		respondDomainError(w, ErrNotConfigured)
		return
	}
	start := time.Now()

	req := fileIDRequest{ID: chi.URLParam(r, "fileID")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	result, err := h.deps.Recognizer.RecognizeStory(r.Context(), req.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, RecognizeResponse{FileID: req.ID, Result: result}, start)
}

// RescanEntries handles POST /api/v1/recognition/rescan. Batch failures are
// reported in the body; the request itself still succeeds.
func (h *Handler) RescanEntries(w http.ResponseWriter, r *http.Request) {
	if h.deps.Entries == nil {
		respondDomainError(w, ErrNotConfigured)
		return
	}
	start := time.Now()

	var req RescanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	report := h.deps.Entries.Rescan(r.Context(), req.IDs)
	if len(report.Failures) > 0 {
		logging.Ctx(r.Context()).Warn().
			Int("requested", report.Requested).
			Int("rescanned", report.Rescanned).
			Int("failed_batches", len(report.Failures)).
			Msg("Rescan finished with failed batches")
	}
	respondSuccess(w, http.StatusOK, report, start)
}

// DeleteEntry handles DELETE /api/v1/recognition/entries/{id}.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if h.deps.Entries == nil {
		respondDomainError(w, ErrNotConfigured)
		return
	}
	start := time.Now()

	req := fileIDRequest{ID: chi.URLParam(r, "id")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	if err := h.deps.Entries.DeleteEntry(r.Context(), req.ID); err != nil {
		respondDomainError(w, err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("entry_id", req.ID).Msg("Recognition entry deleted via API")
	respondSuccess(w, http.StatusOK, map[string]string{"deleted": req.ID}, start)
}
