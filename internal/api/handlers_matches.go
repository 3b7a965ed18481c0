// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/storyspot/internal/models"
	"github.com/tomtom215/storyspot/internal/query"
)

// MatchesRequest is the validated form of a location query.
type MatchesRequest struct {
	Location string `validate:"location"`
	Start    string `validate:"required,isodate"`
	End      string `validate:"omitempty,isodate"`
}

// MatchesResponse lists the recognized stories at a location.
type MatchesResponse struct {
	Location string                 `json:"location"`
	Start    string                 `json:"start"`
	End      string                 `json:"end"`
	Count    int                    `json:"count"`
	Matches  []models.LocationMatch `json:"matches"`
}

// LocationMatches handles GET /api/v1/locations/{location}/matches.
func (h *Handler) LocationMatches(w http.ResponseWriter, r *http.Request) {
	if h.deps.Matches == nil {
		respondDomainError(w, ErrNotConfigured)
		return
	}
	start := time.Now()

	req := MatchesRequest{
		Location: chi.URLParam(r, "location"),
		Start:    r.URL.Query().Get("start"),
		End:      r.URL.Query().Get("end"),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	if req.End == "" {
		req.End = req.Start
	}
	// Both already passed isodate.
	startDay, _ := time.Parse(models.DateLayout, req.Start)
	endDay, _ := time.Parse(models.DateLayout, req.End)

	matches, err := h.deps.Matches.LocationMatches(r.Context(), query.Request{
		Location: req.Location,
		Start:    startDay,
		End:      endDay,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if matches == nil {
		matches = []models.LocationMatch{}
	}

	respondSuccess(w, http.StatusOK, MatchesResponse{
		Location: req.Location,
		Start:    req.Start,
		End:      req.End,
		Count:    len(matches),
		Matches:  matches,
	}, start)
}
