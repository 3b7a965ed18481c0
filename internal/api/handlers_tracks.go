// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package api

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/storyspot/internal/models"
	"github.com/tomtom215/storyspot/internal/recognition"
)

const (
	// maxTrackUpload bounds a reference track upload.
	maxTrackUpload = 64 << 20
	// trackFormMemory is held in memory before multipart spills to disk.
	trackFormMemory = 8 << 20
)

// TrackForm is the validated metadata of a track upload.
type TrackForm struct {
	Title  string `validate:"required,max=256"`
	Artist string `validate:"required,max=256"`
	Album  string `validate:"max=256"`
}

// TrackCreatedResponse is returned for an accepted upload.
type TrackCreatedResponse struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// AddTrack handles POST /api/v1/tracks, a multipart form with title,
// artist, optional album, and the audio file under "audio". A track with
// the same title and artist answers 409.
func (h *Handler) AddTrack(w http.ResponseWriter, r *http.Request) {
	if h.deps.Catalog == nil {
		respondDomainError(w, ErrNotConfigured)
		return
	}
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, maxTrackUpload)
	if err := r.ParseMultipartForm(trackFormMemory); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "invalid multipart form", err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	form := TrackForm{
		Title:  r.FormValue("title"),
		Artist: r.FormValue("artist"),
		Album:  r.FormValue("album"),
	}
	if apiErr := validateRequest(&form); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "audio file is required", nil)
		return
	}
	defer file.Close()

	id, err := h.deps.Catalog.AddTrack(r.Context(), recognition.TrackUpload{
		Audio:    file,
		Filename: filepath.Base(header.Filename),
		Title:    form.Title,
		Artist:   form.Artist,
		Album:    form.Album,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusCreated, TrackCreatedResponse{ID: id, Title: form.Title, Artist: form.Artist}, start)
}

// ListTracks handles GET /api/v1/tracks.
func (h *Handler) ListTracks(w http.ResponseWriter, r *http.Request) {
	if h.deps.Catalog == nil {
		respondDomainError(w, ErrNotConfigured)
		return
	}
	start := time.Now()

	tracks, err := h.deps.Catalog.Tracks(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if tracks == nil {
		tracks = []models.Track{}
	}
	respondSuccess(w, http.StatusOK, tracks, start)
}

// DeleteTrack handles DELETE /api/v1/tracks/{id}.
func (h *Handler) DeleteTrack(w http.ResponseWriter, r *http.Request) {
	if h.deps.Catalog == nil {
		respondDomainError(w, ErrNotConfigured)
		return
	}
	start := time.Now()

	req := fileIDRequest{ID: chi.URLParam(r, "id")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	if err := h.deps.Catalog.RemoveTrack(r.Context(), req.ID); err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"deleted": req.ID}, start)
}
