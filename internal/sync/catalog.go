// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/storyspot/internal/logging"
	"github.com/tomtom215/storyspot/internal/models"
	"github.com/tomtom215/storyspot/internal/recognition"
)

// Catalog manages the reference track bucket.
type Catalog struct {
	service recognition.Service
}

// NewCatalog builds a Catalog on service.
func NewCatalog(service recognition.Service) *Catalog {
	return &Catalog{service: service}
}

// AddTrack uploads a reference track unless one with the same title and
// artist already exists, in which case it returns *recognition.DuplicateTrackError.
// The check and the upload are not atomic.
func (c *Catalog) AddTrack(ctx context.Context, track recognition.TrackUpload) (string, error) {
	if strings.TrimSpace(track.Title) == "" || strings.TrimSpace(track.Artist) == "" {
		return "", errors.New("track title and artist are required")
	}

	existing, err := c.service.ListTracks(ctx)
	if err != nil {
		return "", fmt.Errorf("list reference tracks: %w", err)
	}
	want := models.TrackDuplicateKey(track.Title, track.Artist)
	for _, t := range existing {
		if t.DuplicateKey() == want {
			return "", &recognition.DuplicateTrackError{
				Title:      track.Title,
				Artist:     track.Artist,
				ExistingID: t.ID,
				CreatedAt:  t.CreatedAt,
			}
		}
	}

	id, err := c.service.UploadTrack(ctx, track)
	if err != nil {
		return "", err
	}
	logging.Ctx(ctx).Info().
		Str("track_id", id).
		Str("title", track.Title).
		Str("artist", track.Artist).
		Msg("Reference track added")
	return id, nil
}

// RemoveTrack deletes a reference track.
func (c *Catalog) RemoveTrack(ctx context.Context, trackID string) error {
	if err := c.service.DeleteTrack(ctx, trackID); err != nil {
		return err
	}
	logging.Ctx(ctx).Info().Str("track_id", trackID).Msg("Reference track removed")
	return nil
}

// Tracks lists the reference bucket.
func (c *Catalog) Tracks(ctx context.Context) ([]models.Track, error) {
	return c.service.ListTracks(ctx)
}
