// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package social

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/storyspot/internal/models"
)

// Source lists and downloads user stories.
type Source interface {
	// UserStories returns the user's current stories that have audio.
	UserStories(ctx context.Context, username string) ([]models.Story, error)

	// DownloadStory writes the story video to destPath.
	DownloadStory(ctx context.Context, story models.Story, destPath string) error
}

// LocationSource lists recent posts at a location.
type LocationSource interface {
	// LocationPosters returns the posts at locationID taken on the calendar
	// day of day, evaluated in day's time zone.
	LocationPosters(ctx context.Context, locationID string, day time.Time) ([]models.LocationPoster, error)
}

// Dashboard reports which accounts posted at each followed location.
type Dashboard interface {
	TodayPostings(ctx context.Context, today time.Time) ([]models.LocationPostings, error)
}

// FetchError is a failed scraper call. Status is 0 when no response arrived.
type FetchError struct {
	Op         string
	Username   string
	LocationID string
	StoryID    string
	Status     int
	Err        error
}

func (e *FetchError) Error() string {
	var target string
	switch {
	case e.Username != "":
		target = e.Username
	case e.StoryID != "":
		target = "story " + e.StoryID
	default:
		target = "location " + e.LocationID
	}
	if e.Status != 0 {
		return fmt.Sprintf("social %s for %s: HTTP %d: %v", e.Op, target, e.Status, e.Err)
	}
	return fmt.Sprintf("social %s for %s: %v", e.Op, target, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
