// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/storyspot/internal/logging"
	"github.com/tomtom215/storyspot/internal/mirror"
	"github.com/tomtom215/storyspot/internal/models"
	"github.com/tomtom215/storyspot/internal/recognition"
)

// ErrInvalidRequest wraps request validation failures.
var ErrInvalidRequest = errors.New("invalid location query")

// Request selects a location and an inclusive range of calendar days.
// A zero End means the single day Start.
type Request struct {
	Location string
	Start    time.Time
	End      time.Time
}

// Engine runs location queries.
type Engine struct {
	store   mirror.Store
	service recognition.Service
	rootID  string
	loc     *time.Location
}

// NewEngine builds an Engine. Day boundaries are evaluated in loc; nil
// means UTC.
func NewEngine(store mirror.Store, service recognition.Service, rootDirectoryID string, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{store: store, service: service, rootID: rootDirectoryID, loc: loc}
}

func (r Request) validate() error {
	if strings.TrimSpace(r.Location) == "" {
		return fmt.Errorf("%w: location is required", ErrInvalidRequest)
	}
	if r.Start.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidRequest)
	}
	if !r.End.IsZero() && models.Day(r.End).Before(models.Day(r.Start)) {
		return fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidRequest,
			r.End.Format(models.DateLayout), r.Start.Format(models.DateLayout))
	}
	return nil
}

// LocationMatches returns the recognized stories mirrored at req.Location
// within the day range, in recognition listing order. Store and service
// errors are returned as they are, including *mirror.DirectoryNotFoundError
// for an unknown location.
func (e *Engine) LocationMatches(ctx context.Context, req Request) ([]models.LocationMatch, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	log := logging.Ctx(ctx).With().Str("location", req.Location).Logger()
	log.Info().
		Str("start", req.Start.Format(models.DateLayout)).
		Str("end", req.End.Format(models.DateLayout)).
		Msg("Starting location search")

	entries, err := e.service.ListAllWithResults(ctx)
	if err != nil {
		return nil, err
	}

	dirID, err := e.store.ResolveDirectory(ctx, req.Location, e.rootID)
	if err != nil {
		return nil, err
	}
	opts := mirror.DayRange(req.Start, req.End, e.loc)
	opts.NamePrefix = req.Location + "-"
	videos, err := e.store.ListVideos(ctx, dirID, opts)
	if err != nil {
		return nil, err
	}

	names := make(map[string]struct{}, len(videos))
	for _, v := range videos {
		names[v.Name] = struct{}{}
	}

	var matches []models.LocationMatch
	for _, entry := range entries {
		if !entry.Recognized() {
			continue
		}
		if _, ok := names[entry.Name]; !ok {
			continue
		}
		fileID := mirror.ExtractIDFromShareableLink(entry.SourceURL)
		matches = append(matches, models.LocationMatch{
			DriveURL:    mirror.ShareableLink(fileID),
			DownloadURL: mirror.DirectDownloadLink(fileID),
			Metadata: models.MatchMetadata{
				Title:  entry.Result.Title,
				Artist: entry.Result.Artist,
				Album:  entry.Result.Album,
			},
		})
	}

	log.Info().Int("videos", len(videos)).Int("matches", len(matches)).Msg("Finished location search")
	return matches, nil
}
