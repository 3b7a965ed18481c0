// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package social

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/storyspot/internal/logging"
	"github.com/tomtom215/storyspot/internal/models"
)

// LocationDashboard implements Dashboard on a LocationSource.
type LocationDashboard struct {
	source    LocationSource
	locations []models.FollowedLocation
	loc       *time.Location
}

var _ Dashboard = (*LocationDashboard)(nil)

// NewLocationDashboard builds a dashboard over the followed locations. Days
// are evaluated in loc; a nil loc means UTC.
func NewLocationDashboard(source LocationSource, locations []models.FollowedLocation, loc *time.Location) *LocationDashboard {
	if loc == nil {
		loc = time.UTC
	}
	return &LocationDashboard{source: source, locations: locations, loc: loc}
}

// TodayPostings returns one entry per followed location, in configuration
// order. A location whose lookup fails is logged and left out; an error is
// returned only when every location failed.
func (d *LocationDashboard) TodayPostings(ctx context.Context, today time.Time) ([]models.LocationPostings, error) {
	y, m, dd := today.In(d.loc).Date()
	day := time.Date(y, m, dd, 0, 0, 0, 0, d.loc)

	out := make([]models.LocationPostings, 0, len(d.locations))
	var errs []error
	for _, fl := range d.locations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		posters, err := d.source.LocationPosters(ctx, fl.SourceLocationID, day)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Str("location", fl.Name).
				Str("location_id", fl.SourceLocationID).
				Msg("Failed to fetch location posters")
			errs = append(errs, err)
			continue
		}
		names := make([]string, 0, len(posters))
		for _, p := range posters {
			names = append(names, p.Username)
		}
		out = append(out, models.LocationPostings{Location: fl.Name, Usernames: models.UniqueUsernames(names)})
	}

	if len(d.locations) > 0 && len(errs) == len(d.locations) {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// StaticDashboard returns fixed postings, for tests and manual runs.
type StaticDashboard []models.LocationPostings

// TodayPostings implements Dashboard.
func (s StaticDashboard) TodayPostings(context.Context, time.Time) ([]models.LocationPostings, error) {
	out := make([]models.LocationPostings, len(s))
	for i, p := range s {
		out[i] = models.LocationPostings{Location: p.Location, Usernames: models.UniqueUsernames(p.Usernames)}
	}
	return out, nil
}
