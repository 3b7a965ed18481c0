// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

// Package query answers "which reference tracks were recognized in stories
// at a location over a date range" by joining recognition results with the
// mirror listing on the shared filename.
package query
