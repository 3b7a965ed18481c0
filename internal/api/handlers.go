// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package api

import (
	"context"
	"time"

	"github.com/tomtom215/storyspot/internal/mirror"
	"github.com/tomtom215/storyspot/internal/models"
	"github.com/tomtom215/storyspot/internal/query"
	"github.com/tomtom215/storyspot/internal/recognition"
	syncpkg "github.com/tomtom215/storyspot/internal/sync"
)

// SyncController is the part of sync.Manager the API drives.
type SyncController interface {
	Running() bool
	LastSyncTime() time.Time
	LastReport() *syncpkg.CycleReport
	TryTriggerSync(ctx context.Context) error
}

// MatchFinder answers location queries. Implemented by query.Engine.
type MatchFinder interface {
	LocationMatches(ctx context.Context, req query.Request) ([]models.LocationMatch, error)
}

// StoryRecognizer identifies one mirrored story. Implemented by
// sync.Orchestrator.
type StoryRecognizer interface {
	RecognizeStory(ctx context.Context, fileID string) (recognition.Result, error)
}

// TrackCatalog manages the reference bucket. Implemented by sync.Catalog.
type TrackCatalog interface {
	AddTrack(ctx context.Context, track recognition.TrackUpload) (string, error)
	RemoveTrack(ctx context.Context, trackID string) error
	Tracks(ctx context.Context) ([]models.Track, error)
}

// EntryManager maintains scanning container entries. Implemented by
// recognition.Service.
type EntryManager interface {
	DeleteEntry(ctx context.Context, entryID string) error
	Rescan(ctx context.Context, entryIDs []string) recognition.RescanReport
}

// ReadinessCheck is one dependency probed by /health/ready.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// IndexInvalidator forces a location's story index to be rebuilt on the
// next sync cycle.
type IndexInvalidator interface {
	Invalidate(location string) error
}

// Deps are the handler dependencies. Nil members disable their routes with
// 501 NOT_CONFIGURED.
type Deps struct {
	Sync       SyncController
	Matches    MatchFinder
	Recognizer StoryRecognizer
	Catalog    TrackCatalog
	Entries    EntryManager

	// Store and RootDirectoryID back the dedupe route. Index, when set, is
	// invalidated for the deduplicated location.
	Store           mirror.Store
	RootDirectoryID string
	Index           IndexInvalidator

	Readiness []ReadinessCheck
	Version   string
}

// Handler holds the API handlers.
//
// Handler methods are split across files:
//   - handlers_health.go: liveness and readiness
//   - handlers_matches.go: location queries
//   - handlers_sync.go: sync status and trigger
//   - handlers_recognition.go: story recognition, rescan, entry delete
//   - handlers_tracks.go: reference track catalog
//   - handlers_mirror.go: mirror maintenance
type Handler struct {
	deps      Deps
	startTime time.Time
}

// NewHandler builds a Handler.
func NewHandler(deps Deps) *Handler {
	if deps.Version == "" {
		deps.Version = "dev"
	}
	return &Handler{deps: deps, startTime: time.Now()}
}
