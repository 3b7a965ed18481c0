// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/storyspot/internal/events"
	"github.com/tomtom215/storyspot/internal/logging"
	"github.com/tomtom215/storyspot/internal/metrics"
	"github.com/tomtom215/storyspot/internal/mirror"
	"github.com/tomtom215/storyspot/internal/models"
	"github.com/tomtom215/storyspot/internal/recognition"
)

// SyncStoriesToRecognize registers every mirrored video that has no
// recognition entry yet. Entries are matched to videos by the mirror file
// id embedded in their source URL, as a multiset.
func (o *Orchestrator) SyncStoriesToRecognize(ctx context.Context) (PhaseBReport, error) {
	start := time.Now()
	defer func() { metrics.RecordSyncPhase("register", time.Since(start)) }()

	var report PhaseBReport
	log := logging.Ctx(ctx)
	log.Info().Msg("Synchronizing recognition entries with mirrored stories")

	videos, err := o.allMirroredVideos(ctx)
	if err != nil {
		metrics.RecordSyncError("listing")
		return report, err
	}
	report.Mirrored = len(videos)

	entries, err := o.service.ListAllWithResults(ctx)
	if err != nil {
		metrics.RecordSyncError("recognition_list")
		return report, fmt.Errorf("list recognition entries: %w", err)
	}
	registered := make(map[string]int, len(entries))
	for _, e := range entries {
		if e.SourceURL == "" {
			continue
		}
		registered[mirror.ExtractIDFromShareableLink(e.SourceURL)]++
	}

	for _, v := range videos {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if registered[v.ID] > 0 {
			registered[v.ID]--
			report.Known++
			continue
		}

		link := mirror.ShareableLink(v.ID)
		entryID, err := o.service.Register(ctx, recognition.RegisterRequest{URL: link, Name: v.Name})
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			metrics.RecordSyncError("register")
			log.Error().Err(err).Str("file_id", v.ID).Str("name", v.Name).Msg("Failed to register story for recognition, skipping")
			report.Failed++
			continue
		}

		report.Registered++
		metrics.StoriesRegistered.Inc()
		log.Info().Str("file_id", v.ID).Str("entry_id", entryID).Str("name", v.Name).Msg("Story registered for recognition")
		o.publish(ctx, events.TopicStoryRegistered, events.StoryRegistered{
			FileID:  v.ID,
			Name:    v.Name,
			URL:     link,
			EntryID: entryID,
			At:      o.now().UTC(),
		})
	}

	log.Info().
		Int("mirrored", report.Mirrored).
		Int("known", report.Known).
		Int("registered", report.Registered).
		Int("failed", report.Failed).
		Msg("Done registering stories")
	return report, nil
}

// allMirroredVideos lists the videos of every location directory under the
// root. A failing location listing aborts the phase, since skipping it
// would only defer those registrations without any signal.
func (o *Orchestrator) allMirroredVideos(ctx context.Context) ([]models.MirroredVideo, error) {
	dirs, err := o.store.ListDirectories(ctx, o.opts.RootDirectoryID)
	if err != nil {
		return nil, fmt.Errorf("list location directories: %w", err)
	}
	var all []models.MirroredVideo
	for _, d := range dirs {
		videos, err := o.store.ListVideos(ctx, d.ID, mirror.ListOptions{})
		if err != nil {
			return nil, fmt.Errorf("list videos in %s: %w", d.Name, err)
		}
		all = append(all, videos...)
	}
	return all, nil
}
