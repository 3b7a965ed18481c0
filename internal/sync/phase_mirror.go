// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package sync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tomtom215/storyspot/internal/events"
	"github.com/tomtom215/storyspot/internal/logging"
	"github.com/tomtom215/storyspot/internal/metrics"
	"github.com/tomtom215/storyspot/internal/mirror"
	"github.com/tomtom215/storyspot/internal/models"
)

// SyncUserStories mirrors today's stories of every account that posted at a
// followed location. today must already be in the configured time zone;
// its calendar date is used in filenames.
func (o *Orchestrator) SyncUserStories(ctx context.Context, today time.Time) (PhaseAReport, error) {
	start := time.Now()
	defer func() { metrics.RecordSyncPhase("mirror", time.Since(start)) }()

	var report PhaseAReport
	postings, err := o.dashboard.TodayPostings(ctx, today)
	if err != nil {
		metrics.RecordSyncError("dashboard")
		return report, fmt.Errorf("today's location postings: %w", err)
	}

	day := models.Day(today)
	for _, p := range postings {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		usernames := models.UniqueUsernames(p.Usernames)
		if len(usernames) == 0 {
			continue
		}
		if err := o.syncLocation(ctx, p.Location, day, usernames, &report); err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Failed++
			report.FailedLocations = append(report.FailedLocations, p.Location)
			continue
		}
		report.Locations++
	}

	logging.Ctx(ctx).Info().
		Int("locations", report.Locations).
		Int("mirrored", report.Mirrored).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("Done syncing location stories")
	return report, nil
}

// syncLocation runs Phase A for one location. A returned error aborts the
// location; per-user and per-story failures are counted in report instead.
func (o *Orchestrator) syncLocation(ctx context.Context, location string, day time.Time, usernames []string, report *PhaseAReport) error {
	log := logging.Ctx(ctx).With().Str("location", location).Logger()

	dirID, created, err := mirror.EnsureDirectory(ctx, o.store, location, o.opts.RootDirectoryID)
	if err != nil {
		var multi *mirror.MultipleDirectoriesError
		if errors.As(err, &multi) {
			metrics.RecordSyncError("ambiguous_directory")
			log.Error().Err(err).Strs("directory_ids", multi.IDs).Msg("Location directory is ambiguous, skipping location")
		} else {
			metrics.RecordSyncError("directory")
			log.Error().Err(err).Msg("Failed to ensure location directory, skipping location")
		}
		return err
	}
	if created {
		log.Info().Str("directory_id", dirID).Msg("Created location directory")
		if err := o.sleep(ctx, o.opts.SettleDelay); err != nil {
			return err
		}
	}

	known, err := o.knownContentIDs(ctx, location, dirID)
	if err != nil {
		metrics.RecordSyncError("listing")
		log.Error().Err(err).Msg("Failed to list mirrored stories, skipping location")
		return err
	}

	for _, username := range usernames {
		if err := ctx.Err(); err != nil {
			return err
		}
		stories, err := o.source.UserStories(ctx, username)
		if err != nil {
			metrics.RecordSyncError("fetch")
			metrics.StoriesSkipped.WithLabelValues("fetch_failed").Inc()
			log.Warn().Err(err).Str("username", username).Msg("Failed to fetch user stories, skipping user")
			report.Failed++
			continue
		}

		for _, story := range stories {
			if known[story.ID] > 0 {
				known[story.ID]--
				report.Skipped++
				metrics.StoriesSkipped.WithLabelValues("known").Inc()
				log.Debug().Str("story_id", story.ID).Msg("Story already mirrored")
				continue
			}
			key := models.StoryKey{Location: location, Date: day, ContentID: story.ID, Username: username}
			if err := o.mirrorStory(ctx, dirID, key, story); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				report.Failed++
				continue
			}
			report.Mirrored++
		}
	}
	return nil
}

// knownContentIDs returns the content id multiset of a location directory.
// The index is used when configured; a failing index falls back to the
// mirror listing so an index problem never blocks mirroring.
func (o *Orchestrator) knownContentIDs(ctx context.Context, location, dirID string) (map[string]int, error) {
	if o.index != nil {
		known, err := o.indexedContentIDs(ctx, location, dirID)
		if err == nil {
			return known, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var listErr *listingError
		if errors.As(err, &listErr) {
			return nil, listErr.err
		}
		metrics.RecordSyncError("index")
		logging.Ctx(ctx).Warn().Err(err).Str("location", location).Msg("Story index unavailable, using mirror listing")
	}

	videos, err := o.store.ListVideos(ctx, dirID, mirror.ListOptions{})
	if err != nil {
		return nil, err
	}
	return contentIDMultiset(videos), nil
}

// listingError marks a mirror failure inside the index path, which the
// listing fallback would hit again.
type listingError struct{ err error }

func (e *listingError) Error() string { return e.err.Error() }
func (e *listingError) Unwrap() error { return e.err }

func (o *Orchestrator) indexedContentIDs(ctx context.Context, location, dirID string) (map[string]int, error) {
	stale, err := o.index.NeedsRefresh(location)
	if err != nil {
		return nil, err
	}
	if stale {
		videos, err := o.store.ListVideos(ctx, dirID, mirror.ListOptions{})
		if err != nil {
			return nil, &listingError{err: err}
		}
		if _, err := o.index.Rebuild(location, videos); err != nil {
			return nil, err
		}
	}
	return o.index.Known(location)
}

func contentIDMultiset(videos []models.MirroredVideo) map[string]int {
	known := make(map[string]int, len(videos))
	for _, v := range videos {
		if id, ok := models.ContentIDFromFilename(v.Name); ok {
			known[id]++
		}
	}
	return known
}

// mirrorStory downloads one story to scratch and uploads it. Failures are
// logged here and returned for counting.
func (o *Orchestrator) mirrorStory(ctx context.Context, dirID string, key models.StoryKey, story models.Story) error {
	log := logging.Ctx(ctx).With().
		Str("location", key.Location).
		Str("username", key.Username).
		Str("story_id", key.ContentID).
		Logger()

	if err := key.Validate(); err != nil {
		metrics.StoriesSkipped.WithLabelValues("invalid_key").Inc()
		log.Warn().Err(err).Msg("Story cannot be given a canonical filename, skipping")
		return err
	}

	filename := key.Filename()
	localPath := filepath.Join(o.opts.ScratchDir, filename)
	defer func() { _ = os.Remove(localPath) }()

	if err := o.source.DownloadStory(ctx, story, localPath); err != nil {
		metrics.RecordSyncError("download")
		metrics.StoriesSkipped.WithLabelValues("download_failed").Inc()
		log.Warn().Err(err).Msg("Failed to download story, skipping")
		return err
	}

	fileID, err := o.store.UploadVideo(ctx, dirID, localPath, filename)
	if err != nil {
		metrics.RecordSyncError("upload")
		metrics.StoriesSkipped.WithLabelValues("upload_failed").Inc()
		log.Error().Err(err).Msg("Failed to upload story, skipping")
		return err
	}

	metrics.StoriesMirrored.WithLabelValues(key.Location).Inc()
	log.Info().Str("file_id", fileID).Str("filename", filename).Msg("Story mirrored")

	if o.index != nil {
		if err := o.index.Put(key, fileID); err != nil {
			// The next cycle must rebuild from the listing, or it would
			// upload this story again.
			log.Warn().Err(err).Msg("Failed to index mirrored story, invalidating location")
			if err := o.index.Invalidate(key.Location); err != nil {
				metrics.RecordSyncError("index")
				log.Error().Err(err).Msg("Failed to invalidate story index")
			}
		}
	}
	o.publish(ctx, events.TopicStoryMirrored, events.StoryMirrored{
		Location:  key.Location,
		Date:      key.Date.Format(models.DateLayout),
		ContentID: key.ContentID,
		Username:  key.Username,
		Filename:  filename,
		FileID:    fileID,
		At:        o.now().UTC(),
	})
	return nil
}
