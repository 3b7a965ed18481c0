// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package mirror

import (
	"context"
	"time"

	"github.com/tomtom215/storyspot/internal/models"
)

// Store is the cloud mirror.
type Store interface {
	// ResolveDirectory finds the single directory named name under parentID.
	// It returns *DirectoryNotFoundError or *MultipleDirectoriesError.
	ResolveDirectory(ctx context.Context, name, parentID string) (string, error)

	// CreateDirectory always creates a new directory.
	CreateDirectory(ctx context.Context, name, parentID string) (string, error)

	// ListDirectories lists the directories directly under parentID.
	ListDirectories(ctx context.Context, parentID string) ([]models.Directory, error)

	// ListVideos lists the videos in dirID matching opts. Paging is handled
	// internally.
	ListVideos(ctx context.Context, dirID string, opts ListOptions) ([]models.MirroredVideo, error)

	// UploadVideo uploads localPath into dirID under filename and returns the
	// new file id. Failures are *UploadError.
	UploadVideo(ctx context.Context, dirID, localPath, filename string) (string, error)

	// DownloadFile streams fileID into destPath. Failures are *DownloadError.
	DownloadFile(ctx context.Context, fileID, destPath string) error

	// DeleteFile removes fileID.
	DeleteFile(ctx context.Context, fileID string) error
}

// ListOptions filters ListVideos. Zero values mean "no bound".
type ListOptions struct {
	// CreatedFrom is an inclusive lower bound on server creation time.
	CreatedFrom time.Time

	// CreatedTo is an exclusive upper bound on server creation time.
	CreatedTo time.Time

	// NamePrefix keeps only files whose name starts with the prefix.
	NamePrefix string
}

// DayRange returns ListOptions covering the calendar days [start, end] in
// loc. A zero end means a single day.
func DayRange(start, end time.Time, loc *time.Location) ListOptions {
	if end.IsZero() {
		end = start
	}
	if loc == nil {
		loc = time.UTC
	}
	from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	to := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	return ListOptions{CreatedFrom: from, CreatedTo: to}
}

// matches applies opts to a video. Implementations whose server-side query
// is approximate use it as the final filter.
func (o ListOptions) matches(v models.MirroredVideo) bool {
	if !o.CreatedFrom.IsZero() && v.CreatedAt.Before(o.CreatedFrom) {
		return false
	}
	if !o.CreatedTo.IsZero() && !v.CreatedAt.Before(o.CreatedTo) {
		return false
	}
	if o.NamePrefix != "" && !hasPrefix(v.Name, o.NamePrefix) {
		return false
	}
	return true
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
