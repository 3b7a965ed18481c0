// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package mirror

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/tomtom215/storyspot/internal/models"
)

// EnsureDirectory resolves name under parentID, creating it on not-found.
// created reports whether a directory was made. Ambiguity is returned as
// *MultipleDirectoriesError.
func EnsureDirectory(ctx context.Context, s Store, name, parentID string) (id string, created bool, err error) {
	id, err = s.ResolveDirectory(ctx, name, parentID)
	if err == nil {
		return id, false, nil
	}

	var notFound *DirectoryNotFoundError
	if !errors.As(err, &notFound) {
		return "", false, err
	}

	id, err = s.CreateDirectory(ctx, name, parentID)
	if err != nil {
		return "", false, fmt.Errorf("create directory %q: %w", name, err)
	}
	return id, true, nil
}

// RemoveDuplicates deletes every video in dirID whose content id was already
// seen on an older file, keeping the oldest copy. It returns how many files
// were removed, including when a delete fails midway.
func RemoveDuplicates(ctx context.Context, s Store, dirID string) (int, error) {
	videos, err := s.ListVideos(ctx, dirID, ListOptions{})
	if err != nil {
		return 0, fmt.Errorf("list videos for dedupe: %w", err)
	}

	sort.SliceStable(videos, func(i, j int) bool {
		if videos[i].CreatedAt.Equal(videos[j].CreatedAt) {
			return videos[i].ID < videos[j].ID
		}
		return videos[i].CreatedAt.Before(videos[j].CreatedAt)
	})

	seen := make(map[string]struct{}, len(videos))
	removed := 0
	for _, v := range videos {
		contentID, ok := models.ContentIDFromFilename(v.Name)
		if !ok {
			continue
		}
		if _, dup := seen[contentID]; !dup {
			seen[contentID] = struct{}{}
			continue
		}
		if err := s.DeleteFile(ctx, v.ID); err != nil {
			return removed, fmt.Errorf("delete duplicate %s (%s): %w", v.Name, v.ID, err)
		}
		removed++
	}
	return removed, nil
}
