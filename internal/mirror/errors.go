// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package mirror

import (
	"fmt"
	"strings"
)

// DirectoryNotFoundError means no directory named Name exists under ParentID.
type DirectoryNotFoundError struct {
	Name     string
	ParentID string
}

func (e *DirectoryNotFoundError) Error() string {
	return fmt.Sprintf("mirror directory %q not found under %s", e.Name, e.ParentID)
}

// MultipleDirectoriesError means Name is ambiguous under ParentID.
type MultipleDirectoriesError struct {
	Name     string
	ParentID string
	IDs      []string
}

func (e *MultipleDirectoriesError) Error() string {
	return fmt.Sprintf("mirror directory %q is ambiguous under %s: %d matches (%s)",
		e.Name, e.ParentID, len(e.IDs), strings.Join(e.IDs, ", "))
}

// UploadError is a failed upload after single-shot and resumable attempts.
type UploadError struct {
	Filename    string
	DirectoryID string
	Err         error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("mirror upload of %s into %s failed: %v", e.Filename, e.DirectoryID, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// DownloadError is a failed file download.
type DownloadError struct {
	FileID string
	Err    error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("mirror download of %s failed: %v", e.FileID, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }
