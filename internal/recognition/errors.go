// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package recognition

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoBucket is returned by bucket operations when no bucket is configured.
var ErrNoBucket = errors.New("recognition bucket id is not configured")

// RegisterError is a failed container registration. Status is 0 when the
// request never got a response.
type RegisterError struct {
	URL    string
	Status int
	Body   string
	Err    error
}

func (e *RegisterError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("register %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("register %s failed: HTTP %d: %s", e.URL, e.Status, e.Body)
}

func (e *RegisterError) Unwrap() error { return e.Err }

// DeleteError is a failed entry or track delete.
type DeleteError struct {
	ID     string
	Status int
	Body   string
	Err    error
}

func (e *DeleteError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("delete %s failed: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("delete %s failed: HTTP %d: %s", e.ID, e.Status, e.Body)
}

func (e *DeleteError) Unwrap() error { return e.Err }

// DuplicateTrackError rejects a reference upload whose title and artist
// already exist in the bucket.
type DuplicateTrackError struct {
	Title      string
	Artist     string
	ExistingID string
	CreatedAt  time.Time
}

func (e *DuplicateTrackError) Error() string {
	if e.CreatedAt.IsZero() {
		return fmt.Sprintf("track %q by %q already exists (id %s)", e.Title, e.Artist, e.ExistingID)
	}
	return fmt.Sprintf("track %q by %q already exists (id %s, created %s)",
		e.Title, e.Artist, e.ExistingID, e.CreatedAt.Format(time.RFC3339))
}
