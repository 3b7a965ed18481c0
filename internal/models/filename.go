// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package models

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// DateLayout is the ISO date used in filenames and API parameters.
const DateLayout = "2006-01-02"

// VideoExtension is appended to every mirrored filename.
const VideoExtension = ".mp4"

// StoryKey identifies one mirrored story.
type StoryKey struct {
	Location  string
	Date      time.Time
	ContentID string
	Username  string
}

// Filename renders the canonical wire name
// "{location}-{isoDate}-{contentId}-{username}.mp4".
func (k StoryKey) Filename() string {
	return fmt.Sprintf("%s-%s-%s-%s%s", k.Location, k.Date.Format(DateLayout), k.ContentID, k.Username, VideoExtension)
}

// Validate rejects keys whose fields would make the filename ambiguous.
// Content id and username must not contain '-'. The location may, since
// ParseFilename takes everything before the date as the location.
func (k StoryKey) Validate() error {
	if k.Location == "" {
		return fmt.Errorf("story key location is empty")
	}
	for field, v := range map[string]string{"content id": k.ContentID, "username": k.Username} {
		if v == "" {
			return fmt.Errorf("story key %s is empty", field)
		}
		if strings.Contains(v, "-") {
			return fmt.Errorf("story key %s %q contains '-'", field, v)
		}
	}
	if k.Date.IsZero() {
		return fmt.Errorf("story key date is zero")
	}
	return nil
}

// ParseFilename is the inverse of StoryKey.Filename.
//
// The content id is the second-to-last '-' segment and the username is the
// last segment without its extension. The three segments before the content
// id are the ISO date; everything before that is the location.
func ParseFilename(name string) (StoryKey, error) {
	base := strings.TrimSuffix(name, path.Ext(name))
	parts := strings.Split(base, "-")
	n := len(parts)
	if n < 6 {
		return StoryKey{}, fmt.Errorf("filename %q: expected {location}-{yyyy-mm-dd}-{id}-{username}.mp4", name)
	}

	date, err := time.Parse(DateLayout, strings.Join(parts[n-5:n-2], "-"))
	if err != nil {
		return StoryKey{}, fmt.Errorf("filename %q: invalid date: %w", name, err)
	}

	key := StoryKey{
		Location:  strings.Join(parts[:n-5], "-"),
		Date:      date,
		ContentID: parts[n-2],
		Username:  parts[n-1],
	}
	if key.Location == "" || key.ContentID == "" || key.Username == "" {
		return StoryKey{}, fmt.Errorf("filename %q: empty segment", name)
	}
	return key, nil
}

// ContentIDFromFilename extracts the content id with the lenient rule used for
// dedup: the second-to-last '-' segment. It does not require a full key, so
// files renamed by hand still count as known.
func ContentIDFromFilename(name string) (string, bool) {
	parts := strings.Split(name, "-")
	if len(parts) < 2 || parts[len(parts)-2] == "" {
		return "", false
	}
	return parts[len(parts)-2], true
}

// Day truncates t to midnight UTC of its calendar date in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses an ISO date into a Day.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
