// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package models

import (
	"strings"
	"time"
)

// TrackMetadata describes a recognized reference track.
type TrackMetadata struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
	ACRID  string `json:"acr_id,omitempty"`
	Score  int    `json:"score,omitempty"`
}

// RecognitionEntry is a media item registered with the recognition
// service's scanning container. Result is nil while the item is pending or
// when nothing in the reference bucket matched.
type RecognitionEntry struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	SourceURL string         `json:"source_url"`
	Result    *TrackMetadata `json:"result,omitempty"`
}

// Recognized reports whether the entry has a match.
func (e RecognitionEntry) Recognized() bool {
	return e.Result != nil
}

// Track is a reference track in the recognition bucket.
type Track struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Album     string    `json:"album,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// DuplicateKey is the identity used to reject duplicate uploads: two tracks
// with the same title and artist (case and surrounding space ignored) are
// duplicates.
func (t Track) DuplicateKey() string {
	return TrackDuplicateKey(t.Title, t.Artist)
}

// TrackDuplicateKey builds the duplicate key for a title and artist.
func TrackDuplicateKey(title, artist string) string {
	return strings.ToLower(strings.TrimSpace(title)) + "\x00" + strings.ToLower(strings.TrimSpace(artist))
}

// MatchMetadata is the metadata block of a location query result.
type MatchMetadata struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
}

// LocationMatch is one row of a location query result.
type LocationMatch struct {
	DriveURL    string        `json:"drive_url"`
	DownloadURL string        `json:"download_url"`
	Metadata    MatchMetadata `json:"metadata"`
}
