// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package models

import "time"

// Directory is a folder in the mirror store.
type Directory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MirroredVideo is a file in a location directory of the mirror store.
type MirroredVideo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Key parses the video name into its StoryKey.
func (v MirroredVideo) Key() (StoryKey, error) {
	return ParseFilename(v.Name)
}

// Story is a social story that carries audio.
type Story struct {
	ID          string    `json:"id"`
	DownloadURL string    `json:"download_url"`
	TakenAt     time.Time `json:"taken_at"`
}

// FollowedLocation maps a location name (the mirror directory name) to the
// social source's location id.
type FollowedLocation struct {
	Name             string `json:"name"`
	SourceLocationID string `json:"source_location_id"`
}

// LocationPostings lists the accounts that posted at a location on a day.
type LocationPostings struct {
	Location  string   `json:"location"`
	Usernames []string `json:"usernames"`
}

// LocationPoster is one recent post at a location.
type LocationPoster struct {
	MediaID  string    `json:"media_id"`
	Username string    `json:"username"`
	AudioURL string    `json:"audio_url,omitempty"`
	TakenAt  time.Time `json:"taken_at"`
}

// UniqueUsernames returns usernames with duplicates and blanks removed,
// preserving first-seen order.
func UniqueUsernames(usernames []string) []string {
	seen := make(map[string]struct{}, len(usernames))
	out := make([]string, 0, len(usernames))
	for _, u := range usernames {
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
