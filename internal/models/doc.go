// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

// Package models holds the domain types shared by the mirror, recognition,
// social, sync, and query packages, the mirrored filename codec, and the
// JSON envelope returned by the HTTP API.
//
// A mirrored story is identified by its StoryKey (location, date, content id,
// username). The filename "{location}-{isoDate}-{contentId}-{username}.mp4"
// is only the wire form of that key: it is what the mirror stores and what
// the recognition service echoes back as the entry name, so the location
// query can join the two by exact name equality.
package models
