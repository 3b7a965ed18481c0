// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

// Package upstream holds the HTTP plumbing shared by the Drive, ACRCloud, and
// RapidAPI clients: 429 retry with exponential backoff and Retry-After,
// bounded error-body reads, JSON decoding, status errors, and transient
// failure classification.
package upstream
