// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

/*
Package cache provides a thread-safe, bounded LRU cache with per-entry TTL.

The social source client uses it to remember username to account id
lookups, which are stable for long periods and cost one rate-limited
scraper call each. Every cycle asks for the same followed accounts, so most
lookups become cache hits after the first cycle.

# Usage

	ids := cache.NewLRU[string](1024, 24*time.Hour)
	ids.Add("alice", "1784")
	if id, ok := ids.Get("alice"); ok {
		...
	}

Expired entries are removed lazily on Get, or eagerly by CleanupExpired.
*/
package cache
