// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

/*
Package index keeps a persisted BadgerDB index of mirrored stories keyed by
their parsed composite identity.

The mirror store remains the source of truth. The index lets Phase A answer
"which content ids are already mirrored at this location" without parsing
every filename in the directory on every cycle.

# Key Layout

	story:{location}\x00{date}\x00{contentId}\x00{username}  -> entry JSON
	refreshed:{location}                                     -> RFC3339Nano time

An entry holds every mirror file id seen for the key, so duplicate uploads
are counted rather than collapsed. Known returns the content id multiset
for a location.

# Refresh

A location is rebuilt from the mirror listing when it has never been
indexed or when its last rebuild is older than the refresh interval.
Rebuild replaces every story key of the location in one transaction.

Every listed file with a content id segment is indexed, so Known matches
the multiset the listing itself would give. A file whose name parses but
carries another location (a different case, for instance) is filed under
the directory's location. A legacy name that does not parse, such as
"Pacha-1_1-alice.mp4", gets a zero date and the lenient content id.

# Garbage Collection

Rebuilds leave stale values in the value log. RunGC loops RunValueLogGC
until badger reports nothing left to rewrite; the supervisor calls it on
the configured GC interval.
*/
package index
