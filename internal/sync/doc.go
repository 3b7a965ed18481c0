// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

/*
Package sync orchestrates the story pipeline: mirroring location stories to
the cloud store and registering mirrored videos for recognition.

Key Components:

  - Orchestrator: the two sync phases, MasterSync, and RecognizeStory
  - Manager: runs MasterSync cycles back to back with a cooldown
  - Catalog: reference track management with duplicate detection

Phase A (SyncUserStories):

 1. Ask the Dashboard which accounts posted at each followed location today
 2. Ensure the location directory exists under the mirror root
 3. Load the content id multiset for the location from the story index,
    rebuilding it from the mirror listing when stale
 4. Fetch each account's stories; known ids are consumed from the multiset,
    the rest are downloaded to scratch and uploaded under their canonical
    filename

Phase B (SyncStoriesToRecognize):

 1. List every video in every location directory
 2. List every recognition entry and extract the mirror file id from its URL
 3. Register each video whose id is not in the entry multiset

Both phases are sequential and best effort: a failure on one user, story,
location, or video is logged at the point it is caught and counted in the
phase report, and the phase moves on. Only failures that make the whole
phase meaningless (the dashboard, the root listing, the entry listing)
abort it.

Thread Safety:

  - Manager.syncMu: one cycle at a time, whether scheduled or triggered
  - Manager.mu: protects lastSync, lastReport, and running
  - The Orchestrator itself keeps no mutable state between calls; today is
    always passed in
*/
package sync
