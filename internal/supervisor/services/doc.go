// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

/*
Package services adapts StorySpot components to suture's Serve pattern.

  - SyncService wraps the Start/Stop lifecycle of sync.Manager.
  - HTTPServerService wraps http.Server's ListenAndServe and Shutdown.
  - IndexGCService runs badger value log GC for the story index on a ticker.

Each wrapper returns ctx.Err() on shutdown and a wrapped error on failure so
the supervisor restarts it. Wrappers take small interfaces instead of the
concrete types, which keeps this package free of imports from the rest of
the tree and lets tests use fakes.
*/
package services
