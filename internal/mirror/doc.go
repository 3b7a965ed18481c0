// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

/*
Package mirror stores mirrored story videos in a Google Drive folder tree.

The layout is one directory per followed location under a configured root.
Every video in a location directory is named with models.StoryKey.Filename.

# Implementations

  - DriveStore talks to the Drive v3 REST API with an OAuth2 client.
  - CircuitBreakerStore wraps any Store with a gobreaker circuit.
  - MemoryStore keeps everything in memory for tests.

# Directory creation

EnsureDirectory resolves a directory and creates it only when resolution
reports DirectoryNotFoundError. Two concurrent callers can both observe
not-found and create duplicates; the next resolve then fails with
MultipleDirectoriesError and the sync skips that location until an operator
removes one of them. Cycles never overlap, so in practice only manual
intervention races with the sync.

# Links

ShareableLink and DirectDownloadLink are the only two URL shapes the rest of
the system uses. ExtractIDFromShareableLink is the exact inverse of
ShareableLink and is how recognition entries are joined back to files.
*/
package mirror
