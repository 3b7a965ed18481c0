// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

/*
Command server runs StorySpot: it mirrors the day's social stories posted at
followed locations into Google Drive, registers them with ACRCloud for music
recognition, and serves location queries over HTTP.

# Supervision

	RootSupervisor ("storyspot")
	├── DataSupervisor ("data-layer")
	│   └── index-gc
	├── MessagingSupervisor ("messaging-layer")
	│   ├── sync-manager
│   └── event-consumer (in-process events only)
	└── APISupervisor ("api-layer")
	    └── http-server

Initialization order:

 1. Configuration: koanf (defaults, optional config.yaml, environment)
 2. Logging: zerolog
 3. Clients: Drive mirror, ACRCloud, RapidAPI, each optionally behind a
    circuit breaker
 4. Story index (badger) and event publisher (watermill)
 5. Sync orchestrator and manager
 6. HTTP router with auth, CORS, rate limits and metrics
 7. Supervisor tree, until SIGINT or SIGTERM

# Flags

	-issue-token NAME   print an admin JWT for NAME and exit
	-token-ttl D        lifetime of the issued token (default 720h)
	-version            print the version and exit

# Example

	export DRIVE_ROOT_DIRECTORY_ID=1AbC...
	export DRIVE_CLIENT_ID=... DRIVE_CLIENT_SECRET=... DRIVE_REFRESH_TOKEN=...
	export ACRCLOUD_BEARER_TOKEN=... ACRCLOUD_CONTAINER_ID=... ACRCLOUD_BUCKET_ID=...
	export RAPIDAPI_KEY=...
	export FOLLOWED_LOCATIONS="Pacha:123456,Amnesia:654321"
	export AUTH_MODE=jwt JWT_SECRET=$(openssl rand -base64 48)
	./server
*/
package main
