// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

/*
Package api provides the HTTP REST API for StorySpot.

Routes:

	GET    /api/v1/health/live                           liveness
	GET    /api/v1/health/ready                          readiness
	GET    /metrics                                      Prometheus
	GET    /api/v1/locations/{location}/matches          recognized tracks at a location
	GET    /api/v1/sync/status                           last cycle report
	POST   /api/v1/sync                                  start a cycle (admin)
	POST   /api/v1/stories/{fileID}/recognize            identify one mirrored story (admin)
	POST   /api/v1/tracks                                upload a reference track (admin)
	GET    /api/v1/tracks                                list reference tracks (admin)
	DELETE /api/v1/tracks/{id}                           delete a reference track (admin)
	POST   /api/v1/recognition/rescan                    rescan container entries (admin)
	DELETE /api/v1/recognition/entries/{id}              delete a container entry (admin)
	POST   /api/v1/mirror/locations/{location}/dedupe    remove duplicate mirrored files (admin)

Every JSON response uses the models.APIResponse envelope:

	{"status": "success", "data": ..., "metadata": {"timestamp": ..., "query_time_ms": 12}}
	{"status": "error", "error": {"code": "NOT_FOUND", "message": "..."}, "metadata": {...}}

Admin routes go through auth.Middleware.RequireAdmin. Errors from the
domain packages are mapped to status codes in one place, errorStatus, so
handlers only decide what to call.
*/
package api
