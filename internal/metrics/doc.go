// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

/*
Package metrics defines the Prometheus collectors exported at /metrics.

All collectors are registered on the default registry through promauto, so
importing the package is enough to expose them.

# Sync

  - storyspot_sync_cycle_duration_seconds, storyspot_sync_phase_duration_seconds{phase}
  - storyspot_sync_cycles_total{outcome}, storyspot_sync_last_success_timestamp
  - storyspot_stories_mirrored_total{location}, storyspot_stories_skipped_total{reason}
  - storyspot_stories_registered_total, storyspot_sync_errors_total{error_type}

# Upstream services

  - storyspot_upstream_requests_total{service,operation,status}
  - storyspot_upstream_request_duration_seconds{service,operation}
  - storyspot_mirror_upload_fallbacks_total
  - storyspot_recognition_rescan_chunk_failures_total
  - storyspot_recognize_outcomes_total{outcome}
  - storyspot_social_rate_limit_wait_seconds
  - circuit_breaker_* (state, requests, consecutive failures, transitions)

# Index, events, API

  - storyspot_index_entries{location}, storyspot_index_rebuilds_total
  - storyspot_events_published_total{topic,result}
  - api_requests_total, api_request_duration_seconds, api_active_requests
*/
package metrics
