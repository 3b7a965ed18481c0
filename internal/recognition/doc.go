// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

/*
Package recognition talks to the ACRCloud music recognition service.

Two surfaces are covered:

  - Service: the console API v2. A file-scanning container holds one entry
    per mirrored story, registered by its shareable URL; the service fetches
    and scans it against a reference bucket of uploaded tracks. Service
    also manages that bucket.
  - Recognizer: the signed identify endpoint, used to check a single clip on
    demand. It returns a three-way Result instead of a boolean so callers
    can tell "no match" apart from "try again".

# Implementations

	ACRCloudClient         console API over HTTP (bearer token)
	IdentifyClient         /v1/identify with HMAC-SHA1 signatures
	CircuitBreakerService  Service wrapped in a gobreaker circuit breaker
	MemoryService          in-memory Service and Recognizer for tests

The service does no deduplication of its own: registering the same URL
twice creates two entries. Callers dedup on the file id embedded in
SourceURL.

# Rate Limiting

HTTP 429 responses are retried with exponential backoff, honouring
Retry-After when present (see internal/upstream).
*/
package recognition
