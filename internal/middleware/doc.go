// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

/*
Package middleware provides HTTP middleware shared by the API router.

All middleware has the chi shape func(http.Handler) http.Handler:

  - RequestID: accepts or generates X-Request-ID and seeds the logging
    context with request and correlation ids.
  - AccessLog: one structured log line per request.
  - PrometheusMetrics: request totals, duration, and in-flight gauge,
    labeled by the chi route pattern so path parameters do not explode
    label cardinality.
*/
package middleware
