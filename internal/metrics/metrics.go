// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sync cycle metrics
	SyncCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storyspot_sync_cycle_duration_seconds",
			Help:    "Duration of a full master sync cycle",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
	)

	SyncPhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyspot_sync_phase_duration_seconds",
			Help:    "Duration of a sync phase",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"phase"}, // "mirror", "register"
	)

	SyncCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyspot_sync_cycles_total",
			Help: "Total number of sync cycles by outcome",
		},
		[]string{"outcome"}, // "success", "error", "panic"
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storyspot_sync_last_success_timestamp",
			Help: "Unix timestamp of the last cycle that finished without error",
		},
	)

	StoriesMirrored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyspot_stories_mirrored_total",
			Help: "Stories downloaded from the social source and uploaded to the mirror",
		},
		[]string{"location"},
	)

	StoriesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyspot_stories_skipped_total",
			Help: "Stories not mirrored in a cycle",
		},
		[]string{"reason"}, // "known", "download_failed", "upload_failed", "fetch_failed"
	)

	StoriesRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storyspot_stories_registered_total",
			Help: "Mirrored videos registered with the recognition service",
		},
	)

	SyncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyspot_sync_errors_total",
			Help: "Errors caught and logged by the orchestrator",
		},
		[]string{"error_type"},
	)

	// Upstream client metrics
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyspot_upstream_requests_total",
			Help: "Requests made to upstream services",
		},
		[]string{"service", "operation", "status"}, // service: "mirror", "recognition", "social"
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyspot_upstream_request_duration_seconds",
			Help:    "Duration of upstream requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)

	MirrorUploadFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storyspot_mirror_upload_fallbacks_total",
			Help: "Single-shot uploads that fell back to resumable chunked upload",
		},
	)

	RescanChunkFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storyspot_recognition_rescan_chunk_failures_total",
			Help: "Rescan chunks that failed and were skipped",
		},
	)

	RecognizeOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyspot_recognize_outcomes_total",
			Help: "Clip recognition outcomes",
		},
		[]string{"outcome"}, // "match", "no_match", "transient"
	)

	SocialRateLimitWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storyspot_social_rate_limit_wait_seconds",
			Help:    "Time spent waiting for the social source request spacing",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 1.5, 2, 5, 10},
		},
	)

	// Index metrics
	IndexEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "storyspot_index_entries",
			Help: "Story index entries per location after the last rebuild",
		},
		[]string{"location"},
	)

	IndexRebuilds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storyspot_index_rebuilds_total",
			Help: "Story index rebuilds from the mirror listing",
		},
	)

	// Events
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyspot_events_published_total",
			Help: "Domain events published",
		},
		[]string{"topic", "result"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyspot_events_consumed_total",
			Help: "Domain events handled by the in-process consumer",
		},
		[]string{"topic", "result"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently being processed",
		},
	)
)

// RecordSyncCycle records the outcome of one master sync cycle.
func RecordSyncCycle(duration time.Duration, err error) {
	SyncCycleDuration.Observe(duration.Seconds())
	if err != nil {
		SyncCycles.WithLabelValues("error").Inc()
		return
	}
	SyncCycles.WithLabelValues("success").Inc()
	SyncLastSuccess.Set(float64(time.Now().Unix()))
}

// RecordSyncPanic counts a cycle that was aborted by a recovered panic.
func RecordSyncPanic() {
	SyncCycles.WithLabelValues("panic").Inc()
}

// RecordSyncPhase records the duration of one phase.
func RecordSyncPhase(phase string, duration time.Duration) {
	SyncPhaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// RecordSyncError counts an error the orchestrator caught and logged.
func RecordSyncError(errorType string) {
	SyncErrors.WithLabelValues(errorType).Inc()
}

// RecordUpstreamRequest records one upstream HTTP call. status is the HTTP
// status code, or 0 for transport errors.
func RecordUpstreamRequest(service, operation string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	UpstreamRequests.WithLabelValues(service, operation, label).Inc()
	UpstreamRequestDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight API gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordEventPublished counts a publish attempt.
func RecordEventPublished(topic string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	EventsPublished.WithLabelValues(topic, result).Inc()
}
