// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package sync

import "time"

// PhaseAReport summarizes SyncUserStories.
type PhaseAReport struct {
	// Locations is the number of locations processed to completion.
	Locations int `json:"locations"`
	// Mirrored counts stories uploaded this phase.
	Mirrored int `json:"mirrored"`
	// Skipped counts stories already present in the mirror.
	Skipped int `json:"skipped"`
	// Failed counts users, stories, and locations that failed.
	Failed int `json:"failed"`
	// FailedLocations names locations aborted before their users were synced.
	FailedLocations []string `json:"failed_locations,omitempty"`
}

// PhaseBReport summarizes SyncStoriesToRecognize.
type PhaseBReport struct {
	Mirrored   int `json:"mirrored"`
	Known      int `json:"known"`
	Registered int `json:"registered"`
	Failed     int `json:"failed"`
}

// CycleReport summarizes one MasterSync.
type CycleReport struct {
	CorrelationID string        `json:"correlation_id,omitempty"`
	Today         string        `json:"today"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration_ns"`
	PhaseA        PhaseAReport  `json:"phase_a"`
	PhaseB        PhaseBReport  `json:"phase_b"`
	Error         string        `json:"error,omitempty"`
}

// Failed is the total failure count across both phases.
func (r CycleReport) Failed() int {
	return r.PhaseA.Failed + r.PhaseB.Failed
}
