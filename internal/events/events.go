// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package events

import (
	"context"
	"time"
)

// Topics.
const (
	TopicStoryMirrored   = "story.mirrored"
	TopicStoryRegistered = "story.registered"
	TopicCycleCompleted  = "sync.cycle_completed"
)

// Publisher publishes domain events.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
	Close() error
}

// StoryMirrored is the payload of TopicStoryMirrored.
type StoryMirrored struct {
	Location  string    `json:"location"`
	Date      string    `json:"date"`
	ContentID string    `json:"content_id"`
	Username  string    `json:"username"`
	Filename  string    `json:"filename"`
	FileID    string    `json:"file_id"`
	At        time.Time `json:"at"`
}

// StoryRegistered is the payload of TopicStoryRegistered.
type StoryRegistered struct {
	FileID  string    `json:"file_id"`
	Name    string    `json:"name"`
	URL     string    `json:"url"`
	EntryID string    `json:"entry_id"`
	At      time.Time `json:"at"`
}

// CycleCompleted is the payload of TopicCycleCompleted.
type CycleCompleted struct {
	CorrelationID string        `json:"correlation_id"`
	Today         string        `json:"today"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration_ns"`
	Mirrored      int           `json:"mirrored"`
	Registered    int           `json:"registered"`
	Failed        int           `json:"failed"`
	Error         string        `json:"error,omitempty"`
}

// Noop discards every event.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, string, any) error { return nil }

// Close implements Publisher.
func (Noop) Close() error { return nil }
