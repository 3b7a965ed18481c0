// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package sync

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/storyspot/internal/events"
	"github.com/tomtom215/storyspot/internal/logging"
	"github.com/tomtom215/storyspot/internal/mirror"
	"github.com/tomtom215/storyspot/internal/models"
	"github.com/tomtom215/storyspot/internal/recognition"
	"github.com/tomtom215/storyspot/internal/social"
)

// StoryIndex is the subset of the story index the orchestrator uses.
// Implemented by internal/index.Index.
type StoryIndex interface {
	NeedsRefresh(location string) (bool, error)
	Rebuild(location string, videos []models.MirroredVideo) (int, error)
	Known(location string) (map[string]int, error)
	Put(key models.StoryKey, fileID string) error
	Invalidate(location string) error
}

// Deps are the collaborators of an Orchestrator. Index, Recognizer, and
// Events are optional.
type Deps struct {
	Store      mirror.Store
	Service    recognition.Service
	Recognizer recognition.Recognizer
	Source     social.Source
	Dashboard  social.Dashboard
	Index      StoryIndex
	Events     events.Publisher
}

// Options tune an Orchestrator.
type Options struct {
	// RootDirectoryID is the mirror directory holding one directory per location.
	RootDirectoryID string

	// ScratchDir receives downloads before upload or recognition.
	ScratchDir string

	// SettleDelay is waited after creating a location directory so the
	// store lists it consistently. Zero disables the wait.
	SettleDelay time.Duration

	// RecognizeAttempts bounds Identify calls per RecognizeStory. Values
	// below 1 mean 1.
	RecognizeAttempts int
}

// Orchestrator runs the sync phases.
type Orchestrator struct {
	store      mirror.Store
	service    recognition.Service
	recognizer recognition.Recognizer
	source     social.Source
	dashboard  social.Dashboard
	index      StoryIndex
	events     events.Publisher
	opts       Options

	// sleep waits for d or until ctx is done. Replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// ErrNoRecognizer is returned by RecognizeStory when no Recognizer is set.
var ErrNoRecognizer = errors.New("no recognizer configured")

// NewOrchestrator builds an Orchestrator.
func NewOrchestrator(deps Deps, opts Options) *Orchestrator {
	pub := deps.Events
	if pub == nil {
		pub = events.Noop{}
	}
	if opts.RecognizeAttempts < 1 {
		opts.RecognizeAttempts = 1
	}

	logging.Info().
		Str("root_directory_id", opts.RootDirectoryID).
		Str("scratch_dir", opts.ScratchDir).
		Dur("settle_delay", opts.SettleDelay).
		Int("recognize_attempts", opts.RecognizeAttempts).
		Bool("index", deps.Index != nil).
		Msg("Sync orchestrator configured")

	return &Orchestrator{
		store:      deps.Store,
		service:    deps.Service,
		recognizer: deps.Recognizer,
		source:     deps.Source,
		dashboard:  deps.Dashboard,
		index:      deps.Index,
		events:     pub,
		opts:       opts,
		sleep:      sleepCtx,
		now:        time.Now,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// publish logs and drops publish failures.
func (o *Orchestrator) publish(ctx context.Context, topic string, payload any) {
	if err := o.events.Publish(ctx, topic, payload); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("topic", topic).Msg("Failed to publish event")
	}
}
