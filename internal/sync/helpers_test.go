// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package sync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/storyspot/internal/config"
	"github.com/tomtom215/storyspot/internal/index"
	"github.com/tomtom215/storyspot/internal/mirror"
	"github.com/tomtom215/storyspot/internal/models"
	"github.com/tomtom215/storyspot/internal/recognition"
	"github.com/tomtom215/storyspot/internal/social"
)

const testRoot = "root"

// testDay is the "today" used across the package tests.
var testDay = time.Date(2026, 6, 12, 14, 30, 0, 0, time.UTC)

type harness struct {
	store   *mirror.MemoryStore
	service *recognition.MemoryService
	source  *social.MemorySource
	index   *index.Index
	events  *recordingPublisher
	orch    *Orchestrator
	slept   []time.Duration
}

type harnessOption func(*Deps, *Options)

func withDashboard(d social.Dashboard) harnessOption {
	return func(deps *Deps, _ *Options) { deps.Dashboard = d }
}

func withoutIndex() harnessOption {
	return func(deps *Deps, _ *Options) { deps.Index = nil }
}

func withIndex(idx StoryIndex) harnessOption {
	return func(deps *Deps, _ *Options) { deps.Index = idx }
}

func withAttempts(n int) harnessOption {
	return func(_ *Deps, opts *Options) { opts.RecognizeAttempts = n }
}

func newHarness(t *testing.T, postings social.StaticDashboard, options ...harnessOption) *harness {
	t.Helper()

	idx, err := index.Open(config.IndexConfig{InMemory: true, RefreshInterval: time.Hour})
	if err != nil {
		t.Fatalf("index.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })

	h := &harness{
		store:   mirror.NewMemoryStore(),
		service: recognition.NewMemoryService(),
		source:  social.NewMemorySource(),
		index:   idx,
		events:  &recordingPublisher{},
	}
	deps := Deps{
		Store:      h.store,
		Service:    h.service,
		Recognizer: h.service,
		Source:     h.source,
		Dashboard:  postings,
		Index:      idx,
		Events:     h.events,
	}
	opts := Options{
		RootDirectoryID:   testRoot,
		ScratchDir:        t.TempDir(),
		SettleDelay:       5 * time.Second,
		RecognizeAttempts: 3,
	}
	for _, o := range options {
		o(&deps, &opts)
	}

	h.orch = NewOrchestrator(deps, opts)
	h.orch.sleep = func(ctx context.Context, d time.Duration) error {
		h.slept = append(h.slept, d)
		return ctx.Err()
	}
	h.orch.now = func() time.Time { return testDay }
	return h
}

func storyName(location, id, user string) string {
	return models.StoryKey{Location: location, Date: models.Day(testDay), ContentID: id, Username: user}.Filename()
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []any
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, payload)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, t := range p.topics {
		if t == topic {
			n++
		}
	}
	return n
}

// dashboardFunc adapts a function to social.Dashboard.
type dashboardFunc func(ctx context.Context, today time.Time) ([]models.LocationPostings, error)

func (f dashboardFunc) TodayPostings(ctx context.Context, today time.Time) ([]models.LocationPostings, error) {
	return f(ctx, today)
}
