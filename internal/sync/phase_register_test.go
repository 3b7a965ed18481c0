// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/storyspot/internal/events"
	"github.com/tomtom215/storyspot/internal/mirror"
	"github.com/tomtom215/storyspot/internal/recognition"
)

func TestSyncStoriesToRecognize(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	pacha := h.store.AddDirectory("Pacha", testRoot)
	art := h.store.AddDirectory("ArtClub", testRoot)
	h.store.AddDirectory("Other", "elsewhere")

	registered := h.store.AddVideo(pacha, storyName("Pacha", "1_1", "alice"), testDay)
	fresh := h.store.AddVideo(pacha, storyName("Pacha", "2_2", "bob"), testDay)
	other := h.store.AddVideo(art, storyName("ArtClub", "3_3", "carol"), testDay)
	h.service.AddEntry(storyName("Pacha", "1_1", "alice"), mirror.ShareableLink(registered), nil)
	h.service.AddEntry("manual upload", "", nil)

	report, err := h.orch.SyncStoriesToRecognize(context.Background())
	if err != nil {
		t.Fatalf("SyncStoriesToRecognize() error = %v", err)
	}
	if report.Mirrored != 3 || report.Known != 1 || report.Registered != 2 || report.Failed != 0 {
		t.Errorf("report = %+v", report)
	}

	urls := map[string]string{}
	for _, e := range h.service.Entries() {
		urls[e.SourceURL] = e.Name
	}
	if urls[mirror.ShareableLink(fresh)] != storyName("Pacha", "2_2", "bob") {
		t.Errorf("entry for %s missing or misnamed: %v", fresh, urls)
	}
	if urls[mirror.ShareableLink(other)] != storyName("ArtClub", "3_3", "carol") {
		t.Errorf("entry for %s missing or misnamed: %v", other, urls)
	}
	if got := h.events.count(events.TopicStoryRegistered); got != 2 {
		t.Errorf("story.registered events = %d, want 2", got)
	}

	again, err := h.orch.SyncStoriesToRecognize(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if again.Registered != 0 || again.Known != 3 {
		t.Errorf("second run = %+v, want nothing registered", again)
	}
}

func TestSyncStoriesToRecognize_RegisterFailureIsSkipped(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	dir := h.store.AddDirectory("Pacha", testRoot)
	bad := h.store.AddVideo(dir, storyName("Pacha", "1_1", "alice"), testDay)
	h.store.AddVideo(dir, storyName("Pacha", "2_2", "bob"), testDay)
	h.service.FailRegister = func(req recognition.RegisterRequest) error {
		if req.URL == mirror.ShareableLink(bad) {
			return errors.New("invalid media")
		}
		return nil
	}

	report, err := h.orch.SyncStoriesToRecognize(context.Background())
	if err != nil {
		t.Fatalf("SyncStoriesToRecognize() error = %v", err)
	}
	if report.Failed != 1 || report.Registered != 1 {
		t.Errorf("report = %+v, want 1 failed and 1 registered", report)
	}
}

func TestSyncStoriesToRecognize_EntryMultiset(t *testing.T) {
	t.Parallel()

	// Two entries for one file do not cover a second, unrelated file.
	h := newHarness(t, nil)
	dir := h.store.AddDirectory("Pacha", testRoot)
	a := h.store.AddVideo(dir, storyName("Pacha", "1_1", "alice"), testDay)
	h.store.AddVideo(dir, storyName("Pacha", "2_2", "bob"), testDay)
	h.service.AddEntry("x", mirror.ShareableLink(a), nil)
	h.service.AddEntry("x", mirror.ShareableLink(a), nil)

	report, err := h.orch.SyncStoriesToRecognize(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Known != 1 || report.Registered != 1 {
		t.Errorf("report = %+v", report)
	}
}
