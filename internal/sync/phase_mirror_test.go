// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package sync

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/tomtom215/storyspot/internal/events"
	"github.com/tomtom215/storyspot/internal/models"
	"github.com/tomtom215/storyspot/internal/social"
)

func TestSyncUserStories_MirrorsNewStories(t *testing.T) {
	t.Parallel()

	h := newHarness(t, social.StaticDashboard{
		{Location: "Pacha", Usernames: []string{"alice", "bob", "alice"}},
	})
	dirID := h.store.AddDirectory("Pacha", testRoot)
	h.store.AddVideo(dirID, storyName("Pacha", "111_1", "alice"), testDay.Add(-24*time.Hour))
	h.source.AddStory("alice", "111_1", []byte("old"))
	h.source.AddStory("alice", "222_2", []byte("new-a"))
	h.source.AddStory("bob", "333_3", []byte("new-b"))

	report, err := h.orch.SyncUserStories(context.Background(), testDay)
	if err != nil {
		t.Fatalf("SyncUserStories() error = %v", err)
	}
	want := PhaseAReport{Locations: 1, Mirrored: 2, Skipped: 1}
	if report.Locations != want.Locations || report.Mirrored != want.Mirrored || report.Skipped != want.Skipped || report.Failed != 0 {
		t.Errorf("report = %+v, want %+v", report, want)
	}

	names := h.store.VideoNames(dirID)
	wantNames := []string{
		storyName("Pacha", "111_1", "alice"),
		storyName("Pacha", "222_2", "alice"),
		storyName("Pacha", "333_3", "bob"),
	}
	if len(names) != len(wantNames) {
		t.Fatalf("mirrored names = %v, want %v", names, wantNames)
	}
	for i := range wantNames {
		if names[i] != wantNames[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], wantNames[i])
		}
	}
	if len(h.slept) != 0 {
		t.Errorf("settle delay waited for an existing directory: %v", h.slept)
	}
	if got := h.events.count(events.TopicStoryMirrored); got != 2 {
		t.Errorf("story.mirrored events = %d, want 2", got)
	}

	known, err := h.index.Known("Pacha")
	if err != nil {
		t.Fatalf("Known() error = %v", err)
	}
	if known["111_1"] != 1 || known["222_2"] != 1 || known["333_3"] != 1 {
		t.Errorf("index after sync = %v", known)
	}
}

func TestSyncUserStories_SecondRunIsIdempotent(t *testing.T) {
	t.Parallel()

	h := newHarness(t, social.StaticDashboard{{Location: "Pacha", Usernames: []string{"alice"}}})
	h.source.AddStory("alice", "1_1", []byte("a"))
	h.source.AddStory("alice", "2_2", []byte("b"))

	for run := 1; run <= 2; run++ {
		if _, err := h.orch.SyncUserStories(context.Background(), testDay); err != nil {
			t.Fatalf("run %d: SyncUserStories() error = %v", run, err)
		}
	}
	if h.store.Uploads != 2 {
		t.Errorf("Uploads = %d after two runs, want 2", h.store.Uploads)
	}
}

func TestSyncUserStories_CreatesDirectoryAndSettles(t *testing.T) {
	t.Parallel()

	h := newHarness(t, social.StaticDashboard{{Location: "ArtClub", Usernames: []string{"carol"}}})
	h.source.AddStory("carol", "9_9", []byte("c"))

	report, err := h.orch.SyncUserStories(context.Background(), testDay)
	if err != nil {
		t.Fatalf("SyncUserStories() error = %v", err)
	}
	if report.Mirrored != 1 {
		t.Errorf("Mirrored = %d, want 1", report.Mirrored)
	}
	if len(h.slept) != 1 || h.slept[0] != 5*time.Second {
		t.Errorf("settle waits = %v, want [5s]", h.slept)
	}
	dirID, err := h.store.ResolveDirectory(context.Background(), "ArtClub", testRoot)
	if err != nil {
		t.Fatalf("ResolveDirectory() error = %v", err)
	}
	if names := h.store.VideoNames(dirID); len(names) != 1 || names[0] != storyName("ArtClub", "9_9", "carol") {
		t.Errorf("names = %v", names)
	}
}

func TestSyncUserStories_DuplicateIDsAreAMultiset(t *testing.T) {
	t.Parallel()

	// One mirrored copy of 5_5 covers exactly one story carrying that id.
	h := newHarness(t, social.StaticDashboard{{Location: "Pacha", Usernames: []string{"alice", "bob"}}}, withoutIndex())
	dirID := h.store.AddDirectory("Pacha", testRoot)
	h.store.AddVideo(dirID, storyName("Pacha", "5_5", "alice"), testDay)
	h.source.AddStory("alice", "5_5", []byte("x"))
	h.source.AddStory("bob", "5_5", []byte("y"))

	report, err := h.orch.SyncUserStories(context.Background(), testDay)
	if err != nil {
		t.Fatalf("SyncUserStories() error = %v", err)
	}
	if report.Skipped != 1 || report.Mirrored != 1 {
		t.Errorf("report = %+v, want 1 skipped and 1 mirrored", report)
	}
}

func TestSyncUserStories_FailuresAreSkipped(t *testing.T) {
	t.Parallel()

	h := newHarness(t, social.StaticDashboard{{Location: "Pacha", Usernames: []string{"alice", "bob", "carol", "dave"}}})
	h.source.FailUser["alice"] = errors.New("private account")
	h.source.AddStory("bob", "1_1", []byte("b"))
	h.source.FailDownload["1_1"] = errors.New("cdn 403")
	h.source.AddStory("carol", "2_2", []byte("c"))
	h.source.AddStory("dave", "3_3", []byte("d"))
	h.store.FailUpload = func(filename string) error {
		if filename == storyName("Pacha", "2_2", "carol") {
			return errors.New("quota")
		}
		return nil
	}

	report, err := h.orch.SyncUserStories(context.Background(), testDay)
	if err != nil {
		t.Fatalf("SyncUserStories() error = %v", err)
	}
	if report.Failed != 3 || report.Mirrored != 1 || report.Locations != 1 {
		t.Errorf("report = %+v, want 3 failed and 1 mirrored", report)
	}

	entries, _ := os.ReadDir(h.orch.opts.ScratchDir)
	if len(entries) != 0 {
		t.Errorf("scratch left %d files behind", len(entries))
	}
}

func TestSyncUserStories_InvalidStoryID(t *testing.T) {
	t.Parallel()

	h := newHarness(t, social.StaticDashboard{{Location: "Pacha", Usernames: []string{"alice"}}})
	h.source.AddStory("alice", "bad-id", []byte("x"))

	report, err := h.orch.SyncUserStories(context.Background(), testDay)
	if err != nil {
		t.Fatalf("SyncUserStories() error = %v", err)
	}
	if report.Failed != 1 || h.store.Uploads != 0 {
		t.Errorf("report = %+v, uploads = %d", report, h.store.Uploads)
	}
}

func TestSyncUserStories_AmbiguousDirectoryAbortsLocationOnly(t *testing.T) {
	t.Parallel()

	h := newHarness(t, social.StaticDashboard{
		{Location: "Twice", Usernames: []string{"alice"}},
		{Location: "Once", Usernames: []string{"bob"}},
	})
	h.store.AddDirectory("Twice", testRoot)
	h.store.AddDirectory("Twice", testRoot)
	h.source.AddStory("alice", "1_1", []byte("a"))
	h.source.AddStory("bob", "2_2", []byte("b"))

	report, err := h.orch.SyncUserStories(context.Background(), testDay)
	if err != nil {
		t.Fatalf("SyncUserStories() error = %v", err)
	}
	if report.Locations != 1 || report.Mirrored != 1 || report.Failed != 1 {
		t.Errorf("report = %+v", report)
	}
	if len(report.FailedLocations) != 1 || report.FailedLocations[0] != "Twice" {
		t.Errorf("FailedLocations = %v, want [Twice]", report.FailedLocations)
	}
}

func TestSyncUserStories_DashboardFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("scraper down")
	h := newHarness(t, nil, withDashboard(dashboardFunc(func(context.Context, time.Time) ([]models.LocationPostings, error) {
		return nil, boom
	})))

	if _, err := h.orch.SyncUserStories(context.Background(), testDay); !errors.Is(err, boom) {
		t.Errorf("SyncUserStories() error = %v, want %v", err, boom)
	}
}

func TestSyncUserStories_UsesTodayFromCaller(t *testing.T) {
	t.Parallel()

	var got time.Time
	h := newHarness(t, nil, withDashboard(dashboardFunc(func(_ context.Context, today time.Time) ([]models.LocationPostings, error) {
		got = today
		return []models.LocationPostings{{Location: "Pacha", Usernames: []string{"alice"}}}, nil
	})))
	h.source.AddStory("alice", "7_7", []byte("a"))

	loc := time.FixedZone("UTC+9", 9*3600)
	today := time.Date(2026, 6, 13, 1, 0, 0, 0, loc)
	if _, err := h.orch.SyncUserStories(context.Background(), today); err != nil {
		t.Fatal(err)
	}
	if !got.Equal(today) {
		t.Errorf("dashboard saw %v, want %v", got, today)
	}
	dirID, _ := h.store.ResolveDirectory(context.Background(), "Pacha", testRoot)
	names := h.store.VideoNames(dirID)
	if len(names) != 1 || names[0] != "Pacha-2026-06-13-7_7-alice.mp4" {
		t.Errorf("names = %v, want the caller's calendar date", names)
	}
}

type failingIndex struct{ StoryIndex }

func (failingIndex) NeedsRefresh(string) (bool, error) { return false, errors.New("index corrupt") }

func TestSyncUserStories_IndexFailureFallsBackToListing(t *testing.T) {
	t.Parallel()

	h := newHarness(t, social.StaticDashboard{{Location: "Pacha", Usernames: []string{"alice"}}}, withIndex(failingIndex{}))
	dirID := h.store.AddDirectory("Pacha", testRoot)
	h.store.AddVideo(dirID, storyName("Pacha", "1_1", "alice"), testDay)
	h.source.AddStory("alice", "1_1", []byte("a"))

	report, err := h.orch.SyncUserStories(context.Background(), testDay)
	if err != nil {
		t.Fatalf("SyncUserStories() error = %v", err)
	}
	if report.Skipped != 1 || report.Mirrored != 0 {
		t.Errorf("report = %+v, want the listed story skipped", report)
	}
}

func TestSyncUserStories_StaleIndexIsRebuilt(t *testing.T) {
	t.Parallel()

	h := newHarness(t, social.StaticDashboard{{Location: "Pacha", Usernames: []string{"alice"}}})
	dirID := h.store.AddDirectory("Pacha", testRoot)
	h.source.AddStory("alice", "1_1", []byte("a"))

	if _, err := h.orch.SyncUserStories(context.Background(), testDay); err != nil {
		t.Fatal(err)
	}
	// A copy uploaded out of band is only seen after the index is refreshed.
	h.store.AddVideo(dirID, storyName("Pacha", "2_2", "alice"), testDay)
	h.source.AddStory("alice", "2_2", []byte("b"))
	if err := h.index.Invalidate("Pacha"); err != nil {
		t.Fatal(err)
	}

	report, err := h.orch.SyncUserStories(context.Background(), testDay)
	if err != nil {
		t.Fatal(err)
	}
	if report.Skipped != 2 || report.Mirrored != 0 {
		t.Errorf("report = %+v, want both stories known", report)
	}
}

func TestSyncUserStories_LegacyNamesAreKnown(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		existing string
		indexed  bool
	}{
		{"lowercase location, indexed", "pacha-2023-10-11-1_1-alice.mp4", true},
		{"lowercase location, listing", "pacha-2023-10-11-1_1-alice.mp4", false},
		{"no date, indexed", "Pacha-1_1-alice.mp4", true},
		{"no date, listing", "Pacha-1_1-alice.mp4", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var opts []harnessOption
			if !tt.indexed {
				opts = append(opts, withoutIndex())
			}
			h := newHarness(t, social.StaticDashboard{{Location: "Pacha", Usernames: []string{"alice"}}}, opts...)
			dirID := h.store.AddDirectory("Pacha", testRoot)
			h.store.AddVideo(dirID, tt.existing, testDay.AddDate(0, 0, -1))
			h.source.AddStory("alice", "1_1", []byte("a"))

			report, err := h.orch.SyncUserStories(context.Background(), testDay)
			if err != nil {
				t.Fatalf("SyncUserStories() error = %v", err)
			}
			if report.Skipped != 1 || report.Mirrored != 0 {
				t.Errorf("report = %+v, want the story skipped", report)
			}
			if names := h.store.VideoNames(dirID); len(names) != 1 {
				t.Errorf("names = %v, want only %s", names, tt.existing)
			}
		})
	}
}

func TestSyncUserStories_HyphenatedLocation(t *testing.T) {
	t.Parallel()

	h := newHarness(t, social.StaticDashboard{{Location: "Art-Club", Usernames: []string{"alice"}}})
	h.source.AddStory("alice", "555_1", []byte("a"))

	report, err := h.orch.SyncUserStories(context.Background(), testDay)
	if err != nil {
		t.Fatalf("SyncUserStories() error = %v", err)
	}
	if report.Mirrored != 1 || report.Failed != 0 {
		t.Fatalf("report = %+v, want 1 mirrored", report)
	}
	dirID, err := h.store.ResolveDirectory(context.Background(), "Art-Club", testRoot)
	if err != nil {
		t.Fatalf("ResolveDirectory() error = %v", err)
	}
	names := h.store.VideoNames(dirID)
	if len(names) != 1 || names[0] != "Art-Club-2026-06-12-555_1-alice.mp4" {
		t.Errorf("names = %v", names)
	}

	report, err = h.orch.SyncUserStories(context.Background(), testDay)
	if err != nil {
		t.Fatal(err)
	}
	if report.Skipped != 1 || report.Mirrored != 0 {
		t.Errorf("second run report = %+v, want the story known", report)
	}
}

// putFailingIndex fails every Put and records invalidations.
type putFailingIndex struct {
	StoryIndex
	invalidated []string
}

func (p *putFailingIndex) Put(models.StoryKey, string) error { return errors.New("disk full") }

func (p *putFailingIndex) Invalidate(location string) error {
	p.invalidated = append(p.invalidated, location)
	return p.StoryIndex.Invalidate(location)
}

func TestSyncUserStories_IndexPutFailureInvalidates(t *testing.T) {
	t.Parallel()

	h := newHarness(t, social.StaticDashboard{{Location: "Pacha", Usernames: []string{"alice"}}})
	idx := &putFailingIndex{StoryIndex: h.index}
	h.orch.index = idx
	h.source.AddStory("alice", "1_1", []byte("a"))

	report, err := h.orch.SyncUserStories(context.Background(), testDay)
	if err != nil {
		t.Fatal(err)
	}
	if report.Mirrored != 1 {
		t.Fatalf("report = %+v, want 1 mirrored", report)
	}
	if len(idx.invalidated) != 1 || idx.invalidated[0] != "Pacha" {
		t.Errorf("invalidated = %v, want [Pacha]", idx.invalidated)
	}

	// The next cycle rebuilds from the listing and does not upload again.
	report, err = h.orch.SyncUserStories(context.Background(), testDay)
	if err != nil {
		t.Fatal(err)
	}
	if report.Skipped != 1 || report.Mirrored != 0 || h.store.Uploads != 1 {
		t.Errorf("report = %+v, uploads = %d, want the story known", report, h.store.Uploads)
	}
}
