// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package sync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/storyspot/internal/config"
	"github.com/tomtom215/storyspot/internal/events"
	"github.com/tomtom215/storyspot/internal/metrics"
	"github.com/tomtom215/storyspot/internal/models"
	"github.com/tomtom215/storyspot/internal/social"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestManager_TriggerSync(t *testing.T) {
	t.Parallel()

	h := newHarness(t, social.StaticDashboard{{Location: "Pacha", Usernames: []string{"alice"}}})
	h.source.AddStory("alice", "1_1", []byte("a"))
	writeFile(t, filepath.Join(h.orch.opts.ScratchDir, "leftover.mp4"), "stale")

	loc := time.FixedZone("UTC-3", -3*3600)
	m := NewManager(h.orch, config.SyncConfig{}, loc)
	m.now = func() time.Time { return time.Date(2026, 6, 13, 1, 0, 0, 0, time.UTC) }

	var callbackReport CycleReport
	m.SetOnCycleCompleted(func(r CycleReport) { callbackReport = r })

	report, err := m.TriggerSync(context.Background())
	if err != nil {
		t.Fatalf("TriggerSync() error = %v", err)
	}
	// 01:00 UTC on the 13th is still the 12th at UTC-3.
	if report.Today != "2026-06-12" {
		t.Errorf("Today = %q, want 2026-06-12", report.Today)
	}
	if report.CorrelationID == "" {
		t.Error("cycle has no correlation id")
	}
	if callbackReport.CorrelationID != report.CorrelationID {
		t.Errorf("callback report = %+v", callbackReport)
	}
	if m.LastSyncTime().IsZero() {
		t.Error("LastSyncTime() is zero after a clean cycle")
	}
	if last := m.LastReport(); last == nil || last.PhaseA.Mirrored != 1 {
		t.Errorf("LastReport() = %+v", last)
	}
	if got := h.events.count(events.TopicCycleCompleted); got != 1 {
		t.Errorf("cycle_completed events = %d, want 1", got)
	}
	if entries, _ := os.ReadDir(h.orch.opts.ScratchDir); len(entries) != 0 {
		t.Errorf("scratch not cleared: %d entries", len(entries))
	}
}

func TestManager_FailedCycleKeepsLastSyncTime(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, withDashboard(dashboardFunc(func(context.Context, time.Time) ([]models.LocationPostings, error) {
		return nil, errors.New("down")
	})))
	m := NewManager(h.orch, config.SyncConfig{}, nil)

	if _, err := m.TriggerSync(context.Background()); err == nil {
		t.Fatal("TriggerSync() succeeded with a failing dashboard")
	}
	if !m.LastSyncTime().IsZero() {
		t.Error("LastSyncTime() set by a failed cycle")
	}
	if last := m.LastReport(); last == nil || last.Error == "" {
		t.Errorf("LastReport() = %+v, want the error recorded", last)
	}
}

func TestManager_RecoversPanic(t *testing.T) {
	h := newHarness(t, nil, withDashboard(dashboardFunc(func(context.Context, time.Time) ([]models.LocationPostings, error) {
		panic("nil map")
	})))
	m := NewManager(h.orch, config.SyncConfig{}, nil)
	before := testutil.ToFloat64(metrics.SyncCycles.WithLabelValues("panic"))

	_, err := m.TriggerSync(context.Background())
	if err == nil {
		t.Fatal("TriggerSync() returned nil after a panic")
	}
	if got := testutil.ToFloat64(metrics.SyncCycles.WithLabelValues("panic")) - before; got != 1 {
		t.Errorf("panic cycles delta = %v, want 1", got)
	}
	if last := m.LastReport(); last == nil || last.Error == "" {
		t.Errorf("LastReport() = %+v", last)
	}

	// The manager stays usable.
	if _, err := m.TriggerSync(context.Background()); err == nil {
		t.Error("second TriggerSync() unexpectedly succeeded")
	}
}

func TestManager_TryTriggerSync(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	h := newHarness(t, nil, withDashboard(dashboardFunc(func(context.Context, time.Time) ([]models.LocationPostings, error) {
		started <- struct{}{}
		<-release
		return nil, nil
	})))
	m := NewManager(h.orch, config.SyncConfig{}, nil)
	done := make(chan CycleReport, 1)
	m.SetOnCycleCompleted(func(r CycleReport) { done <- r })

	if err := m.TryTriggerSync(context.Background()); err != nil {
		t.Fatalf("TryTriggerSync() error = %v", err)
	}
	<-started
	if err := m.TryTriggerSync(context.Background()); !errors.Is(err, ErrSyncInProgress) {
		t.Errorf("TryTriggerSync() during a cycle error = %v, want ErrSyncInProgress", err)
	}
	close(release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("triggered cycle did not finish")
	}
}

func TestManager_StartStop(t *testing.T) {
	t.Parallel()

	h := newHarness(t, social.StaticDashboard{})
	m := NewManager(h.orch, config.SyncConfig{Enabled: true, RunOnStartup: true, Cooldown: time.Hour}, nil)
	done := make(chan struct{}, 1)
	m.SetOnCycleCompleted(func(CycleReport) { done <- struct{}{} })

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := m.Start(context.Background()); err == nil {
		t.Error("second Start() succeeded")
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("startup cycle did not run")
	}
	if !m.Running() {
		t.Error("Running() = false after Start")
	}

	stopped := make(chan error, 1)
	go func() { stopped <- m.Stop() }()
	select {
	case err := <-stopped:
		if err != nil {
			t.Errorf("Stop() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Stop() did not interrupt the cooldown")
	}
	if err := m.Stop(); err == nil {
		t.Error("second Stop() succeeded")
	}
}

func TestManager_DisabledLoop(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	m := NewManager(h.orch, config.SyncConfig{Enabled: false}, nil)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if m.Running() {
		t.Error("Running() = true with the loop disabled")
	}
}

func TestClearScratch(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "scratch")
	if err := ClearScratch(dir); err != nil {
		t.Fatalf("ClearScratch(missing) error = %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("scratch dir not created: %v", err)
	}

	writeFile(t, filepath.Join(dir, "a.mp4"), "a")
	writeFile(t, filepath.Join(dir, "nested", "b.mp4"), "b")
	if err := ClearScratch(dir); err != nil {
		t.Fatalf("ClearScratch() error = %v", err)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("ClearScratch() left %d entries", len(entries))
	}
	if err := ClearScratch(""); err != nil {
		t.Errorf("ClearScratch(\"\") error = %v", err)
	}
}
