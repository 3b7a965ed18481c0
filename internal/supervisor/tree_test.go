// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewSupervisorTree_Defaults(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{})
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}
	if tree.Root() == nil {
		t.Fatal("root supervisor is nil")
	}
	if tree.config != DefaultTreeConfig() {
		t.Errorf("config = %+v, want defaults %+v", tree.config, DefaultTreeConfig())
	}
}

func TestNewSupervisorTree_KeepsExplicitValues(t *testing.T) {
	cfg := TreeConfig{FailureThreshold: 2, FailureDecay: 1, FailureBackoff: time.Second, ShutdownTimeout: 3 * time.Second}
	tree, err := NewSupervisorTree(nil, cfg)
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}
	if tree.config != cfg {
		t.Errorf("config = %+v, want %+v", tree.config, cfg)
	}
}

func TestSupervisorTree_StartsEveryLayer(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}

	services := map[string]*fakeService{
		"data":      newFakeService("index-gc", 0),
		"messaging": newFakeService("sync-manager", 0),
		"api":       newFakeService("http-server", 0),
	}
	tree.AddDataService(services["data"])
	tree.AddMessagingService(services["messaging"])
	tree.AddAPIService(services["api"])

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	for layer, svc := range services {
		if !svc.waitStarts(1, 2*time.Second) {
			t.Errorf("%s layer service %s was not started", layer, svc)
		}
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not shut down")
	}
}

func TestSupervisorTree_RestartsFailingServiceInIsolation(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}

	flaky := newFakeService("sync-manager", 2)
	stable := newFakeService("http-server", 0)
	tree.AddMessagingService(flaky)
	tree.AddAPIService(stable)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	if !flaky.waitStarts(3, 2*time.Second) {
		t.Errorf("flaky service started %d times, want at least 3", flaky.starts.Load())
	}
	if got := stable.starts.Load(); got != 1 {
		t.Errorf("stable service started %d times, want 1", got)
	}

	cancel()
	<-errCh
}

func TestSupervisorTree_DoNotRestart(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{FailureBackoff: 10 * time.Millisecond, ShutdownTimeout: time.Second})
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}

	counter := &oneShotService{}
	tree.AddDataService(counter)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	<-tree.ServeBackground(ctx)

	if got := counter.calls.Load(); got != 1 {
		t.Errorf("service ran %d times, want 1", got)
	}
}
