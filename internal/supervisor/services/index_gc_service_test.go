// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/storyspot/internal/config"
	"github.com/tomtom215/storyspot/internal/index"
)

type fakeGC struct {
	calls atomic.Int32
	err   error
	ran   chan struct{}
}

func (f *fakeGC) RunGC() error {
	f.calls.Add(1)
	select {
	case f.ran <- struct{}{}:
	default:
	}
	return f.err
}

func TestIndexGCService_RunsOnTicker(t *testing.T) {
	for _, gcErr := range []error{nil, errors.New("value log locked")} {
		gc := &fakeGC{err: gcErr, ran: make(chan struct{}, 8)}
		svc := NewIndexGCService(gc, 5*time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		for i := 0; i < 2; i++ {
			select {
			case <-gc.ran:
			case <-time.After(time.Second):
				t.Fatalf("RunGC ran %d times, want 2 (err=%v)", gc.calls.Load(), gcErr)
			}
		}
		cancel()
		if err := <-errCh; !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	}
}

func TestIndexGCService_DefaultInterval(t *testing.T) {
	svc := NewIndexGCService(&fakeGC{}, 0)
	if svc.interval != 10*time.Minute {
		t.Errorf("interval = %v, want 10m", svc.interval)
	}
	if svc.String() != "index-gc" {
		t.Errorf("String() = %q", svc.String())
	}
}

func TestIndexGCService_InMemoryIndex(t *testing.T) {
	idx, err := index.Open(config.IndexConfig{InMemory: true, GCDiscardRatio: 0.5})
	if err != nil {
		t.Fatalf("index.Open: %v", err)
	}
	defer idx.Close()

	var _ GarbageCollector = idx
	if err := idx.RunGC(); err != nil {
		t.Errorf("RunGC on in-memory index = %v, want nil", err)
	}
}
