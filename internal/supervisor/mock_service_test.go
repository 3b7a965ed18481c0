// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/thejerf/suture/v4"
)

var errSimulated = errors.New("simulated failure")

// fakeService is a suture.Service that can fail a fixed number of times
// before running until its context is canceled.
type fakeService struct {
	name     string
	failures atomic.Int32
	starts   atomic.Int32
	started  chan struct{}
}

func newFakeService(name string, failures int) *fakeService {
	s := &fakeService{name: name, started: make(chan struct{}, 64)}
	s.failures.Store(int32(failures))
	return s
}

func (s *fakeService) Serve(ctx context.Context) error {
	s.starts.Add(1)
	select {
	case s.started <- struct{}{}:
	default:
	}
	if s.failures.Add(-1) >= 0 {
		return errSimulated
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *fakeService) String() string { return s.name }

// waitStarts blocks until the service has been started n times or the
// timeout passes.
func (s *fakeService) waitStarts(n int32, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for s.starts.Load() < n {
		select {
		case <-s.started:
		case <-deadline:
			return false
		}
	}
	return true
}

// oneShotService asks suture not to restart it.
type oneShotService struct {
	calls atomic.Int32
}

func (s *oneShotService) Serve(context.Context) error {
	s.calls.Add(1)
	return suture.ErrDoNotRestart
}
