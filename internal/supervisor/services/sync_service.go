// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package services

import (
	"context"
	"fmt"
)

// StartStopManager is the lifecycle of *sync.Manager.
type StartStopManager interface {
	Start(ctx context.Context) error
	Stop() error
}

// SyncService runs the sync manager under supervision. Start spawns the
// periodic loop; Stop waits for an in-flight cycle to finish.
type SyncService struct {
	manager StartStopManager
	name    string
}

// NewSyncService wraps manager.
func NewSyncService(manager StartStopManager) *SyncService {
	return &SyncService{
		manager: manager,
		name:    "sync-manager",
	}
}

// Serve implements suture.Service. A failed Start is returned so suture
// retries it with backoff.
func (s *SyncService) Serve(ctx context.Context) error {
	if err := s.manager.Start(ctx); err != nil {
		return fmt.Errorf("sync manager start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.manager.Stop(); err != nil {
		return fmt.Errorf("sync manager stop failed: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer. Suture uses it in log events.
func (s *SyncService) String() string {
	return s.name
}
