// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package services

import (
	"context"
	"time"

	"github.com/tomtom215/storyspot/internal/logging"
)

// GarbageCollector is satisfied by *index.Index.
type GarbageCollector interface {
	RunGC() error
}

// IndexGCService reclaims badger value log space for the story index.
// GC errors are logged and retried on the next tick; they never restart the
// service because a stale value log only costs disk.
type IndexGCService struct {
	gc       GarbageCollector
	interval time.Duration
	name     string
}

// NewIndexGCService runs gc.RunGC every interval. A non-positive interval
// defaults to ten minutes.
func NewIndexGCService(gc GarbageCollector, interval time.Duration) *IndexGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &IndexGCService{
		gc:       gc,
		interval: interval,
		name:     "index-gc",
	}
}

// Serve implements suture.Service.
func (s *IndexGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := s.gc.RunGC(); err != nil {
				logging.Warn().Err(err).Msg("Story index GC failed")
				continue
			}
			logging.Debug().Dur("duration", time.Since(start)).Msg("Story index GC completed")
		}
	}
}

// String implements fmt.Stringer.
func (s *IndexGCService) String() string {
	return s.name
}
