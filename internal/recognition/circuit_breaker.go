// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package recognition

import (
	"context"
	"errors"

	"github.com/tomtom215/storyspot/internal/breaker"
	"github.com/tomtom215/storyspot/internal/models"
)

// CircuitBreakerService wraps a Service with a circuit breaker.
//
// Rescan already reports per-batch failures, so a tripped breaker surfaces
// as one failure entry covering every id.
type CircuitBreakerService struct {
	svc Service
	cb  *breaker.Breaker
}

var _ Service = (*CircuitBreakerService)(nil)

// NewCircuitBreakerService wraps svc with the "acrcloud-api" breaker.
func NewCircuitBreakerService(svc Service) *CircuitBreakerService {
	return &CircuitBreakerService{
		svc: svc,
		cb: breaker.NewWithSettings("acrcloud-api", breaker.Settings{
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
		}),
	}
}

// State returns the breaker state for health reporting.
func (c *CircuitBreakerService) State() string { return c.cb.State() }

// Register implements Service.
func (c *CircuitBreakerService) Register(ctx context.Context, req RegisterRequest) (string, error) {
	id, err := breaker.Call(c.cb, func() (string, error) {
		return c.svc.Register(ctx, req)
	})
	if err != nil && breaker.IsRejected(err) {
		return "", &RegisterError{URL: req.URL, Err: err}
	}
	return id, err
}

// ListAllWithResults implements Service.
func (c *CircuitBreakerService) ListAllWithResults(ctx context.Context) ([]models.RecognitionEntry, error) {
	return breaker.Call(c.cb, func() ([]models.RecognitionEntry, error) {
		return c.svc.ListAllWithResults(ctx)
	})
}

// DeleteEntry implements Service.
func (c *CircuitBreakerService) DeleteEntry(ctx context.Context, entryID string) error {
	err := c.cb.Run(func() error { return c.svc.DeleteEntry(ctx, entryID) })
	if err != nil && breaker.IsRejected(err) {
		return &DeleteError{ID: entryID, Err: err}
	}
	return err
}

// Rescan implements Service.
func (c *CircuitBreakerService) Rescan(ctx context.Context, entryIDs []string) RescanReport {
	report, err := breaker.Call(c.cb, func() (RescanReport, error) {
		r := c.svc.Rescan(ctx, entryIDs)
		if len(entryIDs) > 0 && r.Rescanned == 0 && len(r.Failures) > 0 {
			return r, errors.New(r.Failures[0].Error)
		}
		return r, nil
	})
	if err != nil && breaker.IsRejected(err) {
		return RescanReport{
			Requested: len(entryIDs),
			Failures:  []RescanChunkFailure{{IDs: append([]string(nil), entryIDs...), Error: err.Error()}},
		}
	}
	return report
}

// UploadTrack implements Service.
func (c *CircuitBreakerService) UploadTrack(ctx context.Context, track TrackUpload) (string, error) {
	return breaker.Call(c.cb, func() (string, error) {
		return c.svc.UploadTrack(ctx, track)
	})
}

// ListTracks implements Service.
func (c *CircuitBreakerService) ListTracks(ctx context.Context) ([]models.Track, error) {
	return breaker.Call(c.cb, func() ([]models.Track, error) {
		return c.svc.ListTracks(ctx)
	})
}

// DeleteTrack implements Service.
func (c *CircuitBreakerService) DeleteTrack(ctx context.Context, trackID string) error {
	return c.cb.Run(func() error { return c.svc.DeleteTrack(ctx, trackID) })
}
