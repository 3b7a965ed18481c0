// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package mirror

import (
	"context"
	"errors"

	"github.com/tomtom215/storyspot/internal/breaker"
	"github.com/tomtom215/storyspot/internal/models"
)

// CircuitBreakerStore wraps a Store with a circuit breaker so a Drive outage
// fails fast instead of stalling every location in a cycle.
//
// Lookups that end in *DirectoryNotFoundError or *MultipleDirectoriesError
// are answers, not outages, and count as successes.
type CircuitBreakerStore struct {
	store Store
	cb    *breaker.Breaker
}

var _ Store = (*CircuitBreakerStore)(nil)

// NewCircuitBreakerStore wraps store with the "drive-api" breaker.
func NewCircuitBreakerStore(store Store) *CircuitBreakerStore {
	return &CircuitBreakerStore{
		store: store,
		cb: breaker.NewWithSettings("drive-api", breaker.Settings{
			IsSuccessful: isAnswer,
		}),
	}
}

func isAnswer(err error) bool {
	if err == nil {
		return true
	}
	var notFound *DirectoryNotFoundError
	var multiple *MultipleDirectoriesError
	return errors.As(err, &notFound) || errors.As(err, &multiple) || errors.Is(err, context.Canceled)
}

// State returns the breaker state for health reporting.
func (c *CircuitBreakerStore) State() string { return c.cb.State() }

// ResolveDirectory implements Store.
func (c *CircuitBreakerStore) ResolveDirectory(ctx context.Context, name, parentID string) (string, error) {
	return breaker.Call(c.cb, func() (string, error) {
		return c.store.ResolveDirectory(ctx, name, parentID)
	})
}

// CreateDirectory implements Store.
func (c *CircuitBreakerStore) CreateDirectory(ctx context.Context, name, parentID string) (string, error) {
	return breaker.Call(c.cb, func() (string, error) {
		return c.store.CreateDirectory(ctx, name, parentID)
	})
}

// ListDirectories implements Store.
func (c *CircuitBreakerStore) ListDirectories(ctx context.Context, parentID string) ([]models.Directory, error) {
	return breaker.Call(c.cb, func() ([]models.Directory, error) {
		return c.store.ListDirectories(ctx, parentID)
	})
}

// ListVideos implements Store.
func (c *CircuitBreakerStore) ListVideos(ctx context.Context, dirID string, opts ListOptions) ([]models.MirroredVideo, error) {
	return breaker.Call(c.cb, func() ([]models.MirroredVideo, error) {
		return c.store.ListVideos(ctx, dirID, opts)
	})
}

// UploadVideo implements Store.
func (c *CircuitBreakerStore) UploadVideo(ctx context.Context, dirID, localPath, filename string) (string, error) {
	return breaker.Call(c.cb, func() (string, error) {
		return c.store.UploadVideo(ctx, dirID, localPath, filename)
	})
}

// DownloadFile implements Store.
func (c *CircuitBreakerStore) DownloadFile(ctx context.Context, fileID, destPath string) error {
	return c.cb.Run(func() error {
		return c.store.DownloadFile(ctx, fileID, destPath)
	})
}

// DeleteFile implements Store.
func (c *CircuitBreakerStore) DeleteFile(ctx context.Context, fileID string) error {
	return c.cb.Run(func() error {
		return c.store.DeleteFile(ctx, fileID)
	})
}
