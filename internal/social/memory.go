// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package social

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tomtom215/storyspot/internal/models"
)

// MemorySource is an in-process Source and LocationSource for tests.
type MemorySource struct {
	mu      sync.Mutex
	stories map[string][]models.Story
	posters map[string][]models.LocationPoster
	data    map[string][]byte

	// FailUser makes UserStories fail for the named accounts.
	FailUser map[string]error

	// FailDownload makes DownloadStory fail for the named story ids.
	FailDownload map[string]error

	// FailLocation makes LocationPosters fail for the named location ids.
	FailLocation map[string]error

	// Downloads counts successful DownloadStory calls.
	Downloads int
}

var (
	_ Source         = (*MemorySource)(nil)
	_ LocationSource = (*MemorySource)(nil)
)

// NewMemorySource returns an empty source.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		stories:      make(map[string][]models.Story),
		posters:      make(map[string][]models.LocationPoster),
		data:         make(map[string][]byte),
		FailUser:     make(map[string]error),
		FailDownload: make(map[string]error),
		FailLocation: make(map[string]error),
	}
}

// AddStory seeds a story for username whose download yields data.
func (m *MemorySource) AddStory(username, storyID string, data []byte) models.Story {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := models.Story{ID: storyID, DownloadURL: "memory://" + storyID, TakenAt: time.Now().UTC()}
	m.stories[username] = append(m.stories[username], s)
	m.data[storyID] = data
	return s
}

// AddPoster seeds a post at locationID.
func (m *MemorySource) AddPoster(locationID string, p models.LocationPoster) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posters[locationID] = append(m.posters[locationID], p)
}

// UserStories implements Source.
func (m *MemorySource) UserStories(ctx context.Context, username string) ([]models.Story, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailUser[username]; err != nil {
		return nil, &FetchError{Op: "stories", Username: username, Err: err}
	}
	return append([]models.Story(nil), m.stories[username]...), nil
}

// DownloadStory implements Source.
func (m *MemorySource) DownloadStory(ctx context.Context, story models.Story, destPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailDownload[story.ID]; err != nil {
		return &FetchError{Op: "download", StoryID: story.ID, Err: err}
	}
	data, ok := m.data[story.ID]
	if !ok {
		return &FetchError{Op: "download", StoryID: story.ID, Status: 404, Err: errors.New("not found")}
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o750); err != nil {
		return err
	}
	if err := os.WriteFile(destPath, data, 0o600); err != nil {
		return err
	}
	m.Downloads++
	return nil
}

// LocationPosters implements LocationSource.
func (m *MemorySource) LocationPosters(ctx context.Context, locationID string, day time.Time) ([]models.LocationPoster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailLocation[locationID]; err != nil {
		return nil, &FetchError{Op: "locations", LocationID: locationID, Err: err}
	}
	y, mo, d := day.Date()
	var out []models.LocationPoster
	for _, p := range m.posters[locationID] {
		if ty, tm, td := p.TakenAt.In(day.Location()).Date(); ty == y && tm == mo && td == d {
			out = append(out, p)
		}
	}
	return out, nil
}
