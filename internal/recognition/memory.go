// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package recognition

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/tomtom215/storyspot/internal/models"
)

// MemoryService is an in-memory Service and Recognizer for tests.
type MemoryService struct {
	mu      sync.Mutex
	nextID  int
	entries []models.RecognitionEntry
	tracks  []models.Track

	// FailRegister, when set, is consulted before each Register.
	FailRegister func(req RegisterRequest) error

	// FailRescan, when set, fails the batches it returns an error for.
	FailRescan func(ids []string) error

	// BatchSize splits Rescan calls. Defaults to 20.
	BatchSize int

	// Results are returned by Identify in order; the last one repeats.
	Results []Result
	// IdentifyCalls counts Identify invocations.
	IdentifyCalls int

	// Rescanned records every id passed to a successful rescan batch.
	Rescanned []string
}

var (
	_ Service    = (*MemoryService)(nil)
	_ Recognizer = (*MemoryService)(nil)
)

// NewMemoryService returns an empty fake.
func NewMemoryService() *MemoryService {
	return &MemoryService{BatchSize: 20}
}

func (m *MemoryService) id() string {
	m.nextID++
	return strconv.Itoa(m.nextID)
}

// AddEntry seeds a container entry and returns its id.
func (m *MemoryService) AddEntry(name, sourceURL string, result *models.TrackMetadata) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.entries = append(m.entries, models.RecognitionEntry{ID: id, Name: name, SourceURL: sourceURL, Result: result})
	return id
}

// Entries returns a copy of the container.
func (m *MemoryService) Entries() []models.RecognitionEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.RecognitionEntry(nil), m.entries...)
}

// Register implements Service.
func (m *MemoryService) Register(ctx context.Context, req RegisterRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &RegisterError{URL: req.URL, Err: err}
	}
	if m.FailRegister != nil {
		if err := m.FailRegister(req); err != nil {
			return "", &RegisterError{URL: req.URL, Status: 500, Body: err.Error()}
		}
	}
	return m.AddEntry(req.Name, req.URL, nil), nil
}

// ListAllWithResults implements Service.
func (m *MemoryService) ListAllWithResults(ctx context.Context) ([]models.RecognitionEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.Entries(), nil
}

// DeleteEntry implements Service.
func (m *MemoryService) DeleteEntry(ctx context.Context, entryID string) error {
	if err := ctx.Err(); err != nil {
		return &DeleteError{ID: entryID, Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.entries {
		if e.ID == entryID {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return &DeleteError{ID: entryID, Status: 404, Body: "not found"}
}

// Rescan implements Service.
func (m *MemoryService) Rescan(_ context.Context, entryIDs []string) RescanReport {
	size := m.BatchSize
	if size <= 0 {
		size = 20
	}
	report := RescanReport{Requested: len(entryIDs)}
	for start := 0; start < len(entryIDs); start += size {
		end := start + size
		if end > len(entryIDs) {
			end = len(entryIDs)
		}
		batch := entryIDs[start:end]
		if m.FailRescan != nil {
			if err := m.FailRescan(batch); err != nil {
				report.Failures = append(report.Failures, RescanChunkFailure{IDs: append([]string(nil), batch...), Error: err.Error()})
				continue
			}
		}
		m.mu.Lock()
		m.Rescanned = append(m.Rescanned, batch...)
		m.mu.Unlock()
		report.Rescanned += len(batch)
	}
	return report
}

// UploadTrack implements Service.
func (m *MemoryService) UploadTrack(ctx context.Context, track TrackUpload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if track.Audio != nil {
		if _, err := io.Copy(io.Discard, track.Audio); err != nil {
			return "", fmt.Errorf("read track audio: %w", err)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.tracks = append(m.tracks, models.Track{
		ID:        id,
		Title:     track.Title,
		Artist:    track.Artist,
		Album:     track.Album,
		CreatedAt: time.Now().UTC(),
	})
	return id, nil
}

// ListTracks implements Service.
func (m *MemoryService) ListTracks(ctx context.Context) ([]models.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]models.Track(nil), m.tracks...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeleteTrack implements Service.
func (m *MemoryService) DeleteTrack(ctx context.Context, trackID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.tracks {
		if t.ID == trackID {
			m.tracks = append(m.tracks[:i], m.tracks[i+1:]...)
			return nil
		}
	}
	return &DeleteError{ID: trackID, Status: 404, Body: "not found"}
}

// Identify implements Recognizer.
func (m *MemoryService) Identify(_ context.Context, _ []byte) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IdentifyCalls++
	if len(m.Results) == 0 {
		return Result{Outcome: NoMatch}
	}
	r := m.Results[0]
	if len(m.Results) > 1 {
		m.Results = m.Results[1:]
	}
	return r
}
