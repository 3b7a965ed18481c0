// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package mirror

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/storyspot/internal/models"
)

// MemoryStore is an in-process Store used by tests and local dry runs.
// Files are kept in memory with sequential ids ("f1", "f2", ...).
type MemoryStore struct {
	mu     sync.Mutex
	nextID int
	dirs   map[string]memDir
	files  map[string]*memFile

	// Now stamps CreatedAt on new files. Defaults to time.Now.
	Now func() time.Time

	// FailUpload, when set, is consulted before each upload.
	FailUpload func(filename string) error

	// FailDelete, when set, is consulted before each delete.
	FailDelete func(fileID string) error

	// Uploads counts successful UploadVideo calls.
	Uploads int
}

type memDir struct {
	id       string
	name     string
	parentID string
}

type memFile struct {
	video models.MirroredVideo
	dirID string
	data  []byte
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		dirs:  make(map[string]memDir),
		files: make(map[string]*memFile),
		Now:   time.Now,
	}
}

func (m *MemoryStore) newID(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s%d", prefix, m.nextID)
}

// AddDirectory seeds a directory and returns its id. Unlike CreateDirectory
// it is meant for test setup, including deliberate duplicates.
func (m *MemoryStore) AddDirectory(name, parentID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.newID("d")
	m.dirs[id] = memDir{id: id, name: name, parentID: parentID}
	return id
}

// AddVideo seeds a video and returns its id.
func (m *MemoryStore) AddVideo(dirID, name string, createdAt time.Time) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.newID("f")
	m.files[id] = &memFile{
		video: models.MirroredVideo{ID: id, Name: name, CreatedAt: createdAt},
		dirID: dirID,
	}
	return id
}

// Has reports whether fileID exists.
func (m *MemoryStore) Has(fileID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[fileID]
	return ok
}

// VideoNames returns the sorted file names in dirID.
func (m *MemoryStore) VideoNames(dirID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for _, f := range m.files {
		if f.dirID == dirID {
			names = append(names, f.video.Name)
		}
	}
	sort.Strings(names)
	return names
}

// ResolveDirectory implements Store.
func (m *MemoryStore) ResolveDirectory(ctx context.Context, name, parentID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []string
	for _, d := range m.dirs {
		if d.name == name && d.parentID == parentID {
			ids = append(ids, d.id)
		}
	}
	sort.Strings(ids)
	switch len(ids) {
	case 0:
		return "", &DirectoryNotFoundError{Name: name, ParentID: parentID}
	case 1:
		return ids[0], nil
	default:
		return "", &MultipleDirectoriesError{Name: name, ParentID: parentID, IDs: ids}
	}
}

// CreateDirectory implements Store.
func (m *MemoryStore) CreateDirectory(ctx context.Context, name, parentID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.AddDirectory(name, parentID), nil
}

// ListDirectories implements Store.
func (m *MemoryStore) ListDirectories(ctx context.Context, parentID string) ([]models.Directory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Directory
	for _, d := range m.dirs {
		if d.parentID == parentID {
			out = append(out, models.Directory{ID: d.id, Name: d.name})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListVideos implements Store. Results are ordered by creation time.
func (m *MemoryStore) ListVideos(ctx context.Context, dirID string, opts ListOptions) ([]models.MirroredVideo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.MirroredVideo
	for _, f := range m.files {
		if f.dirID == dirID && opts.matches(f.video) {
			out = append(out, f.video)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// UploadVideo implements Store.
func (m *MemoryStore) UploadVideo(ctx context.Context, dirID, localPath, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &UploadError{Filename: filename, DirectoryID: dirID, Err: err}
	}
	if m.FailUpload != nil {
		if err := m.FailUpload(filename); err != nil {
			return "", &UploadError{Filename: filename, DirectoryID: dirID, Err: err}
		}
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", &UploadError{Filename: filename, DirectoryID: dirID, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.newID("f")
	m.files[id] = &memFile{
		video: models.MirroredVideo{ID: id, Name: filename, CreatedAt: m.Now()},
		dirID: dirID,
		data:  data,
	}
	m.Uploads++
	return id, nil
}

// DownloadFile implements Store.
func (m *MemoryStore) DownloadFile(ctx context.Context, fileID, destPath string) error {
	if err := ctx.Err(); err != nil {
		return &DownloadError{FileID: fileID, Err: err}
	}
	m.mu.Lock()
	f, ok := m.files[fileID]
	var data []byte
	if ok {
		data = append([]byte(nil), f.data...)
	}
	m.mu.Unlock()

	if !ok {
		return &DownloadError{FileID: fileID, Err: os.ErrNotExist}
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o750); err != nil {
		return &DownloadError{FileID: fileID, Err: err}
	}
	if err := os.WriteFile(destPath, data, 0o600); err != nil {
		_ = os.Remove(destPath)
		return &DownloadError{FileID: fileID, Err: err}
	}
	return nil
}

// DeleteFile implements Store.
func (m *MemoryStore) DeleteFile(ctx context.Context, fileID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.FailDelete != nil {
		if err := m.FailDelete(fileID); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[fileID]; !ok {
		return fmt.Errorf("file %s: %w", fileID, os.ErrNotExist)
	}
	delete(m.files, fileID)
	return nil
}
