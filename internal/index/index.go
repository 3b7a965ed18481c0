// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package index

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/storyspot/internal/config"
	"github.com/tomtom215/storyspot/internal/logging"
	"github.com/tomtom215/storyspot/internal/metrics"
	"github.com/tomtom215/storyspot/internal/models"
)

const (
	prefixStory     = "story:"
	prefixRefreshed = "refreshed:"
	sep             = "\x00"
)

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("story index is closed")

	// ErrInvalidLocation is returned for an empty location or one that
	// contains the key separator.
	ErrInvalidLocation = errors.New("invalid index location")
)

// Entry is one indexed story.
type Entry struct {
	Key     models.StoryKey `json:"key"`
	FileIDs []string        `json:"file_ids"`
}

// Index is the badger-backed story index. It is safe for concurrent use.
type Index struct {
	db              *badger.DB
	refreshInterval time.Duration
	gcDiscardRatio  float64

	mu     sync.RWMutex
	closed bool

	now func() time.Time
}

// Open opens (or creates) the index described by cfg.
func Open(cfg config.IndexConfig) (*Index, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open story index: %w", err)
	}

	ratio := cfg.GCDiscardRatio
	if ratio <= 0 || ratio >= 1 {
		ratio = 0.5
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Dur("refresh_interval", cfg.RefreshInterval).
		Msg("Story index opened")

	return &Index{
		db:              db,
		refreshInterval: cfg.RefreshInterval,
		gcDiscardRatio:  ratio,
		now:             time.Now,
	}, nil
}

// Close closes the database. Further calls return ErrClosed.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil
	}
	i.closed = true
	return i.db.Close()
}

// Ping runs an empty read transaction. Used by readiness checks.
func (i *Index) Ping() error {
	return i.view(func(*badger.Txn) error { return nil })
}

func (i *Index) view(fn func(txn *badger.Txn) error) error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return ErrClosed
	}
	return i.db.View(fn)
}

func (i *Index) update(fn func(txn *badger.Txn) error) error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return ErrClosed
	}
	return i.db.Update(fn)
}

func checkLocation(location string) error {
	if location == "" || strings.Contains(location, sep) {
		return fmt.Errorf("%w: %q", ErrInvalidLocation, location)
	}
	return nil
}

func locationPrefix(location string) []byte {
	return []byte(prefixStory + location + sep)
}

func storyKey(k models.StoryKey) []byte {
	return []byte(prefixStory + strings.Join([]string{
		k.Location, k.Date.Format(models.DateLayout), k.ContentID, k.Username,
	}, sep))
}

func refreshedKey(location string) []byte {
	return []byte(prefixRefreshed + location)
}

func getEntry(txn *badger.Txn, key []byte) (*Entry, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &e) }); err != nil {
		return nil, fmt.Errorf("decode index entry %q: %w", key, err)
	}
	return &e, nil
}

func setEntry(txn *badger.Txn, e *Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return txn.Set(storyKey(e.Key), data)
}

// Put records fileID under key. Recording the same file id twice is a no-op.
func (i *Index) Put(key models.StoryKey, fileID string) error {
	if err := key.Validate(); err != nil {
		return err
	}
	return i.update(func(txn *badger.Txn) error {
		e, err := getEntry(txn, storyKey(key))
		if err != nil {
			return err
		}
		if e == nil {
			e = &Entry{Key: key}
		}
		for _, id := range e.FileIDs {
			if id == fileID {
				return nil
			}
		}
		e.FileIDs = append(e.FileIDs, fileID)
		return setEntry(txn, e)
	})
}

// Lookup returns the entry stored under key, or nil.
func (i *Index) Lookup(key models.StoryKey) (*Entry, error) {
	var out *Entry
	err := i.view(func(txn *badger.Txn) error {
		e, err := getEntry(txn, storyKey(key))
		out = e
		return err
	})
	return out, err
}

// Entries returns every entry for location in key order.
func (i *Index) Entries(location string) ([]Entry, error) {
	if err := checkLocation(location); err != nil {
		return nil, err
	}
	var out []Entry
	err := i.view(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := locationPrefix(location)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var e Entry
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &e) }); err != nil {
				return fmt.Errorf("decode index entry %q: %w", it.Item().Key(), err)
			}
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

// Known returns the multiset of content ids mirrored at location: each id
// maps to the number of mirror files carrying it.
func (i *Index) Known(location string) (map[string]int, error) {
	entries, err := i.Entries(location)
	if err != nil {
		return nil, err
	}
	known := make(map[string]int, len(entries))
	for _, e := range entries {
		known[e.Key.ContentID] += len(e.FileIDs)
	}
	return known, nil
}

// LastRefresh returns when location was last rebuilt, or the zero time.
func (i *Index) LastRefresh(location string) (time.Time, error) {
	var t time.Time
	err := i.view(func(txn *badger.Txn) error {
		item, err := txn.Get(refreshedKey(location))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			parsed, err := time.Parse(time.RFC3339Nano, string(val))
			if err != nil {
				return fmt.Errorf("decode refresh time for %q: %w", location, err)
			}
			t = parsed
			return nil
		})
	})
	return t, err
}

// NeedsRefresh reports whether location has never been rebuilt or its
// last rebuild is older than the refresh interval. A non-positive refresh
// interval means every call needs a refresh.
func (i *Index) NeedsRefresh(location string) (bool, error) {
	last, err := i.LastRefresh(location)
	if err != nil {
		return false, err
	}
	if last.IsZero() || i.refreshInterval <= 0 {
		return true, nil
	}
	return i.now().Sub(last) >= i.refreshInterval, nil
}

// Rebuild replaces the index of location with the given mirror listing.
// Every video in the directory counts toward Known exactly as the listing
// would: names that do not parse as canonical story filenames are indexed
// under their lenient content id, and a parsed name carrying another
// location (a different case, or a file moved by hand) is indexed under
// location. Only names without a content id segment are skipped. It returns
// the number of indexed files.
func (i *Index) Rebuild(location string, videos []models.MirroredVideo) (int, error) {
	if err := checkLocation(location); err != nil {
		return 0, err
	}

	entries := make(map[string]*Entry, len(videos))
	order := make([]string, 0, len(videos))
	indexed := 0
	for _, v := range videos {
		key, ok := listedKey(location, v.Name)
		if !ok {
			logging.Debug().Str("location", location).Str("name", v.Name).Msg("Skipping mirror file without a content id")
			continue
		}
		k := string(storyKey(key))
		e, ok := entries[k]
		if !ok {
			e = &Entry{Key: key}
			entries[k] = e
			order = append(order, k)
		}
		e.FileIDs = append(e.FileIDs, v.ID)
		indexed++
	}

	err := i.update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)

		var stale [][]byte
		prefix := locationPrefix(location)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			stale = append(stale, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		for _, k := range order {
			if err := setEntry(txn, entries[k]); err != nil {
				return err
			}
		}
		return txn.Set(refreshedKey(location), []byte(i.now().UTC().Format(time.RFC3339Nano)))
	})
	if err != nil {
		return 0, fmt.Errorf("rebuild index for %s: %w", location, err)
	}

	metrics.IndexRebuilds.Inc()
	metrics.IndexEntries.WithLabelValues(location).Set(float64(indexed))
	logging.Debug().Str("location", location).Int("files", indexed).Msg("Story index rebuilt")
	return indexed, nil
}

// listedKey derives the index key of a file listed in location's directory.
// Legacy names get a zero date and the last '-' segment as username; their
// content id always matches models.ContentIDFromFilename.
func listedKey(location, name string) (models.StoryKey, bool) {
	if key, err := models.ParseFilename(name); err == nil {
		key.Location = location
		return key, true
	}
	id, ok := models.ContentIDFromFilename(name)
	if !ok {
		return models.StoryKey{}, false
	}
	parts := strings.Split(strings.TrimSuffix(name, path.Ext(name)), "-")
	return models.StoryKey{Location: location, ContentID: id, Username: parts[len(parts)-1]}, true
}

// Invalidate forces the next NeedsRefresh for location to report true.
func (i *Index) Invalidate(location string) error {
	return i.update(func(txn *badger.Txn) error {
		return txn.Delete(refreshedKey(location))
	})
}

// RunGC runs value log garbage collection until nothing is left to rewrite.
func (i *Index) RunGC() error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return ErrClosed
	}

	for {
		err := i.db.RunValueLogGC(i.gcDiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}
