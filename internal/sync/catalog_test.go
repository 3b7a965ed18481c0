// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package sync

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tomtom215/storyspot/internal/recognition"
)

func TestCatalog(t *testing.T) {
	t.Parallel()

	svc := recognition.NewMemoryService()
	c := NewCatalog(svc)
	ctx := context.Background()

	id, err := c.AddTrack(ctx, recognition.TrackUpload{Audio: strings.NewReader("x"), Filename: "a.mp3", Title: "Blue Monday", Artist: "New Order"})
	if err != nil {
		t.Fatalf("AddTrack() error = %v", err)
	}

	_, err = c.AddTrack(ctx, recognition.TrackUpload{Audio: strings.NewReader("y"), Filename: "b.mp3", Title: " blue monday ", Artist: "NEW ORDER"})
	var dup *recognition.DuplicateTrackError
	if !errors.As(err, &dup) {
		t.Fatalf("AddTrack() duplicate error = %v, want *DuplicateTrackError", err)
	}
	if dup.ExistingID != id {
		t.Errorf("ExistingID = %q, want %q", dup.ExistingID, id)
	}

	if _, err := c.AddTrack(ctx, recognition.TrackUpload{Audio: strings.NewReader("z"), Title: "Blue Monday", Artist: "Orkestra"}); err != nil {
		t.Errorf("AddTrack() same title, other artist error = %v", err)
	}
	if _, err := c.AddTrack(ctx, recognition.TrackUpload{Title: " ", Artist: "x"}); err == nil {
		t.Error("AddTrack() with blank title succeeded")
	}

	tracks, _ := c.Tracks(ctx)
	if len(tracks) != 2 {
		t.Errorf("Tracks() = %d, want 2", len(tracks))
	}
	if err := c.RemoveTrack(ctx, id); err != nil {
		t.Fatalf("RemoveTrack() error = %v", err)
	}
	if err := c.RemoveTrack(ctx, id); err == nil {
		t.Error("RemoveTrack() twice succeeded")
	}
}
