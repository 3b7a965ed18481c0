// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
)

func TestWatermillLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	adapter := NewWatermillLoggerWithLogger(NewTestLogger(&buf)).
		With(watermill.LogFields{"topic": "story.mirrored"})

	adapter.Error("publish failed", errors.New("nats down"), watermill.LogFields{"message uuid": "m-1"})

	out := buf.String()
	for _, want := range []string{`"topic":"story.mirrored"`, `"message_uuid":"m-1"`, `"error":"nats down"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %s missing %s", out, want)
		}
	}
}

func TestWatermillLogger_MasksCredentials(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	adapter := NewWatermillLoggerWithLogger(NewTestLogger(&buf))
	adapter.Info("connected", watermill.LogFields{"api_key": "0123456789abcdef", "port": 4222})

	out := buf.String()
	if strings.Contains(out, "0123456789abcdef") {
		t.Errorf("output %s leaks the key", out)
	}
	for _, want := range []string{`"api_key":"0123...cdef"`, `"port":4222`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %s missing %s", out, want)
		}
	}
}

func TestSanitizeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key, value, want string
	}{
		{"api_key", "0123456789abcdef", "0123...cdef"},
		{"rapidapi_key", "short", "***"},
		{"refresh_token", "", ""},
		{"location", "ArtClub", "ArtClub"},
	}
	for _, tt := range tests {
		if got := SanitizeValue(tt.key, tt.value); got != tt.want {
			t.Errorf("SanitizeValue(%q, %q) = %q, want %q", tt.key, tt.value, got, tt.want)
		}
	}
	if got := TruncateBody("abcdef", 3); got != "abc...(truncated)" {
		t.Errorf("TruncateBody = %q", got)
	}
}
