// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"testing"

	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/storyspot/internal/mirror"
	"github.com/tomtom215/storyspot/internal/query"
	"github.com/tomtom215/storyspot/internal/recognition"
	syncpkg "github.com/tomtom215/storyspot/internal/sync"
	"github.com/tomtom215/storyspot/internal/upstream"
)

func errNotExist() error { return os.ErrNotExist }

func TestErrorStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid query", fmt.Errorf("%w: bad", query.ErrInvalidRequest), http.StatusBadRequest, codeValidation},
		{"directory missing", &mirror.DirectoryNotFoundError{Name: "x"}, http.StatusNotFound, codeNotFound},
		{"file missing", &mirror.DownloadError{FileID: "f", Err: os.ErrNotExist}, http.StatusNotFound, codeNotFound},
		{"ambiguous", &mirror.MultipleDirectoriesError{Name: "x", IDs: []string{"a", "b"}}, http.StatusConflict, codeConflict},
		{"duplicate track", &recognition.DuplicateTrackError{Title: "t"}, http.StatusConflict, codeConflict},
		{"sync running", syncpkg.ErrSyncInProgress, http.StatusConflict, codeSyncRunning},
		{"no recognizer", syncpkg.ErrNoRecognizer, http.StatusNotImplemented, codeNotImplemented},
		{"breaker open", fmt.Errorf("drive: %w", gobreaker.ErrOpenState), http.StatusServiceUnavailable, codeUnavailable},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, codeTimeout},
		{"entry missing", &recognition.DeleteError{ID: "1", Status: 404}, http.StatusNotFound, codeNotFound},
		{"entry delete failed", &recognition.DeleteError{ID: "1", Status: 500}, http.StatusBadGateway, codeUpstream},
		{"upstream 404", &upstream.StatusError{Status: 404}, http.StatusNotFound, codeNotFound},
		{"upstream 500", &upstream.StatusError{Status: 500}, http.StatusBadGateway, codeUpstream},
		{"other", errors.New("boom"), http.StatusInternalServerError, codeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			status, code := errorStatus(tt.err)
			if status != tt.wantStatus || code != tt.wantCode {
				t.Errorf("errorStatus() = %d %s, want %d %s", status, code, tt.wantStatus, tt.wantCode)
			}
		})
	}
}

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()
	if got := sanitizeLogValue("a\nb\x7f"); got != `a\x0ab\x7f` {
		t.Errorf("sanitizeLogValue() = %q", got)
	}
}
