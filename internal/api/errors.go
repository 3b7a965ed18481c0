// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package api

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/tomtom215/storyspot/internal/breaker"
	"github.com/tomtom215/storyspot/internal/mirror"
	"github.com/tomtom215/storyspot/internal/query"
	"github.com/tomtom215/storyspot/internal/recognition"
	syncpkg "github.com/tomtom215/storyspot/internal/sync"
	"github.com/tomtom215/storyspot/internal/upstream"
)

// Error codes used in the response envelope.
const (
	codeValidation     = "VALIDATION_ERROR"
	codeNotFound       = "NOT_FOUND"
	codeConflict       = "CONFLICT"
	codeSyncRunning    = "SYNC_IN_PROGRESS"
	codeUnavailable    = "SERVICE_UNAVAILABLE"
	codeUpstream       = "UPSTREAM_ERROR"
	codeTimeout        = "TIMEOUT"
	codeInternal       = "INTERNAL_ERROR"
	codeUnauthorized   = "UNAUTHORIZED"
	codeForbidden      = "FORBIDDEN"
	codeNotImplemented = "NOT_CONFIGURED"
)

// ErrNotConfigured is returned by handlers whose dependency was not wired.
var ErrNotConfigured = errors.New("feature is not configured on this server")

// errorStatus maps a domain error to an HTTP status and envelope code.
func errorStatus(err error) (int, string) {
	var (
		notFound  *mirror.DirectoryNotFoundError
		ambiguous *mirror.MultipleDirectoriesError
		duplicate *recognition.DuplicateTrackError
		deleteErr *recognition.DeleteError
		statusErr *upstream.StatusError
	)

	switch {
	case errors.Is(err, query.ErrInvalidRequest):
		return http.StatusBadRequest, codeValidation
	case errors.As(err, &notFound), errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound, codeNotFound
	case errors.As(err, &ambiguous), errors.As(err, &duplicate):
		return http.StatusConflict, codeConflict
	case errors.Is(err, syncpkg.ErrSyncInProgress):
		return http.StatusConflict, codeSyncRunning
	case errors.Is(err, ErrNotConfigured), errors.Is(err, syncpkg.ErrNoRecognizer):
		return http.StatusNotImplemented, codeNotImplemented
	case breaker.IsRejected(err):
		return http.StatusServiceUnavailable, codeUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, codeTimeout
	case errors.As(err, &deleteErr) && deleteErr.Status == http.StatusNotFound:
		return http.StatusNotFound, codeNotFound
	case errors.As(err, &statusErr):
		if statusErr.Status == http.StatusNotFound {
			return http.StatusNotFound, codeNotFound
		}
		return http.StatusBadGateway, codeUpstream
	case errors.As(err, &deleteErr):
		return http.StatusBadGateway, codeUpstream
	default:
		return http.StatusInternalServerError, codeInternal
	}
}
