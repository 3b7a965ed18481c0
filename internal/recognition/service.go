// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package recognition

import (
	"context"
	"io"

	"github.com/tomtom215/storyspot/internal/models"
)

// Service is the recognition console: scanning container plus reference
// bucket.
type Service interface {
	// Register adds a media URL to the scanning container and returns the
	// new entry id. Failures are *RegisterError.
	Register(ctx context.Context, req RegisterRequest) (string, error)

	// ListAllWithResults pages through every container entry.
	ListAllWithResults(ctx context.Context) ([]models.RecognitionEntry, error)

	// DeleteEntry removes a container entry. Failures are *DeleteError.
	DeleteEntry(ctx context.Context, entryID string) error

	// Rescan asks the service to scan entries again, in batches. A failed
	// batch does not stop the rest.
	Rescan(ctx context.Context, entryIDs []string) RescanReport

	// UploadTrack adds a reference track to the bucket.
	UploadTrack(ctx context.Context, track TrackUpload) (string, error)

	// ListTracks lists the reference bucket.
	ListTracks(ctx context.Context) ([]models.Track, error)

	// DeleteTrack removes a reference track.
	DeleteTrack(ctx context.Context, trackID string) error
}

// RegisterRequest is one media URL to scan.
type RegisterRequest struct {
	URL  string `json:"url" validate:"required,url"`
	Name string `json:"name" validate:"required"`
}

// TrackUpload is a reference track to add to the bucket.
type TrackUpload struct {
	Audio    io.Reader
	Filename string
	Title    string
	Artist   string
	Album    string
}

// RescanReport summarizes a Rescan call.
type RescanReport struct {
	Requested int                  `json:"requested"`
	Rescanned int                  `json:"rescanned"`
	Failures  []RescanChunkFailure `json:"failures,omitempty"`
}

// RescanChunkFailure is one batch the service rejected.
type RescanChunkFailure struct {
	IDs   []string `json:"ids"`
	Error string   `json:"error"`
}

// Recognizer identifies a single audio clip.
type Recognizer interface {
	Identify(ctx context.Context, audio []byte) Result
}

// Outcome is the three-way identify result.
type Outcome int

const (
	NoMatch Outcome = iota
	Match
	TransientFailure
)

func (o Outcome) String() string {
	switch o {
	case NoMatch:
		return "no_match"
	case Match:
		return "match"
	case TransientFailure:
		return "transient_failure"
	default:
		return "unknown"
	}
}

// MarshalText renders the outcome name in JSON.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// FailureReason qualifies a TransientFailure.
type FailureReason int

const (
	ReasonNone FailureReason = iota
	// ReasonDecodeFailure means the service could not decode the clip;
	// retrying with the same bytes sometimes succeeds.
	ReasonDecodeFailure
	ReasonRateLimited
	ReasonTransport
	ReasonService
)

func (r FailureReason) String() string {
	switch r {
	case ReasonNone:
		return ""
	case ReasonDecodeFailure:
		return "decode_failure"
	case ReasonRateLimited:
		return "rate_limited"
	case ReasonTransport:
		return "transport"
	case ReasonService:
		return "service"
	default:
		return "unknown"
	}
}

// MarshalText renders the reason name in JSON.
func (r FailureReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Result is the outcome of Identify. Track is set only for Match; Reason
// and Detail only for TransientFailure.
type Result struct {
	Outcome Outcome               `json:"outcome"`
	Track   *models.TrackMetadata `json:"track,omitempty"`
	Reason  FailureReason         `json:"reason,omitempty"`
	Detail  string                `json:"detail,omitempty"`
}

// Retryable reports whether the same clip is worth identifying again.
func (r Result) Retryable() bool {
	return r.Outcome == TransientFailure && r.Reason == ReasonDecodeFailure
}

// Identify status codes.
const (
	codeSuccess       = 0
	codeNoResult      = 1001
	codeDecodeFailure = 2004
	codeLimitExceeded = 3003
	codeQPSExceeded   = 3015
)

// resultForCode maps an identify status code to a Result.
func resultForCode(code int, msg string, track *models.TrackMetadata) Result {
	switch code {
	case codeSuccess:
		if track == nil {
			return Result{Outcome: NoMatch}
		}
		return Result{Outcome: Match, Track: track}
	case codeNoResult:
		return Result{Outcome: NoMatch}
	case codeDecodeFailure:
		return Result{Outcome: TransientFailure, Reason: ReasonDecodeFailure, Detail: msg}
	case codeLimitExceeded, codeQPSExceeded:
		return Result{Outcome: TransientFailure, Reason: ReasonRateLimited, Detail: msg}
	default:
		return Result{Outcome: TransientFailure, Reason: ReasonService, Detail: msg}
	}
}
