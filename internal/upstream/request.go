// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/storyspot/internal/metrics"
)

// maxErrorBodySize caps how much of an error response is kept.
const maxErrorBodySize = 4096

// RequestFunc builds a fresh request for each attempt. Bodies cannot be
// replayed, so the request must be rebuilt rather than reused.
type RequestFunc func(ctx context.Context) (*http.Request, error)

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Retrier sends requests and retries HTTP 429 responses.
type Retrier struct {
	Client     Doer
	Service    string
	MaxRetries int
	BaseDelay  time.Duration
}

// Do sends the request built by build, retrying HTTP 429 with exponential
// backoff (BaseDelay, 2x, 4x, ...) or the server's Retry-After. Any other
// status is returned to the caller, whose job it is to close the body.
func (r *Retrier) Do(ctx context.Context, operation string, build RequestFunc) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := build(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		start := time.Now()
		resp, err := r.Client.Do(req)
		if err != nil {
			metrics.RecordUpstreamRequest(r.Service, operation, 0, time.Since(start))
			return nil, fmt.Errorf("%s %s request failed: %w", r.Service, operation, err)
		}
		metrics.RecordUpstreamRequest(r.Service, operation, resp.StatusCode, time.Since(start))

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		_ = resp.Body.Close()

		if attempt >= r.MaxRetries {
			return nil, &StatusError{
				Service:   r.Service,
				Operation: operation,
				Status:    http.StatusTooManyRequests,
				Body:      fmt.Sprintf("rate limit exceeded after %d retries", r.MaxRetries),
			}
		}

		delay := r.BaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, convErr := strconv.Atoi(retryAfter); convErr == nil && seconds >= 0 {
				delay = time.Duration(seconds) * time.Second
			}
		}
		if err := Wait(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// Wait sleeps for d or until ctx is done.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReadBodyForError reads at most maxErrorBodySize bytes of r.
func ReadBodyForError(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return "(failed to read response body)"
	}
	if len(body) == maxErrorBodySize {
		return string(body) + "\n... (truncated)"
	}
	return string(body)
}

// CheckStatus closes resp and returns a *StatusError unless the status is 2xx.
func CheckStatus(resp *http.Response, service, operation string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()
	return &StatusError{
		Service:   service,
		Operation: operation,
		Status:    resp.StatusCode,
		Body:      ReadBodyForError(resp.Body),
	}
}

// DecodeJSON checks the status, decodes the body into v, and closes it.
func DecodeJSON(resp *http.Response, service, operation string, v interface{}) error {
	if err := CheckStatus(resp, service, operation); err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", service, operation, err)
	}
	return nil
}

// Drain discards and closes a response body so the connection is reused.
func Drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
