// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

// Package breaker wraps sony/gobreaker with the settings, logging, and
// Prometheus bookkeeping shared by every upstream client.
//
// Settings:
//   - Max 3 concurrent requests in half-open state
//   - 1 minute measurement window
//   - 2 minute timeout before attempting recovery
//   - Opens after 60% failure rate with minimum 10 requests
//
// The breaker uses real time. Tests exercise wrapped clients through it but
// never rely on the open/half-open timing.
package breaker

import (
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/storyspot/internal/logging"
	"github.com/tomtom215/storyspot/internal/metrics"
)

// Breaker is a named circuit breaker.
type Breaker struct {
	cb   *gobreaker.CircuitBreaker[interface{}]
	name string
}

// Settings overrides the trip policy. Zero values use the defaults above.
type Settings struct {
	MinRequests  uint32
	FailureRatio float64
	Timeout      time.Duration

	// IsSuccessful lets callers count some errors (for example
	// DirectoryNotFound) as successful calls.
	IsSuccessful func(err error) bool
}

// New returns a breaker named name with default settings.
func New(name string) *Breaker {
	return NewWithSettings(name, Settings{})
}

// NewWithSettings returns a breaker named name.
func NewWithSettings(name string, s Settings) *Breaker {
	if s.MinRequests == 0 {
		s.MinRequests = 10
	}
	if s.FailureRatio == 0 {
		s.FailureRatio = 0.6
	}
	if s.Timeout == 0 {
		s.Timeout = 2 * time.Minute
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			trip := ratio >= s.FailureRatio
			if trip {
				logging.Warn().
					Str("breaker", name).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", ratio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	}
	if s.IsSuccessful != nil {
		settings.IsSuccessful = s.IsSuccessful
	}

	return &Breaker{
		cb:   gobreaker.NewCircuitBreaker[interface{}](settings),
		name: name,
	}
}

// Name returns the breaker name.
func (b *Breaker) Name() string { return b.name }

// State returns the current state as a string.
func (b *Breaker) State() string { return stateToString(b.cb.State()) }

// Execute runs fn through the breaker and records the outcome.
func (b *Breaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if IsRejected(err) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			logging.Warn().Str("breaker", b.name).Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(b.cb.Counts().ConsecutiveFailures))
		}
		return result, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	return result, nil
}

// Run is Execute for calls that return only an error.
func (b *Breaker) Run(fn func() error) error {
	_, err := b.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

// Call runs fn through b and type-asserts the result.
func Call[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	result, err := b.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		if typed, ok := result.(T); ok {
			return typed, err
		}
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker %s: unexpected result type %T", b.name, result)
	}
	return typed, nil
}

// IsRejected reports whether err came from an open or saturated breaker.
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
