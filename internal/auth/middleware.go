// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tomtom215/storyspot/internal/config"
	"github.com/tomtom215/storyspot/internal/logging"
)

// Auth modes.
const (
	ModeNone = "none"
	ModeJWT  = "jwt"
)

type contextKey string

// ClaimsContextKey holds the *Claims of an authenticated request.
const ClaimsContextKey contextKey = "claims"

// Errors returned to clients. The api package maps them to 401 and 403.
var (
	ErrMissingToken = errors.New("authorization bearer token required")
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrForbidden    = errors.New("admin role required")
)

// ErrorResponder writes an auth failure. status is 401 or 403.
type ErrorResponder func(w http.ResponseWriter, status int, err error)

// Middleware enforces admin access.
type Middleware struct {
	mode    string
	jwt     *JWTManager
	respond ErrorResponder
}

// NewMiddleware builds the middleware for cfg. respond may be nil, in which
// case failures are written with http.Error.
func NewMiddleware(cfg config.SecurityConfig, respond ErrorResponder) (*Middleware, error) {
	m := &Middleware{mode: cfg.AuthMode, respond: respond}
	if m.mode == "" {
		m.mode = ModeNone
	}
	if m.respond == nil {
		m.respond = func(w http.ResponseWriter, status int, err error) {
			http.Error(w, err.Error(), status)
		}
	}

	switch m.mode {
	case ModeNone:
	case ModeJWT:
		mgr, err := NewJWTManager(cfg)
		if err != nil {
			return nil, err
		}
		m.jwt = mgr
	default:
		return nil, fmt.Errorf("unknown auth mode %q", m.mode)
	}
	return m, nil
}

// RequireAdmin rejects requests without an admin token. In mode none every
// request passes with synthetic admin claims.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.mode == ModeNone {
			ctx := context.WithValue(r.Context(), ClaimsContextKey, &Claims{Username: "anonymous", Role: RoleAdmin})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			m.respond(w, http.StatusUnauthorized, ErrMissingToken)
			return
		}
		claims, err := m.jwt.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Str("path", r.URL.Path).Msg("Token validation failed")
			m.respond(w, http.StatusUnauthorized, ErrInvalidToken)
			return
		}
		if !claims.IsAdmin() {
			logging.Ctx(r.Context()).Warn().
				Str("username", claims.Username).
				Str("role", claims.Role).
				Str("path", r.URL.Path).
				Msg("Access denied: admin role required")
			m.respond(w, http.StatusForbidden, ErrForbidden)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ClaimsContextKey, claims)))
	})
}

// ClaimsFromContext returns the claims set by RequireAdmin.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return c, ok
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}
