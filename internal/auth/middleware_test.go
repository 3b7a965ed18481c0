// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/storyspot/internal/config"
)

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok || !claims.IsAdmin() {
			t.Errorf("claims = %+v, %v", claims, ok)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireAdmin_ModeNone(t *testing.T) {
	t.Parallel()
	m, err := NewMiddleware(config.SecurityConfig{AuthMode: ModeNone}, nil)
	if err != nil {
		t.Fatalf("NewMiddleware() error = %v", err)
	}

	rec := httptest.NewRecorder()
	m.RequireAdmin(okHandler(t)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestRequireAdmin_ModeJWT(t *testing.T) {
	t.Parallel()
	cfg := config.SecurityConfig{AuthMode: ModeJWT, JWTSecret: testSecret}
	m, err := NewMiddleware(cfg, nil)
	if err != nil {
		t.Fatalf("NewMiddleware() error = %v", err)
	}
	mgr := newTestManager(t)
	admin, _ := mgr.GenerateToken("ops", RoleAdmin, time.Hour)
	viewer, _ := mgr.GenerateToken("guest", "viewer", time.Hour)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"admin token", "Bearer " + admin, http.StatusNoContent},
		{"lowercase scheme", "bearer " + admin, http.StatusNoContent},
		{"viewer token", "Bearer " + viewer, http.StatusForbidden},
		{"garbage token", "Bearer abc", http.StatusUnauthorized},
		{"basic scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"no header", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			m.RequireAdmin(okHandler(t)).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestNewMiddleware_Errors(t *testing.T) {
	t.Parallel()
	if _, err := NewMiddleware(config.SecurityConfig{AuthMode: ModeJWT}, nil); err == nil {
		t.Error("expected error for jwt mode without secret")
	}
	if _, err := NewMiddleware(config.SecurityConfig{AuthMode: "basic"}, nil); err == nil {
		t.Error("expected error for unknown mode")
	}
}
