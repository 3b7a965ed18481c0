// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/storyspot/internal/auth"
	"github.com/tomtom215/storyspot/internal/config"
	"github.com/tomtom215/storyspot/internal/models"
)

const testSecret = "0123456789abcdef0123456789abcdef0123"

func testAppConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Mirror: config.MirrorConfig{
			BaseURL:         "http://127.0.0.1:1",
			RootDirectoryID: "root",
			AccessToken:     "token",
			CircuitBreaker:  true,
		},
		Recognition: config.RecognitionConfig{
			ConsoleURL:     "http://127.0.0.1:1",
			BearerToken:    "token",
			ContainerID:    "c1",
			CircuitBreaker: true,
		},
		Social: config.SocialConfig{BaseURL: "http://127.0.0.1:1", APIKey: "key"},
		Dashboard: config.DashboardConfig{
			FollowedLocations: []string{"Pacha:1", "Amnesia:2"},
		},
		Sync:     config.SyncConfig{ScratchDir: t.TempDir(), RecognizeAttempts: 1},
		Index:    config.IndexConfig{InMemory: true, GCDiscardRatio: 0.5},
		Server:   config.ServerConfig{Host: "127.0.0.1", Port: 0, Timeout: time.Second, ShutdownTimeout: time.Second},
		Security: config.SecurityConfig{AuthMode: auth.ModeJWT, JWTSecret: testSecret, RateLimitDisabled: true},
	}
}

func TestNewApp_WiresRouter(t *testing.T) {
	cfg := testAppConfig(t)
	a, err := newApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.close()

	h := a.server.Handler

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health ready = %d, body %s", rec.Code, rec.Body.String())
	}

	// Admin routes require a token in jwt mode.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("POST /api/v1/sync without token = %d, want 401", rec.Code)
	}

	// A minted token passes auth; manual recognition has no identify client.
	token, err := issueAdminToken(cfg.Security, "ops", time.Hour)
	if err != nil {
		t.Fatalf("issueAdminToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stories/abc/recognize", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("recognize without identify client = %d, want 501; body %s", rec.Code, rec.Body.String())
	}
	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != "NOT_CONFIGURED" {
		t.Errorf("error = %+v, want NOT_CONFIGURED", resp.Error)
	}
}

func TestNewApp_ReadinessFailsAfterIndexClose(t *testing.T) {
	a, err := newApp(context.Background(), testAppConfig(t))
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	a.close()

	rec := httptest.NewRecorder()
	a.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("health ready after close = %d, want 503", rec.Code)
	}
}

func TestNewApp_RejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"time zone", func(c *config.Config) { c.Sync.TimeZone = "Mars/Olympus" }, "time zone"},
		{"locations", func(c *config.Config) { c.Dashboard.FollowedLocations = []string{"nocolon"} }, "Name:LocationID"},
		{"events transport", func(c *config.Config) { c.Events = config.EventsConfig{Enabled: true, Transport: "kafka"} }, "events"},
		{"missing secret", func(c *config.Config) { c.Security.JWTSecret = "" }, "auth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testAppConfig(t)
			tt.mutate(cfg)
			_, err := newApp(context.Background(), cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("newApp error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestIssueAdminToken(t *testing.T) {
	sec := config.SecurityConfig{AuthMode: auth.ModeJWT, JWTSecret: testSecret}
	token, err := issueAdminToken(sec, "ops", time.Minute)
	if err != nil {
		t.Fatalf("issueAdminToken: %v", err)
	}
	m, err := auth.NewJWTManager(sec)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Username != "ops" || !claims.IsAdmin() {
		t.Errorf("claims = %+v, want admin ops", claims)
	}

	if _, err := issueAdminToken(config.SecurityConfig{}, "ops", time.Minute); err == nil {
		t.Error("issueAdminToken without a secret should fail")
	}
}
