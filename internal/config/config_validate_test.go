// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Mirror.RootDirectoryID = "root"
	cfg.Mirror.AccessToken = "token"
	cfg.Recognition.BearerToken = "bearer"
	cfg.Recognition.ContainerID = "1"
	cfg.Social.APIKey = "key"
	return cfg
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"missing root", func(c *Config) { c.Mirror.RootDirectoryID = "" }, "DRIVE_ROOT_DIRECTORY_ID"},
		{"refresh token triple", func(c *Config) {
			c.Mirror.AccessToken = ""
			c.Mirror.ClientID = "id"
			c.Mirror.ClientSecret = "secret"
			c.Mirror.RefreshToken = "refresh"
		}, ""},
		{"partial oauth", func(c *Config) { c.Mirror.AccessToken = ""; c.Mirror.ClientID = "id" }, "DRIVE_ACCESS_TOKEN"},
		{"bad chunk size", func(c *Config) { c.Mirror.ChunkSize = 1000 }, "DRIVE_CHUNK_SIZE"},
		{"console url with path", func(c *Config) { c.Recognition.ConsoleURL = "https://api.example.com/api" }, "ACRCLOUD_CONSOLE_URL"},
		{"identify without keys", func(c *Config) { c.Recognition.IdentifyURL = "https://identify.example.com/v1/identify" }, "ACRCLOUD_ACCESS_KEY"},
		{"location with dash", func(c *Config) { c.Dashboard.FollowedLocations = []string{"Art-Club:1"} }, ""},
		{"location missing id", func(c *Config) { c.Dashboard.FollowedLocations = []string{"ArtClub"} }, "Name:LocationID"},
		{"duplicate location", func(c *Config) { c.Dashboard.FollowedLocations = []string{"A:1", "A:2"} }, "twice"},
		{"bad time zone", func(c *Config) { c.Sync.TimeZone = "Mars/Olympus" }, "SYNC_TIME_ZONE"},
		{"nats url", func(c *Config) { c.Events.Transport = "nats"; c.Events.NATSURL = "http://x" }, "NATS_URL"},
		{"unknown transport", func(c *Config) { c.Events.Transport = "kafka" }, "EVENTS_TRANSPORT"},
		{"short jwt secret", func(c *Config) { c.Security.AuthMode = "jwt"; c.Security.JWTSecret = "short" }, "JWT_SECRET"},
		{"placeholder jwt secret", func(c *Config) {
			c.Security.AuthMode = "jwt"
			c.Security.JWTSecret = "CHANGEME-CHANGEME-CHANGEME-CHANGEME"
		}, "placeholder"},
		{"no auth in production", func(c *Config) { c.Server.Environment = "production" }, "AUTH_MODE=none"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	t.Parallel()

	s := ServerConfig{Host: "127.0.0.1", Port: 8080}
	if got := s.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q", got)
	}
}
