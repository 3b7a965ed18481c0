// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that required configuration is present and consistent.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateMirror,
		c.validateRecognition,
		c.validateSocial,
		c.validateDashboard,
		c.validateSync,
		c.validateIndex,
		c.validateEvents,
		c.validateServer,
		c.validateSecurity,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateMirror() error {
	m := c.Mirror
	if err := validateHTTPURL(m.BaseURL, "DRIVE_BASE_URL"); err != nil {
		return err
	}
	if m.RootDirectoryID == "" {
		return errors.New("DRIVE_ROOT_DIRECTORY_ID is required")
	}
	if m.AccessToken == "" && (m.ClientID == "" || m.ClientSecret == "" || m.RefreshToken == "") {
		return errors.New("DRIVE_ACCESS_TOKEN or DRIVE_CLIENT_ID, DRIVE_CLIENT_SECRET and DRIVE_REFRESH_TOKEN are required")
	}
	if m.ChunkSize <= 0 || m.ChunkSize%(256<<10) != 0 {
		return fmt.Errorf("DRIVE_CHUNK_SIZE must be a positive multiple of 262144, got %d", m.ChunkSize)
	}
	if m.SingleShotLimit <= 0 {
		return errors.New("DRIVE_SINGLE_SHOT_LIMIT must be positive")
	}
	if m.UploadRetries < 1 {
		return errors.New("DRIVE_UPLOAD_RETRIES must be at least 1")
	}
	return nil
}

func (c *Config) validateRecognition() error {
	r := c.Recognition
	if err := validateHTTPURL(r.ConsoleURL, "ACRCLOUD_CONSOLE_URL"); err != nil {
		return err
	}
	if r.BearerToken == "" {
		return errors.New("ACRCLOUD_BEARER_TOKEN is required")
	}
	if r.ContainerID == "" {
		return errors.New("ACRCLOUD_CONTAINER_ID is required")
	}
	if r.IdentifyURL != "" {
		if _, err := url.Parse(r.IdentifyURL); err != nil {
			return fmt.Errorf("ACRCLOUD_IDENTIFY_URL failed to parse URL: %w", err)
		}
		if r.AccessKey == "" || r.AccessSecret == "" {
			return errors.New("ACRCLOUD_ACCESS_KEY and ACRCLOUD_ACCESS_SECRET are required when ACRCLOUD_IDENTIFY_URL is set")
		}
	}
	if r.PageSize < 1 || r.PageSize > 100 {
		return fmt.Errorf("ACRCLOUD_PAGE_SIZE must be between 1 and 100, got %d", r.PageSize)
	}
	if r.RescanBatchSize < 1 {
		return errors.New("ACRCLOUD_RESCAN_BATCH_SIZE must be at least 1")
	}
	return nil
}

func (c *Config) validateSocial() error {
	s := c.Social
	if err := validateHTTPURL(s.BaseURL, "RAPIDAPI_BASE_URL"); err != nil {
		return err
	}
	if s.APIKey == "" {
		return errors.New("RAPIDAPI_KEY is required")
	}
	if s.MinInterval < 0 || s.Wiggle < 0 {
		return errors.New("SOCIAL_MIN_INTERVAL and SOCIAL_WIGGLE must not be negative")
	}
	return nil
}

func (c *Config) validateDashboard() error {
	_, err := c.Dashboard.Locations()
	return err
}

func (c *Config) validateSync() error {
	s := c.Sync
	if s.ScratchDir == "" {
		return errors.New("SYNC_SCRATCH_DIR is required")
	}
	if _, err := s.Location(); err != nil {
		return fmt.Errorf("SYNC_TIME_ZONE is invalid: %w", err)
	}
	if s.RecognizeAttempts < 1 {
		return errors.New("SYNC_RECOGNIZE_ATTEMPTS must be at least 1")
	}
	if s.Cooldown < 0 || s.SettleDelay < 0 {
		return errors.New("SYNC_COOLDOWN and SYNC_SETTLE_DELAY must not be negative")
	}
	return nil
}

func (c *Config) validateIndex() error {
	if !c.Index.InMemory && c.Index.Path == "" {
		return errors.New("INDEX_PATH is required unless INDEX_IN_MEMORY is set")
	}
	if c.Index.GCDiscardRatio <= 0 || c.Index.GCDiscardRatio >= 1 {
		return fmt.Errorf("INDEX_GC_DISCARD_RATIO must be in (0, 1), got %v", c.Index.GCDiscardRatio)
	}
	return nil
}

func (c *Config) validateEvents() error {
	if !c.Events.Enabled {
		return nil
	}
	switch c.Events.Transport {
	case "gochannel":
		return nil
	case "nats":
		u, err := url.Parse(c.Events.NATSURL)
		if err != nil || (u.Scheme != "nats" && u.Scheme != "tls") {
			return fmt.Errorf("NATS_URL must be a nats:// or tls:// URL, got %q", c.Events.NATSURL)
		}
		return nil
	default:
		return fmt.Errorf("EVENTS_TRANSPORT must be gochannel or nats, got %q", c.Events.Transport)
	}
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	s := c.Security
	switch s.AuthMode {
	case "none":
		if c.IsProduction() {
			return errors.New("AUTH_MODE=none is not allowed when ENVIRONMENT=production")
		}
	case "jwt":
		if len(s.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters when AUTH_MODE=jwt")
		}
		if containsPlaceholder(s.JWTSecret) {
			return errors.New("JWT_SECRET looks like a placeholder value")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be none or jwt, got %q", s.AuthMode)
	}
	if !s.RateLimitDisabled && (s.RateLimitReqs < 1 || s.RateLimitWindow <= 0) {
		return errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

var validLogFormats = map[string]bool{
	"json": true, "console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return errors.New("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return errors.New("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"PLACEHOLDER",
	"EXAMPLE",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, p := range placeholderPatterns {
		if strings.Contains(upper, p) {
			return true
		}
	}
	return false
}

func validateHTTPURL(rawURL, fieldName string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	if parsed.Path != "" && parsed.Path != "/" {
		return fmt.Errorf("%s should be base URL only, remove path: %s", fieldName, parsed.Path)
	}
	if parsed.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsed.RawQuery)
	}
	return nil
}
