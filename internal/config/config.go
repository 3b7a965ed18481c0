// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package config

import (
	"fmt"
	"strings"
	"time"

	// Embedded zone database so SYNC_TIME_ZONE works in minimal images.
	_ "time/tzdata"

	"github.com/tomtom215/storyspot/internal/models"
)

// Config is the complete runtime configuration.
type Config struct {
	Mirror      MirrorConfig      `koanf:"mirror"`
	Recognition RecognitionConfig `koanf:"recognition"`
	Social      SocialConfig      `koanf:"social"`
	Dashboard   DashboardConfig   `koanf:"dashboard"`
	Sync        SyncConfig        `koanf:"sync"`
	Index       IndexConfig       `koanf:"index"`
	Events      EventsConfig      `koanf:"events"`
	Server      ServerConfig      `koanf:"server"`
	Security    SecurityConfig    `koanf:"security"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// MirrorConfig configures the Google Drive mirror store.
type MirrorConfig struct {
	BaseURL         string `koanf:"base_url"`
	TokenURL        string `koanf:"token_url"`
	RootDirectoryID string `koanf:"root_directory_id"`

	// Either AccessToken (static, mostly for local testing) or the
	// ClientID/ClientSecret/RefreshToken triple must be set.
	AccessToken  string `koanf:"access_token"`
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	RefreshToken string `koanf:"refresh_token"`

	// ShareUploads grants "anyone with the link" read access after upload so
	// the recognition service can fetch the shareable link.
	ShareUploads bool `koanf:"share_uploads"`

	// Files up to SingleShotLimit bytes are sent in one multipart request.
	SingleShotLimit int64 `koanf:"single_shot_limit"`

	// ChunkSize is the resumable upload chunk size; Drive requires a
	// multiple of 256 KiB.
	ChunkSize      int64         `koanf:"chunk_size"`
	UploadRetries  int           `koanf:"upload_retries"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	CircuitBreaker bool          `koanf:"circuit_breaker"`
}

// RecognitionConfig configures the ACRCloud console and identify APIs.
type RecognitionConfig struct {
	ConsoleURL      string        `koanf:"console_url"`
	BearerToken     string        `koanf:"bearer_token"`
	ContainerID     string        `koanf:"container_id"`
	BucketID        string        `koanf:"bucket_id"`
	IdentifyURL     string        `koanf:"identify_url"`
	AccessKey       string        `koanf:"access_key"`
	AccessSecret    string        `koanf:"access_secret"`
	PageSize        int           `koanf:"page_size"`
	RescanBatchSize int           `koanf:"rescan_batch_size"`
	MaxRetries      int           `koanf:"max_retries"`
	RetryBaseDelay  time.Duration `koanf:"retry_base_delay"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	CircuitBreaker  bool          `koanf:"circuit_breaker"`
}

// IdentifyEnabled reports whether clip recognition credentials are present.
func (r RecognitionConfig) IdentifyEnabled() bool {
	return r.IdentifyURL != "" && r.AccessKey != "" && r.AccessSecret != ""
}

// SocialConfig configures the RapidAPI social scraper.
type SocialConfig struct {
	BaseURL        string        `koanf:"base_url"`
	Host           string        `koanf:"host"`
	APIKey         string        `koanf:"api_key"`
	MinInterval    time.Duration `koanf:"min_interval"`
	Wiggle         time.Duration `koanf:"wiggle"`
	UserCacheSize  int           `koanf:"user_cache_size"`
	UserCacheTTL   time.Duration `koanf:"user_cache_ttl"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// DashboardConfig lists the followed locations.
type DashboardConfig struct {
	// FollowedLocations entries have the form "Name:SourceLocationID".
	FollowedLocations []string `koanf:"followed_locations"`
}

// Locations parses FollowedLocations.
func (d DashboardConfig) Locations() ([]models.FollowedLocation, error) {
	out := make([]models.FollowedLocation, 0, len(d.FollowedLocations))
	seen := make(map[string]bool, len(d.FollowedLocations))
	for _, raw := range d.FollowedLocations {
		name, id, ok := strings.Cut(strings.TrimSpace(raw), ":")
		name, id = strings.TrimSpace(name), strings.TrimSpace(id)
		if !ok || name == "" || id == "" {
			return nil, fmt.Errorf("FOLLOWED_LOCATIONS entry %q must be Name:LocationID", raw)
		}
		if seen[name] {
			return nil, fmt.Errorf("FOLLOWED_LOCATIONS lists %q twice", name)
		}
		seen[name] = true
		out = append(out, models.FollowedLocation{Name: name, SourceLocationID: id})
	}
	return out, nil
}

// SyncConfig configures the scheduler loop and the orchestrator.
type SyncConfig struct {
	Enabled           bool          `koanf:"enabled"`
	RunOnStartup      bool          `koanf:"run_on_startup"`
	Cooldown          time.Duration `koanf:"cooldown"`
	CycleTimeout      time.Duration `koanf:"cycle_timeout"`
	SettleDelay       time.Duration `koanf:"settle_delay"`
	ScratchDir        string        `koanf:"scratch_dir"`
	TimeZone          string        `koanf:"time_zone"`
	RecognizeAttempts int           `koanf:"recognize_attempts"`
}

// Location returns the configured time zone used to compute "today".
func (s SyncConfig) Location() (*time.Location, error) {
	if s.TimeZone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.TimeZone)
}

// IndexConfig configures the badger story index.
type IndexConfig struct {
	Path            string        `koanf:"path"`
	InMemory        bool          `koanf:"in_memory"`
	RefreshInterval time.Duration `koanf:"refresh_interval"`
	GCInterval      time.Duration `koanf:"gc_interval"`
	GCDiscardRatio  float64       `koanf:"gc_discard_ratio"`
}

// EventsConfig configures domain event publishing.
type EventsConfig struct {
	Enabled bool `koanf:"enabled"`

	// Transport is "gochannel" (in-process) or "nats".
	Transport  string `koanf:"transport"`
	NATSURL    string `koanf:"nats_url"`
	BufferSize int64  `koanf:"buffer_size"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig configures admin authentication, CORS, and rate limiting.
type SecurityConfig struct {
	// AuthMode is "none" or "jwt".
	AuthMode          string        `koanf:"auth_mode"`
	JWTSecret         string        `koanf:"jwt_secret"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load loads configuration from defaults, an optional YAML file, and the
// environment, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
