// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/storyspot/config.yaml",
	"/etc/storyspot/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Mirror: MirrorConfig{
			BaseURL:         "https://www.googleapis.com",
			TokenURL:        "https://oauth2.googleapis.com/token",
			ShareUploads:    true,
			SingleShotLimit: 5 << 20,
			ChunkSize:       4 * 256 << 10,
			UploadRetries:   5,
			RetryBaseDelay:  time.Second,
			RequestTimeout:  2 * time.Minute,
			CircuitBreaker:  true,
		},
		Recognition: RecognitionConfig{
			ConsoleURL:      "https://api-v2.acrcloud.com",
			PageSize:        100,
			RescanBatchSize: 20,
			MaxRetries:      3,
			RetryBaseDelay:  time.Second,
			RequestTimeout:  30 * time.Second,
			CircuitBreaker:  true,
		},
		Social: SocialConfig{
			BaseURL:        "https://instagram-scraper-2022.p.rapidapi.com",
			Host:           "instagram-scraper-2022.p.rapidapi.com",
			MinInterval:    time.Second,
			Wiggle:         500 * time.Millisecond,
			UserCacheSize:  1024,
			UserCacheTTL:   24 * time.Hour,
			RequestTimeout: time.Minute,
		},
		Sync: SyncConfig{
			Enabled:           true,
			RunOnStartup:      true,
			Cooldown:          15 * time.Minute,
			CycleTimeout:      2 * time.Hour,
			SettleDelay:       5 * time.Second,
			ScratchDir:        "/tmp/storyspot/stories",
			TimeZone:          "UTC",
			RecognizeAttempts: 3,
		},
		Index: IndexConfig{
			Path:            "/data/storyspot/index",
			RefreshInterval: 6 * time.Hour,
			GCInterval:      10 * time.Minute,
			GCDiscardRatio:  0.5,
		},
		Events: EventsConfig{
			Enabled:    true,
			Transport:  "gochannel",
			NATSURL:    "nats://127.0.0.1:4222",
			BufferSize: 256,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Security: SecurityConfig{
			AuthMode:        "none",
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf layers struct defaults, the YAML config file, and mapped
// environment variables, in increasing priority.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths may arrive from the environment as comma-separated strings.
var sliceConfigPaths = []string{
	"dashboard.followed_locations",
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	// Mirror store (Google Drive)
	"drive_base_url":          "mirror.base_url",
	"drive_token_url":         "mirror.token_url",
	"drive_root_directory_id": "mirror.root_directory_id",
	"drive_access_token":      "mirror.access_token",
	"drive_client_id":         "mirror.client_id",
	"drive_client_secret":     "mirror.client_secret",
	"drive_refresh_token":     "mirror.refresh_token",
	"drive_share_uploads":     "mirror.share_uploads",
	"drive_single_shot_limit": "mirror.single_shot_limit",
	"drive_chunk_size":        "mirror.chunk_size",
	"drive_upload_retries":    "mirror.upload_retries",
	"drive_request_timeout":   "mirror.request_timeout",
	"drive_circuit_breaker":   "mirror.circuit_breaker",

	// Recognition service (ACRCloud)
	"acrcloud_console_url":       "recognition.console_url",
	"acrcloud_bearer_token":      "recognition.bearer_token",
	"acrcloud_container_id":      "recognition.container_id",
	"acrcloud_bucket_id":         "recognition.bucket_id",
	"acrcloud_identify_url":      "recognition.identify_url",
	"acrcloud_access_key":        "recognition.access_key",
	"acrcloud_access_secret":     "recognition.access_secret",
	"acrcloud_page_size":         "recognition.page_size",
	"acrcloud_rescan_batch_size": "recognition.rescan_batch_size",
	"acrcloud_max_retries":       "recognition.max_retries",
	"acrcloud_request_timeout":   "recognition.request_timeout",
	"acrcloud_circuit_breaker":   "recognition.circuit_breaker",

	// Social source (RapidAPI)
	"rapidapi_base_url":        "social.base_url",
	"rapidapi_host":            "social.host",
	"rapidapi_key":             "social.api_key",
	"social_min_interval":      "social.min_interval",
	"social_wiggle":            "social.wiggle",
	"social_user_cache_size":   "social.user_cache_size",
	"social_user_cache_ttl":    "social.user_cache_ttl",
	"social_request_timeout":   "social.request_timeout",
	"followed_locations":       "dashboard.followed_locations",
	"sync_enabled":             "sync.enabled",
	"sync_run_on_startup":      "sync.run_on_startup",
	"sync_cooldown":            "sync.cooldown",
	"sync_cycle_timeout":       "sync.cycle_timeout",
	"sync_settle_delay":        "sync.settle_delay",
	"sync_scratch_dir":         "sync.scratch_dir",
	"sync_time_zone":           "sync.time_zone",
	"sync_recognize_attempts":  "sync.recognize_attempts",
	"index_path":               "index.path",
	"index_in_memory":          "index.in_memory",
	"index_refresh_interval":   "index.refresh_interval",
	"index_gc_interval":        "index.gc_interval",
	"index_gc_discard_ratio":   "index.gc_discard_ratio",
	"events_enabled":           "events.enabled",
	"events_transport":         "events.transport",
	"nats_url":                 "events.nats_url",
	"events_buffer_size":       "events.buffer_size",
	"http_host":                "server.host",
	"http_port":                "server.port",
	"http_timeout":             "server.timeout",
	"http_shutdown_timeout":    "server.shutdown_timeout",
	"environment":              "server.environment",
	"auth_mode":                "security.auth_mode",
	"jwt_secret":               "security.jwt_secret",
	"rate_limit_requests":      "security.rate_limit_reqs",
	"rate_limit_window":        "security.rate_limit_window",
	"disable_rate_limit":       "security.rate_limit_disabled",
	"cors_origins":             "security.cors_origins",
	"log_level":                "logging.level",
	"log_format":               "logging.format",
	"log_caller":               "logging.caller",
}

func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

// WatchConfigFile invokes callback whenever the file at path changes.
// main uses it to hot-reload the log level.
func WatchConfigFile(path string, callback func()) error {
	return file.Provider(path).Watch(func(_ interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}

// ConfigFilePath exposes the resolved config file path, or "" when running
// on defaults and environment only.
func ConfigFilePath() string {
	return findConfigFile()
}
