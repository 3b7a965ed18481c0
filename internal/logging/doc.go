// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

// Package logging provides the zerolog-based structured logger used across StorySpot.
//
// A single global logger is configured at startup from the logging section of
// the configuration. Components derive child loggers with a "component" field,
// and blocking operations log through Ctx(ctx) so every line emitted during a
// sync cycle or HTTP request carries its correlation or request id.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("location", loc).Msg("Location directory created")
//	logging.Ctx(ctx).Warn().Err(err).Str("username", u).Msg("Story fetch failed")
//
// # Adapters
//
// Two libraries need a logger of their own type:
//
//   - sutureslog wants a *slog.Logger: use NewSlogLogger.
//   - watermill wants a watermill.LoggerAdapter: use NewWatermillLogger.
//
// Both write through the global zerolog logger.
//
// # Redaction
//
// Credentials (RapidAPI keys, ACRCloud bearer tokens, OAuth refresh tokens)
// must pass through SanitizeToken or SanitizeValue before being logged.
package logging
