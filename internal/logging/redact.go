// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package logging

import "strings"

// SanitizeToken masks a credential, keeping the first and last 4 characters.
//
//	SanitizeToken("5b1f0c2ed9a64e6bb1a3") // "5b1f...b1a3"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

var sensitiveKeys = map[string]bool{
	"access_token":  true,
	"refresh_token": true,
	"token":         true,
	"bearer_token":  true,
	"client_secret": true,
	"secret":        true,
	"jwt_secret":    true,
	"api_key":       true,
	"apikey":        true,
	"access_secret": true,
	"authorization": true,
}

// SanitizeValue masks value when key names a credential.
func SanitizeValue(key, value string) string {
	k := strings.ToLower(key)
	if sensitiveKeys[k] || strings.HasSuffix(k, "_key") || strings.HasSuffix(k, "_secret") {
		return SanitizeToken(value)
	}
	return value
}

// TruncateBody shortens upstream response bodies before they reach a log line.
func TruncateBody(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "...(truncated)"
}
