// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package social

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

// mpd is the subset of an MPEG-DASH manifest needed to find the audio track.
type mpd struct {
	Periods []struct {
		AdaptationSets []adaptationSet `xml:"AdaptationSet"`
	} `xml:"Period"`
}

type adaptationSet struct {
	ContentType     string `xml:"contentType,attr"`
	MimeType        string `xml:"mimeType,attr"`
	Representations []struct {
		MimeType string `xml:"mimeType,attr"`
		BaseURL  string `xml:"BaseURL"`
	} `xml:"Representation"`
}

func (a adaptationSet) isAudio() bool {
	if a.ContentType == "audio" || strings.HasPrefix(a.MimeType, "audio/") {
		return true
	}
	for _, r := range a.Representations {
		if strings.HasPrefix(r.MimeType, "audio/") {
			return true
		}
	}
	return false
}

// audioURLFromManifest returns the first audio representation's BaseURL.
//
// The platform puts video in the first adaptation set and audio in the
// second; a manifest that does not follow that layout is searched for an
// adaptation set marked as audio.
func audioURLFromManifest(manifest string) (string, error) {
	var doc mpd
	if err := xml.Unmarshal([]byte(manifest), &doc); err != nil {
		return "", fmt.Errorf("parse DASH manifest: %w", err)
	}
	if len(doc.Periods) == 0 {
		return "", errors.New("DASH manifest has no Period")
	}
	sets := doc.Periods[0].AdaptationSets

	candidates := make([]adaptationSet, 0, len(sets))
	if len(sets) > 1 {
		candidates = append(candidates, sets[1])
	}
	for _, s := range sets {
		if s.isAudio() {
			candidates = append(candidates, s)
		}
	}
	for _, s := range candidates {
		for _, r := range s.Representations {
			if u := strings.TrimSpace(r.BaseURL); u != "" {
				return u, nil
			}
		}
	}
	return "", errors.New("DASH manifest has no audio representation")
}
