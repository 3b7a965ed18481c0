// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package social

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/storyspot/internal/cache"
	"github.com/tomtom215/storyspot/internal/config"
	"github.com/tomtom215/storyspot/internal/logging"
	"github.com/tomtom215/storyspot/internal/metrics"
	"github.com/tomtom215/storyspot/internal/models"
	"github.com/tomtom215/storyspot/internal/upstream"
)

const serviceName = "social"

// errSomethingWentWrong is the scraper's failure marker inside 2xx bodies.
const errSomethingWentWrong = "Something went wrong"

// maxMetadataSize bounds metadata responses read into memory.
const maxMetadataSize = 16 << 20

// RapidAPIClient implements Source and LocationSource on the RapidAPI
// Instagram scraper.
type RapidAPIClient struct {
	client  upstream.Doer
	baseURL string
	host    string
	apiKey  string
	limiter *rate.Limiter
	userIDs *cache.LRU[string]
}

var (
	_ Source         = (*RapidAPIClient)(nil)
	_ LocationSource = (*RapidAPIClient)(nil)
)

// NewRapidAPIClient builds a client with its own HTTP client.
func NewRapidAPIClient(cfg config.SocialConfig) *RapidAPIClient {
	return NewRapidAPIClientWithClient(cfg, &http.Client{Timeout: cfg.RequestTimeout})
}

// NewRapidAPIClientWithClient builds a client on an existing HTTP client.
func NewRapidAPIClientWithClient(cfg config.SocialConfig, client upstream.Doer) *RapidAPIClient {
	interval := cfg.MinInterval + cfg.Wiggle
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &RapidAPIClient{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		host:    cfg.Host,
		apiKey:  cfg.APIKey,
		limiter: rate.NewLimiter(limit, 1),
		userIDs: cache.NewLRU[string](cfg.UserCacheSize, cfg.UserCacheTTL),
	}
}

// wait blocks until the limiter admits one call.
func (c *RapidAPIClient) wait(ctx context.Context) error {
	start := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	metrics.SocialRateLimitWait.Observe(time.Since(start).Seconds())
	return nil
}

// get calls a scraper endpoint and returns the body of a 2xx response.
func (c *RapidAPIClient) get(ctx context.Context, op, path string, params url.Values) ([]byte, int, error) {
	if err := c.wait(ctx); err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(serviceName, op, 0, time.Since(start))
		return nil, 0, err
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamRequest(serviceName, op, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, errors.New(upstream.ReadBodyForError(resp.Body))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMetadataSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	if bytes.Contains(body, []byte(errSomethingWentWrong)) {
		return nil, resp.StatusCode, errors.New(logging.TruncateBody(string(body), 512))
	}
	return body, resp.StatusCode, nil
}

// looseID accepts ids sent as JSON numbers or strings.
type looseID string

func (l *looseID) UnmarshalJSON(b []byte) error {
	*l = looseID(strings.Trim(string(b), `"`))
	return nil
}

// UserID resolves a username to the platform's account id, using the cache.
func (c *RapidAPIClient) UserID(ctx context.Context, username string) (string, error) {
	if id, ok := c.userIDs.Get(username); ok {
		return id, nil
	}

	body, status, err := c.get(ctx, "user_id", "/ig/user_id/", url.Values{"user": {username}})
	if err != nil {
		return "", &FetchError{Op: "user_id", Username: username, Status: status, Err: err}
	}
	var out struct {
		ID looseID `json:"id"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &FetchError{Op: "user_id", Username: username, Status: status, Err: fmt.Errorf("decode: %w", err)}
	}
	if out.ID == "" {
		return "", &FetchError{Op: "user_id", Username: username, Status: status, Err: errors.New("response has no id")}
	}

	c.userIDs.Add(username, string(out.ID))
	return string(out.ID), nil
}

type storiesResponse struct {
	Reels map[string]struct {
		Items []struct {
			ID            looseID `json:"id"`
			HasAudio      bool    `json:"has_audio"`
			TakenAt       int64   `json:"taken_at"`
			VideoVersions []struct {
				URL string `json:"url"`
			} `json:"video_versions"`
		} `json:"items"`
	} `json:"reels"`
}

// UserStories implements Source.
func (c *RapidAPIClient) UserStories(ctx context.Context, username string) ([]models.Story, error) {
	userID, err := c.UserID(ctx, username)
	if err != nil {
		return nil, err
	}

	body, status, err := c.get(ctx, "stories", "/ig/stories/", url.Values{"id_user": {userID}})
	if err != nil {
		return nil, &FetchError{Op: "stories", Username: username, Status: status, Err: err}
	}
	var out storiesResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &FetchError{Op: "stories", Username: username, Status: status, Err: fmt.Errorf("decode: %w", err)}
	}

	reel, ok := out.Reels[userID]
	if !ok {
		// No reel can also mean a private account; the scraper does not say.
		logging.Debug().Str("username", username).Str("user_id", userID).Msg("No active stories")
		return nil, nil
	}

	stories := make([]models.Story, 0, len(reel.Items))
	for _, item := range reel.Items {
		if !item.HasAudio || len(item.VideoVersions) == 0 || item.VideoVersions[0].URL == "" {
			continue
		}
		s := models.Story{ID: string(item.ID), DownloadURL: item.VideoVersions[0].URL}
		if item.TakenAt > 0 {
			s.TakenAt = time.Unix(item.TakenAt, 0).UTC()
		}
		stories = append(stories, s)
	}
	return stories, nil
}

// DownloadStory implements Source. A partial file is removed on failure.
func (c *RapidAPIClient) DownloadStory(ctx context.Context, story models.Story, destPath string) error {
	if err := c.download(ctx, story, destPath); err != nil {
		_ = os.Remove(destPath)
		return err
	}
	return nil
}

func (c *RapidAPIClient) download(ctx context.Context, story models.Story, destPath string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, story.DownloadURL, http.NoBody)
	if err != nil {
		return &FetchError{Op: "download", StoryID: story.ID, Err: err}
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(serviceName, "download", 0, time.Since(start))
		return &FetchError{Op: "download", StoryID: story.ID, Err: err}
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamRequest(serviceName, "download", resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &FetchError{Op: "download", StoryID: story.ID, Status: resp.StatusCode, Err: errors.New(upstream.ReadBodyForError(resp.Body))}
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o750); err != nil {
		return fmt.Errorf("create scratch directory: %w", err)
	}
	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		return &FetchError{Op: "download", StoryID: story.ID, Status: resp.StatusCode, Err: err}
	}
	return out.Close()
}

type locationResponse struct {
	NativeLocationData struct {
		Recent struct {
			Sections []struct {
				LayoutContent struct {
					Medias []struct {
						Media struct {
							ID                looseID `json:"id"`
							TakenAt           int64   `json:"taken_at"`
							VideoDashManifest string  `json:"video_dash_manifest"`
							User              struct {
								Username string `json:"username"`
							} `json:"user"`
						} `json:"media"`
					} `json:"medias"`
				} `json:"layout_content"`
			} `json:"sections"`
		} `json:"recent"`
	} `json:"native_location_data"`
}

// LocationPosters implements LocationSource. Posts without a username are
// dropped; posts without a DASH manifest keep an empty AudioURL.
func (c *RapidAPIClient) LocationPosters(ctx context.Context, locationID string, day time.Time) ([]models.LocationPoster, error) {
	body, status, err := c.get(ctx, "locations", "/ig/locations/", url.Values{"location_id": {locationID}})
	if err != nil {
		return nil, &FetchError{Op: "locations", LocationID: locationID, Status: status, Err: err}
	}
	var out locationResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &FetchError{Op: "locations", LocationID: locationID, Status: status, Err: fmt.Errorf("decode: %w", err)}
	}

	loc := day.Location()
	y, m, d := day.Date()
	var posters []models.LocationPoster
	for _, section := range out.NativeLocationData.Recent.Sections {
		for _, item := range section.LayoutContent.Medias {
			media := item.Media
			if media.User.Username == "" || media.TakenAt == 0 {
				continue
			}
			taken := time.Unix(media.TakenAt, 0).In(loc)
			if ty, tm, td := taken.Date(); ty != y || tm != m || td != d {
				continue
			}
			p := models.LocationPoster{MediaID: string(media.ID), Username: media.User.Username, TakenAt: taken}
			if media.VideoDashManifest != "" {
				audioURL, err := audioURLFromManifest(media.VideoDashManifest)
				if err != nil {
					logging.Debug().Err(err).Str("media_id", p.MediaID).Msg("Skipping audio URL for post")
				}
				p.AudioURL = audioURL
			}
			posters = append(posters, p)
		}
	}
	return posters, nil
}
