// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package recognition

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/storyspot/internal/config"
	"github.com/tomtom215/storyspot/internal/logging"
	"github.com/tomtom215/storyspot/internal/metrics"
	"github.com/tomtom215/storyspot/internal/models"
	"github.com/tomtom215/storyspot/internal/upstream"
)

const serviceName = "recognition"

// bucketTimeLayout is how the console reports created_at.
const bucketTimeLayout = "2006-01-02 15:04:05"

// ACRCloudClient implements Service on the ACRCloud console API v2.
type ACRCloudClient struct {
	retrier     *upstream.Retrier
	baseURL     string
	token       string
	containerID string
	bucketID    string
	pageSize    int
	batchSize   int
}

var _ Service = (*ACRCloudClient)(nil)

// NewACRCloudClient builds a client with its own HTTP client.
func NewACRCloudClient(cfg config.RecognitionConfig) *ACRCloudClient {
	return NewACRCloudClientWithClient(cfg, &http.Client{Timeout: cfg.RequestTimeout})
}

// NewACRCloudClientWithClient builds a client on an existing HTTP client.
func NewACRCloudClientWithClient(cfg config.RecognitionConfig, client upstream.Doer) *ACRCloudClient {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	batchSize := cfg.RescanBatchSize
	if batchSize <= 0 {
		batchSize = 20
	}
	return &ACRCloudClient{
		retrier: &upstream.Retrier{
			Client:     client,
			Service:    serviceName,
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.RetryBaseDelay,
		},
		baseURL:     strings.TrimRight(cfg.ConsoleURL, "/"),
		token:       cfg.BearerToken,
		containerID: cfg.ContainerID,
		bucketID:    cfg.BucketID,
		pageSize:    pageSize,
		batchSize:   batchSize,
	}
}

func (c *ACRCloudClient) containerURL(suffix string) string {
	return c.baseURL + "/api/fs-containers/" + url.PathEscape(c.containerID) + "/files" + suffix
}

func (c *ACRCloudClient) bucketURL(suffix string) string {
	return c.baseURL + "/api/buckets/" + url.PathEscape(c.bucketID) + "/files" + suffix
}

// request builds a RequestFunc with auth headers. body may be nil.
func (c *ACRCloudClient) request(method, reqURL string, body []byte, contentType string) upstream.RequestFunc {
	return func(ctx context.Context) (*http.Request, error) {
		var r io.Reader = http.NoBody
		if body != nil {
			r = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, r)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		return req, nil
	}
}

// flexID accepts ids sent either as JSON numbers or strings.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	*f = flexID(strings.Trim(string(b), `"`))
	return nil
}

func (f flexID) String() string { return string(f) }

// pageMeta is the paging block of list responses.
type pageMeta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
}

type containerFile struct {
	ID      flexID      `json:"id"`
	Name    string      `json:"name"`
	URI     string      `json:"uri"`
	URL     string      `json:"url"`
	Results *scanResult `json:"results"`
}

type scanResult struct {
	CustomFiles []scanMatch `json:"custom_files"`
	Music       []scanMatch `json:"music"`
}

// scanMatch covers both the container result shape ({"result": {...}}) and
// the identify metadata shape (fields at the top level).
type scanMatch struct {
	Result *trackFields `json:"result"`
	trackFields
}

type trackFields struct {
	Title   string `json:"title"`
	ACRID   string `json:"acrid"`
	Score   int    `json:"score"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name string `json:"name"`
	} `json:"album"`
	UserDefined map[string]interface{} `json:"user_defined"`
}

func (t trackFields) metadata() *models.TrackMetadata {
	md := &models.TrackMetadata{
		Title: t.Title,
		Album: t.Album.Name,
		ACRID: t.ACRID,
		Score: t.Score,
	}
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	md.Artist = strings.Join(names, ", ")
	if md.Artist == "" {
		md.Artist = userDefined(t.UserDefined, "artist")
	}
	if md.Album == "" {
		md.Album = userDefined(t.UserDefined, "album")
	}
	return md
}

func userDefined(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// firstMatch prefers reference bucket matches over public catalogue matches.
func firstMatch(custom, music []scanMatch) *models.TrackMetadata {
	for _, set := range [][]scanMatch{custom, music} {
		for _, m := range set {
			fields := m.trackFields
			if m.Result != nil {
				fields = *m.Result
			}
			if fields.Title != "" {
				return fields.metadata()
			}
		}
	}
	return nil
}

func (f containerFile) entry() models.RecognitionEntry {
	source := f.URI
	if source == "" {
		source = f.URL
	}
	e := models.RecognitionEntry{ID: f.ID.String(), Name: f.Name, SourceURL: source}
	if f.Results != nil {
		e.Result = firstMatch(f.Results.CustomFiles, f.Results.Music)
	}
	return e
}

// ListAllWithResults implements Service.
func (c *ACRCloudClient) ListAllWithResults(ctx context.Context) ([]models.RecognitionEntry, error) {
	var entries []models.RecognitionEntry
	for page := 1; ; page++ {
		reqURL := c.containerURL(fmt.Sprintf("?page=%d&per_page=%d&with_result=1", page, c.pageSize))
		resp, err := c.retrier.Do(ctx, "list_entries", c.request(http.MethodGet, reqURL, nil, ""))
		if err != nil {
			return nil, err
		}
		var body struct {
			Data []containerFile `json:"data"`
			Meta pageMeta        `json:"meta"`
		}
		if err := upstream.DecodeJSON(resp, serviceName, "list_entries", &body); err != nil {
			return nil, err
		}
		for _, f := range body.Data {
			entries = append(entries, f.entry())
		}
		if len(body.Data) == 0 || page >= body.Meta.LastPage {
			return entries, nil
		}
	}
}

// Register implements Service.
func (c *ACRCloudClient) Register(ctx context.Context, req RegisterRequest) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"data_type": "audio_url",
		"url":       req.URL,
		"name":      req.Name,
	})
	if err != nil {
		return "", &RegisterError{URL: req.URL, Err: err}
	}

	resp, err := c.retrier.Do(ctx, "register", c.request(http.MethodPost, c.containerURL(""), payload, "application/json"))
	if err != nil {
		return "", &RegisterError{URL: req.URL, Status: upstream.StatusOf(err), Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return "", &RegisterError{URL: req.URL, Status: resp.StatusCode, Body: upstream.ReadBodyForError(resp.Body)}
	}

	var body struct {
		Data containerFile `json:"data"`
	}
	if err := upstream.DecodeJSON(resp, serviceName, "register", &body); err != nil {
		return "", &RegisterError{URL: req.URL, Err: err}
	}
	return body.Data.ID.String(), nil
}

// DeleteEntry implements Service.
func (c *ACRCloudClient) DeleteEntry(ctx context.Context, entryID string) error {
	return c.delete(ctx, "delete_entry", c.containerURL("/"+url.PathEscape(entryID)), entryID)
}

func (c *ACRCloudClient) delete(ctx context.Context, operation, reqURL, id string) error {
	resp, err := c.retrier.Do(ctx, operation, c.request(http.MethodDelete, reqURL, nil, ""))
	if err != nil {
		return &DeleteError{ID: id, Status: upstream.StatusOf(err), Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return &DeleteError{ID: id, Status: resp.StatusCode, Body: upstream.ReadBodyForError(resp.Body)}
	}
	upstream.Drain(resp)
	return nil
}

// Rescan implements Service.
func (c *ACRCloudClient) Rescan(ctx context.Context, entryIDs []string) RescanReport {
	report := RescanReport{Requested: len(entryIDs)}
	for start := 0; start < len(entryIDs); start += c.batchSize {
		end := start + c.batchSize
		if end > len(entryIDs) {
			end = len(entryIDs)
		}
		batch := entryIDs[start:end]

		if err := c.rescanBatch(ctx, batch); err != nil {
			metrics.RescanChunkFailures.Inc()
			report.Failures = append(report.Failures, RescanChunkFailure{
				IDs:   append([]string(nil), batch...),
				Error: err.Error(),
			})
			continue
		}
		report.Rescanned += len(batch)
	}
	return report
}

func (c *ACRCloudClient) rescanBatch(ctx context.Context, ids []string) error {
	escaped := make([]string, len(ids))
	for i, id := range ids {
		escaped[i] = url.PathEscape(id)
	}
	reqURL := c.containerURL("/" + strings.Join(escaped, ",") + "/rescan")
	resp, err := c.retrier.Do(ctx, "rescan", c.request(http.MethodPut, reqURL, nil, ""))
	if err != nil {
		return err
	}
	if err := upstream.CheckStatus(resp, serviceName, "rescan"); err != nil {
		return err
	}
	upstream.Drain(resp)
	return nil
}

type bucketFile struct {
	ID          flexID                 `json:"id"`
	Title       string                 `json:"title"`
	CreatedAt   string                 `json:"created_at"`
	UserDefined map[string]interface{} `json:"user_defined"`
}

func (f bucketFile) track() models.Track {
	t := models.Track{
		ID:     f.ID.String(),
		Title:  f.Title,
		Artist: userDefined(f.UserDefined, "artist"),
		Album:  userDefined(f.UserDefined, "album"),
	}
	if ts, err := time.Parse(bucketTimeLayout, f.CreatedAt); err == nil {
		t.CreatedAt = ts
	} else if ts, err := time.Parse(time.RFC3339, f.CreatedAt); err == nil {
		t.CreatedAt = ts
	}
	return t
}

// UploadTrack implements Service.
func (c *ACRCloudClient) UploadTrack(ctx context.Context, track TrackUpload) (string, error) {
	if c.bucketID == "" {
		return "", ErrNoBucket
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fields := [][2]string{
		{"title", track.Title},
		{"data_type", "audio"},
		{"user_defined[artist]", track.Artist},
		{"user_defined[album]", track.Album},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return "", err
		}
	}
	part, err := w.CreateFormFile("file", track.Filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, track.Audio); err != nil {
		return "", fmt.Errorf("read track audio: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	resp, err := c.retrier.Do(ctx, "upload_track", c.request(http.MethodPost, c.bucketURL(""), body.Bytes(), w.FormDataContentType()))
	if err != nil {
		return "", err
	}
	var out struct {
		Data bucketFile `json:"data"`
	}
	if err := upstream.DecodeJSON(resp, serviceName, "upload_track", &out); err != nil {
		return "", err
	}

	logging.Info().Str("track_id", out.Data.ID.String()).Str("title", track.Title).Str("artist", track.Artist).
		Msg("Reference track uploaded")
	return out.Data.ID.String(), nil
}

// ListTracks implements Service.
func (c *ACRCloudClient) ListTracks(ctx context.Context) ([]models.Track, error) {
	if c.bucketID == "" {
		return nil, ErrNoBucket
	}
	var tracks []models.Track
	for page := 1; ; page++ {
		reqURL := c.bucketURL(fmt.Sprintf("?page=%d&per_page=%d", page, c.pageSize))
		resp, err := c.retrier.Do(ctx, "list_tracks", c.request(http.MethodGet, reqURL, nil, ""))
		if err != nil {
			return nil, err
		}
		var body struct {
			Data []bucketFile `json:"data"`
			Meta pageMeta     `json:"meta"`
		}
		if err := upstream.DecodeJSON(resp, serviceName, "list_tracks", &body); err != nil {
			return nil, err
		}
		for _, f := range body.Data {
			tracks = append(tracks, f.track())
		}
		if len(body.Data) == 0 || page >= body.Meta.LastPage {
			return tracks, nil
		}
	}
}

// DeleteTrack implements Service.
func (c *ACRCloudClient) DeleteTrack(ctx context.Context, trackID string) error {
	if c.bucketID == "" {
		return ErrNoBucket
	}
	return c.delete(ctx, "delete_track", c.bucketURL("/"+url.PathEscape(trackID)), trackID)
}
