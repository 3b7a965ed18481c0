// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package mirror

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"

	"github.com/tomtom215/storyspot/internal/config"
	"github.com/tomtom215/storyspot/internal/logging"
	"github.com/tomtom215/storyspot/internal/models"
	"github.com/tomtom215/storyspot/internal/upstream"
)

const (
	serviceName  = "mirror"
	folderMime   = "application/vnd.google-apps.folder"
	videoMime    = "video/mp4"
	listPageSize = 1000
	listFields   = "nextPageToken,files(id,name,createdTime)"

	// downloadChunkSize is the copy buffer for file downloads.
	downloadChunkSize = 200 << 10

	driveScope = "https://www.googleapis.com/auth/drive"
)

// DriveStore implements Store on the Google Drive v3 REST API.
type DriveStore struct {
	retrier *upstream.Retrier
	baseURL string
	cfg     config.MirrorConfig
}

var _ Store = (*DriveStore)(nil)

// NewTokenSource returns the OAuth2 token source described by cfg: a static
// bearer token when AccessToken is set, otherwise a refresh-token source.
func NewTokenSource(ctx context.Context, cfg config.MirrorConfig) oauth2.TokenSource {
	if cfg.AccessToken != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"})
	}
	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes: []string{driveScope},
	}
	return oc.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
}

// NewDriveStore builds a DriveStore with an OAuth2 HTTP client.
func NewDriveStore(ctx context.Context, cfg config.MirrorConfig) *DriveStore {
	client := oauth2.NewClient(ctx, NewTokenSource(ctx, cfg))
	client.Timeout = cfg.RequestTimeout
	return NewDriveStoreWithClient(cfg, client)
}

// NewDriveStoreWithClient builds a DriveStore on an existing HTTP client.
// Tests use it with an httptest server and no auth.
func NewDriveStoreWithClient(cfg config.MirrorConfig, client upstream.Doer) *DriveStore {
	logging.Info().
		Str("base_url", cfg.BaseURL).
		Str("root", cfg.RootDirectoryID).
		Int64("single_shot_limit", cfg.SingleShotLimit).
		Int64("chunk_size", cfg.ChunkSize).
		Bool("share_uploads", cfg.ShareUploads).
		Msg("Drive mirror store configured")

	return &DriveStore{
		retrier: &upstream.Retrier{
			Client:     client,
			Service:    serviceName,
			MaxRetries: cfg.UploadRetries,
			BaseDelay:  cfg.RetryBaseDelay,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		cfg:     cfg,
	}
}

// driveFile is the subset of the Drive file resource we request.
type driveFile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CreatedTime time.Time `json:"createdTime"`
}

type fileList struct {
	NextPageToken string      `json:"nextPageToken"`
	Files         []driveFile `json:"files"`
}

// fileMetadata is the body of create and upload requests.
type fileMetadata struct {
	Name     string   `json:"name"`
	MimeType string   `json:"mimeType,omitempty"`
	Parents  []string `json:"parents,omitempty"`
}

// quote escapes a value for a Drive query string literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

// folderQuery selects directories named name directly under parentID.
func folderQuery(name, parentID string) string {
	return fmt.Sprintf("name = %s and mimeType = %s and %s in parents and trashed = false",
		quote(name), quote(folderMime), quote(parentID))
}

// videoQuery builds the single predicate used by ListVideos.
func videoQuery(dirID string, opts ListOptions) string {
	clauses := []string{
		fmt.Sprintf("%s in parents", quote(dirID)),
		"mimeType contains 'video/'",
		"trashed = false",
	}
	if !opts.CreatedFrom.IsZero() {
		clauses = append(clauses, fmt.Sprintf("createdTime >= %s", quote(opts.CreatedFrom.UTC().Format(time.RFC3339))))
	}
	if !opts.CreatedTo.IsZero() {
		clauses = append(clauses, fmt.Sprintf("createdTime < %s", quote(opts.CreatedTo.UTC().Format(time.RFC3339))))
	}
	if opts.NamePrefix != "" {
		clauses = append(clauses, fmt.Sprintf("name contains %s", quote(opts.NamePrefix)))
	}
	return strings.Join(clauses, " and ")
}

// listFiles runs q and follows nextPageToken until exhausted.
func (d *DriveStore) listFiles(ctx context.Context, operation, q string) ([]driveFile, error) {
	var all []driveFile
	pageToken := ""
	for {
		params := url.Values{}
		params.Set("q", q)
		params.Set("fields", listFields)
		params.Set("pageSize", fmt.Sprint(listPageSize))
		params.Set("orderBy", "createdTime")
		params.Set("supportsAllDrives", "true")
		params.Set("includeItemsFromAllDrives", "true")
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}
		reqURL := d.baseURL + "/drive/v3/files?" + params.Encode()

		resp, err := d.retrier.Do(ctx, operation, func(ctx context.Context) (*http.Request, error) {
			return http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		})
		if err != nil {
			return nil, err
		}
		var page fileList
		if err := upstream.DecodeJSON(resp, serviceName, operation, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Files...)
		if page.NextPageToken == "" {
			return all, nil
		}
		pageToken = page.NextPageToken
	}
}

// ResolveDirectory implements Store.
func (d *DriveStore) ResolveDirectory(ctx context.Context, name, parentID string) (string, error) {
	files, err := d.listFiles(ctx, "resolve_directory", folderQuery(name, parentID))
	if err != nil {
		return "", err
	}
	switch len(files) {
	case 0:
		return "", &DirectoryNotFoundError{Name: name, ParentID: parentID}
	case 1:
		return files[0].ID, nil
	default:
		ids := make([]string, len(files))
		for i, f := range files {
			ids[i] = f.ID
		}
		return "", &MultipleDirectoriesError{Name: name, ParentID: parentID, IDs: ids}
	}
}

// CreateDirectory implements Store.
func (d *DriveStore) CreateDirectory(ctx context.Context, name, parentID string) (string, error) {
	body, err := json.Marshal(fileMetadata{Name: name, MimeType: folderMime, Parents: []string{parentID}})
	if err != nil {
		return "", fmt.Errorf("encode folder metadata: %w", err)
	}
	reqURL := d.baseURL + "/drive/v3/files?fields=id,name,createdTime&supportsAllDrives=true"

	resp, err := d.retrier.Do(ctx, "create_directory", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
		return req, nil
	})
	if err != nil {
		return "", err
	}
	var created driveFile
	if err := upstream.DecodeJSON(resp, serviceName, "create_directory", &created); err != nil {
		return "", err
	}

	logging.Info().Str("directory", name).Str("id", created.ID).Str("parent", parentID).Msg("Mirror directory created")
	return created.ID, nil
}

// ListDirectories implements Store.
func (d *DriveStore) ListDirectories(ctx context.Context, parentID string) ([]models.Directory, error) {
	q := fmt.Sprintf("%s in parents and mimeType = %s and trashed = false", quote(parentID), quote(folderMime))
	files, err := d.listFiles(ctx, "list_directories", q)
	if err != nil {
		return nil, err
	}
	dirs := make([]models.Directory, len(files))
	for i, f := range files {
		dirs[i] = models.Directory{ID: f.ID, Name: f.Name}
	}
	return dirs, nil
}

// ListVideos implements Store.
func (d *DriveStore) ListVideos(ctx context.Context, dirID string, opts ListOptions) ([]models.MirroredVideo, error) {
	files, err := d.listFiles(ctx, "list_videos", videoQuery(dirID, opts))
	if err != nil {
		return nil, err
	}
	videos := make([]models.MirroredVideo, 0, len(files))
	for _, f := range files {
		v := models.MirroredVideo{ID: f.ID, Name: f.Name, CreatedAt: f.CreatedTime}
		// "name contains" is token-based on Drive; enforce the exact prefix here.
		if opts.matches(v) {
			videos = append(videos, v)
		}
	}
	return videos, nil
}

// DownloadFile implements Store.
func (d *DriveStore) DownloadFile(ctx context.Context, fileID, destPath string) error {
	if err := d.download(ctx, fileID, destPath); err != nil {
		_ = os.Remove(destPath)
		return &DownloadError{FileID: fileID, Err: err}
	}
	return nil
}

func (d *DriveStore) download(ctx context.Context, fileID, destPath string) error {
	reqURL := d.baseURL + "/drive/v3/files/" + url.PathEscape(fileID) + "?alt=media&supportsAllDrives=true"
	resp, err := d.retrier.Do(ctx, "download", func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	})
	if err != nil {
		return err
	}
	if err := upstream.CheckStatus(resp, serviceName, "download"); err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0o750); err != nil {
		return fmt.Errorf("create download directory: %w", err)
	}
	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	if _, err := io.CopyBuffer(out, resp.Body, make([]byte, downloadChunkSize)); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy file body: %w", err)
	}
	return out.Close()
}

// DeleteFile implements Store.
func (d *DriveStore) DeleteFile(ctx context.Context, fileID string) error {
	reqURL := d.baseURL + "/drive/v3/files/" + url.PathEscape(fileID) + "?supportsAllDrives=true"
	resp, err := d.retrier.Do(ctx, "delete", func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodDelete, reqURL, http.NoBody)
	})
	if err != nil {
		return err
	}
	if err := upstream.CheckStatus(resp, serviceName, "delete"); err != nil {
		return err
	}
	upstream.Drain(resp)
	return nil
}

// share grants "anyone with the link" read access to fileID.
func (d *DriveStore) share(ctx context.Context, fileID string) error {
	body := []byte(`{"role":"reader","type":"anyone"}`)
	reqURL := d.baseURL + "/drive/v3/files/" + url.PathEscape(fileID) + "/permissions?supportsAllDrives=true"
	resp, err := d.retrier.Do(ctx, "share", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	if err := upstream.CheckStatus(resp, serviceName, "share"); err != nil {
		return err
	}
	upstream.Drain(resp)
	return nil
}
