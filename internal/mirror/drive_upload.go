// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/storyspot/internal/logging"
	"github.com/tomtom215/storyspot/internal/metrics"
	"github.com/tomtom215/storyspot/internal/upstream"
)

// statusResumeIncomplete is Drive's "308 Resume Incomplete".
const statusResumeIncomplete = 308

const uploadFields = "id,name,createdTime"

// UploadVideo implements Store.
//
// Files up to SingleShotLimit go up in one multipart request. If that fails
// with a transient error, or the file is larger, a resumable session sends
// ChunkSize pieces, retrying each piece up to UploadRetries times.
func (d *DriveStore) UploadVideo(ctx context.Context, dirID, localPath, filename string) (string, error) {
	file, err := d.upload(ctx, dirID, localPath, filename)
	if err != nil {
		return "", &UploadError{Filename: filename, DirectoryID: dirID, Err: err}
	}

	if d.cfg.ShareUploads {
		if err := d.share(ctx, file.ID); err != nil {
			// The file exists; dedup will never upload it again, so the
			// permission must be fixed by hand.
			logging.Warn().Err(err).Str("file_id", file.ID).Str("filename", filename).Msg("Uploaded file could not be shared")
		}
	}
	return file.ID, nil
}

func (d *DriveStore) upload(ctx context.Context, dirID, localPath, filename string) (*driveFile, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", localPath, err)
	}
	size := info.Size()
	meta := fileMetadata{Name: filename, MimeType: videoMime, Parents: []string{dirID}}

	if size <= d.cfg.SingleShotLimit {
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", localPath, err)
		}
		file, err := d.uploadMultipart(ctx, meta, data)
		if err == nil {
			return file, nil
		}
		if !upstream.IsTransient(err) {
			return nil, err
		}
		metrics.MirrorUploadFallbacks.Inc()
		logging.Warn().Err(err).Str("filename", filename).Int64("size", size).
			Msg("Single-shot upload failed, falling back to resumable upload")
	}

	return d.uploadResumable(ctx, meta, f, size)
}

// uploadMultipart sends metadata and content in one multipart/related body.
func (d *DriveStore) uploadMultipart(ctx context.Context, meta fileMetadata, data []byte) (*driveFile, error) {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	metaPart, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {"application/json; charset=UTF-8"}})
	if err != nil {
		return nil, err
	}
	if _, err := metaPart.Write(metaJSON); err != nil {
		return nil, err
	}
	mediaPart, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {meta.MimeType}})
	if err != nil {
		return nil, err
	}
	if _, err := mediaPart.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	payload := body.Bytes()
	contentType := "multipart/related; boundary=" + w.Boundary()
	reqURL := d.baseURL + "/upload/drive/v3/files?uploadType=multipart&supportsAllDrives=true&fields=" + uploadFields

	resp, err := d.retrier.Do(ctx, "upload_multipart", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	var file driveFile
	if err := upstream.DecodeJSON(resp, serviceName, "upload_multipart", &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// uploadResumable runs a resumable upload session over r.
func (d *DriveStore) uploadResumable(ctx context.Context, meta fileMetadata, r io.ReaderAt, size int64) (*driveFile, error) {
	session, err := d.withRetries(ctx, "start resumable session", func() (string, error) {
		return d.startSession(ctx, meta, size)
	})
	if err != nil {
		return nil, err
	}

	buf := make([]byte, d.cfg.ChunkSize)
	var offset int64
	failures := 0
	for {
		n := size - offset
		if n > d.cfg.ChunkSize {
			n = d.cfg.ChunkSize
		}
		chunk := buf[:n]
		if n > 0 {
			if _, err := r.ReadAt(chunk, offset); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("read chunk at %d: %w", offset, err)
			}
		}

		file, next, err := d.putChunk(ctx, session, chunk, offset, size)
		if err == nil {
			if file != nil {
				return file, nil
			}
			offset, failures = next, 0
			continue
		}

		if !upstream.IsTransient(err) {
			return nil, err
		}
		failures++
		if failures >= d.cfg.UploadRetries {
			return nil, fmt.Errorf("chunk at offset %d failed %d times: %w", offset, failures, err)
		}
		logging.Debug().Err(err).Int64("offset", offset).Int("attempt", failures).Msg("Resumable chunk failed, retrying")
		if err := upstream.Wait(ctx, d.cfg.RetryBaseDelay*time.Duration(1<<uint(failures-1))); err != nil {
			return nil, err
		}

		// Ask the server how much it kept before resending.
		file, committed, qerr := d.querySession(ctx, session, size)
		if qerr != nil {
			continue
		}
		if file != nil {
			return file, nil
		}
		offset = committed
	}
}

// withRetries retries fn on transient errors up to UploadRetries attempts.
func (d *DriveStore) withRetries(ctx context.Context, what string, fn func() (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt < d.cfg.UploadRetries; attempt++ {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		if !upstream.IsTransient(err) {
			return "", err
		}
		lastErr = err
		if err := upstream.Wait(ctx, d.cfg.RetryBaseDelay*time.Duration(1<<uint(attempt))); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("%s failed after %d attempts: %w", what, d.cfg.UploadRetries, lastErr)
}

func (d *DriveStore) startSession(ctx context.Context, meta fileMetadata, size int64) (string, error) {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	reqURL := d.baseURL + "/upload/drive/v3/files?uploadType=resumable&supportsAllDrives=true&fields=" + uploadFields

	resp, err := d.retrier.Do(ctx, "upload_session", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(metaJSON))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
		req.Header.Set("X-Upload-Content-Type", meta.MimeType)
		req.Header.Set("X-Upload-Content-Length", strconv.FormatInt(size, 10))
		return req, nil
	})
	if err != nil {
		return "", err
	}
	if err := upstream.CheckStatus(resp, serviceName, "upload_session"); err != nil {
		return "", err
	}
	upstream.Drain(resp)

	location := resp.Header.Get("Location")
	if location == "" {
		return "", errors.New("resumable session response has no Location header")
	}
	return location, nil
}

// putChunk sends one chunk. It returns the file when the upload completed,
// otherwise the next offset the server expects.
func (d *DriveStore) putChunk(ctx context.Context, session string, chunk []byte, offset, size int64) (*driveFile, int64, error) {
	contentRange := fmt.Sprintf("bytes */%d", size)
	if len(chunk) > 0 {
		contentRange = fmt.Sprintf("bytes %d-%d/%d", offset, offset+int64(len(chunk))-1, size)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, session, bytes.NewReader(chunk))
	if err != nil {
		return nil, 0, err
	}
	req.ContentLength = int64(len(chunk))
	req.Header.Set("Content-Range", contentRange)
	return d.sessionResponse(req, "upload_chunk")
}

// querySession asks for the committed offset of an interrupted session.
func (d *DriveStore) querySession(ctx context.Context, session string, size int64) (*driveFile, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, session, http.NoBody)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Range", fmt.Sprintf("bytes */%d", size))
	return d.sessionResponse(req, "upload_status")
}

func (d *DriveStore) sessionResponse(req *http.Request, operation string) (*driveFile, int64, error) {
	start := time.Now()
	resp, err := d.retrier.Client.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(serviceName, operation, 0, time.Since(start))
		return nil, 0, fmt.Errorf("%s %s request failed: %w", serviceName, operation, err)
	}
	metrics.RecordUpstreamRequest(serviceName, operation, resp.StatusCode, time.Since(start))

	if resp.StatusCode == statusResumeIncomplete {
		upstream.Drain(resp)
		return nil, committedOffset(resp.Header.Get("Range")), nil
	}
	var file driveFile
	if err := upstream.DecodeJSON(resp, serviceName, operation, &file); err != nil {
		return nil, 0, err
	}
	return &file, 0, nil
}

// committedOffset parses a "bytes=0-N" Range header into N+1.
func committedOffset(rangeHeader string) int64 {
	_, last, ok := strings.Cut(strings.TrimPrefix(rangeHeader, "bytes="), "-")
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(last, 10, 64)
	if err != nil {
		return 0
	}
	return n + 1
}
