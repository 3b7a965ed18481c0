// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package recognition

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // the identify API mandates HMAC-SHA1 signatures
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/storyspot/internal/config"
	"github.com/tomtom215/storyspot/internal/metrics"
	"github.com/tomtom215/storyspot/internal/upstream"
)

const (
	identifyPath     = "/v1/identify"
	signatureVersion = "1"
	dataType         = "audio"
)

// IdentifyClient implements Recognizer on the signed identify endpoint.
type IdentifyClient struct {
	client    upstream.Doer
	baseURL   string
	accessKey string
	secret    string
	now       func() time.Time
}

var _ Recognizer = (*IdentifyClient)(nil)

// NewIdentifyClient builds an IdentifyClient. cfg.IdentifyEnabled must be true.
func NewIdentifyClient(cfg config.RecognitionConfig) *IdentifyClient {
	return NewIdentifyClientWithClient(cfg, &http.Client{Timeout: cfg.RequestTimeout})
}

// NewIdentifyClientWithClient builds an IdentifyClient on an existing HTTP client.
func NewIdentifyClientWithClient(cfg config.RecognitionConfig, client upstream.Doer) *IdentifyClient {
	return &IdentifyClient{
		client:    client,
		baseURL:   strings.TrimRight(cfg.IdentifyURL, "/"),
		accessKey: cfg.AccessKey,
		secret:    cfg.AccessSecret,
		now:       time.Now,
	}
}

// sign computes the request signature over the canonical string
// "POST\n/v1/identify\n{key}\naudio\n1\n{timestamp}".
func sign(secret, accessKey, timestamp string) string {
	canonical := strings.Join([]string{http.MethodPost, identifyPath, accessKey, dataType, signatureVersion, timestamp}, "\n")
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(canonical))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

type identifyResponse struct {
	Status struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	} `json:"status"`
	Metadata struct {
		CustomFiles []scanMatch `json:"custom_files"`
		Music       []scanMatch `json:"music"`
	} `json:"metadata"`
}

// Identify implements Recognizer.
func (c *IdentifyClient) Identify(ctx context.Context, audio []byte) Result {
	result := c.identify(ctx, audio)
	metrics.RecognizeOutcomes.WithLabelValues(outcomeLabel(result)).Inc()
	return result
}

func outcomeLabel(r Result) string {
	if r.Outcome == TransientFailure {
		return r.Reason.String()
	}
	return r.Outcome.String()
}

func (c *IdentifyClient) identify(ctx context.Context, audio []byte) Result {
	timestamp := strconv.FormatInt(c.now().Unix(), 10)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fields := [][2]string{
		{"access_key", c.accessKey},
		{"sample_bytes", strconv.Itoa(len(audio))},
		{"timestamp", timestamp},
		{"signature", sign(c.secret, c.accessKey, timestamp)},
		{"data_type", dataType},
		{"signature_version", signatureVersion},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return transportFailure(err)
		}
	}
	part, err := w.CreateFormFile("sample", "sample.mp4")
	if err != nil {
		return transportFailure(err)
	}
	if _, err := part.Write(audio); err != nil {
		return transportFailure(err)
	}
	if err := w.Close(); err != nil {
		return transportFailure(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+identifyPath, &body)
	if err != nil {
		return transportFailure(err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(serviceName, "identify", 0, time.Since(start))
		return transportFailure(err)
	}
	metrics.RecordUpstreamRequest(serviceName, "identify", resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusTooManyRequests {
		upstream.Drain(resp)
		return Result{Outcome: TransientFailure, Reason: ReasonRateLimited, Detail: "HTTP 429"}
	}
	if err := upstream.CheckStatus(resp, serviceName, "identify"); err != nil {
		return Result{Outcome: TransientFailure, Reason: ReasonService, Detail: err.Error()}
	}
	defer resp.Body.Close()

	var out identifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{Outcome: TransientFailure, Reason: ReasonService, Detail: fmt.Sprintf("decode identify response: %v", err)}
	}
	return resultForCode(out.Status.Code, out.Status.Msg, firstMatch(out.Metadata.CustomFiles, out.Metadata.Music))
}

func transportFailure(err error) Result {
	return Result{Outcome: TransientFailure, Reason: ReasonTransport, Detail: err.Error()}
}
