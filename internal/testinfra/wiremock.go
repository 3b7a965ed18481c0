// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

//go:build integration

package testinfra

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultWireMockImage is the WireMock image used by integration tests.
	DefaultWireMockImage = "wiremock/wiremock:3.9.1"

	// DefaultWireMockPort is WireMock's HTTP port inside the container.
	DefaultWireMockPort = "8080"
)

// WireMockContainer is a running WireMock server.
type WireMockContainer struct {
	testcontainers.Container

	// URL is the base URL stubs are served from.
	URL string

	client *http.Client
}

// WireMockOption configures NewWireMockContainer.
type WireMockOption func(*wireMockConfig)

type wireMockConfig struct {
	image        string
	startTimeout time.Duration
}

// WithWireMockImage overrides the image.
func WithWireMockImage(image string) WireMockOption {
	return func(c *wireMockConfig) { c.image = image }
}

// WithStartTimeout sets how long to wait for the admin API to come up.
func WithStartTimeout(timeout time.Duration) WireMockOption {
	return func(c *wireMockConfig) { c.startTimeout = timeout }
}

// NewWireMockContainer starts WireMock and waits for its admin API.
func NewWireMockContainer(ctx context.Context, opts ...WireMockOption) (*WireMockContainer, error) {
	cfg := &wireMockConfig{
		image:        DefaultWireMockImage,
		startTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{DefaultWireMockPort + "/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(DefaultWireMockPort+"/tcp"),
			wait.ForHTTP("/__admin/mappings").WithPort(DefaultWireMockPort+"/tcp"),
		).WithStartupTimeout(cfg.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create wiremock container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, DefaultWireMockPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	return &WireMockContainer{
		Container: container,
		URL:       fmt.Sprintf("http://%s:%s", host, port.Port()),
		client:    &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Stub is a WireMock request mapping.
type Stub struct {
	Request  StubRequest  `json:"request"`
	Response StubResponse `json:"response"`
}

// StubRequest matches incoming requests. URLPath ignores the query string.
type StubRequest struct {
	Method          string                       `json:"method"`
	URLPath         string                       `json:"urlPath,omitempty"`
	URLPathPattern  string                       `json:"urlPathPattern,omitempty"`
	QueryParameters map[string]map[string]string `json:"queryParameters,omitempty"`
	Headers         map[string]map[string]string `json:"headers,omitempty"`
}

// StubResponse is the canned reply.
type StubResponse struct {
	Status   int               `json:"status"`
	Headers  map[string]string `json:"headers,omitempty"`
	JSONBody any               `json:"jsonBody,omitempty"`
	Body     string            `json:"body,omitempty"`
}

// AddStub registers stub through the admin API.
func (w *WireMockContainer) AddStub(ctx context.Context, stub Stub) error {
	payload, err := json.Marshal(stub)
	if err != nil {
		return fmt.Errorf("encode stub: %w", err)
	}
	return w.admin(ctx, http.MethodPost, "/__admin/mappings", payload, http.StatusCreated)
}

// StubJSON answers method+path with status and a JSON body.
func (w *WireMockContainer) StubJSON(ctx context.Context, method, path string, status int, body any) error {
	return w.AddStub(ctx, Stub{
		Request: StubRequest{Method: method, URLPath: path},
		Response: StubResponse{
			Status:   status,
			Headers:  map[string]string{"Content-Type": "application/json"},
			JSONBody: body,
		},
	})
}

// Reset removes every stub and the request journal.
func (w *WireMockContainer) Reset(ctx context.Context) error {
	return w.admin(ctx, http.MethodPost, "/__admin/reset", nil, http.StatusOK)
}

// RequestCount returns how many received requests matched method and path.
func (w *WireMockContainer) RequestCount(ctx context.Context, method, path string) (int, error) {
	payload, err := json.Marshal(StubRequest{Method: method, URLPath: path})
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL+"/__admin/requests/count", bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("count requests: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode request count: %w", err)
	}
	return out.Count, nil
}

func (w *WireMockContainer) admin(ctx context.Context, method, path string, body []byte, want int) error {
	var r io.Reader = http.NoBody
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, w.URL+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("wiremock %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("wiremock %s %s: status %d: %s", method, path, resp.StatusCode, msg)
	}
	return nil
}
