// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/storyspot/internal/auth"
	"github.com/tomtom215/storyspot/internal/config"
	"github.com/tomtom215/storyspot/internal/mirror"
	"github.com/tomtom215/storyspot/internal/models"
	"github.com/tomtom215/storyspot/internal/query"
	"github.com/tomtom215/storyspot/internal/recognition"
	syncpkg "github.com/tomtom215/storyspot/internal/sync"
)

const (
	testRoot   = "root"
	testSecret = "api-test-secret-that-is-long-enough-1234567890"
)

type fakeSync struct {
	mu        sync.Mutex
	running   bool
	last      time.Time
	report    *syncpkg.CycleReport
	err       error
	triggered int
}

func (f *fakeSync) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeSync) LastSyncTime() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func (f *fakeSync) LastReport() *syncpkg.CycleReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.report
}

func (f *fakeSync) TryTriggerSync(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.triggered++
	return nil
}

type fakeRecognizer struct {
	result recognition.Result
	err    error
	calls  []string
}

func (f *fakeRecognizer) RecognizeStory(_ context.Context, fileID string) (recognition.Result, error) {
	f.calls = append(f.calls, fileID)
	return f.result, f.err
}

type testEnv struct {
	store      *mirror.MemoryStore
	service    *recognition.MemoryService
	sync       *fakeSync
	recognizer *fakeRecognizer
	handler    *Handler
	server     *httptest.Server
}

type envOption func(*Deps, *config.SecurityConfig)

func withJWT() envOption {
	return func(_ *Deps, sec *config.SecurityConfig) {
		sec.AuthMode = auth.ModeJWT
		sec.JWTSecret = testSecret
	}
}

func withDeps(fn func(*Deps)) envOption {
	return func(d *Deps, _ *config.SecurityConfig) { fn(d) }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	env := &testEnv{
		store:      mirror.NewMemoryStore(),
		service:    recognition.NewMemoryService(),
		sync:       &fakeSync{},
		recognizer: &fakeRecognizer{},
	}
	deps := Deps{
		Sync:            env.sync,
		Matches:         query.NewEngine(env.store, env.service, testRoot, time.UTC),
		Recognizer:      env.recognizer,
		Catalog:         syncpkg.NewCatalog(env.service),
		Entries:         env.service,
		Store:           env.store,
		RootDirectoryID: testRoot,
		Version:         "test",
	}
	sec := config.SecurityConfig{AuthMode: auth.ModeNone, RateLimitDisabled: true}
	for _, opt := range opts {
		opt(&deps, &sec)
	}

	authMW, err := auth.NewMiddleware(sec, RespondAuthError)
	if err != nil {
		t.Fatalf("auth.NewMiddleware() error = %v", err)
	}
	env.handler = NewHandler(deps)
	router := NewRouter(env.handler, authMW, NewChiMiddleware(ChiMiddlewareConfigFromSecurity(sec)))
	env.server = httptest.NewServer(router.SetupChi())
	t.Cleanup(env.server.Close)
	return env
}

type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

// do sends a request and decodes the envelope. headers alternate key, value.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, headers ...string) (int, envelope) {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, body)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := e.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode %s %s body %q: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode, env
}

func decodeData(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}

func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(b)
}
