// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/storyspot/internal/api"
	"github.com/tomtom215/storyspot/internal/auth"
	"github.com/tomtom215/storyspot/internal/config"
	"github.com/tomtom215/storyspot/internal/events"
	"github.com/tomtom215/storyspot/internal/index"
	"github.com/tomtom215/storyspot/internal/logging"
	"github.com/tomtom215/storyspot/internal/mirror"
	"github.com/tomtom215/storyspot/internal/query"
	"github.com/tomtom215/storyspot/internal/recognition"
	"github.com/tomtom215/storyspot/internal/social"
	"github.com/tomtom215/storyspot/internal/supervisor"
	"github.com/tomtom215/storyspot/internal/supervisor/services"
	"github.com/tomtom215/storyspot/internal/sync"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	issueToken := flag.String("issue-token", "", "print an admin JWT for this username and exit")
	tokenTTL := flag.Duration("token-ttl", 30*24*time.Hour, "lifetime of the token printed by -issue-token")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	if *issueToken != "" {
		token, err := issueAdminToken(cfg.Security, *issueToken, *tokenTTL)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to issue token")
		}
		fmt.Println(token)
		return
	}

	logging.Info().Str("version", version).Msg("Starting StorySpot with supervisor tree")

	if path := config.ConfigFilePath(); path != "" {
		if err := config.WatchConfigFile(path, reloadLogLevel); err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Config file watch unavailable; log level changes need a restart")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer a.close()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	a.register(tree)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", cfg.Server.Addr()).Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// issueAdminToken mints an admin JWT with the configured secret.
func issueAdminToken(cfg config.SecurityConfig, username string, ttl time.Duration) (string, error) {
	jwtManager, err := auth.NewJWTManager(cfg)
	if err != nil {
		return "", err
	}
	return jwtManager.GenerateToken(username, auth.RoleAdmin, ttl)
}

// reloadLogLevel re-reads the configuration and applies its log level.
// Other settings only take effect on restart.
func reloadLogLevel() {
	cfg, err := config.Load()
	if err != nil {
		logging.Warn().Err(err).Msg("Ignoring config change that fails to load")
		return
	}
	logging.SetLevelString(cfg.Logging.Level)
	logging.Info().Str("level", cfg.Logging.Level).Msg("Log level reloaded")
}

// app holds the wired components.
type app struct {
	cfg     *config.Config
	index   *index.Index
	events   events.Publisher
	consumer *events.Consumer
	manager  *sync.Manager
	server   *http.Server
}

// newApp builds every component. Nothing here talks to the network; the
// first upstream call happens in the first sync cycle or API request.
//
//nolint:gocyclo // sequential wiring
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	loc, err := cfg.Sync.Location()
	if err != nil {
		return nil, fmt.Errorf("sync time zone: %w", err)
	}
	locations, err := cfg.Dashboard.Locations()
	if err != nil {
		return nil, err
	}

	var store mirror.Store = mirror.NewDriveStore(ctx, cfg.Mirror)
	var readiness []api.ReadinessCheck
	if cfg.Mirror.CircuitBreaker {
		cbStore := mirror.NewCircuitBreakerStore(store)
		store = cbStore
		readiness = append(readiness, breakerCheck("drive", cbStore.State))
	}

	var service recognition.Service = recognition.NewACRCloudClient(cfg.Recognition)
	if cfg.Recognition.CircuitBreaker {
		cbService := recognition.NewCircuitBreakerService(service)
		service = cbService
		readiness = append(readiness, breakerCheck("acrcloud", cbService.State))
	}

	var recognizer recognition.Recognizer
	if cfg.Recognition.IdentifyEnabled() {
		recognizer = recognition.NewIdentifyClient(cfg.Recognition)
	} else {
		logging.Info().Msg("Clip identification disabled (ACRCLOUD_IDENTIFY_URL or credentials not set)")
	}

	socialClient := social.NewRapidAPIClient(cfg.Social)
	dashboard := social.NewLocationDashboard(socialClient, locations, loc)

	idx, err := index.Open(cfg.Index)
	if err != nil {
		return nil, err
	}
	readiness = append(readiness, api.ReadinessCheck{
		Name:  "index",
		Check: func(context.Context) error { return idx.Ping() },
	})

	publisher, err := events.New(cfg.Events)
	if err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("events: %w", err)
	}

	orchestrator := sync.NewOrchestrator(sync.Deps{
		Store:      store,
		Service:    service,
		Recognizer: recognizer,
		Source:     socialClient,
		Dashboard:  dashboard,
		Index:      idx,
		Events:     publisher,
	}, sync.Options{
		RootDirectoryID:   cfg.Mirror.RootDirectoryID,
		ScratchDir:        cfg.Sync.ScratchDir,
		SettleDelay:       cfg.Sync.SettleDelay,
		RecognizeAttempts: cfg.Sync.RecognizeAttempts,
	})
	manager := sync.NewManager(orchestrator, cfg.Sync, loc)

	// NATS events are consumed by other processes; the in-process transport
	// is read back here so its stream shows up in logs and metrics.
	var consumer *events.Consumer
	if wp, ok := publisher.(*events.WatermillPublisher); ok && wp.Subscriber() != nil {
		consumer = events.NewConsumer(wp.Subscriber(), events.DefaultConsumerConfig())
	}

	handler := api.NewHandler(api.Deps{
		Sync:            manager,
		Matches:         query.NewEngine(store, service, cfg.Mirror.RootDirectoryID, loc),
		Recognizer:      orchestrator,
		Catalog:         sync.NewCatalog(service),
		Entries:         service,
		Store:           store,
		RootDirectoryID: cfg.Mirror.RootDirectoryID,
		Index:           idx,
		Readiness:       readiness,
		Version:         version,
	})

	authMW, err := auth.NewMiddleware(cfg.Security, api.RespondAuthError)
	if err != nil {
		_ = publisher.Close()
		_ = idx.Close()
		return nil, fmt.Errorf("auth: %w", err)
	}
	if cfg.Security.AuthMode == auth.ModeNone {
		logging.Warn().Msg("Authentication is DISABLED (AUTH_MODE=none); every caller can use the admin routes")
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	router := api.NewRouter(handler, authMW, api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(cfg.Security)))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		// Manual sync triggers return immediately; uploads are the slowest
		// handlers and are bounded by the request timeout.
		WriteTimeout: cfg.Server.Timeout + 5*time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	logging.Info().
		Int("locations", len(locations)).
		Bool("sync_enabled", cfg.Sync.Enabled).
		Bool("identify_enabled", recognizer != nil).
		Bool("events_enabled", cfg.Events.Enabled).
		Str("auth_mode", cfg.Security.AuthMode).
		Str("rapidapi_key", logging.SanitizeToken(cfg.Social.APIKey)).
		Msg("Configuration loaded")

	return &app{
		cfg:      cfg,
		index:    idx,
		events:   publisher,
		consumer: consumer,
		manager:  manager,
		server:   server,
	}, nil
}

// register adds the long-running services to tree.
func (a *app) register(tree *supervisor.SupervisorTree) {
	tree.AddDataService(services.NewIndexGCService(a.index, a.cfg.Index.GCInterval))
	tree.AddMessagingService(services.NewSyncService(a.manager))
	if a.consumer != nil {
		tree.AddMessagingService(a.consumer)
	}
	tree.AddAPIService(services.NewHTTPServerService(a.server, a.cfg.Server.ShutdownTimeout))
}

// close releases the index and the event publisher. Call after the tree
// has stopped.
func (a *app) close() {
	if err := a.events.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing event publisher")
	}
	if err := a.index.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing story index")
	}
}

// breakerCheck fails readiness while the named breaker is open.
func breakerCheck(name string, state func() string) api.ReadinessCheck {
	return api.ReadinessCheck{
		Name: name,
		Check: func(context.Context) error {
			if s := state(); s == "open" {
				return fmt.Errorf("%s circuit breaker is %s", name, s)
			}
			return nil
		},
	}
}
