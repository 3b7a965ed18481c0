// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/storyspot/internal/auth"
	"github.com/tomtom215/storyspot/internal/middleware"
)

// Router wires handlers to routes.
type Router struct {
	handler       *Handler
	auth          *auth.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter builds a Router. authMW guards the admin routes.
func NewRouter(handler *Handler, authMW *auth.Middleware, chiMW *ChiMiddleware) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, auth: authMW, chiMiddleware: chiMW}
}

// RespondAuthError writes auth failures in the API envelope. It is passed
// to auth.NewMiddleware.
func RespondAuthError(w http.ResponseWriter, status int, err error) {
	code := codeUnauthorized
	if status == http.StatusForbidden || errors.Is(err, auth.ErrForbidden) {
		code = codeForbidden
	}
	respondError(w, status, code, err.Error(), nil)
}

// SetupChi returns the HTTP handler with every route mounted.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, codeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitHealth))
		r.Use(APISecurityHeaders)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders)

		r.Get("/locations/{location}/matches", router.handler.LocationMatches)
		r.Get("/sync/status", router.handler.SyncStatus)

		r.Group(func(r chi.Router) {
			r.Use(router.auth.RequireAdmin)

			r.With(router.chiMiddleware.RateLimitCustom(RateLimitSync)).Post("/sync", router.handler.TriggerSync)
			r.With(router.chiMiddleware.RateLimitCustom(RateLimitSync)).Post("/stories/{fileID}/recognize", router.handler.RecognizeStory)

			r.Route("/tracks", func(r chi.Router) {
				r.Get("/", router.handler.ListTracks)
				r.With(router.chiMiddleware.RateLimitCustom(RateLimitWrite)).Post("/", router.handler.AddTrack)
				r.With(router.chiMiddleware.RateLimitCustom(RateLimitWrite)).Delete("/{id}", router.handler.DeleteTrack)
			})

			r.Route("/recognition", func(r chi.Router) {
				r.Use(router.chiMiddleware.RateLimitCustom(RateLimitWrite))
				r.Post("/rescan", router.handler.RescanEntries)
				r.Delete("/entries/{id}", router.handler.DeleteEntry)
			})

			r.With(router.chiMiddleware.RateLimitCustom(RateLimitWrite)).
				Post("/mirror/locations/{location}/dedupe", router.handler.DedupeLocation)
		})
	})

	return r
}
