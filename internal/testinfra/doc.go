// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

// Package testinfra starts Docker containers for integration tests.
//
// Everything except this file is behind the integration build tag:
//
//	go test -tags integration ./...
//
// # WireMock
//
// WireMockContainer runs a WireMock server that stands in for third-party
// HTTP APIs (the recognition console, the social scraper). Tests register
// stubs through the admin API and point a real client at URL:
//
//	wm, err := testinfra.NewWireMockContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer testinfra.CleanupContainer(t, ctx, wm)
//
//	err = wm.StubJSON(ctx, http.MethodGet, "/api/fs-containers/c1/files", 200, body)
//
// Tests call SkipIfNoDocker first so they skip cleanly on machines without
// a Docker daemon. The first run pulls the image.
package testinfra
