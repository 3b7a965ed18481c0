// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

/*
Package auth guards the admin HTTP routes.

Two modes are supported, selected by security.auth_mode:

  - none: every request is treated as an admin. Meant for deployments that
    sit behind a private network or an authenticating proxy.
  - jwt: requests carry "Authorization: Bearer <token>", an HS256 JWT signed
    with security.jwt_secret whose role claim is "admin".

Tokens are minted out of band with JWTManager.GenerateToken (the server's
-issue-token flag prints one) and are not revocable before they expire.
*/
package auth
