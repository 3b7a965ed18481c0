// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

/*
Package social fetches stories and location activity from the social
platform through a RapidAPI scraper.

# Components

  - Source: per-user story listing and download. Only stories that carry
    audio are returned, since nothing else can be recognized.
  - LocationSource: recent posts at a location, with the audio track URL
    pulled out of each post's DASH manifest.
  - Dashboard: the accounts that posted at each followed location today.
    LocationDashboard builds it from a LocationSource and the configured
    followed locations.

# Rate Limiting

The scraper allows roughly one request per second. RapidAPIClient spaces
every call, story downloads included, with a golang.org/x/time/rate limiter
whose interval is MinInterval plus Wiggle. Username to account id lookups
are cached in an LRU (internal/cache) so a cycle costs one stories call per
followed account instead of two.
*/
package social
