// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

/*
Package events publishes pipeline domain events through Watermill.

Topics:

  - story.mirrored: a story video was uploaded to the mirror store
  - story.registered: a mirrored video was registered for recognition
  - sync.cycle_completed: one master sync cycle finished

Payloads are JSON (goccy/go-json). Every message gets a UUID and carries
the cycle correlation id in its metadata when the context has one.

Two transports are supported. "gochannel" keeps events in process and is
what tests subscribe to; "nats" publishes to core NATS subjects named after
the topics through watermill-nats. When events are disabled the Noop
publisher is used, so callers never check for nil.

Consumer reads the in-process stream back through a Watermill router with
recoverer and retry middleware. It runs under the supervisor, logs each
event and counts it in storyspot_events_consumed_total. Malformed payloads
are acked and counted as "invalid".

Publishing is best effort: the orchestrator logs a failed publish and
carries on, since the mirror store and recognition container stay the
source of truth.
*/
package events
