// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/storyspot/internal/logging"
	"github.com/tomtom215/storyspot/internal/metrics"
)

// The gochannel transport drops messages published before the router has
// subscribed, so eventually republishes until the counter moves.
func eventually(t *testing.T, timeout time.Duration, publish func(), done func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		publish()
		time.Sleep(20 * time.Millisecond)
		if done() {
			return
		}
	}
	t.Fatal("condition not met before timeout")
}

func startConsumer(t *testing.T, p *WatermillPublisher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	c := NewConsumer(p.Subscriber(), ConsumerConfig{CloseTimeout: time.Second})
	errCh := make(chan error, 1)
	go func() { errCh <- c.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() error = %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("consumer did not stop")
		}
	})
}

func TestConsumer_CountsEvents(t *testing.T) {
	p := NewGoChannel(16, logging.NewWatermillLogger())
	defer p.Close()
	startConsumer(t, p)

	ctx := logging.ContextWithCorrelationID(context.Background(), "cycle-1")

	tests := []struct {
		topic   string
		payload any
	}{
		{TopicStoryMirrored, StoryMirrored{Location: "Pacha", Date: "2026-10-17", FileID: "f1"}},
		{TopicStoryRegistered, StoryRegistered{FileID: "f1", EntryID: "101"}},
		{TopicCycleCompleted, CycleCompleted{Today: "2026-10-17", Mirrored: 1, Registered: 1}},
		{TopicCycleCompleted, CycleCompleted{Today: "2026-10-17", Error: "drive unavailable"}},
	}
	for _, tt := range tests {
		counter := metrics.EventsConsumed.WithLabelValues(tt.topic, "success")
		before := testutil.ToFloat64(counter)
		eventually(t, 5*time.Second,
			func() {
				if err := p.Publish(ctx, tt.topic, tt.payload); err != nil {
					t.Fatalf("Publish(%s) error = %v", tt.topic, err)
				}
			},
			func() bool { return testutil.ToFloat64(counter) > before },
		)
	}
}

func TestConsumer_AcksMalformedPayload(t *testing.T) {
	p := NewGoChannel(16, logging.NewWatermillLogger())
	defer p.Close()
	startConsumer(t, p)

	invalid := metrics.EventsConsumed.WithLabelValues(TopicStoryRegistered, "invalid")
	before := testutil.ToFloat64(invalid)
	eventually(t, 5*time.Second,
		func() {
			msg := message.NewMessage(uuid.NewString(), []byte("{not json"))
			if err := p.publisher.Publish(TopicStoryRegistered, msg); err != nil {
				t.Fatalf("Publish() error = %v", err)
			}
		},
		func() bool { return testutil.ToFloat64(invalid) > before },
	)

	// The malformed message is acked, so a valid event still gets through.
	success := metrics.EventsConsumed.WithLabelValues(TopicStoryRegistered, "success")
	okBefore := testutil.ToFloat64(success)
	eventually(t, 5*time.Second,
		func() {
			if err := p.Publish(context.Background(), TopicStoryRegistered, StoryRegistered{FileID: "f2"}); err != nil {
				t.Fatalf("Publish() error = %v", err)
			}
		},
		func() bool { return testutil.ToFloat64(success) > okBefore },
	)
}

func TestConsumer_String(t *testing.T) {
	c := NewConsumer(nil, ConsumerConfig{})
	if got := c.String(); got != "event-consumer" {
		t.Errorf("String() = %q, want event-consumer", got)
	}
	if c.cfg.CloseTimeout != DefaultConsumerConfig().CloseTimeout {
		t.Errorf("CloseTimeout = %v, want default", c.cfg.CloseTimeout)
	}
}
