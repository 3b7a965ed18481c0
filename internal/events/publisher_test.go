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

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/storyspot/internal/config"
	"github.com/tomtom215/storyspot/internal/logging"
	"github.com/tomtom215/storyspot/internal/metrics"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      config.EventsConfig
		wantNoop bool
		wantErr  bool
	}{
		{name: "disabled", cfg: config.EventsConfig{}, wantNoop: true},
		{name: "gochannel", cfg: config.EventsConfig{Enabled: true, Transport: TransportGoChannel, BufferSize: 4}},
		{name: "default transport", cfg: config.EventsConfig{Enabled: true}},
		{name: "unknown", cfg: config.EventsConfig{Enabled: true, Transport: "kafka"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer p.Close()
			if _, ok := p.(Noop); ok != tt.wantNoop {
				t.Errorf("New() = %T, wantNoop %v", p, tt.wantNoop)
			}
		})
	}
}

func TestWatermillPublisher_RoundTrip(t *testing.T) {
	p := NewGoChannel(8, logging.NewWatermillLogger())
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, err := p.Subscriber().Subscribe(ctx, TopicStoryMirrored)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	before := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(TopicStoryMirrored, "success"))
	event := StoryMirrored{Location: "Pacha", Date: "2026-05-01", ContentID: "1_1", Username: "alice", FileID: "f1"}
	pubCtx := logging.ContextWithCorrelationID(ctx, "abc12345")
	if err := p.Publish(pubCtx, TopicStoryMirrored, event); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case msg := <-msgs:
		msg.Ack()
		var got StoryMirrored
		if err := json.Unmarshal(msg.Payload, &got); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if got.FileID != "f1" || got.ContentID != "1_1" {
			t.Errorf("payload = %+v", got)
		}
		if msg.Metadata.Get("correlation_id") != "abc12345" {
			t.Errorf("correlation_id = %q", msg.Metadata.Get("correlation_id"))
		}
		if msg.UUID == "" {
			t.Error("message has no UUID")
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}

	if got := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(TopicStoryMirrored, "success")) - before; got != 1 {
		t.Errorf("EventsPublished delta = %v, want 1", got)
	}
}

func TestWatermillPublisher_Closed(t *testing.T) {
	t.Parallel()

	p := NewGoChannel(0, logging.NewWatermillLogger())
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := p.Publish(context.Background(), TopicCycleCompleted, CycleCompleted{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish() after Close error = %v, want ErrClosed", err)
	}
}

func TestWatermillPublisher_UnserializablePayload(t *testing.T) {
	t.Parallel()

	p := NewGoChannel(0, logging.NewWatermillLogger())
	defer p.Close()
	if err := p.Publish(context.Background(), TopicStoryRegistered, make(chan int)); err == nil {
		t.Error("Publish() of a channel succeeded")
	}
}
