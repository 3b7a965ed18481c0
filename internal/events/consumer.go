// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/goccy/go-json"

	"github.com/tomtom215/storyspot/internal/logging"
	"github.com/tomtom215/storyspot/internal/metrics"
)

// ConsumerConfig tunes the consumer's Watermill router.
type ConsumerConfig struct {
	// CloseTimeout bounds how long handlers get to finish on shutdown.
	CloseTimeout time.Duration

	RetryMaxRetries      int
	RetryInitialInterval time.Duration
}

// DefaultConsumerConfig returns the defaults used by the server.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
	}
}

// Consumer reads the domain events back from an in-process transport. It
// counts them per topic and logs one line per story and per sync cycle so
// the event stream can be followed without an external broker.
//
// Serve builds a fresh router on every call, so a supervisor can restart it.
type Consumer struct {
	subscriber message.Subscriber
	logger     watermill.LoggerAdapter
	cfg        ConsumerConfig
}

// NewConsumer builds a Consumer on subscriber.
func NewConsumer(subscriber message.Subscriber, cfg ConsumerConfig) *Consumer {
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = DefaultConsumerConfig().CloseTimeout
	}
	return &Consumer{
		subscriber: subscriber,
		logger:     logging.NewWatermillLogger(),
		cfg:        cfg,
	}
}

// Serve implements suture.Service.
func (c *Consumer) Serve(ctx context.Context) error {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: c.cfg.CloseTimeout}, c.logger)
	if err != nil {
		return fmt.Errorf("create event router: %w", err)
	}

	// Outer to inner: recover panics, then retry handler errors.
	router.AddMiddleware(middleware.Recoverer)
	if c.cfg.RetryMaxRetries > 0 {
		retry := middleware.Retry{
			MaxRetries:      c.cfg.RetryMaxRetries,
			InitialInterval: c.cfg.RetryInitialInterval,
			Logger:          c.logger,
		}
		router.AddMiddleware(retry.Middleware)
	}

	router.AddNoPublisherHandler("story-mirrored-log", TopicStoryMirrored, c.subscriber, counted(TopicStoryMirrored, handleStoryMirrored))
	router.AddNoPublisherHandler("story-registered-log", TopicStoryRegistered, c.subscriber, counted(TopicStoryRegistered, handleStoryRegistered))
	router.AddNoPublisherHandler("cycle-completed-log", TopicCycleCompleted, c.subscriber, counted(TopicCycleCompleted, handleCycleCompleted))

	if err := router.Run(ctx); err != nil {
		return fmt.Errorf("event router: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer.
func (c *Consumer) String() string {
	return "event-consumer"
}

// counted records the handler outcome. Malformed payloads are acked and
// counted as "invalid"; retrying them cannot help.
func counted(topic string, h func(ctx context.Context, payload []byte) error) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		ctx := msg.Context()
		if id := msg.Metadata.Get("correlation_id"); id != "" {
			ctx = logging.ContextWithCorrelationID(ctx, id)
		}
		if err := h(ctx, msg.Payload); err != nil {
			metrics.EventsConsumed.WithLabelValues(topic, "invalid").Inc()
			logging.Ctx(ctx).Warn().Err(err).Str("topic", topic).Str("message_id", msg.UUID).Msg("Dropping malformed event")
			return nil
		}
		metrics.EventsConsumed.WithLabelValues(topic, "success").Inc()
		return nil
	}
}

func handleStoryMirrored(ctx context.Context, payload []byte) error {
	var ev StoryMirrored
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	logging.Ctx(ctx).Debug().
		Str("location", ev.Location).
		Str("date", ev.Date).
		Str("username", ev.Username).
		Str("file_id", ev.FileID).
		Msg("Event: story mirrored")
	return nil
}

func handleStoryRegistered(ctx context.Context, payload []byte) error {
	var ev StoryRegistered
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	logging.Ctx(ctx).Debug().
		Str("file_id", ev.FileID).
		Str("entry_id", ev.EntryID).
		Msg("Event: story registered")
	return nil
}

func handleCycleCompleted(ctx context.Context, payload []byte) error {
	var ev CycleCompleted
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	e := logging.Ctx(ctx).Info()
	if ev.Error != "" {
		e = logging.Ctx(ctx).Warn().Str("error", ev.Error)
	}
	e.Str("today", ev.Today).
		Dur("duration", ev.Duration).
		Int("mirrored", ev.Mirrored).
		Int("registered", ev.Registered).
		Int("failed", ev.Failed).
		Msg("Event: sync cycle completed")
	return nil
}
