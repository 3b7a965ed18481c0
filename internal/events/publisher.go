// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/storyspot/internal/config"
	"github.com/tomtom215/storyspot/internal/logging"
	"github.com/tomtom215/storyspot/internal/metrics"
)

// Transports.
const (
	TransportGoChannel = "gochannel"
	TransportNATS      = "nats"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("event publisher is closed")

// WatermillPublisher publishes JSON events on a Watermill publisher.
type WatermillPublisher struct {
	publisher  message.Publisher
	subscriber message.Subscriber

	mu     sync.RWMutex
	closed bool
}

var _ Publisher = (*WatermillPublisher)(nil)

// New builds the publisher selected by cfg. Disabled events yield Noop.
func New(cfg config.EventsConfig) (Publisher, error) {
	if !cfg.Enabled {
		return Noop{}, nil
	}
	switch cfg.Transport {
	case "", TransportGoChannel:
		return NewGoChannel(cfg.BufferSize, logging.NewWatermillLogger()), nil
	case TransportNATS:
		return NewNATS(cfg.NATSURL, logging.NewWatermillLogger())
	default:
		return nil, fmt.Errorf("unknown events transport %q", cfg.Transport)
	}
}

// NewGoChannel builds an in-process publisher. Subscriber returns the same
// pub/sub so tests and local consumers can read events back.
func NewGoChannel(buffer int64, logger watermill.LoggerAdapter) *WatermillPublisher {
	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: buffer}, logger)
	return &WatermillPublisher{publisher: ps, subscriber: ps}
}

// NewNATS builds a core NATS publisher. Subjects equal topic names.
func NewNATS(url string, logger watermill.LoggerAdapter) (*WatermillPublisher, error) {
	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}
	return &WatermillPublisher{publisher: pub}, nil
}

// Subscriber returns the in-process subscriber, or nil for remote transports.
func (p *WatermillPublisher) Subscriber() message.Subscriber {
	return p.subscriber
}

// Publish serializes payload and publishes it on topic.
func (p *WatermillPublisher) Publish(ctx context.Context, topic string, payload any) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		metrics.RecordEventPublished(topic, err)
		return fmt.Errorf("serialize %s event: %w", topic, err)
	}

	msg := message.NewMessage(uuid.NewString(), data)
	msg.SetContext(ctx)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set("correlation_id", id)
	}
	msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)

	err = p.publisher.Publish(topic, msg)
	metrics.RecordEventPublished(topic, err)
	if err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}

// Close shuts the underlying publisher down. It is idempotent.
func (p *WatermillPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
