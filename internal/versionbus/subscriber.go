// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build nats

package versionbus

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	natsgo "github.com/nats-io/nats.go"

	"github.com/mfolsom1/eventreco/internal/metrics"
)

// SubscriberConfig configures the connection to NATS.
type SubscriberConfig struct {
	URL string
}

// Subscriber listens for model version announcements.
type Subscriber struct {
	subscriber *wmNats.Subscriber
	logger     watermill.LoggerAdapter
}

// NewSubscriber connects to NATS and returns a ready Subscriber.
func NewSubscriber(cfg SubscriberConfig, logger watermill.LoggerAdapter) (*Subscriber, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	wmConfig := wmNats.SubscriberConfig{
		URL:         cfg.URL,
		Unmarshaler: &wmNats.NATSMarshaler{},
		NatsOptions: []natsgo.Option{natsgo.RetryOnFailedConnect(true)},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}

	sub, err := wmNats.NewSubscriber(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create versionbus subscriber: %w", err)
	}
	return &Subscriber{subscriber: sub, logger: logger}, nil
}

// Listen blocks until ctx is cancelled, invoking onVersion for every model
// version announcement received. Callers typically wire onVersion to a
// response cache's InvalidateAll.
func (s *Subscriber) Listen(ctx context.Context, onVersion func(version string)) error {
	messages, err := s.subscriber.Subscribe(ctx, Subject)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", Subject, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			metrics.RecordVersionBusReceived()
			onVersion(string(msg.Payload))
			msg.Ack()
		}
	}
}

// Close shuts down the underlying NATS connection.
func (s *Subscriber) Close() error {
	return s.subscriber.Close()
}
