// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build nats

package versionbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/sony/gobreaker/v2"

	"github.com/mfolsom1/eventreco/internal/metrics"
)

// Subject is the NATS subject model version announcements are published on.
const Subject = "eventreco.model.version"

// PublisherConfig configures the connection to NATS.
type PublisherConfig struct {
	URL             string
	MaxReconnects   int
	ReconnectWait   time.Duration
	ReconnectBuffer int
}

// DefaultPublisherConfig returns sane connection defaults.
func DefaultPublisherConfig(url string) PublisherConfig {
	return PublisherConfig{
		URL:             url,
		MaxReconnects:   -1,
		ReconnectWait:   time.Second,
		ReconnectBuffer: 8 * 1024 * 1024,
	}
}

// Publisher announces model version changes. It implements
// modelbuilder.Notifier's PublishModelVersion(ctx, version) contract without
// importing that package, avoiding a dependency from modelbuilder back to
// this serving-side concern.
type Publisher struct {
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[any]
	mu        sync.RWMutex
	closed    bool
	logger    watermill.LoggerAdapter
}

// NewPublisher connects to NATS and returns a ready Publisher.
func NewPublisher(cfg PublisherConfig, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("versionbus disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("versionbus reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create versionbus publisher: %w", err)
	}

	return &Publisher{
		publisher: pub,
		breaker:   gobreaker.NewCircuitBreaker[any](gobreaker.Settings{Name: "versionbus-publish", MaxRequests: 3, Timeout: 30 * time.Second}),
		logger:    logger,
	}, nil
}

// PublishModelVersion announces that version is now the current model
// version. A single circuit breaker guards every call; an open breaker
// surfaces as a plain error to the caller, which treats a failed
// announcement as non-fatal (the build itself already succeeded).
func (p *Publisher) PublishModelVersion(_ context.Context, version string) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return fmt.Errorf("versionbus publisher is closed")
	}
	p.mu.RUnlock()

	msg := message.NewMessage(watermill.NewUUID(), []byte(version))
	_, err := p.breaker.Execute(func() (any, error) {
		return nil, p.publisher.Publish(Subject, msg)
	})
	metrics.RecordVersionBusPublish(err)
	return err
}

// Close shuts down the underlying NATS connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
