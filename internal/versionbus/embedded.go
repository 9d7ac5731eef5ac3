// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build nats

package versionbus

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// EmbeddedServerConfig configures a self-contained NATS server for
// single-instance deployments that do not want to run NATS separately.
type EmbeddedServerConfig struct {
	Host     string
	Port     int
	StoreDir string
}

// EmbeddedServer wraps a NATS server with lifecycle management. JetStream is
// left disabled: the version bus needs only core at-most-once pub/sub, since
// a missed notification is harmless (the cache entry simply expires on its
// own TTL instead of being evicted early).
type EmbeddedServer struct {
	server    *server.Server
	clientURL string
}

// NewEmbeddedServer creates and starts an embedded NATS server, waiting up
// to 30 seconds for it to become ready for client connections.
func NewEmbeddedServer(cfg EmbeddedServerConfig) (*EmbeddedServer, error) {
	opts := &server.Options{
		ServerName: "eventreco-versionbus",
		Host:       cfg.Host,
		Port:       cfg.Port,
		StoreDir:   cfg.StoreDir,
		DontListen: false,
		NoLog:      false,
		MaxPayload: 64 * 1024,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create embedded NATS server: %w", err)
	}
	ns.ConfigureLogger()

	go ns.Start()
	if !ns.ReadyForConnections(30 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS server not ready within timeout")
	}

	return &EmbeddedServer{server: ns, clientURL: ns.ClientURL()}, nil
}

// ClientURL returns the connection URL publishers and subscribers should use.
func (s *EmbeddedServer) ClientURL() string {
	return s.clientURL
}

// Shutdown stops the server, waiting for in-flight work or context cancellation.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	s.server.Shutdown()
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.server.WaitForShutdown()
		return nil
	}
}

// IsRunning reports whether the embedded server is still accepting connections.
func (s *EmbeddedServer) IsRunning() bool {
	return s.server.Running()
}
