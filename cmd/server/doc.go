// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package main is the entry point for the recommendation server.

eventreco serves personalized event recommendations over a small HTTP API,
backed by a vector store rebuilt periodically (or on demand) by an offline
model builder.

# Application Architecture

The server implements a layered architecture with Suture v4 process
supervision:

	RootSupervisor ("eventreco")
	├── DataSupervisor ("data-layer")
	│   └── Retrain Service (scheduled and drift-triggered model rebuilds)
	├── MessagingSupervisor ("messaging-layer")
	│   └── Version Bus (optional, -tags nats): model rebuild announcements
	└── APISupervisor ("api-layer")
	    └── HTTP Server (recommend, refresh, health, metrics)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Connector: read-only view of events, users, and interactions
 4. Embedder, Vector Store: the storage side of the offline rebuild pipeline
 5. Model-Version Bus (optional, -tags nats): announces completed rebuilds;
    it is created before the Model Builder, which publishes through it
 6. Model Builder: the offline rebuild pipeline
 7. Recommend Engine: the online serving path, with circuit breakers and
    an optional response cache
 8. HTTP Server: Chi router with middleware stack
 9. Supervisor Tree: Suture v4 process supervision

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest
priority wins):
  - Environment variables
  - Config file (config.yaml)
  - Built-in defaults

Key settings:
  - DATABASE_PATH: DuckDB file path; empty runs against the in-memory
    fixture connector
  - EMBEDDING_MODE: "hash" (deterministic local fallback, default) or
    "remote" (HTTP embedding service)
  - BUILDER_RETRAIN_INTERVAL, BUILDER_RETRAIN_DELTA_FRACTION: the retrain
    schedule
  - CACHE_ENABLED: response cache, invalidated on every published model
    version
  - NATS_ENABLED: model-version announcement bus (requires -tags nats to
    do anything beyond logging a warning)

# Build Tags

Optional build tags enable additional functionality:

	go build ./cmd/server                    # no model-version bus
	go build -tags nats ./cmd/server         # embedded/external NATS bus

# Signal Handling

The server handles graceful shutdown on SIGINT and SIGTERM: the root
context is canceled, each supervised service drains within its own
shutdown timeout, and any service still running after that is reported by
name before the process exits.

# See Also

  - internal/config: Configuration management
  - internal/supervisor: Process supervision
  - internal/api: HTTP handlers and routing
  - internal/modelbuilder: Offline rebuild pipeline
  - internal/recommend: Online serving engine
*/
package main
