// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package config loads and validates the service's layered configuration
using Koanf v2.

# Layering

Load() composes, in increasing priority:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML config file (config.yaml by default, or the path
    named by CONFIG_PATH)
 3. Environment variables

and validates the result before returning it.

# Sections

Config groups its fields by the subsystem that consumes them: Server
(HTTP listener), Logging (internal/logging), Database (the DuckDB
connector), Embedding (hash or remote embedder selection), Builder
(offline model builder and retrain schedule), Recommend (serving
defaults and internal/recommend.Config), Cache (internal/reccache),
NATS (internal/versionbus, effective only with -tags=nats), and
CircuitBreaker (the breakers guarding the connector and vector store).

# Environment Variables

Every field is settable via an environment variable; see envMappings
in koanf.go for the full table. A few representative examples:

	SERVER_PORT=8080
	LOG_LEVEL=info
	EMBEDDING_MODE=hash
	EMBEDDING_DIM=64
	BUILDER_RETRAIN_INTERVAL=168h
	RECOMMEND_DEFAULT_STRATEGY=hybrid
	CACHE_TTL=5m
	NATS_ENABLED=false

# Usage

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

	engine := recommend.Engine{
	    Config: recommend.Config{
	        RecencyHorizonDays: cfg.Recommend.RecencyHorizonDays,
	        ColdStartBlend:     cfg.Recommend.ColdStartBlend,
	        KSearchFloor:       cfg.Recommend.KSearchFloor,
	        KSearchMultiple:    cfg.Recommend.KSearchMultiple,
	        ConnectorTimeout:   cfg.Recommend.ConnectorTimeout,
	        VectorStoreTimeout: cfg.Recommend.VectorStoreTimeout,
	    },
	}

# See Also

  - internal/logging: consumes LoggingConfig
  - internal/recommend: consumes RecommendConfig
  - internal/modelbuilder: consumes BuilderConfig
  - internal/reccache: consumes CacheConfig
  - internal/versionbus: consumes NATSConfig
*/
package config
