// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/eventreco/config.yaml",
	"/etc/eventreco/config.yml",
}

// ConfigPathEnvVar overrides the config file search with an explicit path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with every documented default applied.
// Defaults are loaded first, then overridden by the config file and
// finally by environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			Host:           "0.0.0.0",
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			RequestTimeout: 2 * time.Second,
			RateLimitRPS:   20,
			RateLimitBurst: 40,
			CORSOrigins:    []string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Database: DatabaseConfig{
			Path: "/data/eventreco.duckdb",
		},
		Embedding: EmbeddingConfig{
			Mode:          "hash",
			Dim:           64,
			HashRateLimit: 500,
			HashBurst:     50,
			RemoteTimeout: 5 * time.Second,
		},
		Builder: BuilderConfig{
			MinEvents:            5,
			MinUsers:             1,
			UserSimK:             20,
			RetrainInterval:      7 * 24 * time.Hour,
			RetrainDeltaFraction: 0.10,
			ArtifactsPath:        "/data/eventreco/artifacts",
			StorePath:            "/data/eventreco/vectorstore",
		},
		Recommend: RecommendConfig{
			DefaultK:            10,
			DefaultStrategy:     "hybrid",
			RecencyHorizonDays:  30,
			ColdStartBlend:      0.25,
			KSearchFloor:        100,
			KSearchMultiple:     4,
			ConnectorTimeout:    2 * time.Second,
			VectorStoreTimeout:  2 * time.Second,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    "/data/eventreco/reccache",
			TTL:     5 * time.Minute,
		},
		NATS: NATSConfig{
			Enabled:        false,
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			EmbeddedHost:   "127.0.0.1",
			EmbeddedPort:   4222,
			StoreDir:       "/data/eventreco/nats",
		},
		CircuitBreaker: CircuitBreakerConfig{
			MaxRequests: 3,
			OpenTimeout: 30 * time.Second,
		},
	}
}

// Load builds the effective Config by layering, in increasing priority:
//
//  1. Built-in defaults (defaultConfig)
//  2. A config file (config.yaml by default, or CONFIG_PATH if set)
//  3. Environment variables
//
// and validates the result before returning it.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches CONFIG_PATH, then DefaultConfigPaths, for the
// first file that exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths names config paths whose environment variable form is a
// comma-separated string rather than a structured list.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values into slices
// for the paths named in sliceConfigPaths, since env vars always arrive as
// plain strings.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps legacy-shaped environment variable names to koanf's
// dotted config paths, e.g. RECOMMEND_DEFAULT_K -> recommend.default_k.
var envMappings = map[string]string{
	"server_port":            "server.port",
	"server_host":            "server.host",
	"server_read_timeout":    "server.read_timeout",
	"server_write_timeout":   "server.write_timeout",
	"server_request_timeout": "server.request_timeout",
	"server_rate_limit_rps":  "server.rate_limit_rps",
	"server_rate_limit_burst": "server.rate_limit_burst",
	"server_cors_origins":    "server.cors_origins",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"database_path": "database.path",

	"embedding_mode":            "embedding.mode",
	"embedding_dim":             "embedding.dim",
	"embedding_hash_rate_limit": "embedding.hash_rate_limit",
	"embedding_hash_burst":      "embedding.hash_burst",
	"embedding_remote_url":      "embedding.remote_url",
	"embedding_remote_timeout":  "embedding.remote_timeout",
	"embedding_remote_api_key":  "embedding.remote_api_key",

	"builder_min_events":             "builder.min_events",
	"builder_min_users":              "builder.min_users",
	"builder_user_sim_k":             "builder.user_sim_k",
	"builder_retrain_interval":       "builder.retrain_interval",
	"builder_retrain_delta_fraction": "builder.retrain_delta_fraction",
	"builder_artifacts_path":         "builder.artifacts_path",
	"builder_store_path":             "builder.store_path",

	"recommend_default_k":          "recommend.default_k",
	"recommend_default_strategy":   "recommend.default_strategy",
	"recommend_recency_horizon_days": "recommend.recency_horizon_days",
	"recommend_cold_start_blend":   "recommend.cold_start_blend",
	"recommend_k_search_floor":     "recommend.k_search_floor",
	"recommend_k_search_multiple":  "recommend.k_search_multiple",
	"recommend_connector_timeout":  "recommend.connector_timeout",
	"recommend_vectorstore_timeout": "recommend.vectorstore_timeout",

	"cache_enabled": "cache.enabled",
	"cache_path":    "cache.path",
	"cache_ttl":     "cache.ttl",

	"nats_enabled":         "nats.enabled",
	"nats_url":             "nats.url",
	"nats_embedded_server": "nats.embedded_server",
	"nats_embedded_host":   "nats.embedded_host",
	"nats_embedded_port":   "nats.embedded_port",
	"nats_store_dir":       "nats.store_dir",

	"circuit_breaker_max_requests": "circuit_breaker.max_requests",
	"circuit_breaker_open_timeout": "circuit_breaker.open_timeout",
}

// envTransformFunc transforms environment variable names into koanf's
// dotted config paths via envMappings, falling back to a direct
// underscore-to-dot conversion for anything not explicitly listed.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return strings.ReplaceAll(key, "_", ".")
}

// GetKoanfInstance returns a fresh Koanf instance for advanced use (custom
// sources, hot-reload wiring, tests).
func GetKoanfInstance() *koanf.Koanf {
	return koanf.New(".")
}

// WatchConfigFile sets up a file watcher for hot-reload. The caller is
// responsible for mutex protection when swapping the active Config.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)
	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
