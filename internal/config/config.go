// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import "time"

// Config is the root configuration for the service: everything a running
// process (server or builder) needs, assembled by Load from defaults, an
// optional config file, and environment variables, in that priority order.
type Config struct {
	Server         ServerConfig         `koanf:"server"`
	Logging        LoggingConfig        `koanf:"logging"`
	Database       DatabaseConfig       `koanf:"database"`
	Embedding      EmbeddingConfig      `koanf:"embedding"`
	Builder        BuilderConfig        `koanf:"builder"`
	Recommend      RecommendConfig      `koanf:"recommend"`
	Cache          CacheConfig          `koanf:"cache"`
	NATS           NATSConfig           `koanf:"nats"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port           int           `koanf:"port"`
	Host           string        `koanf:"host"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	RateLimitRPS   float64       `koanf:"rate_limit_rps"`
	RateLimitBurst int           `koanf:"rate_limit_burst"`
	CORSOrigins    []string      `koanf:"cors_origins"`
}

// LoggingConfig maps directly onto internal/logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// DatabaseConfig points the connector at its DuckDB file.
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// EmbeddingConfig selects and configures the Embedder implementation.
type EmbeddingConfig struct {
	// Mode is "hash" (deterministic local fallback) or "remote" (HTTP embedding service).
	Mode string `koanf:"mode"`
	Dim  int    `koanf:"dim"`

	// Hash-mode rate limiting (requests per second, burst).
	HashRateLimit float64 `koanf:"hash_rate_limit"`
	HashBurst     int     `koanf:"hash_burst"`

	// Remote-mode settings.
	RemoteURL     string        `koanf:"remote_url"`
	RemoteTimeout time.Duration `koanf:"remote_timeout"`
	RemoteAPIKey  string        `koanf:"remote_api_key"`
}

// BuilderConfig controls the offline model builder and its retrain schedule.
type BuilderConfig struct {
	MinEvents int `koanf:"min_events"`
	MinUsers  int `koanf:"min_users"`
	UserSimK  int `koanf:"user_sim_k"`

	// RetrainInterval is the maximum time between builder runs regardless of
	// interaction volume.
	RetrainInterval time.Duration `koanf:"retrain_interval"`

	// RetrainDeltaFraction triggers an early retrain once this fraction of
	// the last published event or user count has changed.
	RetrainDeltaFraction float64 `koanf:"retrain_delta_fraction"`

	ArtifactsPath string `koanf:"artifacts_path"`
	StorePath     string `koanf:"store_path"`
}

// RecommendConfig maps onto internal/recommend.Config. DefaultK and
// DefaultStrategy are loaded and validated but not passed to the engine,
// which applies its own fixed defaults (k=10, strategy "hybrid") when a
// request omits K or Strategy.
type RecommendConfig struct {
	DefaultK       int    `koanf:"default_k"`
	DefaultStrategy string `koanf:"default_strategy"`

	RecencyHorizonDays int     `koanf:"recency_horizon_days"`
	ColdStartBlend     float64 `koanf:"cold_start_blend"`
	KSearchFloor       int     `koanf:"k_search_floor"`
	KSearchMultiple    int     `koanf:"k_search_multiple"`

	ConnectorTimeout   time.Duration `koanf:"connector_timeout"`
	VectorStoreTimeout time.Duration `koanf:"vectorstore_timeout"`
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	Enabled bool          `koanf:"enabled"`
	Path    string        `koanf:"path"`
	TTL     time.Duration `koanf:"ttl"`
}

// NATSConfig controls the model-version announcement bus. Build with
// -tags=nats for this to have any effect; otherwise versionbus's stubs make
// Enabled a no-op.
type NATSConfig struct {
	Enabled        bool   `koanf:"enabled"`
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	EmbeddedHost   string `koanf:"embedded_host"`
	EmbeddedPort   int    `koanf:"embedded_port"`
	StoreDir       string `koanf:"store_dir"`
}

// CircuitBreakerConfig controls the breakers guarding the Connector and the
// Vector Store on the serving path.
type CircuitBreakerConfig struct {
	MaxRequests uint32        `koanf:"max_requests"`
	OpenTimeout time.Duration `koanf:"open_timeout"`
}
