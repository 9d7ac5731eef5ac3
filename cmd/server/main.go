// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mfolsom1/eventreco/internal/api"
	"github.com/mfolsom1/eventreco/internal/config"
	"github.com/mfolsom1/eventreco/internal/connector"
	"github.com/mfolsom1/eventreco/internal/embedding"
	"github.com/mfolsom1/eventreco/internal/logging"
	"github.com/mfolsom1/eventreco/internal/modelbuilder"
	"github.com/mfolsom1/eventreco/internal/reccache"
	"github.com/mfolsom1/eventreco/internal/recommend"
	"github.com/mfolsom1/eventreco/internal/supervisor"
	"github.com/mfolsom1/eventreco/internal/supervisor/services"
	"github.com/mfolsom1/eventreco/internal/vectorstore"
	"github.com/mfolsom1/eventreco/internal/versionbus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()

	logger.Info().Str("db_path", cfg.Database.Path).Msg("starting eventreco server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, err := openConnector(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open connector")
	}
	if closer, ok := conn.(interface{ Close() error }); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				logger.Error().Err(err).Msg("error closing connector")
			}
		}()
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to construct embedder")
	}

	store, err := vectorstore.New(cfg.Builder.StorePath)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open vector store")
	}

	artifacts, err := modelbuilder.NewArtifactWriter(cfg.Builder.ArtifactsPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open model artifacts directory")
	}

	versionBus, err := InitVersionBus(cfg, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize model-version bus")
	}

	builder := &modelbuilder.Builder{
		Connector: conn,
		Embedder:  embedder,
		Store:     store,
		Artifacts: artifacts,
		Config: modelbuilder.Config{
			MinEvents: cfg.Builder.MinEvents,
			MinUsers:  cfg.Builder.MinUsers,
			UserSimK:  cfg.Builder.UserSimK,
		},
		Logger: logger,
	}
	if versionBus != nil && versionBus.Publisher != nil {
		builder.Notifier = versionBus.Publisher
	}

	var cache recommend.Cache
	var cacheStore *reccache.Store
	if cfg.Cache.Enabled {
		cacheStore, err = reccache.Open(cfg.Cache.Path, cfg.Cache.TTL)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to open response cache")
		}
		defer func() {
			if err := cacheStore.Close(); err != nil {
				logger.Error().Err(err).Msg("error closing response cache")
			}
		}()
		cache = cacheStore
	}
	if cacheStore != nil && versionBus != nil && versionBus.Subscriber != nil {
		go func() {
			_ = versionBus.Subscriber.Listen(ctx, func(string) {
				if err := cacheStore.InvalidateAll(ctx); err != nil {
					logger.Warn().Err(err).Msg("response cache invalidation failed")
				}
			})
		}()
	}

	engine := &recommend.Engine{
		Store:     store,
		Connector: conn,
		Embedder:  embedder,
		Breakers:  recommend.NewBreakers(cfg.CircuitBreaker.MaxRequests, cfg.CircuitBreaker.OpenTimeout),
		Cache:     cache,
		Config: recommend.Config{
			RecencyHorizonDays: cfg.Recommend.RecencyHorizonDays,
			ColdStartBlend:     cfg.Recommend.ColdStartBlend,
			KSearchFloor:       cfg.Recommend.KSearchFloor,
			KSearchMultiple:    cfg.Recommend.KSearchMultiple,
			ConnectorTimeout:   cfg.Recommend.ConnectorTimeout,
			VectorStoreTimeout: cfg.Recommend.VectorStoreTimeout,
		},
		Logger: logger,
	}

	var natsServer *versionbus.EmbeddedServer
	if versionBus != nil {
		natsServer = versionBus.Server
	}
	handler := api.NewHandler(engine, builder, natsServer)

	mwConfig := api.DefaultChiMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = cfg.Server.CORSOrigins
	mwConfig.RateLimitRequests = cfg.Server.RateLimitBurst
	if cfg.Server.RateLimitRPS <= 0 {
		mwConfig.RateLimitDisabled = true
	}
	router := api.NewRouter(handler, api.NewChiMiddleware(mwConfig))

	addr := cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create supervisor tree")
	}

	retrainSvc := services.NewRetrainService(builder, conn, services.RetrainServiceConfig{
		TrainOnStartup: true,
		Interval:       cfg.Builder.RetrainInterval,
		DeltaFraction:  cfg.Builder.RetrainDeltaFraction,
	}, logger)
	tree.AddDataService(retrainSvc)

	AddVersionBusToSupervisor(tree, versionBus)

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logger.Info().Str("addr", addr).Msg("starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logger.Info().Msg("context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logger.Warn().Int("count", len(unstopped)).Msg("services failed to stop within timeout")
		for _, svc := range unstopped {
			logger.Warn().Str("service", svc.Name).Msg("service failed to stop")
		}
	}

	if versionBus != nil {
		if versionBus.Subscriber != nil {
			_ = versionBus.Subscriber.Close()
		}
		if versionBus.Publisher != nil {
			_ = versionBus.Publisher.Close()
		}
	}
}

// openConnector selects the connector implementation from configuration.
// An empty database path runs the server against the deterministic
// in-memory fixture connector, which is useful for local development and
// smoke testing without a DuckDB file on disk.
func openConnector(ctx context.Context, cfg *config.Config) (connector.Connector, error) {
	if cfg.Database.Path == "" {
		return connector.NewFixtureConnector("")
	}
	return connector.NewDuckDBConnector(ctx, cfg.Database.Path)
}

// newEmbedder translates the configuration's "hash"/"remote" vocabulary
// into the embedding package's strict/lenient mode contract: lenient
// always falls back to the deterministic hash embedder, while strict
// requires a configured remote endpoint.
func newEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	mode := embedding.ModeLenient
	if cfg.Embedding.Mode == "remote" {
		mode = embedding.ModeStrict
	}
	return embedding.New(mode, cfg.Embedding.Dim, cfg.Embedding.RemoteURL)
}
