// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package services provides suture.Service wrappers for the recommendation
// service's long-running components.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mfolsom1/eventreco/internal/connector"
	"github.com/mfolsom1/eventreco/internal/modelbuilder"
)

// ModelBuilder runs one complete model build cycle. Satisfied by
// *modelbuilder.Builder.
type ModelBuilder interface {
	Build(ctx context.Context) (modelbuilder.Result, error)
}

// RetrainServiceConfig holds configuration for the retrain service.
type RetrainServiceConfig struct {
	// TrainOnStartup triggers a build when the service starts.
	TrainOnStartup bool

	// Interval is the maximum time between builds, regardless of data drift.
	Interval time.Duration

	// DeltaFraction triggers an early build when the event or user count
	// has drifted from the last build's counts by this fraction. A value
	// of 0 disables the early trigger and only Interval governs rebuilds.
	DeltaFraction float64

	// CheckInterval is how often to poll the connector for drift. Defaults
	// to Interval/6, floored at one minute.
	CheckInterval time.Duration
}

// RetrainService wraps the model builder for suture supervision. It
// rebuilds the vector store on a fixed schedule, and early when the
// connector's event or user counts have drifted enough since the last
// build to make the published model stale.
type RetrainService struct {
	builder   ModelBuilder
	connector connector.Connector
	config    RetrainServiceConfig
	logger    zerolog.Logger
	name      string

	lastBuild  time.Time
	lastEvents int
	lastUsers  int
}

// NewRetrainService creates a new retrain service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRetrainService(builder ModelBuilder, conn connector.Connector, cfg RetrainServiceConfig, logger zerolog.Logger) *RetrainService {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = cfg.Interval / 6
		if cfg.CheckInterval < time.Minute {
			cfg.CheckInterval = time.Minute
		}
	}
	return &RetrainService{
		builder:   builder,
		connector: conn,
		config:    cfg,
		logger:    logger.With().Str("service", "retrain").Logger(),
		name:      "retrain-service",
	}
}

// Serve implements the suture.Service interface. It manages the rebuild
// loop for the recommendation model.
func (s *RetrainService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("train_on_startup", s.config.TrainOnStartup).
		Dur("interval", s.config.Interval).
		Float64("delta_fraction", s.config.DeltaFraction).
		Msg("retrain service starting")

	if s.config.TrainOnStartup {
		s.rebuild(ctx)
	}

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	s.logger.Info().Msg("retrain service running")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("retrain service shutting down")
			return ctx.Err()

		case <-ticker.C:
			if s.shouldRetrain(ctx) {
				s.rebuild(ctx)
			}
		}
	}
}

// shouldRetrain reports whether the model is due for a rebuild, either
// because the configured interval has elapsed or because the connector's
// counts have drifted past DeltaFraction since the last build.
func (s *RetrainService) shouldRetrain(ctx context.Context) bool {
	if time.Since(s.lastBuild) >= s.config.Interval {
		return true
	}
	if s.config.DeltaFraction <= 0 || s.lastBuild.IsZero() {
		return false
	}

	events, err := s.connector.FutureEvents(ctx, time.Now())
	if err != nil {
		s.logger.Warn().Err(err).Msg("drift check: failed to fetch future events")
		return false
	}
	users, err := s.connector.ActiveUsers(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("drift check: failed to fetch active users")
		return false
	}

	eventDelta := fractionDelta(len(events), s.lastEvents)
	userDelta := fractionDelta(len(users), s.lastUsers)
	return eventDelta >= s.config.DeltaFraction || userDelta >= s.config.DeltaFraction
}

// fractionDelta returns the absolute fractional change of current relative
// to last. A last count of zero with a nonzero current count is treated as
// a full-magnitude delta.
func fractionDelta(current, last int) float64 {
	if last == 0 {
		if current == 0 {
			return 0
		}
		return 1
	}
	diff := current - last
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) / float64(last)
}

// rebuild runs one build cycle with a bounded timeout and records the
// resulting counts for future drift checks.
func (s *RetrainService) rebuild(ctx context.Context) {
	buildCtx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	start := time.Now()
	s.logger.Info().Msg("starting model rebuild")

	result, err := s.builder.Build(buildCtx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("model rebuild failed (will retry on schedule)")
		return
	}

	s.lastBuild = time.Now()
	s.lastEvents = result.EventCount
	s.lastUsers = result.UserCount

	s.logger.Info().
		Str("version", result.Version).
		Int("event_count", result.EventCount).
		Int("user_count", result.UserCount).
		Dur("duration", time.Since(start)).
		Msg("model rebuild complete")
}

// String returns the service name for logging.
func (s *RetrainService) String() string {
	return s.name
}
