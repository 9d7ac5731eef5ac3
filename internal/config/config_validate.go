// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import "fmt"

// Validate checks that the configuration is internally consistent. It runs
// after every load so a bad config file or env var fails fast at startup
// rather than surfacing as a confusing runtime error later.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateEmbedding(); err != nil {
		return err
	}
	if err := c.validateBuilder(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	return c.validateNATS()
}

func (c *Config) validateServer() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitRPS <= 0 {
		return fmt.Errorf("server.rate_limit_rps must be positive, got %v", c.Server.RateLimitRPS)
	}
	return nil
}

func (c *Config) validateEmbedding() error {
	if c.Embedding.Dim <= 0 {
		return fmt.Errorf("embedding.dim must be positive, got %d", c.Embedding.Dim)
	}
	switch c.Embedding.Mode {
	case "hash":
		return nil
	case "remote":
		if c.Embedding.RemoteURL == "" {
			return fmt.Errorf("embedding.remote_url is required when embedding.mode=remote")
		}
		return validateHTTPURL(c.Embedding.RemoteURL, "embedding.remote_url")
	default:
		return fmt.Errorf("embedding.mode must be %q or %q, got %q", "hash", "remote", c.Embedding.Mode)
	}
}

func (c *Config) validateBuilder() error {
	if c.Builder.MinEvents <= 0 {
		return fmt.Errorf("builder.min_events must be positive, got %d", c.Builder.MinEvents)
	}
	if c.Builder.MinUsers <= 0 {
		return fmt.Errorf("builder.min_users must be positive, got %d", c.Builder.MinUsers)
	}
	if c.Builder.UserSimK <= 0 {
		return fmt.Errorf("builder.user_sim_k must be positive, got %d", c.Builder.UserSimK)
	}
	if c.Builder.RetrainDeltaFraction < 0 || c.Builder.RetrainDeltaFraction > 1 {
		return fmt.Errorf("builder.retrain_delta_fraction must be between 0 and 1, got %v", c.Builder.RetrainDeltaFraction)
	}
	return nil
}

func (c *Config) validateRecommend() error {
	if c.Recommend.DefaultK <= 0 || c.Recommend.DefaultK > 50 {
		return fmt.Errorf("recommend.default_k must be between 1 and 50, got %d", c.Recommend.DefaultK)
	}
	switch c.Recommend.DefaultStrategy {
	case "hybrid", "friends_boosted", "friends_only":
	default:
		return fmt.Errorf("recommend.default_strategy must be one of hybrid, friends_boosted, friends_only, got %q", c.Recommend.DefaultStrategy)
	}
	if c.Recommend.ColdStartBlend < 0 || c.Recommend.ColdStartBlend > 1 {
		return fmt.Errorf("recommend.cold_start_blend must be between 0 and 1, got %v", c.Recommend.ColdStartBlend)
	}
	if c.Recommend.KSearchMultiple <= 0 {
		return fmt.Errorf("recommend.k_search_multiple must be positive, got %d", c.Recommend.KSearchMultiple)
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	return validateNATSURL(c.NATS.URL)
}
