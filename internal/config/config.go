// Package config defines service configuration and its loading from
// defaults, an optional YAML file and the environment.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okian/mmr/internal/domain/performance"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory match queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize sets how many recent match ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// ProcessTimeoutMS bounds how long a request waits for its match result.
	ProcessTimeoutMS int `koanf:"process_timeout_ms"`

	// OpenSkillTau is the dynamics factor added to sigma on every update.
	// Zero keeps the rating library's default.
	OpenSkillTau float64 `koanf:"openskill_tau"`

	// Weights are the performance metric weights.
	Weights performance.Weights `koanf:"weights"`

	// MetricsNamespace and MetricsSubsystem prefix every exported metric.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// LatencyBucketsMS overrides the latency histogram buckets. Empty keeps
	// the Prometheus defaults.
	LatencyBucketsMS []float64 `koanf:"latency_buckets_ms"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		QueueSize:           10_000,
		DedupeSize:          100_000,
		MaxLeaderboardLimit: 100,
		ProcessTimeoutMS:    5_000,
		Weights:             performance.DefaultWeights(),
		MetricsNamespace:    "mmr",
		MetricsSubsystem:    "rating",
	}
}

// ProcessTimeout returns ProcessTimeoutMS as a duration.
func (c *Config) ProcessTimeout() time.Duration {
	return time.Duration(c.ProcessTimeoutMS) * time.Millisecond
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.DedupeSize < 0:
		return fmt.Errorf("%w: dedupe_size must not be negative, got %d", ErrInvalidConfig, c.DedupeSize)
	case c.MaxLeaderboardLimit <= 0:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive, got %d", ErrInvalidConfig, c.MaxLeaderboardLimit)
	case c.ProcessTimeoutMS <= 0:
		return fmt.Errorf("%w: process_timeout_ms must be positive, got %d", ErrInvalidConfig, c.ProcessTimeoutMS)
	case c.OpenSkillTau < 0:
		return fmt.Errorf("%w: openskill_tau must not be negative, got %g", ErrInvalidConfig, c.OpenSkillTau)
	case !sort.Float64sAreSorted(c.LatencyBucketsMS):
		return fmt.Errorf("%w: latency_buckets_ms must be ascending", ErrInvalidConfig)
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}
