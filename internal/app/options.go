package service

import (
	"time"

	"github.com/okian/mmr/internal/domain/performance"
	"github.com/okian/mmr/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithQueueSize sets how many matches may wait to be rated.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many recent match ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithProcessTimeout bounds how long ProcessMatch waits for its result.
func WithProcessTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.processTimeout = d
		}
	}
}

// WithOpenSkillTau sets the OpenSkill dynamics factor. Zero keeps the
// library default.
func WithOpenSkillTau(tau float64) Option {
	return func(s *Service) {
		if tau > 0 {
			s.tau = tau
		}
	}
}

// WithWeights sets the performance metric weights.
func WithWeights(w performance.Weights) Option {
	return func(s *Service) {
		s.weights = &w
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
