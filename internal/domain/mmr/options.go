package mmr

import (
	"github.com/okian/mmr/internal/domain/performance"
	"github.com/okian/mmr/internal/domain/rating"
	"github.com/okian/mmr/pkg/logger"
)

// Option configures a Calculator.
type Option func(*Calculator)

// WithStore sets the rating store. Use it to share ratings between calculators.
func WithStore(store *rating.Store) Option {
	return func(c *Calculator) {
		if store != nil {
			c.store = store
		}
	}
}

// WithOracle sets the rating oracle.
func WithOracle(oracle rating.Oracle) Option {
	return func(c *Calculator) {
		if oracle != nil {
			c.adapter = rating.NewAdapter(oracle)
		}
	}
}

// WithEvaluator sets the performance evaluator.
func WithEvaluator(e *performance.Evaluator) Option {
	return func(c *Calculator) {
		if e != nil {
			c.evaluator = e
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.logger = l
		}
	}
}
