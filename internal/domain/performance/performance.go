// Package performance scores a player's contribution to a match relative to
// the other players the caller compares them with.
package performance

import (
	"fmt"
	"math"

	"github.com/okian/mmr/internal/domain/model"
	"gonum.org/v1/gonum/stat"
)

// Score bounds and shape.
const (
	MinScore     = 0.2
	MaxScore     = 2.5
	AverageScore = 1.0
	zScale       = 0.5 // score change per weighted standard deviation
)

// Weights sets how much each statistic contributes to the score.
type Weights struct {
	Kills      float64 `koanf:"kills"`
	Deaths     float64 `koanf:"deaths"`
	Assists    float64 `koanf:"assists"`
	Damage     float64 `koanf:"damage"`
	Objective  float64 `koanf:"objective"`
	Efficiency float64 `koanf:"efficiency"`
}

// DefaultWeights favours kills and damage over support metrics.
func DefaultWeights() Weights {
	return Weights{
		Kills:      1.0,
		Deaths:     0.6,
		Assists:    0.4,
		Damage:     0.8,
		Objective:  0.5,
		Efficiency: 0.5,
	}
}

type metric struct {
	weight   float64
	value    func(model.Stats) float64
	inverted bool
}

// Evaluator turns raw statistics into a normalized score. It holds no state
// besides its weights and is safe for concurrent use.
type Evaluator struct {
	weights Weights
}

// NewEvaluator creates an evaluator with default weights and options applied.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{weights: DefaultWeights()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Weights returns the weights in use.
func (e *Evaluator) Weights() Weights {
	return e.weights
}

func (e *Evaluator) metrics() []metric {
	return []metric{
		{e.weights.Kills, func(s model.Stats) float64 { return float64(s.Kills) }, false},
		{e.weights.Deaths, func(s model.Stats) float64 { return float64(s.Deaths) }, true},
		{e.weights.Assists, func(s model.Stats) float64 { return float64(s.Assists) }, false},
		{e.weights.Damage, func(s model.Stats) float64 { return s.Damage }, false},
		{e.weights.Objective, func(s model.Stats) float64 { return s.Objective }, false},
		{e.weights.Efficiency, func(s model.Stats) float64 { return s.Efficiency }, false},
	}
}

// Score rates subject against population. Each metric is turned into a
// z-score over the population (deaths counting against the player), the
// z-scores are averaged by weight and mapped around AverageScore, clamped to
// [MinScore, MaxScore]. The population need not contain the subject.
func (e *Evaluator) Score(subject model.Stats, population []model.Stats) (float64, error) {
	if len(population) == 0 {
		return 0, fmt.Errorf("%w: empty comparison population", ErrInsufficientData)
	}

	var weighted, total float64
	values := make([]float64, len(population))
	for _, m := range e.metrics() {
		if m.weight <= 0 {
			continue
		}
		for i, s := range population {
			values[i] = m.value(s)
		}
		z := zScore(m.value(subject), values)
		if m.inverted {
			z = -z
		}
		weighted += m.weight * z
		total += m.weight
	}

	composite := 0.0
	if total > 0 {
		composite = weighted / total
	}
	return clamp(AverageScore+zScale*composite, MinScore, MaxScore), nil
}

// zScore is 0 when the population has no spread to measure against.
func zScore(x float64, values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean, std := stat.MeanStdDev(values, nil)
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	return (x - mean) / std
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
