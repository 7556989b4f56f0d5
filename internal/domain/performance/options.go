package performance

// Option applies a configuration option to the Evaluator.
type Option func(*Evaluator)

// WithWeights overrides metric weights. Negative weights are ignored; a zero
// weight removes the metric from the score.
func WithWeights(w Weights) Option {
	return func(e *Evaluator) {
		apply := func(dst *float64, v float64) {
			if v >= 0 {
				*dst = v
			}
		}
		apply(&e.weights.Kills, w.Kills)
		apply(&e.weights.Deaths, w.Deaths)
		apply(&e.weights.Assists, w.Assists)
		apply(&e.weights.Damage, w.Damage)
		apply(&e.weights.Objective, w.Objective)
		apply(&e.weights.Efficiency, w.Efficiency)
	}
}
