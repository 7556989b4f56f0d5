package performance

import (
	"math"

	"github.com/okian/mmr/internal/domain/model"
)

// Rating scale of a brand-new player.
const (
	DefaultMu    = 25.0
	DefaultSigma = DefaultMu / 3

	minSkillProxy = 0.5
	maxSkillProxy = 1.75
	proxyShrink   = 0.5 // one match only moves the proxy half way

	placementBaseMMR   = 1000
	placementMuScale   = 20
	placementPerfScale = 50
)

// SkillProxy estimates a starting skill multiplier from a single match score,
// shrunk toward average.
func SkillProxy(score float64) float64 {
	return clamp(AverageScore+(score-AverageScore)*proxyShrink, minSkillProxy, maxSkillProxy)
}

// InitialRating maps a skill proxy to a starting rating. Sigma stays at the
// uncalibrated default.
func InitialRating(proxy float64) model.Rating {
	return model.Rating{
		Mu:    DefaultMu * proxy,
		Sigma: DefaultSigma,
	}
}

// InitialMMR is the placement MMR of a player whose first match has just
// been rated. It is never negative.
func InitialMMR(updated model.Rating, perf model.Performance) int {
	mmr := placementBaseMMR +
		(updated.Mu-DefaultMu)*placementMuScale +
		(perf.Score-AverageScore)*placementPerfScale
	return max(0, int(math.Round(mmr)))
}
