package rating

import (
	openskill "github.com/intinig/go-openskill/rating"
	"github.com/intinig/go-openskill/types"
	"go.uber.org/thriftrw/ptr"

	"github.com/okian/mmr/internal/domain/model"
)

// defaultZ is the number of standard deviations openskill uses for ordinals.
const defaultZ = 3

// Oracle is a Bayesian rating update. Given both rosters' ratings and their
// ranks (1 = winner, 2 = loser) it returns the updated ratings in input
// order.
type Oracle interface {
	Update(a, b []model.Rating, rank [2]int) ([]model.Rating, []model.Rating)
}

// OracleOption applies a configuration option to the OpenSkillOracle.
type OracleOption func(*OpenSkillOracle)

// WithTau sets the additive dynamics factor that keeps sigma from collapsing.
// Zero keeps the library default.
func WithTau(tau float64) OracleOption {
	return func(o *OpenSkillOracle) {
		if tau > 0 {
			o.tau = tau
		}
	}
}

// OpenSkillOracle implements Oracle with the openskill Plackett-Luce model.
type OpenSkillOracle struct {
	tau float64
}

// NewOpenSkillOracle creates an oracle with options applied.
func NewOpenSkillOracle(opts ...OracleOption) *OpenSkillOracle {
	o := &OpenSkillOracle{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Update rates team a against team b.
func (o *OpenSkillOracle) Update(a, b []model.Rating, rank [2]int) ([]model.Rating, []model.Rating) {
	options := &types.OpenSkillOptions{
		Rank: []int{rank[0], rank[1]},
	}
	if o.tau > 0 {
		options.Tau = ptr.Float64(o.tau)
	}

	rated := openskill.Rate([]types.Team{toTeam(a), toTeam(b)}, options)
	if len(rated) < 2 {
		return nil, nil
	}
	return fromTeam(rated[0]), fromTeam(rated[1])
}

func toTeam(ratings []model.Rating) types.Team {
	team := make(types.Team, len(ratings))
	for i, r := range ratings {
		team[i] = types.Rating{Mu: r.Mu, Sigma: r.Sigma, Z: defaultZ}
	}
	return team
}

func fromTeam(team types.Team) []model.Rating {
	out := make([]model.Rating, len(team))
	for i, r := range team {
		out[i] = model.Rating{Mu: r.Mu, Sigma: r.Sigma}
	}
	return out
}
