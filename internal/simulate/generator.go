package simulate

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/okian/mmr/internal/domain/types"
	"github.com/okian/mmr/pkg/logger"
)

// Skill distribution of the simulated pool.
const (
	meanSkill   = 5.0
	skillSpread = 1.5
	minSkill    = 0.5
	maxSkill    = 10.0

	// Per-match form around a player's true skill.
	formNoise = 1.2
)

var teamLabels = [2]string{"red", "blue"}

// Generator draws players and matches from a seeded source so runs are
// reproducible.
type Generator struct {
	rng      *rand.Rand
	players  []Player
	teamSize int
}

// NewGenerator creates a pool of players with normally distributed skill.
func NewGenerator(players, teamSize int, seed uint64) *Generator {
	g := &Generator{
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		players:  make([]Player, players),
		teamSize: teamSize,
	}
	for i := range g.players {
		g.players[i] = Player{
			ID:    uuid.NewString(),
			Skill: clamp(meanSkill+g.rng.NormFloat64()*skillSpread, minSkill, maxSkill),
		}
	}
	return g
}

// Players returns the simulated pool.
func (g *Generator) Players() []Player {
	return g.players
}

// Matches generates n matches between randomly drawn players.
func (g *Generator) Matches(ctx context.Context, n int) ([]Match, error) {
	logger.Get().Info(ctx, "generating matches",
		logger.Int("matches", n),
		logger.Int("players", len(g.players)),
		logger.Int("teamSize", g.teamSize))

	out := make([]Match, n)
	for i := range out {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during match generation: %w", err)
		}
		out[i] = g.match()
	}
	return out, nil
}

func (g *Generator) match() Match {
	picks := g.rng.Perm(len(g.players))[:2*g.teamSize]

	var rosters [2][]Player
	for i, idx := range picks {
		rosters[i%2] = append(rosters[i%2], g.players[idx])
	}

	m := Match{MatchID: uuid.NewString()}
	for t, roster := range rosters {
		opponent := averageSkill(rosters[1-t])
		for _, p := range roster {
			m.Players = append(m.Players, g.line(p, teamLabels[t], opponent))
		}
	}
	return m
}

// line draws a box-score line for p: kills, assists and damage follow the
// player's form, deaths follow the opposition's skill.
func (g *Generator) line(p Player, team string, opponentSkill float64) types.PlayerResult {
	form := math.Max(0, p.Skill+g.rng.NormFloat64()*formNoise)
	kills := nonNegative(form*1.5 + g.rng.NormFloat64())
	return types.PlayerResult{
		PlayerID:   p.ID,
		Team:       team,
		Kills:      kills,
		Deaths:     nonNegative(opponentSkill*1.2 + g.rng.NormFloat64()*1.5),
		Assists:    nonNegative(form*0.8 + g.rng.NormFloat64()),
		Damage:     math.Max(0, float64(kills)*110+form*60+g.rng.NormFloat64()*50),
		Objective:  math.Max(0, form*10+g.rng.NormFloat64()*5),
		Efficiency: clamp(form/maxSkill, 0, 1),
	}
}

func averageSkill(roster []Player) float64 {
	if len(roster) == 0 {
		return 0
	}
	var sum float64
	for _, p := range roster {
		sum += p.Skill
	}
	return sum / float64(len(roster))
}

func nonNegative(v float64) int {
	return int(math.Max(0, math.Round(v)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
