// Package teams splits a match roster into its two teams and decides the winner.
package teams

import (
	"fmt"

	"github.com/okian/mmr/internal/domain/model"
	"github.com/samber/lo"
)

// Decider names the rule that settled the winner.
type Decider string

// Winner rules, applied in order.
const (
	DecidedByKills  Decider = "kills"
	DecidedByDeaths Decider = "deaths"
	DecidedByDamage Decider = "damage"
)

// Match is a match split into exactly two rosters, in order of first
// appearance of each team label.
type Match struct {
	Teams   [2]model.Team
	Rosters [2]model.Roster
	Winner  int // index into Rosters
	Decider Decider
}

// Won reports whether the roster at index team won the match.
func (m Match) Won(team int) bool {
	return team == m.Winner
}

// Opponent returns the index of the other roster.
func Opponent(team int) int {
	return 1 - team
}

// Organize groups records into two rosters and determines the winner.
// It returns ErrMalformedMatch when the records do not describe a valid
// two-team match or the winner cannot be resolved.
func Organize(records []*model.Participation) (Match, error) {
	if len(records) == 0 {
		return Match{}, fmt.Errorf("%w: no participants", ErrMalformedMatch)
	}

	var (
		order  []model.Team
		groups = make(map[model.Team]model.Roster)
		seen   = make(map[model.PlayerID]struct{}, len(records))
	)
	for i, r := range records {
		switch {
		case r == nil:
			return Match{}, fmt.Errorf("%w: record %d is nil", ErrMalformedMatch, i)
		case r.PlayerID == "":
			return Match{}, fmt.Errorf("%w: record %d has no player id", ErrMalformedMatch, i)
		case r.Team == "":
			return Match{}, fmt.Errorf("%w: player %s has no team", ErrMalformedMatch, r.PlayerID)
		}
		if _, dup := seen[r.PlayerID]; dup {
			return Match{}, fmt.Errorf("%w: player %s appears twice", ErrMalformedMatch, r.PlayerID)
		}
		seen[r.PlayerID] = struct{}{}

		if _, ok := groups[r.Team]; !ok {
			order = append(order, r.Team)
		}
		groups[r.Team] = append(groups[r.Team], r)
	}

	if len(order) != 2 {
		return Match{}, fmt.Errorf("%w: expected 2 teams, got %d", ErrMalformedMatch, len(order))
	}

	m := Match{Teams: [2]model.Team{order[0], order[1]}}
	for i, t := range m.Teams {
		m.Rosters[i] = groups[t]
	}

	winner, decider, err := decideWinner(m.Rosters)
	if err != nil {
		return Match{}, err
	}
	m.Winner = winner
	m.Decider = decider
	return m, nil
}

// decideWinner compares total kills, then fewer total deaths, then more
// total damage.
func decideWinner(rosters [2]model.Roster) (int, Decider, error) {
	kills := func(p *model.Participation) int { return p.Stats.Kills }
	deaths := func(p *model.Participation) int { return p.Stats.Deaths }
	damage := func(p *model.Participation) float64 { return p.Stats.Damage }

	if a, b := lo.SumBy(rosters[0], kills), lo.SumBy(rosters[1], kills); a != b {
		if a > b {
			return 0, DecidedByKills, nil
		}
		return 1, DecidedByKills, nil
	}
	if a, b := lo.SumBy(rosters[0], deaths), lo.SumBy(rosters[1], deaths); a != b {
		if a < b {
			return 0, DecidedByDeaths, nil
		}
		return 1, DecidedByDeaths, nil
	}
	if a, b := lo.SumBy(rosters[0], damage), lo.SumBy(rosters[1], damage); a != b {
		if a > b {
			return 0, DecidedByDamage, nil
		}
		return 1, DecidedByDamage, nil
	}
	return 0, "", fmt.Errorf("%w: unresolvable winner", ErrMalformedMatch)
}
