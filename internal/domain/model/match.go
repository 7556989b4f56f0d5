// Package model contains domain models passed between layers.
package model

// PlayerID is the platform account id of a player (e.g. a steamID).
// It keys every rating lookup and is never mutated.
type PlayerID = string

// Team is the team assignment of a participation record.
type Team string

// Known team labels.
const (
	TeamBlue Team = "blue"
	TeamRed  Team = "red"
)

// Rating is the Bayesian skill estimate of a player.
type Rating struct {
	Mu    float64 `json:"mu"`    // mean skill estimate
	Sigma float64 `json:"sigma"` // uncertainty (standard deviation)
}

// Stats are the raw combat statistics of one player in one match.
type Stats struct {
	Kills      int     `json:"kills"`
	Deaths     int     `json:"deaths"`
	Assists    int     `json:"assists"`
	Damage     float64 `json:"damage"`
	Objective  float64 `json:"objective"`
	Efficiency float64 `json:"efficiency"`
}

// Performance is the per-match evaluation of a player. Adjustment holds the
// performance and carry adjustments that went into the MMR delta.
type Performance struct {
	Score      float64 `json:"score"`
	Adjustment float64 `json:"adjustment"`
}

// Participation is one player's record in one match. MMRDelta,
// MMRAfterMatch and Performance are filled in by the MMR calculator.
type Participation struct {
	PlayerID PlayerID `json:"player_id"`
	Team     Team     `json:"team"`
	Stats    Stats    `json:"stats"`

	MMRDelta      int          `json:"mmr_delta"`
	MMRAfterMatch int          `json:"mmr_after_match"`
	Performance   *Performance `json:"performance,omitempty"`
}

// Roster is the ordered list of records that played on one team.
type Roster []*Participation

// Stats returns the statistics of every record in roster order.
func (r Roster) Stats() []Stats {
	out := make([]Stats, len(r))
	for i, p := range r {
		out[i] = p.Stats
	}
	return out
}

// Without returns a copy of the roster excluding the given player.
func (r Roster) Without(id PlayerID) Roster {
	out := make(Roster, 0, len(r))
	for _, p := range r {
		if p.PlayerID != id {
			out = append(out, p)
		}
	}
	return out
}
