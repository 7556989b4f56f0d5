// Package types contains the request and response shapes shared by the
// service and the HTTP API.
package types

import (
	"github.com/okian/mmr/internal/domain/model"
)

// MatchRequest is a completed match submitted for rating.
type MatchRequest struct {
	// MatchID makes submission idempotent. A fresh id is generated if empty.
	MatchID string         `json:"match_id,omitempty"`
	Players []PlayerResult `json:"players"`
}

// PlayerResult is one player's line in a submitted match.
type PlayerResult struct {
	PlayerID   string  `json:"player_id"`
	Team       string  `json:"team"`
	Kills      int     `json:"kills"`
	Deaths     int     `json:"deaths"`
	Assists    int     `json:"assists"`
	Damage     float64 `json:"damage"`
	Objective  float64 `json:"objective"`
	Efficiency float64 `json:"efficiency"`

	// PreviousMMR overrides the MMR held in the standings. When both are
	// absent the match is the player's first.
	PreviousMMR *int `json:"previous_mmr,omitempty"`
}

// Participation converts the line into a domain record.
func (p PlayerResult) Participation() *model.Participation {
	return &model.Participation{
		PlayerID: p.PlayerID,
		Team:     model.Team(p.Team),
		Stats: model.Stats{
			Kills:      p.Kills,
			Deaths:     p.Deaths,
			Assists:    p.Assists,
			Damage:     p.Damage,
			Objective:  p.Objective,
			Efficiency: p.Efficiency,
		},
	}
}

// MatchResponse is the rated match.
type MatchResponse struct {
	MatchID string          `json:"match_id"`
	Players []PlayerOutcome `json:"players"`
}

// PlayerOutcome is one player's rating change.
type PlayerOutcome struct {
	PlayerID         string  `json:"player_id"`
	Team             string  `json:"team"`
	MMRDelta         int     `json:"mmr_delta"`
	MMRAfterMatch    int     `json:"mmr_after_match"`
	PerformanceScore float64 `json:"performance_score"`
	Adjustment       float64 `json:"adjustment"`
	Mu               float64 `json:"mu"`
	Sigma            float64 `json:"sigma"`
}

// Outcome converts an annotated record, with the player's rating after the
// match, into its response shape.
func Outcome(p *model.Participation, r model.Rating) PlayerOutcome {
	out := PlayerOutcome{
		PlayerID:      p.PlayerID,
		Team:          string(p.Team),
		MMRDelta:      p.MMRDelta,
		MMRAfterMatch: p.MMRAfterMatch,
		Mu:            r.Mu,
		Sigma:         r.Sigma,
	}
	if p.Performance != nil {
		out.PerformanceScore = p.Performance.Score
		out.Adjustment = p.Performance.Adjustment
	}
	return out
}

// Rating is a player's current skill rating.
type Rating struct {
	PlayerID string  `json:"player_id"`
	Mu       float64 `json:"mu"`
	Sigma    float64 `json:"sigma"`
}

// Entry represents a leaderboard entry.
type Entry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
	MMR      int    `json:"mmr"`
	Matches  int    `json:"matches"`
}
