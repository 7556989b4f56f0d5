// Package simulate drives a running rating service with synthetic matches
// between players of known hidden skill, then checks that the standings it
// publishes are consistent and track that skill.
package simulate

import (
	"fmt"
	"time"

	"github.com/okian/mmr/internal/domain/types"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Players    int           // Size of the simulated player pool
	Matches    int           // Number of matches to submit
	TeamSize   int           // Players per team
	TopN       int           // Leaderboard entries to fetch
	Workers    int           // Concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	Seed       uint64        // Seed for the player pool and match draws
	OutputFile string        // Where submitted matches are written, if set
	Verbose    bool          // Log every failed request
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url is empty", ErrInvalidConfig)
	case c.TeamSize < 1:
		return fmt.Errorf("%w: team size must be positive, got %d", ErrInvalidConfig, c.TeamSize)
	case c.Players < 2*c.TeamSize:
		return fmt.Errorf("%w: %d players cannot fill two teams of %d", ErrInvalidConfig, c.Players, c.TeamSize)
	case c.Matches < 1:
		return fmt.Errorf("%w: matches must be positive, got %d", ErrInvalidConfig, c.Matches)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	case c.TopN < 1:
		return fmt.Errorf("%w: top must be positive, got %d", ErrInvalidConfig, c.TopN)
	}
	return nil
}

// Player is a simulated player with a hidden true skill.
type Player struct {
	ID    string
	Skill float64
}

// Match is a generated match request.
type Match = types.MatchRequest

// Stats holds run statistics.
type Stats struct {
	MatchesGenerated   int
	MatchesSubmitted   int
	MatchesRated       int
	MatchesDuplicate   int
	MatchesRejected    int
	MatchesThrottled   int
	MatchesFailed      int
	RanksRetrieved     int
	LeaderboardEntries int
	SkillCorrelation   float64
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
