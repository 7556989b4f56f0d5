package mmr

import "github.com/okian/mmr/internal/domain/teams"

// ErrMalformedMatch is returned when the records do not form a valid two-team
// match. It is the same value as teams.ErrMalformedMatch.
var ErrMalformedMatch = teams.ErrMalformedMatch
