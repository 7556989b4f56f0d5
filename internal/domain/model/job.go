package model

// MatchJob is a match waiting to be processed by the single match worker.
type MatchJob struct {
	MatchID string
	Records []*Participation
	History map[PlayerID]History
	// Reply receives exactly one result. It must be buffered.
	Reply chan<- MatchResult
}

// MatchResult is the outcome of processing a MatchJob.
type MatchResult struct {
	MatchID string
	Records []*Participation
	// Ratings holds every player's rating right after the match.
	Ratings map[PlayerID]Rating
	Err     error
}
