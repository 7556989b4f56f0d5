package model

// History describes what is known about a player's previous processed match.
// It is either FirstMatch or Established.
type History interface {
	isHistory()
}

// FirstMatch marks a player with no processed match for this identity.
type FirstMatch struct{}

// Established carries the MMR a player finished their previous match with.
type Established struct {
	MMR int
}

func (FirstMatch) isHistory()  {}
func (Established) isHistory() {}

// HistoryFor returns the history recorded for id, defaulting to FirstMatch.
func HistoryFor(history map[PlayerID]History, id PlayerID) History {
	if h, ok := history[id]; ok && h != nil {
		return h
	}
	return FirstMatch{}
}
