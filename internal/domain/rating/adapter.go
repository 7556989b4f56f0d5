package rating

import (
	"fmt"

	"github.com/okian/mmr/internal/domain/model"
)

// Update is the before and after rating of one player.
type Update struct {
	Old     model.Rating
	New     model.Rating
	Skipped bool // the oracle returned nothing for this player
}

// Result holds one Update per player, indexed [team][roster position].
type Result struct {
	Updates [2][]Update
	Skipped []model.PlayerID
}

// Adapter marshals rosters to and from an Oracle and writes the results
// back to a Store.
type Adapter struct {
	oracle Oracle
}

// NewAdapter creates an adapter around oracle.
func NewAdapter(oracle Oracle) *Adapter {
	return &Adapter{oracle: oracle}
}

// Apply rates rosters[winner] above the other roster. Every player must
// already be in store. Players the oracle returns no rating for keep their
// old rating; their ids are listed in Result.Skipped.
func (a *Adapter) Apply(store *Store, rosters [2]model.Roster, winner int) (Result, error) {
	var current [2][]model.Rating
	for t, roster := range rosters {
		current[t] = make([]model.Rating, len(roster))
		for i, p := range roster {
			r, ok := store.Get(p.PlayerID)
			if !ok {
				return Result{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, p.PlayerID)
			}
			current[t][i] = r
		}
	}

	rank := [2]int{2, 2}
	rank[winner] = 1
	updatedA, updatedB := a.oracle.Update(current[0], current[1], rank)
	updated := [2][]model.Rating{updatedA, updatedB}

	var res Result
	for t, roster := range rosters {
		res.Updates[t] = make([]Update, len(roster))
		for i, p := range roster {
			u := Update{Old: current[t][i], New: current[t][i]}
			if i < len(updated[t]) {
				u.New = updated[t][i]
				store.Set(p.PlayerID, u.New)
			} else {
				u.Skipped = true
				res.Skipped = append(res.Skipped, p.PlayerID)
			}
			res.Updates[t][i] = u
		}
	}
	return res, nil
}
