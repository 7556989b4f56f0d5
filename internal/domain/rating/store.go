// Package rating holds player skill ratings and updates them through a
// Bayesian rating oracle.
package rating

import (
	"maps"
	"sync"

	"github.com/okian/mmr/internal/domain/model"
	"github.com/okian/mmr/internal/domain/performance"
)

// Seed is a persisted rating used to warm the store.
type Seed struct {
	ID    model.PlayerID `json:"id"`
	Mu    float64        `json:"mu"`
	Sigma float64        `json:"sigma"`
}

// Store maps players to their current rating. Entries are never removed.
//
// Reads and writes are individually safe, but processing two matches that
// share players at the same time is not: callers serialize match processing.
type Store struct {
	mu      sync.RWMutex
	ratings map[model.PlayerID]model.Rating
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{ratings: make(map[model.PlayerID]model.Rating)}
}

// Ensure seeds ratings for players not yet present. Existing entries are
// never overwritten, so calling it twice is harmless. Seeds without an id
// are ignored. It returns how many players were added.
func (s *Store) Ensure(seeds []Seed) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, seed := range seeds {
		if seed.ID == "" {
			continue
		}
		if _, ok := s.ratings[seed.ID]; ok {
			continue
		}
		s.ratings[seed.ID] = model.Rating{Mu: seed.Mu, Sigma: seed.Sigma}
		added++
	}
	return added
}

// GetOrCreate returns the rating of id, creating it from the player's first
// match performance when absent. created reports whether it was just added.
func (s *Store) GetOrCreate(id model.PlayerID, perf model.Performance) (r model.Rating, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.ratings[id]; ok {
		return r, false
	}
	r = performance.InitialRating(performance.SkillProxy(perf.Score))
	s.ratings[id] = r
	return r, true
}

// Get returns the rating of id.
func (s *Store) Get(id model.PlayerID) (model.Rating, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.ratings[id]
	return r, ok
}

// Set overwrites the rating of id.
func (s *Store) Set(id model.PlayerID, r model.Rating) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings[id] = r
}

// Snapshot returns a copy of every rating, for the host to persist.
func (s *Store) Snapshot() map[model.PlayerID]model.Rating {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.ratings)
}

// Len returns the number of rated players.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ratings)
}
