package repository

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/mmr/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: MMR DESC, then playerID ASC (deterministic). "less" means ranks
// earlier, so an in-order traversal yields the leaderboard from best to
// worst. Ranks are competition ranks: players with equal MMR share a rank
// and the next rank skips accordingly (1, 1, 3).

type record struct {
	mmr         int
	matches     int
	lastMatchID string
}

type node struct {
	id    string
	mmr   int
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aMMR, aID) appears before (bMMR, bID).
func less(aMMR int, aID string, bMMR int, bID string) bool {
	if aMMR != bMMR {
		return aMMR > bMMR
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, mmr int, prio uint64) *node {
	if n == nil {
		return &node{id: id, mmr: mmr, prio: prio, size: 1}
	}
	if less(mmr, id, n.mmr, n.id) {
		n.left = insert(n.left, id, mmr, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, mmr, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, mmr int) *node {
	if n == nil {
		return nil
	}
	switch {
	case mmr == n.mmr && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, mmr)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, mmr)
		}
	case less(mmr, id, n.mmr, n.id):
		n.left = deleteNode(n.left, id, mmr)
	default:
		n.right = deleteNode(n.right, id, mmr)
	}
	fix(n)
	return n
}

// countAbove returns how many players have a strictly higher MMR.
func countAbove(n *node, mmr int) int {
	if n == nil {
		return 0
	}
	if n.mmr > mmr {
		return nsize(n.left) + 1 + countAbove(n.right, mmr)
	}
	return countAbove(n.left, mmr)
}

// collectTopN appends up to limit entries in rank order.
func collectTopN(n *node, limit int, byID map[string]record, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, byID, out)
	if len(*out) < limit {
		rec := byID[n.id]
		*out = append(*out, Entry{
			PlayerID:    n.id,
			MMR:         rec.mmr,
			Matches:     rec.matches,
			LastMatchID: rec.lastMatchID,
		})
	}
	collectTopN(n.right, limit, byID, out)
}

// TreapStore keeps the standings ordered in a treap with subtree sizes, so
// updates and rank lookups are O(log n) expected.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]record
	rng  *rand.Rand
}

// NewTreapStore constructs an empty treap store.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		byID: make(map[string]record),
		rng:  rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set implements Store.Set.
func (s *TreapStore) Set(_ context.Context, playerID string, mmr int, matchID string) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryLatency("set", float64(time.Since(start).Microseconds())/1000)
	}()

	if playerID == "" {
		return fmt.Errorf("%w: empty player id", ErrInvalidEntry)
	}
	if mmr < 0 {
		return fmt.Errorf("%w: negative mmr %d for %s", ErrInvalidEntry, mmr, playerID)
	}

	s.mu.Lock()
	rec, exists := s.byID[playerID]
	if exists {
		s.root = deleteNode(s.root, playerID, rec.mmr)
	}
	rec.mmr = mmr
	rec.matches++
	rec.lastMatchID = matchID
	s.byID[playerID] = rec
	s.root = insert(s.root, playerID, mmr, s.rng.Uint64())
	count := len(s.byID)
	s.mu.Unlock()

	if !exists {
		metrics.UpdateStandingsSize(count)
	}
	return nil
}

// MMR implements Store.MMR.
func (s *TreapStore) MMR(_ context.Context, playerID string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[playerID]
	return rec.mmr, ok
}

// Rank implements Store.Rank.
func (s *TreapStore) Rank(_ context.Context, playerID string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryLatency("rank", float64(time.Since(start).Microseconds())/1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[playerID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, playerID)
	}
	return Entry{
		Rank:        countAbove(s.root, rec.mmr) + 1,
		PlayerID:    playerID,
		MMR:         rec.mmr,
		Matches:     rec.matches,
		LastMatchID: rec.lastMatchID,
	}, nil
}

// TopN implements Store.TopN.
func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryLatency("top_n", float64(time.Since(start).Microseconds())/1000)
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, s.byID, &out)
	assignRanksWithTies(out)
	return out, nil
}

// Count implements Store.Count.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// assignRanksWithTies assigns competition ranks to a prefix of the
// standings: equal MMR shares a rank, the next distinct MMR takes its
// position.
func assignRanksWithTies(entries []Entry) {
	for i := range entries {
		if i > 0 && entries[i].MMR == entries[i-1].MMR {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}
