// Package mmr turns completed matches into per-player MMR deltas on top of a
// Bayesian skill rating.
package mmr

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/samber/lo"

	"github.com/okian/mmr/internal/domain/model"
	"github.com/okian/mmr/internal/domain/performance"
	"github.com/okian/mmr/internal/domain/rating"
	"github.com/okian/mmr/internal/domain/teams"
	"github.com/okian/mmr/pkg/logger"
	"github.com/okian/mmr/pkg/metrics"
)

// Calculator is not safe for concurrent ProcessMatch calls on the same store;
// callers serialize matches.
type Calculator struct {
	store     *rating.Store
	evaluator *performance.Evaluator
	adapter   *rating.Adapter
	logger    logger.Logger
}

// NewCalculator creates a calculator with an empty store, default weights
// and the OpenSkill oracle unless overridden.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		store:     rating.NewStore(),
		evaluator: performance.NewEvaluator(),
		adapter:   rating.NewAdapter(rating.NewOpenSkillOracle()),
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EnsurePlayerRatings seeds ratings for players not yet known. Existing
// ratings are never overwritten. It returns the number of ratings added.
func (c *Calculator) EnsurePlayerRatings(seeds []rating.Seed) int {
	added := c.store.Ensure(seeds)
	metrics.UpdateRatedPlayers(c.store.Len())
	return added
}

// Ratings exposes the rating store for reads.
func (c *Calculator) Ratings() *rating.Store {
	return c.store
}

// ProcessMatch updates ratings for one match and annotates every record with
// its MMR delta, MMR after the match and performance. Players missing from
// history are placed as first matches. The records are returned in input
// order. A malformed match leaves the store untouched.
func (c *Calculator) ProcessMatch(ctx context.Context, records []*model.Participation, history map[model.PlayerID]model.History) ([]*model.Participation, error) {
	start := time.Now()

	match, err := teams.Organize(records)
	if err != nil {
		metrics.RecordMatchRejected("malformed")
		return nil, err
	}

	all := lo.Map(records, func(p *model.Participation, _ int) model.Stats { return p.Stats })
	perf := make(map[model.PlayerID]*model.Performance, len(records))
	for _, p := range records {
		score, err := c.evaluator.Score(p.Stats, all)
		if err != nil {
			return nil, fmt.Errorf("score %s: %w", p.PlayerID, err)
		}
		perf[p.PlayerID] = &model.Performance{Score: score}
	}

	for _, p := range records {
		if r, created := c.store.GetOrCreate(p.PlayerID, *perf[p.PlayerID]); created {
			c.logger.Debug(ctx, "created rating",
				logger.String("player_id", p.PlayerID),
				logger.Float64("mu", r.Mu),
				logger.Float64("sigma", r.Sigma))
		}
	}

	res, err := c.adapter.Apply(c.store, match.Rosters, match.Winner)
	if err != nil {
		return nil, err
	}
	if len(res.Skipped) > 0 {
		metrics.RecordOracleSkips(len(res.Skipped))
		c.logger.Debug(ctx, "oracle returned no rating",
			logger.Any("player_ids", res.Skipped))
	}

	avgMu := [2]float64{teamMu(res.Updates[0]), teamMu(res.Updates[1])}
	for t, roster := range match.Rosters {
		won := match.Won(t)
		balance := BalanceFactor(avgMu[t], avgMu[teams.Opponent(t)], won)
		for i, p := range roster {
			pf := perf[p.PlayerID]
			p.Performance = pf
			u := res.Updates[t][i]

			switch h := model.HistoryFor(history, p.PlayerID).(type) {
			case model.Established:
				c.adjust(ctx, p, h, u, roster, won, balance)
			default:
				initial := performance.InitialMMR(u.New, *pf)
				p.MMRDelta, p.MMRAfterMatch = initial, initial
				metrics.RecordPlacement()
			}
			metrics.RecordMMRDelta(p.MMRDelta)
		}
	}

	metrics.RecordMatchProcessed()
	metrics.UpdateRatedPlayers(c.store.Len())
	metrics.RecordProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	c.logger.Debug(ctx, "match processed",
		logger.Int("players", len(records)),
		logger.String("winner", string(match.Teams[match.Winner])),
		logger.String("decided_by", string(match.Decider)),
		logger.Any("team_mu", avgMu))

	return records, nil
}

// adjust computes the delta for a player with an established MMR.
func (c *Calculator) adjust(ctx context.Context, p *model.Participation, h model.Established,
	u rating.Update, roster model.Roster, won bool, balance float64,
) {
	base := BaseChange(u.Old, u.New)
	perfAdj := PerformanceAdjustment(p.Performance.Score, won, len(roster))
	carry, quadrant := c.carry(ctx, p, roster, won)

	raw := int(math.Round((base + perfAdj + float64(carry)) * balance))
	delta := ClampDelta(raw, won)

	p.Performance.Adjustment = perfAdj + float64(carry)
	p.MMRDelta = delta
	p.MMRAfterMatch = FinalMMR(h.MMR, delta)

	metrics.RecordBalanceFactor(balance)
	if quadrant != QuadrantNone {
		metrics.RecordCarryAdjustment(string(quadrant))
	}
}

// carry compares the player's match-wide score with the average score of
// their teammates. Teammates are scored against the team plus the teammates
// again, so they carry double weight in that population.
func (c *Calculator) carry(ctx context.Context, p *model.Participation, roster model.Roster, won bool) (int, Quadrant) {
	if len(roster) < 2 {
		return 0, QuadrantNone
	}
	avg, err := c.teammateAverage(p.PlayerID, roster)
	if err != nil {
		c.logger.Debug(ctx, "carry adjustment skipped",
			logger.String("player_id", p.PlayerID),
			logger.Error(err))
		return 0, QuadrantNone
	}
	return CarryAdjustment(p.Performance.Score-avg, won)
}

func (c *Calculator) teammateAverage(id model.PlayerID, roster model.Roster) (float64, error) {
	teammates := roster.Without(id)
	if len(teammates) == 0 {
		return 0, fmt.Errorf("%w: no teammates", performance.ErrInsufficientData)
	}
	population := append(roster.Stats(), teammates.Stats()...)
	var sum float64
	for _, tm := range teammates {
		s, err := c.evaluator.Score(tm.Stats, population)
		if err != nil {
			return 0, err
		}
		sum += s
	}
	return sum / float64(len(teammates)), nil
}

func teamMu(updates []rating.Update) float64 {
	if len(updates) == 0 {
		return 0
	}
	return lo.SumBy(updates, func(u rating.Update) float64 { return u.Old.Mu }) / float64(len(updates))
}
