// Package service wires the rating engine to its queue, standings and
// idempotency tracking, and implements the dependencies of the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/okian/mmr/internal/adapters/mq/queue"
	"github.com/okian/mmr/internal/adapters/mq/worker"
	"github.com/okian/mmr/internal/adapters/repository"
	"github.com/okian/mmr/internal/domain/dedupe"
	"github.com/okian/mmr/internal/domain/mmr"
	"github.com/okian/mmr/internal/domain/model"
	"github.com/okian/mmr/internal/domain/performance"
	"github.com/okian/mmr/internal/domain/rating"
	"github.com/okian/mmr/internal/domain/types"
	"github.com/okian/mmr/pkg/logger"
	"github.com/okian/mmr/pkg/metrics"
)

const workerShutdownTimeout = 5 * time.Second

// Service rates matches one at a time through a single worker and keeps the
// public standings.
type Service struct {
	mu sync.RWMutex

	calculator *mmr.Calculator
	standings  repository.Store
	deduper    dedupe.Deduper
	queue      *queue.InMemoryQueue
	worker     *worker.InMemoryWorker

	queueSize      int
	dedupeSize     int
	processTimeout time.Duration
	tau            float64
	weights        *performance.Weights

	started bool
	logger  logger.Logger
}

// New constructs a Service. Ratings and standings live for the lifetime of
// the Service; Start and Stop only control match intake.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:      10_000,
		dedupeSize:     100_000,
		processTimeout: 5 * time.Second,
		logger:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	oracleOpts := []rating.OracleOption{}
	if s.tau > 0 {
		oracleOpts = append(oracleOpts, rating.WithTau(s.tau))
	}
	evalOpts := []performance.Option{}
	if s.weights != nil {
		evalOpts = append(evalOpts, performance.WithWeights(*s.weights))
	}
	s.calculator = mmr.NewCalculator(
		mmr.WithOracle(rating.NewOpenSkillOracle(oracleOpts...)),
		mmr.WithEvaluator(performance.NewEvaluator(evalOpts...)),
		mmr.WithLogger(s.logger.Named("mmr")),
	)
	s.standings = repository.NewTreapStore()
	return s
}

// Start initializes the queue and starts the match worker.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.worker = worker.NewInMemoryWorker(s.queue, s,
		worker.WithName("match-worker"),
		worker.WithLogger(s.logger),
	)
	go s.worker.Run(ctx)

	s.started = true
	s.logger.Info(ctx, "rating service started",
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("processTimeout", s.processTimeout.String()),
	)
	return nil
}

// Stop closes the queue and waits for queued matches to be rated.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
	defer cancel()

	_ = s.queue.Close()
	if err := s.worker.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "match worker did not drain", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "rating service stopped")
}

// ProcessMatch submits a match and waits for its rating. A match id is
// accepted once; a match that fails can be submitted again. On timeout the
// match is still rated and the returned *types.TimeoutError carries its id.
func (s *Service) ProcessMatch(ctx context.Context, req types.MatchRequest) (types.MatchResponse, error) {
	s.mu.RLock()
	started, q, d := s.started, s.queue, s.deduper
	s.mu.RUnlock()
	if !started {
		return types.MatchResponse{}, types.ErrNotStarted
	}

	matchID := req.MatchID
	if matchID == "" {
		matchID = uuid.NewString()
	}
	if d.SeenAndRecord(ctx, matchID) {
		metrics.RecordMatchDuplicate()
		return types.MatchResponse{}, fmt.Errorf("%w: %s", types.ErrDuplicateMatch, matchID)
	}

	history := make(map[model.PlayerID]model.History)
	for _, p := range req.Players {
		if p.PreviousMMR != nil {
			history[p.PlayerID] = model.Established{MMR: *p.PreviousMMR}
		}
	}
	reply := make(chan model.MatchResult, 1)
	job := model.MatchJob{
		MatchID: matchID,
		Records: lo.Map(req.Players, func(p types.PlayerResult, _ int) *model.Participation { return p.Participation() }),
		History: history,
		Reply:   reply,
	}

	if err := q.Enqueue(ctx, job); err != nil {
		d.Unrecord(ctx, matchID)
		switch {
		case errors.Is(err, queue.ErrQueueFull):
			metrics.RecordMatchRejected("backpressure")
			return types.MatchResponse{}, fmt.Errorf("%w: %w", types.ErrBackpressure, err)
		case errors.Is(err, queue.ErrQueueClosed):
			return types.MatchResponse{}, types.ErrNotStarted
		default:
			return types.MatchResponse{}, err
		}
	}

	timer := time.NewTimer(s.processTimeout)
	defer timer.Stop()

	select {
	case res := <-reply:
		if res.Err != nil {
			d.Unrecord(ctx, matchID)
			return types.MatchResponse{}, res.Err
		}
		return response(res), nil
	case <-timer.C:
		return types.MatchResponse{}, &types.TimeoutError{MatchID: matchID}
	case <-ctx.Done():
		return types.MatchResponse{}, ctx.Err()
	}
}

// Process implements worker.Processor. Players without an explicit previous
// MMR take it from the standings; players in neither are placed.
func (s *Service) Process(ctx context.Context, job model.MatchJob) (model.MatchResult, error) {
	history := maps.Clone(job.History)
	if history == nil {
		history = make(map[model.PlayerID]model.History)
	}
	for _, p := range job.Records {
		if p == nil {
			continue
		}
		if _, ok := history[p.PlayerID]; ok {
			continue
		}
		if prev, ok := s.standings.MMR(ctx, p.PlayerID); ok {
			history[p.PlayerID] = model.Established{MMR: prev}
		}
	}

	records, err := s.calculator.ProcessMatch(ctx, job.Records, history)
	if err != nil {
		return model.MatchResult{}, err
	}

	ratings := make(map[model.PlayerID]model.Rating, len(records))
	for _, p := range records {
		if err := s.standings.Set(ctx, p.PlayerID, p.MMRAfterMatch, job.MatchID); err != nil {
			return model.MatchResult{}, err
		}
		ratings[p.PlayerID], _ = s.calculator.Ratings().Get(p.PlayerID)
	}

	s.logger.Debug(ctx, "match rated",
		logger.String("match_id", job.MatchID),
		logger.Int("players", len(records)),
	)
	return model.MatchResult{Records: records, Ratings: ratings}, nil
}

func response(res model.MatchResult) types.MatchResponse {
	return types.MatchResponse{
		MatchID: res.MatchID,
		Players: lo.Map(res.Records, func(p *model.Participation, _ int) types.PlayerOutcome {
			return types.Outcome(p, res.Ratings[p.PlayerID])
		}),
	}
}

// SeedRatings warms the rating store with persisted ratings. Players that
// already have a rating keep it. It returns how many were added.
func (s *Service) SeedRatings(_ context.Context, seeds []types.Rating) int {
	return s.calculator.EnsurePlayerRatings(lo.Map(seeds, func(r types.Rating, _ int) rating.Seed {
		return rating.Seed{ID: r.PlayerID, Mu: r.Mu, Sigma: r.Sigma}
	}))
}

// Rating returns a player's current skill rating.
func (s *Service) Rating(_ context.Context, playerID string) (types.Rating, error) {
	r, ok := s.calculator.Ratings().Get(playerID)
	if !ok {
		return types.Rating{}, fmt.Errorf("%w: %s", repository.ErrNotFound, playerID)
	}
	return types.Rating{PlayerID: playerID, Mu: r.Mu, Sigma: r.Sigma}, nil
}

// Ratings returns a copy of every rating, for the host to persist.
func (s *Service) Ratings() []types.Rating {
	snap := s.calculator.Ratings().Snapshot()
	out := make([]types.Rating, 0, len(snap))
	for id, r := range snap {
		out = append(out, types.Rating{PlayerID: id, Mu: r.Mu, Sigma: r.Sigma})
	}
	return out
}

// TopN returns the top N leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	entries, err := s.standings.TopN(ctx, n)
	if err != nil {
		return nil, err
	}
	return lo.Map(entries, func(e repository.Entry, _ int) types.Entry { return toEntry(e) }), nil
}

// Rank returns the rank and MMR of a player.
func (s *Service) Rank(ctx context.Context, playerID string) (types.Entry, error) {
	e, err := s.standings.Rank(ctx, playerID)
	if err != nil {
		return types.Entry{}, err
	}
	return toEntry(e), nil
}

func toEntry(e repository.Entry) types.Entry {
	return types.Entry{Rank: e.Rank, PlayerID: e.PlayerID, MMR: e.MMR, Matches: e.Matches}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":       s.started,
		"queueSize":     s.queueSize,
		"dedupeSize":    s.dedupeSize,
		"ratedPlayers":  s.calculator.Ratings().Len(),
		"rankedPlayers": s.standings.Count(ctx),
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["seenMatches"] = s.deduper.Size()
	}
	return stats
}
