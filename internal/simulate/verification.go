package simulate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/okian/mmr/internal/domain/types"
	"github.com/okian/mmr/pkg/logger"
)

// fetchLeaderboard retrieves the top N leaderboard entries.
func fetchLeaderboard(ctx context.Context, config *Config, client *HTTPClient, stats *Stats) ([]types.Entry, error) {
	var entries []types.Entry
	if err := client.GetJSON(ctx, fmt.Sprintf("/leaderboard?limit=%d", config.TopN), &entries); err != nil {
		return nil, err
	}
	stats.LeaderboardEntries = len(entries)
	logger.Get().Info(ctx, "retrieved leaderboard", logger.Int("entries", len(entries)))
	return entries, nil
}

// fetchRanks retrieves the standing of every simulated player. Players that
// never finished a rated match are absent from the result.
func fetchRanks(ctx context.Context, config *Config, client *HTTPClient, players []Player, stats *Stats) map[string]types.Entry {
	var (
		mu    sync.Mutex
		ranks = make(map[string]types.Entry, len(players))
		ids   = make(chan string, config.Workers*2)
		wg    sync.WaitGroup
	)
	for range config.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range ids {
				status, body, err := client.Get(ctx, "/rank/"+url.PathEscape(id))
				if status == http.StatusNotFound {
					continue
				}
				var e types.Entry
				if err == nil && status != http.StatusOK {
					err = fmt.Errorf("HTTP %d", status)
				}
				if err == nil {
					err = json.Unmarshal(body, &e)
				}
				if err != nil {
					if config.Verbose {
						logger.Get().Warn(ctx, "failed to get rank", logger.String("player_id", id), logger.Error(err))
					}
					continue
				}
				mu.Lock()
				ranks[id] = e
				mu.Unlock()
			}
		}()
	}
	func() {
		defer close(ids)
		for _, p := range players {
			select {
			case <-ctx.Done():
				return
			case ids <- p.ID:
			}
		}
	}()
	wg.Wait()

	stats.RanksRetrieved = len(ranks)
	logger.Get().Info(ctx, "retrieved ranks", logger.Int("ranked", len(ranks)), logger.Int("players", len(players)))
	return ranks
}

// verifyLeaderboard checks ordering and competition ranking of the
// leaderboard, and that it agrees with the per-player ranks.
func verifyLeaderboard(leaderboard []types.Entry, ranks map[string]types.Entry) error {
	for i, e := range leaderboard {
		if i == 0 {
			if e.Rank != 1 {
				return fmt.Errorf("%w: first entry has rank %d", ErrInconsistent, e.Rank)
			}
		} else {
			prev := leaderboard[i-1]
			switch {
			case e.MMR > prev.MMR:
				return fmt.Errorf("%w: entry %d has higher MMR than entry %d", ErrInconsistent, i, i-1)
			case e.MMR == prev.MMR && e.PlayerID < prev.PlayerID:
				return fmt.Errorf("%w: tied entries %d and %d out of id order", ErrInconsistent, i-1, i)
			case e.MMR == prev.MMR && e.Rank != prev.Rank:
				return fmt.Errorf("%w: tied entries %d and %d have ranks %d and %d", ErrInconsistent, i-1, i, prev.Rank, e.Rank)
			case e.MMR < prev.MMR && e.Rank != i+1:
				return fmt.Errorf("%w: entry %d has rank %d, want %d", ErrInconsistent, i, e.Rank, i+1)
			}
		}
		if r, ok := ranks[e.PlayerID]; ok && (r.Rank != e.Rank || r.MMR != e.MMR) {
			return fmt.Errorf("%w: player %s is %d/%d on the leaderboard but %d/%d by rank",
				ErrInconsistent, e.PlayerID, e.Rank, e.MMR, r.Rank, r.MMR)
		}
	}
	return nil
}

// skillCorrelation is the Pearson correlation between hidden skill and
// published MMR over ranked players.
func skillCorrelation(players []Player, ranks map[string]types.Entry) float64 {
	var skill, mmr []float64
	for _, p := range players {
		if e, ok := ranks[p.ID]; ok {
			skill = append(skill, p.Skill)
			mmr = append(mmr, float64(e.MMR))
		}
	}
	if len(skill) < 2 {
		return 0
	}
	return stat.Correlation(skill, mmr, nil)
}
