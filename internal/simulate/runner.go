package simulate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/mmr/pkg/logger"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// Run executes a complete simulation against the configured service.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting match simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int("players", config.Players),
		logger.Int("matches", config.Matches),
		logger.Int("teamSize", config.TeamSize),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()))

	client := NewHTTPClient(config.BaseURL, config.Timeout)
	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, err
	}

	gen := NewGenerator(config.Players, config.TeamSize, config.Seed)
	matches, err := gen.Matches(ctx, config.Matches)
	if err != nil {
		return stats, fmt.Errorf("match generation failed: %w", err)
	}
	stats.MatchesGenerated = len(matches)

	submitMatches(ctx, config, client, matches, stats)

	leaderboard, err := fetchLeaderboard(ctx, config, client, stats)
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	ranks := fetchRanks(ctx, config, client, gen.Players(), stats)
	if err := verifyLeaderboard(leaderboard, ranks); err != nil {
		return stats, err
	}
	stats.SkillCorrelation = skillCorrelation(gen.Players(), ranks)

	if config.OutputFile != "" {
		if err := saveMatches(config.OutputFile, matches); err != nil {
			log.Warn(ctx, "failed to save matches", logger.Error(err))
		} else {
			log.Info(ctx, "matches saved to file", logger.String("filename", config.OutputFile))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logFinalStats(ctx, stats)
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	status, _, err := client.Get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, status)
	}
	return nil
}

// saveMatches writes the generated matches as a JSON array.
func saveMatches(filename string, matches []Match) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(matches, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal matches: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write matches: %w", err)
	}
	return nil
}

func logFinalStats(ctx context.Context, stats *Stats) {
	var matchesPerSecond float64
	if stats.Duration > 0 {
		matchesPerSecond = float64(stats.MatchesSubmitted) / stats.Duration.Seconds()
	}
	logger.Get().Info(ctx, "final statistics",
		logger.Int("matchesGenerated", stats.MatchesGenerated),
		logger.Int("matchesSubmitted", stats.MatchesSubmitted),
		logger.Int("matchesRated", stats.MatchesRated),
		logger.Int("matchesRejected", stats.MatchesRejected),
		logger.Int("matchesFailed", stats.MatchesFailed),
		logger.Int("ranksRetrieved", stats.RanksRetrieved),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Float64("skillCorrelation", stats.SkillCorrelation),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("matchesPerSecond", matchesPerSecond))
}
