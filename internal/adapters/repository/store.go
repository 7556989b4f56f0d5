// Package repository keeps the public MMR standings: each player's current
// MMR and their place on the leaderboard.
package repository

import "context"

// Entry represents a leaderboard row.
type Entry struct {
	Rank        int    `json:"rank"`
	PlayerID    string `json:"player_id"`
	MMR         int    `json:"mmr"`
	Matches     int    `json:"matches"`
	LastMatchID string `json:"last_match_id,omitempty"`
}

// Store provides read/write access to the standings.
type Store interface {
	// Set records a player's MMR after a match, replacing the previous value.
	Set(ctx context.Context, playerID string, mmr int, matchID string) error

	// MMR returns the current MMR of a player, false when the player has no
	// rated match yet.
	MMR(ctx context.Context, playerID string) (int, bool)

	// Rank returns the current rank and MMR for a player.
	// Returns ErrNotFound if the player is unknown.
	Rank(ctx context.Context, playerID string) (Entry, error)

	// TopN returns the top-N entries ordered by MMR desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of players in the standings.
	Count(ctx context.Context) int
}
