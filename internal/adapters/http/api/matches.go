package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/okian/mmr/internal/domain/types"
)

// maxMatchBody bounds the POST /matches payload.
const maxMatchBody = 1 << 20

// MatchDependencies defines the interface for rating submitted matches.
type MatchDependencies interface {
	ProcessMatch(ctx context.Context, req types.MatchRequest) (types.MatchResponse, error)
}

// MatchHandler handles match submissions.
type MatchHandler struct {
	deps MatchDependencies
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(deps MatchDependencies) *MatchHandler {
	return &MatchHandler{deps: deps}
}

// HandlePostMatch handles POST /matches requests.
func (h *MatchHandler) HandlePostMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req types.MatchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMatchBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if err := validateMatch(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	resp, err := h.deps.ProcessMatch(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// maxStatMagnitude keeps the z-score sums of a match finite.
const maxStatMagnitude = 1e9

func boundedStat(v float64) bool {
	return !math.IsNaN(v) && math.Abs(v) <= maxStatMagnitude
}

// validateMatch rejects payloads that cannot describe a match. Team shape is
// left to the rating engine.
func validateMatch(req types.MatchRequest) error {
	if len(req.Players) == 0 {
		return fmt.Errorf("%w: no players", ErrBadRequest)
	}
	seen := make(map[string]struct{}, len(req.Players))
	for i, p := range req.Players {
		switch {
		case strings.TrimSpace(p.PlayerID) == "":
			return fmt.Errorf("%w: players[%d] missing player_id", ErrBadRequest, i)
		case strings.TrimSpace(p.Team) == "":
			return fmt.Errorf("%w: players[%d] missing team", ErrBadRequest, i)
		case p.Kills < 0 || p.Deaths < 0 || p.Assists < 0:
			return fmt.Errorf("%w: players[%d] has negative counters", ErrBadRequest, i)
		case p.PreviousMMR != nil && *p.PreviousMMR < 0:
			return fmt.Errorf("%w: players[%d] has negative previous_mmr", ErrBadRequest, i)
		case !boundedStat(p.Damage) || !boundedStat(p.Objective) || !boundedStat(p.Efficiency):
			return fmt.Errorf("%w: players[%d] has a stat outside [-%g, %g]", ErrBadRequest, i, maxStatMagnitude, maxStatMagnitude)
		}
		if _, dup := seen[p.PlayerID]; dup {
			return fmt.Errorf("%w: player %s listed twice", ErrBadRequest, p.PlayerID)
		}
		seen[p.PlayerID] = struct{}{}
	}
	return nil
}
