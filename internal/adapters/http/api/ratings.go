package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/mmr/internal/domain/types"
)

// RatingDependencies defines the interface for skill rating operations.
type RatingDependencies interface {
	SeedRatings(ctx context.Context, seeds []types.Rating) int
	Rating(ctx context.Context, playerID string) (types.Rating, error)
}

// RatingHandler handles skill rating requests.
type RatingHandler struct {
	deps RatingDependencies
}

// NewRatingHandler creates a new rating handler.
func NewRatingHandler(deps RatingDependencies) *RatingHandler {
	return &RatingHandler{deps: deps}
}

type seedResponse struct {
	Added int `json:"added"`
}

// HandlePostRatings handles POST /ratings requests. The body is a list of
// persisted ratings; players already rated keep their current rating.
func (h *RatingHandler) HandlePostRatings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var seeds []types.Rating
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMatchBody)).Decode(&seeds); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	for i, s := range seeds {
		if strings.TrimSpace(s.PlayerID) == "" || s.Sigma <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request",
				fmt.Errorf("%w: ratings[%d] needs a player_id and a positive sigma", ErrBadRequest, i))
			return
		}
	}
	writeJSON(w, http.StatusOK, seedResponse{Added: h.deps.SeedRatings(r.Context(), seeds)})
}

// HandleGetRating handles GET /ratings/{player_id} requests.
func (h *RatingHandler) HandleGetRating(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/ratings/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	rating, err := h.deps.Rating(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rating)
}
