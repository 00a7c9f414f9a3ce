// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// LeaderboardHandler handles leaderboard queries.
type LeaderboardHandler struct {
	deps Dependencies
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps Dependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

// HandleGetLeaderboard handles GET /leaderboard requests. Optional query
// parameters: kind (activity kind filter), since and until (RFC3339 bounds).
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()

	since, err := parseTimeBound(q.Get("since"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_since", err)
		return
	}
	until, err := parseTimeBound(q.Get("until"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_until", err)
		return
	}

	boards, err := h.deps.Leaderboard(r.Context(), q.Get("kind"), since, until)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "leaderboard_failed", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"thresholds_km": h.deps.Thresholds(),
		"boards":        boards,
	})
}
