// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/okian/stride/internal/domain/model"
	"github.com/okian/stride/internal/tracker"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Refresh fetches records from the relays and feeds them into the
	// pipeline.
	Refresh(ctx context.Context, since, until time.Time) (model.RefreshResult, error)

	// Leaderboard ranks stored records per configured distance threshold.
	Leaderboard(ctx context.Context, kind string, since, until time.Time) (map[int][]model.LeaderboardEntry, error)
	Thresholds() []int

	// Session tracking operations.
	StartTracking(ctx context.Context, kind string) (tracker.Mode, error)
	StartTimerOnly(ctx context.Context, kind string) error
	PauseTracking(ctx context.Context) error
	ResumeTracking(ctx context.Context) error
	StopTracking(ctx context.Context) (*model.Session, error)
	LiveSession() (*model.Session, tracker.State)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	refreshHandler     *RefreshHandler
	leaderboardHandler *LeaderboardHandler
	trackerHandler     *TrackerHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		refreshHandler:     NewRefreshHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps),
		trackerHandler:     NewTrackerHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/refresh", MetricsMiddleware(s.refreshHandler.HandleRefresh, "refresh"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/tracker/start", MetricsMiddleware(s.trackerHandler.HandleStart, "tracker_start"))
	mux.HandleFunc("/tracker/pause", MetricsMiddleware(s.trackerHandler.HandlePause, "tracker_pause"))
	mux.HandleFunc("/tracker/resume", MetricsMiddleware(s.trackerHandler.HandleResume, "tracker_resume"))
	mux.HandleFunc("/tracker/stop", MetricsMiddleware(s.trackerHandler.HandleStop, "tracker_stop"))
	mux.HandleFunc("/tracker/session", MetricsMiddleware(s.trackerHandler.HandleSession, "tracker_session"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// parseTimeBound parses an optional RFC3339 query value; empty means open.
func parseTimeBound(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}
