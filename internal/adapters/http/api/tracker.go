// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/stride/internal/tracker"
)

// startRequest is the body for POST /tracker/start.
type startRequest struct {
	Kind      string `json:"kind"`
	TimerOnly bool   `json:"timer_only,omitempty"`
}

// TrackerHandler exposes live session control over HTTP.
type TrackerHandler struct {
	deps Dependencies
}

// NewTrackerHandler creates a new tracker handler.
func NewTrackerHandler(deps Dependencies) *TrackerHandler {
	return &TrackerHandler{deps: deps}
}

// HandleStart handles POST /tracker/start requests.
func (h *TrackerHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if req.Kind == "" {
		writeError(w, http.StatusBadRequest, "missing_kind", errors.New("kind is required"))
		return
	}

	if req.TimerOnly {
		if err := h.deps.StartTimerOnly(r.Context(), req.Kind); err != nil {
			writeTrackerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"mode": tracker.ModeTimerOnly.String()})
		return
	}

	mode, err := h.deps.StartTracking(r.Context(), req.Kind)
	if err != nil {
		writeTrackerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"mode": mode.String()})
}

// HandlePause handles POST /tracker/pause requests.
func (h *TrackerHandler) HandlePause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.PauseTracking(r.Context()); err != nil {
		writeTrackerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": tracker.StatePaused.String()})
}

// HandleResume handles POST /tracker/resume requests.
func (h *TrackerHandler) HandleResume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.ResumeTracking(r.Context()); err != nil {
		writeTrackerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": tracker.StateTracking.String()})
}

// HandleStop handles POST /tracker/stop requests. The finished session is
// returned in full, points included.
func (h *TrackerHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	session, err := h.deps.StopTracking(r.Context())
	if err != nil {
		writeTrackerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// HandleSession handles GET /tracker/session requests.
func (h *TrackerHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	session, state := h.deps.LiveSession()
	writeJSON(w, http.StatusOK, map[string]any{
		"state":   state.String(),
		"session": session,
	})
}

// writeTrackerError maps tracker errors onto HTTP statuses.
func writeTrackerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tracker.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, "permission_denied", err)
	case errors.Is(err, tracker.ErrAlreadyTracking),
		errors.Is(err, tracker.ErrNotTracking),
		errors.Is(err, tracker.ErrNotPaused):
		writeError(w, http.StatusConflict, "conflict", err)
	default:
		writeError(w, http.StatusInternalServerError, "tracker_error", err)
	}
}
