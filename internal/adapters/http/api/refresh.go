// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"
)

// refreshRequest is the optional body for POST /refresh. Zero bounds mean an
// open-ended window.
type refreshRequest struct {
	Since time.Time `json:"since,omitempty"`
	Until time.Time `json:"until,omitempty"`
}

// RefreshHandler triggers a fetch-and-ingest cycle.
type RefreshHandler struct {
	deps Dependencies
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(deps Dependencies) *RefreshHandler {
	return &RefreshHandler{deps: deps}
}

// HandleRefresh handles POST /refresh requests.
func (h *RefreshHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_body", err)
		return
	}

	result, err := h.deps.Refresh(r.Context(), req.Since, req.Until)
	if err != nil {
		writeError(w, http.StatusBadGateway, "refresh_failed", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
