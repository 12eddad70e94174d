package api

import (
	"net/http"

	"github.com/ayusman/orion/internal/tracking"
)

// Tracker is the running pipeline as seen by the dashboard.
type Tracker interface {
	// Output returns the result of the most recent frame.
	Output() tracking.Output
	Enabled() bool
	SetEnabled(enabled bool)
	Reset()
}

// StateHandler reports and controls the tracker.
//
//	GET  /api/state
//	POST /api/reset
//	POST /api/enable   {"enabled": bool}
type StateHandler struct {
	tracker Tracker
}

// NewStateHandler creates a StateHandler for t.
func NewStateHandler(t Tracker) *StateHandler {
	return &StateHandler{tracker: t}
}

type stateResponse struct {
	Enabled bool `json:"enabled"`
	tracking.Output
}

type enableRequest struct {
	Enabled *bool `json:"enabled"`
}

// State handles GET /api/state.
func (h *StateHandler) State(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.writeState(w)
}

// Reset handles POST /api/reset.
func (h *StateHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.tracker.Reset()
	h.writeState(w)
}

// Enable handles POST /api/enable.
func (h *StateHandler) Enable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req enableRequest
	if err := decodeJSON(r, &req); err != nil || req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "expected {\"enabled\": true|false}")
		return
	}

	h.tracker.SetEnabled(*req.Enabled)
	h.writeState(w)
}

func (h *StateHandler) writeState(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, stateResponse{
		Enabled: h.tracker.Enabled(),
		Output:  h.tracker.Output(),
	})
}
