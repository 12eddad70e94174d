package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ayusman/orion/internal/store"
)

// MaxListLimit bounds the limit query parameter.
const MaxListLimit = 1000

// TransitionsHandler serves the recorded state change history.
//
//	GET /api/transitions?limit=N  newest first
//	GET /api/transitions/stats    counts per reason
//	GET /api/transitions/{id}
type TransitionsHandler struct {
	store  *store.Store
	logger *zap.Logger
}

// NewTransitionsHandler creates a TransitionsHandler backed by s.
func NewTransitionsHandler(s *store.Store, logger *zap.Logger) *TransitionsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransitionsHandler{store: s, logger: logger}
}

type listTransitionsResponse struct {
	Transitions []*store.Transition `json:"transitions"`
}

type statsResponse struct {
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

func (h *TransitionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/transitions")
	path = strings.TrimPrefix(path, "/")

	switch path {
	case "":
		h.list(w, r)
	case "stats":
		h.stats(w)
	default:
		h.get(w, path)
	}
}

func (h *TransitionsHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := store.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, MaxListLimit)
	}

	transitions, err := h.store.Transitions().List(limit)
	if err != nil {
		h.logger.Error("list transitions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list transitions")
		return
	}

	writeJSON(w, http.StatusOK, listTransitionsResponse{Transitions: transitions})
}

func (h *TransitionsHandler) stats(w http.ResponseWriter) {
	counts, err := h.store.Transitions().CountByReason()
	if err != nil {
		h.logger.Error("count transitions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to count transitions")
		return
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	writeJSON(w, http.StatusOK, statsResponse{Counts: counts, Total: total})
}

func (h *TransitionsHandler) get(w http.ResponseWriter, id string) {
	t, err := h.store.Transitions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transition not found")
			return
		}
		h.logger.Error("get transition", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get transition")
		return
	}

	writeJSON(w, http.StatusOK, t)
}
