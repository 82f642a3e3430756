package api

import (
	"context"
	"net/http"

	"github.com/arisium-chains/aurum-miniapp-prod-sub001/internal/adapters/repository"
)

// HistoryDependencies defines the history operations.
type HistoryDependencies interface {
	History(ctx context.Context, userID string) (repository.History, error)
	ResetHistory(ctx context.Context, userID string) (int, error)
}

// HistoryHandler handles history requests.
type HistoryHandler struct {
	deps HistoryDependencies
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps HistoryDependencies) *HistoryHandler {
	return &HistoryHandler{deps: deps}
}

// HandleGetHistory handles GET /history/{userId} requests.
func (h *HistoryHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_history"
	hist, err := h.deps.History(r.Context(), r.PathValue("userId"))
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

// HandleResetHistory handles DELETE /history/{userId} requests.
func (h *HistoryHandler) HandleResetHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.reset_history"
	if _, err := h.deps.ResetHistory(r.Context(), r.PathValue("userId")); err != nil {
		writeDomainError(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
