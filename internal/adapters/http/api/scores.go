package api

import (
	"context"
	"net/http"

	"github.com/arisium-chains/aurum-miniapp-prod-sub001/internal/adapters/repository"
	"github.com/arisium-chains/aurum-miniapp-prod-sub001/internal/domain/scoring"
)

// ScoreDependencies defines the session score operations.
type ScoreDependencies interface {
	Score(ctx context.Context, userID, sessionID, imagePayload string) (scoring.Result, error)
	GetScore(ctx context.Context, userID, sessionID string) (*repository.StoredScore, error)
	CanScore(ctx context.Context, userID, sessionID string) repository.Eligibility
	DeleteScore(ctx context.Context, userID, sessionID string) error
}

// ScoresHandler handles session score requests.
type ScoresHandler struct {
	deps ScoreDependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps ScoreDependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

// scoreRequest requires imagePayload to be present; an empty string is a
// valid payload.
type scoreRequest struct {
	UserID       string  `json:"userId" validate:"required,excludesall=/"`
	SessionID    string  `json:"sessionId" validate:"required,excludesall=/"`
	ImagePayload *string `json:"imagePayload" validate:"required"`
}

type eligibilityResponse struct {
	CanScore bool   `json:"canScore"`
	Status   string `json:"status"`
}

// HandlePostScore handles POST /scores requests.
func (h *ScoresHandler) HandlePostScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_score"
	var req scoreRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.Score(r.Context(), req.UserID, req.SessionID, *req.ImagePayload)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// HandleGetScore handles GET /scores/{userId}/{sessionId} requests.
func (h *ScoresHandler) HandleGetScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_score"
	rec, err := h.deps.GetScore(r.Context(), r.PathValue("userId"), r.PathValue("sessionId"))
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleDeleteScore handles DELETE /scores/{userId}/{sessionId} requests.
func (h *ScoresHandler) HandleDeleteScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_score"
	if err := h.deps.DeleteScore(r.Context(), r.PathValue("userId"), r.PathValue("sessionId")); err != nil {
		writeDomainError(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleEligibility handles GET /scores/{userId}/{sessionId}/eligibility
// requests. A degraded store answers canScore=true with status "unknown".
func (h *ScoresHandler) HandleEligibility(w http.ResponseWriter, r *http.Request) {
	e := h.deps.CanScore(r.Context(), r.PathValue("userId"), r.PathValue("sessionId"))
	writeJSON(w, http.StatusOK, eligibilityResponse{CanScore: e.Allowed(), Status: e.String()})
}
