package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/arisium-chains/aurum-miniapp-prod-sub001/internal/domain/entitlement"
	"github.com/goccy/go-json"
)

// EntitlementDependencies defines the entitlement operation.
type EntitlementDependencies interface {
	CalculateEntitlement(ctx context.Context, p entitlement.Profile) (entitlement.Profile, error)
}

// EntitlementHandler handles entitlement requests.
type EntitlementHandler struct {
	deps EntitlementDependencies
}

// NewEntitlementHandler creates a new entitlement handler.
func NewEntitlementHandler(deps EntitlementDependencies) *EntitlementHandler {
	return &EntitlementHandler{deps: deps}
}

// validationCodes maps each profile field to its error code.
var validationCodes = map[string]string{
	"userId":      "missing_user_id",
	"facialScore": "missing_facial_score",
	"university":  "missing_university",
	"gender":      "invalid_gender",
	"nftTier":     "unknown_nft_tier",
}

// HandlePostEntitlement handles POST /entitlements requests.
func (h *EntitlementHandler) HandlePostEntitlement(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_entitlement"
	var p entitlement.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	out, err := h.deps.CalculateEntitlement(r.Context(), p)
	if errors.Is(err, entitlement.ErrValidation) {
		code, ok := validationCodes[entitlement.Field(err)]
		if !ok {
			code = "bad_request"
		}
		writeError(w, http.StatusBadRequest, code, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, out)
}
