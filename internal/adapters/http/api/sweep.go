package api

import (
	"context"
	"net/http"

	"github.com/arisium-chains/aurum-miniapp-prod-sub001/internal/adapters/repository"
)

// SweepDependencies defines the on-demand expiry sweep.
type SweepDependencies interface {
	Sweep(ctx context.Context) (repository.SweepReport, error)
}

// SweepHandler handles admin sweep requests.
type SweepHandler struct {
	deps SweepDependencies
}

// NewSweepHandler creates a new sweep handler.
func NewSweepHandler(deps SweepDependencies) *SweepHandler {
	return &SweepHandler{deps: deps}
}

type sweepResponse struct {
	RunID      string `json:"runId"`
	Scanned    int    `json:"scanned"`
	Deleted    int    `json:"deleted"`
	Expired    int    `json:"expired"`
	Malformed  int    `json:"malformed"`
	Truncated  bool   `json:"truncated"`
	DurationMs int64  `json:"durationMs"`
}

// HandleSweep handles POST /admin/sweep requests.
func (h *SweepHandler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	const op = "api.sweep"
	report, err := h.deps.Sweep(r.Context())
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, sweepResponse{
		RunID:      report.RunID,
		Scanned:    report.Scanned,
		Deleted:    report.Deleted,
		Expired:    report.Expired,
		Malformed:  report.Malformed,
		Truncated:  report.Truncated,
		DurationMs: report.Duration.Milliseconds(),
	})
}
