// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/arisium-chains/aurum-miniapp-prod-sub001/internal/adapters/blobstore"
	"github.com/arisium-chains/aurum-miniapp-prod-sub001/internal/adapters/repository"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ScoreDependencies
	HistoryDependencies
	EntitlementDependencies
	SweepDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	scoresHandler      *ScoresHandler
	historyHandler     *HistoryHandler
	entitlementHandler *EntitlementHandler
	sweepHandler       *SweepHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		scoresHandler:      NewScoresHandler(deps),
		historyHandler:     NewHistoryHandler(deps),
		entitlementHandler: NewEntitlementHandler(deps),
		sweepHandler:       NewSweepHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /scores", MetricsMiddleware(s.scoresHandler.HandlePostScore, "scores"))
	mux.HandleFunc("GET /scores/{userId}/{sessionId}", MetricsMiddleware(s.scoresHandler.HandleGetScore, "score"))
	mux.HandleFunc("DELETE /scores/{userId}/{sessionId}", MetricsMiddleware(s.scoresHandler.HandleDeleteScore, "score"))
	mux.HandleFunc("GET /scores/{userId}/{sessionId}/eligibility", MetricsMiddleware(s.scoresHandler.HandleEligibility, "eligibility"))

	mux.HandleFunc("GET /history/{userId}", MetricsMiddleware(s.historyHandler.HandleGetHistory, "history"))
	mux.HandleFunc("DELETE /history/{userId}", MetricsMiddleware(s.historyHandler.HandleResetHistory, "history"))

	mux.HandleFunc("POST /entitlements", MetricsMiddleware(s.entitlementHandler.HandlePostEntitlement, "entitlements"))
	mux.HandleFunc("POST /admin/sweep", MetricsMiddleware(s.sweepHandler.HandleSweep, "sweep"))
}

// validate reports request fields by their JSON names.
var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}()

// decodeAndValidate reads a JSON body into v and checks its struct tags.
func decodeAndValidate(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errors.New("invalid " + fe.Field() + ": failed " + fe.Tag())
		}
		return err
	}
	return nil
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

// writeDomainError maps repository and storage errors to status codes.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrInvalidID):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, repository.ErrAlreadyScored):
		writeError(w, http.StatusConflict, "already_scored", WrapKind(op, ErrConflict, err))
	case isUnavailable(err):
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// isUnavailable reports storage failures other than corrupt records.
func isUnavailable(err error) bool {
	if errors.Is(err, blobstore.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return errors.Is(err, repository.ErrStorage) && !errors.Is(err, blobstore.ErrMalformed)
}
