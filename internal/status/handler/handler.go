// Package handler wires test-result and status endpoints to the status
// module.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"trapper/internal/domain"
	"trapper/internal/status"
	dErrors "trapper/pkg/domain-errors"
	"trapper/pkg/platform/httputil"
)

// Service defines the status operations the transport needs.
type Service interface {
	RecordResult(ctx context.Context, input status.ResultInput) ([]*domain.TestResult, error)
	Override(ctx context.Context, placeID uuid.UUID, condition domain.Condition, state domain.StatusState) (*domain.PlaceStatus, error)
	StatusesForPlace(ctx context.Context, placeID uuid.UUID) ([]*domain.PlaceStatus, error)
}

// Propagator runs a full recomputation pass.
type Propagator interface {
	Run(ctx context.Context) (status.Stats, error)
}

type Handler struct {
	service    Service
	propagator Propagator
	logger     *slog.Logger
}

func New(service Service, propagator Propagator, logger *slog.Logger) *Handler {
	return &Handler{service: service, propagator: propagator, logger: logger}
}

// Register mounts public status endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/test-results", h.HandleRecordResult)
	r.Get("/places/{placeID}/statuses", h.HandleListStatuses)
}

// RegisterStaff mounts staff-only status endpoints on the router.
func (h *Handler) RegisterStaff(r chi.Router) {
	r.Post("/status/recompute", h.HandleRecompute)
	r.Post("/places/{placeID}/conditions/{condition}/override", h.HandleOverride)
}

// HandleRecordResult handles POST /test-results from ingestion adapters.
func (h *Handler) HandleRecordResult(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[RecordResultRequest](w, r)
	if !ok {
		return
	}

	catID, err := uuid.Parse(req.CatID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid cat id"))
		return
	}

	results, err := h.service.RecordResult(r.Context(), status.ResultInput{
		CatID:        catID,
		TestType:     req.TestType,
		ResultRaw:    req.Result,
		SourceSystem: req.SourceSystem,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResultsResponse(results))
}

// HandleListStatuses handles GET /places/{placeID}/statuses.
func (h *Handler) HandleListStatuses(w http.ResponseWriter, r *http.Request) {
	placeID, err := uuid.Parse(chi.URLParam(r, "placeID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid place id"))
		return
	}

	statuses, err := h.service.StatusesForPlace(r.Context(), placeID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStatusesResponse(statuses))
}

// HandleRecompute handles POST /status/recompute.
func (h *Handler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	stats, err := h.propagator.Run(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "propagator run failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// HandleOverride handles POST /places/{placeID}/conditions/{condition}/override.
func (h *Handler) HandleOverride(w http.ResponseWriter, r *http.Request) {
	placeID, err := uuid.Parse(chi.URLParam(r, "placeID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid place id"))
		return
	}
	condition := domain.Condition(chi.URLParam(r, "condition"))
	if condition != domain.ConditionFIV && condition != domain.ConditionFeLV {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown condition"))
		return
	}

	req, ok := httputil.Decode[OverrideRequest](w, r)
	if !ok {
		return
	}

	result, err := h.service.Override(r.Context(), placeID, condition, domain.StatusState(req.State))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStatusResponse(result))
}
