// Package handler wires resolution endpoints to the resolve service.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"trapper/internal/resolve"
	dErrors "trapper/pkg/domain-errors"
	"trapper/pkg/platform/httputil"
)

// Service defines the resolution operations the transport needs.
type Service interface {
	Resolve(ctx context.Context, req resolve.Request) (*resolve.Result, error)
	AttachReview(ctx context.Context, decisionID uuid.UUID, confirmed bool) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the ingestion endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/resolve", h.HandleResolve)
}

// RegisterStaff mounts the review endpoint, which needs an authenticated
// actor.
func (h *Handler) RegisterStaff(r chi.Router) {
	r.Post("/decisions/{decisionID}/review", h.HandleReview)
}

// HandleResolve handles POST /resolve from ingestion adapters.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[ResolveRequest](w, r)
	if !ok {
		return
	}

	result, err := h.service.Resolve(r.Context(), req.toDomain())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "resolution failed",
			"source_system", req.SourceSystem,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toResolveResponse(result))
}

// HandleReview handles POST /decisions/{decisionID}/review.
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	decisionID, err := uuid.Parse(chi.URLParam(r, "decisionID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid decision id"))
		return
	}

	req, ok := httputil.Decode[ReviewRequest](w, r)
	if !ok {
		return
	}

	if err := h.service.AttachReview(r.Context(), decisionID, req.Confirmed); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}
