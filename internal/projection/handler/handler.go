// Package handler wires read-view endpoints to the projection service.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"trapper/internal/projection"
	dErrors "trapper/pkg/domain-errors"
	"trapper/pkg/platform/httputil"
)

// Service defines the read operations the transport needs.
type Service interface {
	PersonView(ctx context.Context, id uuid.UUID) (*projection.PersonView, error)
	PlaceView(ctx context.Context, id uuid.UUID) (*projection.PlaceView, error)
	CatView(ctx context.Context, id uuid.UUID) (*projection.CatView, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts read-view endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/people/{personID}", h.HandlePersonView)
	r.Get("/places/{placeID}", h.HandlePlaceView)
	r.Get("/cats/{catID}", h.HandleCatView)
}

// HandlePersonView handles GET /people/{personID}.
func (h *Handler) HandlePersonView(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "personID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid person id"))
		return
	}
	view, err := h.service.PersonView(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandlePlaceView handles GET /places/{placeID}.
func (h *Handler) HandlePlaceView(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "placeID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid place id"))
		return
	}
	view, err := h.service.PlaceView(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleCatView handles GET /cats/{catID}.
func (h *Handler) HandleCatView(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "catID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid cat id"))
		return
	}
	view, err := h.service.CatView(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}
