// Package handler wires staff correction endpoints to the override service.
// Every route here sits behind staff authentication.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"trapper/internal/domain"
	"trapper/internal/override"
	dErrors "trapper/pkg/domain-errors"
	"trapper/pkg/platform/httputil"
)

// Service defines the correction operations the transport needs.
type Service interface {
	MergePeople(ctx context.Context, loserID, survivorID uuid.UUID) (*override.MergeResult, error)
	ReclassifyPlace(ctx context.Context, placeID uuid.UUID, kind domain.PlaceKind) (*domain.Place, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts correction endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/people/{personID}/merge", h.HandleMerge)
	r.Post("/places/{placeID}/reclassify", h.HandleReclassify)
}

// MergeRequest names the surviving person for POST /people/{personID}/merge;
// the path ID is the loser.
type MergeRequest struct {
	SurvivorID string `json:"survivor_id"`
}

// ReclassifyRequest carries the new place kind.
type ReclassifyRequest struct {
	Kind string `json:"kind"`
}

// HandleMerge handles POST /people/{personID}/merge.
func (h *Handler) HandleMerge(w http.ResponseWriter, r *http.Request) {
	loserID, err := uuid.Parse(chi.URLParam(r, "personID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid person id"))
		return
	}
	req, ok := httputil.Decode[MergeRequest](w, r)
	if !ok {
		return
	}
	survivorID, err := uuid.Parse(req.SurvivorID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid survivor id"))
		return
	}

	result, err := h.service.MergePeople(r.Context(), loserID, survivorID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "merge failed",
			"loser_id", loserID, "survivor_id", survivorID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleReclassify handles POST /places/{placeID}/reclassify.
func (h *Handler) HandleReclassify(w http.ResponseWriter, r *http.Request) {
	placeID, err := uuid.Parse(chi.URLParam(r, "placeID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid place id"))
		return
	}
	req, ok := httputil.Decode[ReclassifyRequest](w, r)
	if !ok {
		return
	}

	place, err := h.service.ReclassifyPlace(r.Context(), placeID, domain.PlaceKind(req.Kind))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"id":   place.ID.String(),
		"kind": string(place.Kind),
	})
}
