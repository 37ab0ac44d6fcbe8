// Package handler exposes blacklist management to coordinators.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"trapper/internal/blacklist"
	dErrors "trapper/pkg/domain-errors"
	"trapper/pkg/platform/httputil"
	"trapper/pkg/requestcontext"
)

// Service defines the blacklist operations the transport needs.
type Service interface {
	Add(ctx context.Context, entry *blacklist.Entry) error
	All(ctx context.Context) ([]*blacklist.Entry, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts blacklist endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/blacklist", h.HandleList)
	r.Post("/blacklist", h.HandleAdd)
}

// EntryRequest is the wire form of a new blacklist entry.
type EntryRequest struct {
	Type               string  `json:"type"`
	Value              string  `json:"value"`
	Kind               string  `json:"kind"`
	RequiredSimilarity float64 `json:"required_similarity"`
	Note               string  `json:"note"`
}

// EntryResponse is the wire form of a stored entry.
type EntryResponse struct {
	ID                 string    `json:"id"`
	Type               string    `json:"type"`
	Value              string    `json:"value"`
	Kind               string    `json:"kind"`
	RequiredSimilarity float64   `json:"required_similarity"`
	Note               string    `json:"note,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// HandleList handles GET /blacklist.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.All(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]EntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, EntryResponse{
			ID:                 entry.ID.String(),
			Type:               string(entry.Type),
			Value:              entry.Value,
			Kind:               string(entry.Kind),
			RequiredSimilarity: entry.RequiredSimilarity,
			Note:               entry.Note,
			CreatedAt:          entry.CreatedAt,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleAdd handles POST /blacklist.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[EntryRequest](w, r)
	if !ok {
		return
	}

	kind := blacklist.EntryKind(req.Kind)
	if kind != blacklist.KindShared && kind != blacklist.KindOrganizational {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "kind must be shared or organizational"))
		return
	}
	valueType := blacklist.ValueType(req.Type)
	if valueType != blacklist.ValueEmail && valueType != blacklist.ValuePhone && valueType != blacklist.ValuePlace {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "type must be email, phone, or place"))
		return
	}

	entry := &blacklist.Entry{
		ID:                 uuid.New(),
		Type:               valueType,
		Value:              req.Value,
		Kind:               kind,
		RequiredSimilarity: req.RequiredSimilarity,
		Note:               req.Note,
		CreatedAt:          requestcontext.Now(r.Context()),
	}
	if err := h.service.Add(r.Context(), entry); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, err.Error()))
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"id": entry.ID.String()})
}
