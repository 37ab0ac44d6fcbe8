// Package handler exposes the linker batch pass over HTTP for coordinators.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trapper/internal/graph"
	"trapper/pkg/platform/httputil"
)

// Linker runs a full linking pass.
type Linker interface {
	Run(ctx context.Context) (graph.Stats, error)
}

type Handler struct {
	linker Linker
	logger *slog.Logger
}

func New(linker Linker, logger *slog.Logger) *Handler {
	return &Handler{linker: linker, logger: logger}
}

// Register mounts linker endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/graph/relink", h.HandleRelink)
}

// HandleRelink handles POST /graph/relink.
func (h *Handler) HandleRelink(w http.ResponseWriter, r *http.Request) {
	stats, err := h.linker.Run(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "linker run failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}
