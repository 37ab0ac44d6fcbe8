// Package handler wires the geocode worker contract to HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"trapper/internal/geocode"
	dErrors "trapper/pkg/domain-errors"
	"trapper/pkg/platform/httputil"
)

// Service defines the queue operations the transport needs.
type Service interface {
	Enqueue(ctx context.Context, placeID uuid.UUID, rawAddress string) (*geocode.Job, error)
	Claim(ctx context.Context, workerID string, limit int) ([]*geocode.Job, error)
	RecordSuccess(ctx context.Context, jobID uuid.UUID, workerID string, result geocode.Result) error
	RecordFailure(ctx context.Context, jobID uuid.UUID, workerID, cause string) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts geocode queue endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/geocode/enqueue", h.HandleEnqueue)
	r.Post("/geocode/claim", h.HandleClaim)
	r.Post("/geocode/jobs/{jobID}/result", h.HandleResult)
}

// EnqueueRequest queues a place address for geocoding.
type EnqueueRequest struct {
	PlaceID string `json:"place_id"`
	Address string `json:"address"`
}

// ClaimRequest asks for a batch of work.
type ClaimRequest struct {
	WorkerID string `json:"worker_id"`
	Limit    int    `json:"limit"`
}

// ResultRequest reports one job's outcome. Failed results carry a cause and
// no coordinates.
type ResultRequest struct {
	WorkerID  string   `json:"worker_id"`
	Success   bool     `json:"success"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Cause     string   `json:"cause,omitempty"`
}

// JobResponse is the wire form of a claimed job.
type JobResponse struct {
	ID             string    `json:"id"`
	PlaceID        string    `json:"place_id"`
	Address        string    `json:"address"`
	Attempts       int       `json:"attempts"`
	NextEligibleAt time.Time `json:"next_eligible_at"`
}

func toJobResponse(job *geocode.Job) JobResponse {
	return JobResponse{
		ID:             job.ID.String(),
		PlaceID:        job.PlaceID.String(),
		Address:        job.AddressNormalized,
		Attempts:       job.Attempts,
		NextEligibleAt: job.NextEligibleAt,
	}
}

// HandleEnqueue handles POST /geocode/enqueue.
func (h *Handler) HandleEnqueue(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[EnqueueRequest](w, r)
	if !ok {
		return
	}
	placeID, err := uuid.Parse(req.PlaceID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid place id"))
		return
	}

	job, err := h.service.Enqueue(r.Context(), placeID, req.Address)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, toJobResponse(job))
}

// HandleClaim handles POST /geocode/claim.
func (h *Handler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[ClaimRequest](w, r)
	if !ok {
		return
	}

	jobs, err := h.service.Claim(r.Context(), req.WorkerID, req.Limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, toJobResponse(job))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleResult handles POST /geocode/jobs/{jobID}/result.
func (h *Handler) HandleResult(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid job id"))
		return
	}
	req, ok := httputil.Decode[ResultRequest](w, r)
	if !ok {
		return
	}

	if req.Success {
		if req.Latitude == nil || req.Longitude == nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "successful result requires coordinates"))
			return
		}
		err = h.service.RecordSuccess(r.Context(), jobID, req.WorkerID, geocode.Result{
			Latitude:  *req.Latitude,
			Longitude: *req.Longitude,
		})
	} else {
		err = h.service.RecordFailure(r.Context(), jobID, req.WorkerID, req.Cause)
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}
