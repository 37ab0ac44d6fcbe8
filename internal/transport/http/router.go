// Package http assembles the chi router from the module handlers. Ingestion
// and read endpoints are open to the adapters on the internal network; staff
// corrections sit behind token auth.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trapper/pkg/platform/middleware/auth"
	"trapper/pkg/platform/middleware/requestmeta"
)

// Registrar mounts a handler group onto a router.
type Registrar interface {
	Register(r chi.Router)
}

// StaffRegistrar mounts a staff-only handler group.
type StaffRegistrar interface {
	RegisterStaff(r chi.Router)
}

// Deps collects everything the router mounts. Nil entries are skipped so
// partial wirings (tests, batch-only deployments) stay possible.
type Deps struct {
	Resolve    Registrar
	ResolveOps StaffRegistrar
	Projection Registrar
	Status     Registrar
	StatusOps  StaffRegistrar
	Graph      Registrar
	Override   Registrar
	Blacklist  Registrar
	Geocode    Registrar

	Validator *auth.Validator
	Logger    *slog.Logger
	Health    http.HandlerFunc
}

// New builds the full router.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestmeta.Middleware)

	r.Get("/healthz", deps.health())
	r.Handle("/metrics", promhttp.Handler())

	// Ingestion and read surface.
	r.Group(func(r chi.Router) {
		mount(r, deps.Resolve)
		mount(r, deps.Projection)
		mount(r, deps.Status)
		mount(r, deps.Geocode)
	})

	// Staff surface.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireStaff(deps.Validator, deps.Logger))
		mount(r, deps.Override)
		mount(r, deps.Blacklist)
		mount(r, deps.Graph)
		if deps.StatusOps != nil {
			deps.StatusOps.RegisterStaff(r)
		}
		if deps.ResolveOps != nil {
			deps.ResolveOps.RegisterStaff(r)
		}
	})

	return r
}

func mount(r chi.Router, registrar Registrar) {
	if registrar != nil {
		registrar.Register(r)
	}
}

func (d Deps) health() http.HandlerFunc {
	if d.Health != nil {
		return d.Health
	}
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
