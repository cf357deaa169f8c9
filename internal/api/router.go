package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"edgepick/internal/logger"
	"edgepick/internal/session"
	"edgepick/internal/site"
	"edgepick/internal/storage"
)

// Deps are the collaborators the API serves.
type Deps struct {
	Scanner  Scanner
	Sessions *session.Manager
	Store    storage.Storer // nil disables scan history
	Catalog  *site.Catalog
	Metrics  http.Handler // nil disables /metrics
	Log      *slog.Logger
}

// NewRouter creates a chi router and registers the API handlers.
func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = logger.Discard()
	}
	if d.Catalog == nil {
		d.Catalog = site.Default()
	}
	h := NewHandlers(d)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(d.Log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Healthz)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/probe", h.Probe)
		r.Get("/best", h.Best)
		r.Get("/page", h.Page)

		r.Post("/sessions", h.CreateSession)
		r.Get("/sessions/{id}", h.GetSession)
		r.Delete("/sessions/{id}", h.CancelSession)

		r.Get("/scans", h.ListScans)
		r.Get("/scans/{id}", h.GetScan)
	})

	return r
}
