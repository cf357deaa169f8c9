package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"edgepick/internal/i18n"
	"edgepick/internal/models"
	"edgepick/internal/prober"
	"edgepick/internal/session"
	"edgepick/internal/site"
	"edgepick/internal/storage"
)

// maxWait caps the ?wait long-poll on session lookups.
const maxWait = 30 * time.Second

// Scanner runs one full probe scan.
type Scanner interface {
	ProbeAll(ctx context.Context) []models.ProbeResult
}

// Handlers holds dependencies for the API handlers.
type Handlers struct {
	scanner  Scanner
	sessions *session.Manager
	store    storage.Storer
	recorder *storage.Recorder
	catalog  *site.Catalog
	log      *slog.Logger
}

// NewHandlers creates a new Handlers struct. store may be nil, which
// disables scan history.
func NewHandlers(d Deps) *Handlers {
	return &Handlers{
		scanner:  d.Scanner,
		sessions: d.Sessions,
		store:    d.Store,
		recorder: storage.NewRecorder(d.Store, d.Log),
		catalog:  d.Catalog,
		log:      d.Log,
	}
}

type probeResponse struct {
	Best    string               `json:"best"`
	Results []models.ProbeResult `json:"results"`
	Summary models.Summary       `json:"summary"`
}

// Probe runs a synchronous scan. If the client goes away mid-scan the
// results are dropped and nothing is written or recorded.
func (h *Handlers) Probe(w http.ResponseWriter, r *http.Request) {
	scan, ok := h.scan(r.Context())
	if !ok {
		return
	}
	JSONResponse(w, probeResponse{
		Best:    scan.Best,
		Results: scan.Results,
		Summary: prober.Summarize(scan.Results),
	}, http.StatusOK)
}

// Best runs a synchronous scan and returns only the chosen endpoint.
func (h *Handlers) Best(w http.ResponseWriter, r *http.Request) {
	scan, ok := h.scan(r.Context())
	if !ok {
		return
	}
	if scan.Best == "" {
		ErrorResponse(w, "no healthy endpoint", http.StatusServiceUnavailable)
		return
	}
	JSONResponse(w, map[string]string{"best": scan.Best}, http.StatusOK)
}

func (h *Handlers) scan(ctx context.Context) (models.Scan, bool) {
	started := time.Now().UTC()
	results := h.scanner.ProbeAll(ctx)
	if ctx.Err() != nil {
		h.log.Debug("client went away, dropping scan", "error", ctx.Err())
		return models.Scan{}, false
	}
	best, _ := prober.Best(results)
	scan := models.Scan{
		ID:         storage.NewID("scn_"),
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Best:       best,
		Results:    results,
	}
	h.recorder.Record(scan)
	return scan, true
}

type sessionResponse struct {
	session.Snapshot
	Tools []site.ToolLink `json:"tools"`
}

func (h *Handlers) sessionView(snap session.Snapshot, locale i18n.Locale) sessionResponse {
	return sessionResponse{
		Snapshot: snap,
		Tools:    h.catalog.ResolveTools(locale, selectionOf(snap)),
	}
}

func selectionOf(snap session.Snapshot) site.Selection {
	return site.Selection{
		Probing:  snap.State == session.StateProbing,
		Endpoint: snap.Best,
	}
}

func requestLocale(r *http.Request) i18n.Locale {
	return i18n.Match(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
}

// CreateSession starts a background scan and returns at once.
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Open()
	w.Header().Set("Location", "/v1/sessions/"+s.ID())
	JSONResponse(w, h.sessionView(s.Snapshot(), requestLocale(r)), http.StatusAccepted)
}

// GetSession returns a session. With ?wait=<duration> it blocks until the
// scan finishes or the wait elapses.
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		ErrorResponse(w, "session not found", http.StatusNotFound)
		return
	}

	if raw := r.URL.Query().Get("wait"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			ErrorResponse(w, "invalid wait duration", http.StatusBadRequest)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), min(d, maxWait))
		err = s.Wait(ctx)
		cancel()
		if err != nil && r.Context().Err() != nil {
			return
		}
	}

	JSONResponse(w, h.sessionView(s.Snapshot(), requestLocale(r)), http.StatusOK)
}

// CancelSession abandons a session. Results that arrive later are dropped.
func (h *Handlers) CancelSession(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Cancel(chi.URLParam(r, "id")) {
		ErrorResponse(w, "session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Page renders the localized landing page. Without a session the backend
// tools are shown as probing.
func (h *Handlers) Page(w http.ResponseWriter, r *http.Request) {
	sel := site.Selection{Probing: true}
	if id := r.URL.Query().Get("session"); id != "" {
		s, ok := h.sessions.Get(id)
		if !ok {
			ErrorResponse(w, "session not found", http.StatusNotFound)
			return
		}
		sel = selectionOf(s.Snapshot())
	}
	JSONResponse(w, h.catalog.Render(requestLocale(r), sel), http.StatusOK)
}

type listScansResponse struct {
	Items      []models.Scan `json:"items"`
	NextBefore string        `json:"next_before,omitempty"`
}

// ListScans pages through recorded scans, newest first.
func (h *Handlers) ListScans(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		ErrorResponse(w, "scan history disabled", http.StatusNotFound)
		return
	}

	q := r.URL.Query()
	params := storage.ListScansParams{Limit: storage.DefaultListLimit}
	if l := q.Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
			params.Limit = v
		}
	}
	if b := q.Get("before"); b != "" {
		t, err := time.Parse(time.RFC3339Nano, b)
		if err != nil {
			ErrorResponse(w, "invalid before timestamp", http.StatusBadRequest)
			return
		}
		params.Before = t.UTC()
	}

	items, err := h.store.ListScans(r.Context(), params)
	if err != nil {
		h.log.Error("list scans failed", "error", err)
		ErrorResponse(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := listScansResponse{Items: items}
	if resp.Items == nil {
		resp.Items = []models.Scan{}
	}
	if len(items) == params.Limit {
		resp.NextBefore = items[len(items)-1].StartedAt.UTC().Format(time.RFC3339Nano)
	}
	JSONResponse(w, resp, http.StatusOK)
}

// GetScan returns one recorded scan.
func (h *Handlers) GetScan(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		ErrorResponse(w, "scan history disabled", http.StatusNotFound)
		return
	}
	scan, err := h.store.GetScan(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrNotFound) {
		ErrorResponse(w, "scan not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("get scan failed", "error", err)
		ErrorResponse(w, "internal server error", http.StatusInternalServerError)
		return
	}
	JSONResponse(w, scan, http.StatusOK)
}

// Healthz reports liveness.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
