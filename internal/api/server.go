package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"edgepick/internal/logger"
)

// Server wraps the http.Server to provide graceful shutdown.
type Server struct {
	httpServer *http.Server
	log        *slog.Logger
}

// NewServer creates and configures a new API server.
func NewServer(port string, d Deps) *Server {
	if d.Log == nil {
		d.Log = logger.Discard()
	}
	router := NewRouter(d)
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: d.Log,
	}
}

// Start runs the HTTP server in a new goroutine. A listen failure is
// reported on the returned channel.
func (s *Server) Start() <-chan error {
	errc := make(chan error, 1)
	s.log.Info("starting HTTP server", "addr", s.httpServer.Addr)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()
	return errc
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
