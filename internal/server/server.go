package server

import (
	"context"
	"errors"
	"net"
	"net/http"

	"log/slog"

	"github.com/socialwatch/searchagent/internal/config"
	"github.com/socialwatch/searchagent/internal/metrics"
)

// Server wraps the HTTP server and related dependencies.
type Server struct {
	cfg     config.Config
	logger  *slog.Logger
	server  *http.Server
	mux     *http.ServeMux
	handler http.Handler
}

// New constructs a server with base routes and middleware wiring. A nil
// recorder disables request metrics and the /metrics route.
func New(cfg config.Config, logger *slog.Logger, recorder metrics.Recorder) *Server {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", recorder.Handler())
	}

	// Outermost first: CORS answers preflight before anything is logged or counted.
	handler := corsMiddleware(cfg.CORSOrigins,
		requestIDMiddleware(
			loggingMiddleware(logger,
				metricsMiddleware(recorder, mux))))

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	return &Server{
		cfg:     cfg,
		logger:  logger,
		server:  srv,
		mux:     mux,
		handler: handler,
	}
}

// Run starts the HTTP server and blocks until it exits or errors.
func (s *Server) Run() error {
	s.logger.Info("api server listening", "addr", s.server.Addr, "env", s.cfg.Env)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Serve accepts connections on l until the server is shut down.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("api server listening", "addr", l.Addr().String(), "env", s.cfg.Env)
	if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server within the provided context timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// Mux exposes the underlying mux for route registration by other packages.
func (s *Server) Mux() *http.ServeMux {
	return s.mux
}

// Handler returns the mux wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return s.handler
}
