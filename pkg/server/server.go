package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vango-dev/songdirector/pkg/control"
	"github.com/vango-dev/songdirector/pkg/render"
	"github.com/vango-dev/songdirector/pkg/section"
	"github.com/vango-dev/songdirector/pkg/watch"
)

// Server is the HTTP/WebSocket server for the song director.
type Server struct {
	config *ServerConfig

	// Shared state and its writer
	cell       *watch.Cell[section.State]
	controller *control.Controller

	renderer render.Renderer

	// Live viewers
	sessions *SessionManager

	metrics  *Metrics
	registry *prometheus.Registry
	static   *staticFiles

	handlerOnce sync.Once
	handler     http.Handler

	mu         sync.Mutex
	httpServer *http.Server

	logger *slog.Logger
}

// New creates a Server around cell. It fails when renderer lacks a view the
// server needs.
func New(config *ServerConfig, cell *watch.Cell[section.State], renderer render.Renderer) (*Server, error) {
	if config == nil {
		config = DefaultServerConfig()
	} else {
		clone := *config
		config = &clone
	}
	config.fillDefaults()

	if cell == nil {
		return nil, errors.New("server: nil state cell")
	}
	if renderer == nil {
		return nil, errors.New("server: nil renderer")
	}
	if err := render.Require(renderer, render.RequiredViews...); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	registry := config.MetricsRegistry
	if registry == nil {
		registry = newRegistry()
	}
	metrics := NewMetrics(registry)
	logger := config.Logger.With("component", "server")

	upgrader := websocket.Upgrader{
		ReadBufferSize:  config.ReadBufferSize,
		WriteBufferSize: config.WriteBufferSize,
		CheckOrigin:     config.CheckOrigin,
	}

	return &Server{
		config:     config,
		cell:       cell,
		controller: control.New(cell, metrics, config.Logger.With("component", "control")),
		renderer:   renderer,
		sessions:   NewSessionManager(cell, renderer, config.SessionConfig, upgrader, metrics, config.Logger.With("component", "session")),
		metrics:    metrics,
		registry:   registry,
		static:     newStaticFiles(config.StaticDir, config.Assets),
		logger:     logger,
	}, nil
}

// Handler returns the HTTP handler with every route mounted.
func (s *Server) Handler() http.Handler {
	s.handlerOnce.Do(func() {
		s.handler = s.routes()
	})
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(tracing(defaultTracerName))
	r.Use(requestLogger(s.logger, s.metrics))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleController)
	r.Get("/view", s.handleViewer)
	r.Put("/section/type", s.handleSetType)
	r.Put("/section/number", s.handleSetNumber)
	r.Delete("/section", s.handleClear)
	r.Get("/section", s.sessions.ServeHTTP)
	r.Get("/healthz", s.handleHealth)

	if s.config.MetricsPath != "" {
		r.Method(http.MethodGet, s.config.MetricsPath, metricsHandler(s.registry))
	}

	r.NotFound(s.static.ServeHTTP)
	return r
}

// Controller returns the controller that mutates the shared state.
func (s *Server) Controller() *control.Controller {
	return s.controller
}

// Sessions returns the session manager.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Metrics returns the server metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Registry returns the Prometheus registry the server reports to.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// ListenAndServe listens on the configured address and serves until ctx is
// done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.config.Address, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.mu.Lock()
	s.httpServer = httpServer
	s.mu.Unlock()

	s.logger.Info("song director listening", "addr", "http://"+ln.Addr().String())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops accepting requests, closes every viewer session with a
// going-away close frame, and waits for both until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down", "sessions", s.sessions.Count())

	var errs []error
	s.mu.Lock()
	httpServer := s.httpServer
	s.mu.Unlock()
	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.sessions.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
