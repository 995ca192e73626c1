// Package songdirector wires the song director together: configuration, the
// shared section state, the views and the HTTP/WebSocket server.
//
// A performer drives the controller page (GET /) to pick the current song
// section; every open viewer page (GET /view) follows along live:
//
//	cfg, err := config.Load(".")
//	app, err := songdirector.New(cfg, songdirector.NewLogger(os.Stderr, cfg))
//	err = app.Run(ctx)
package songdirector

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/vango-dev/songdirector/client"
	"github.com/vango-dev/songdirector/internal/config"
	"github.com/vango-dev/songdirector/internal/errors"
	"github.com/vango-dev/songdirector/pkg/render"
	"github.com/vango-dev/songdirector/pkg/section"
	"github.com/vango-dev/songdirector/pkg/server"
	"github.com/vango-dev/songdirector/pkg/watch"
)

// App is a configured song director ready to serve.
type App struct {
	config *config.Config
	cell   *watch.Cell[section.State]
	views  *render.Views
	server *server.Server
	logger *slog.Logger
}

// New validates cfg and builds the application. The returned errors are
// *errors.Error values suitable for Format.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		cfg = config.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cell := watch.New(section.State{})
	views := render.NewViews(render.DefaultOptions())

	session := server.DefaultSessionConfig()
	session.WriteTimeout = cfg.WriteTimeout.Std()
	session.PingInterval = cfg.PingInterval.Std()
	session.PongWait = 0

	srv, err := server.New(&server.ServerConfig{
		Address:         cfg.Address,
		AllowedOrigins:  cfg.AllowedOrigins,
		SessionConfig:   session,
		ShutdownTimeout: cfg.ShutdownTimeout.Std(),
		StaticDir:       cfg.StaticDir,
		Assets:          client.FS(),
		MetricsPath:     cfg.MetricsPath,
		Logger:          logger,
	}, cell, views)
	if err != nil {
		return nil, errors.New("S001").Wrap(err)
	}

	return &App{
		config: cfg,
		cell:   cell,
		views:  views,
		server: srv,
		logger: logger.With("component", "app"),
	}, nil
}

// Handler returns the HTTP handler serving every route.
func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

// Server returns the underlying server.
func (a *App) Server() *server.Server {
	return a.server
}

// Cell returns the shared section state.
func (a *App) Cell() *watch.Cell[section.State] {
	return a.cell
}

// Views returns the view set, so callers can replace a view before Run.
func (a *App) Views() *render.Views {
	return a.views
}

// Run listens on the configured address and serves until ctx is done.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.config.Address)
	if err != nil {
		return errors.New("S002").
			WithDetail("Could not listen on " + a.config.Address).
			Wrap(err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down and closes the
// section state.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	if path := a.config.Path(); path != "" {
		a.logger.Info("loaded configuration", "path", path)
	}

	err := a.server.Serve(ctx, ln)
	a.cell.Close()

	switch {
	case err == nil:
		a.logger.Info("stopped")
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return errors.New("S003").Wrap(err)
	default:
		return errors.New("S002").Wrap(err)
	}
}

// NewLogger returns a slog logger writing text or JSON to w at the
// configured level.
func NewLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.JSONLogs() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
