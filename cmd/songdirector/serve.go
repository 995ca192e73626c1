package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vango-dev/songdirector"
	"github.com/vango-dev/songdirector/internal/config"
)

type serveOptions struct {
	configDir string
	addr      string
	staticDir string
	logLevel  string
	logFormat string
	noMetrics bool
}

func serveCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the song director server",
		Long: `Start the HTTP and WebSocket server.

Settings are read in order from built-in defaults, songdirector.json in the
config directory, SONG_DIRECTOR_* environment variables, and flags.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().StringVarP(&opts.configDir, "config", "c", ".", "Directory containing songdirector.json")
	cmd.Flags().StringVarP(&opts.addr, "addr", "a", "", "Address to listen on (default 0.0.0.0:3000)")
	cmd.Flags().StringVar(&opts.staticDir, "static", "", "Directory of static assets (default public)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", "", "Log format: text or json")
	cmd.Flags().BoolVar(&opts.noMetrics, "no-metrics", false, "Disable the Prometheus endpoint")

	return cmd
}

// loadConfig layers flags that were set explicitly over the loaded config.
func loadConfig(cmd *cobra.Command, opts serveOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configDir)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Address = opts.addr
	}
	if flags.Changed("static") {
		cfg.StaticDir = opts.staticDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = opts.logFormat
	}
	if opts.noMetrics {
		cfg.MetricsPath = ""
	}
	return cfg, cfg.Validate()
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := songdirector.NewLogger(os.Stderr, cfg)

	app, err := songdirector.New(cfg, logger)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}
