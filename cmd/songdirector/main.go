package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/vango-dev/songdirector/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "songdirector",
		Short: "Show the current song section to the whole band",
		Long: `Song director serves a controller page where one performer picks the
current song section (verse, chorus, bridge...) and a viewer page that
every other screen on stage follows live over a WebSocket.

Examples:
  songdirector serve
  songdirector serve --addr 127.0.0.1:8080 --log-level debug`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)
	return rootCmd
}

// printError prints structured errors with their hint and everything else on
// one line.
func printError(err error) {
	var e *errors.Error
	if !errors.As(err, &e) {
		e = &errors.Error{Message: err.Error()}
	}
	e.Fprint(os.Stderr)
}
