// logq - asynchronous level-filtered logging
//
// This is the entry point for the logq command. It runs the logger as a
// service (stdin forwarding, remote level control, admin API and live tail)
// and edits stored module levels offline.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newApp(os.Stdin, os.Stdout).Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newApp builds the command tree. in and out replace stdin and stdout so
// commands can be driven from tests.
func newApp(in io.Reader, out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "logq",
		Usage: "Asynchronous level-filtered logging service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Configuration file path (empty for built-in defaults)",
				Value:   getConfigPath(),
			},
		},
		Commands: []*cli.Command{
			serveCommand(in),
			levelsCommand(out),
			dbCommand(out),
			tokenCommand(out),
			versionCommand(out),
		},
	}
}

// getConfigPath returns the configuration file path.
// Uses LOGQ_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path, ok := os.LookupEnv("LOGQ_CONFIG"); ok {
		return path
	}
	return defaultConfigPath
}

func versionCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(_ context.Context, _ *cli.Command) error {
			_, err := fmt.Fprintf(out, "logq %s (commit %s, built %s)\n", version, commit, date)
			return err
		},
	}
}
