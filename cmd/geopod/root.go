// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for geopod.
package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug-level logging
	verbose bool

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "geopod",
		Short: "Container provisioning and entrypoint tooling for pygeoapi images",
		Long: TitleStyle.Render("geopod") + SubtitleStyle.Render(" - provisioning and entrypoint tooling for pygeoapi containers") + `

geopod replaces the inline shell of a container build recipe with an
explicit, fail-fast provisioning program: locale and timezone setup,
system package installation, Python environment construction, and
schema cache fetching run as one ordered pipeline.

` + SubtitleStyle.Render("Examples:") + `
  geopod provision              Run the full provisioning pipeline
  geopod provision dockerfile   Render the equivalent Dockerfile
  geopod bindings               Install GDAL and version-matched bindings
  geopod loaddata user pw db    Seed a test database with SQL fixtures
  geopod entrypoint             Start the server (or 'test' for the suite)`,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(bindingsCmd)
	rootCmd.AddCommand(loaddataCmd)
	rootCmd.AddCommand(entrypointCmd)
}

// newLogger builds the shared logger, honoring the --verbose flag.
func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "geopod",
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return Version + " (commit: " + Commit + ", built: " + BuildDate + ")"
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
