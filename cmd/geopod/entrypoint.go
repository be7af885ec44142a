// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"geopod-cli/internal/config"
	"geopod-cli/internal/entrypoint"
	"geopod-cli/internal/system"

	"github.com/spf13/cobra"
)

// entrypointCmd is the container's process entry: start the server, or run
// the packaged test suite when invoked with the literal argument "test".
var entrypointCmd = &cobra.Command{
	Use:   "entrypoint [test]",
	Short: "Container entrypoint: start the server or run the test suite",
	Long: `Dispatch the container's single entry decision: with the argument
"test", run the packaged test suite; with any other argument or none,
start the WSGI server.

Runtime parameters are read once from the environment: SCRIPT_NAME,
CONTAINER_NAME, CONTAINER_HOST, CONTAINER_PORT, WSGI_WORKERS,
WSGI_WORKER_TIMEOUT, WSGI_WORKER_CLASS, PYGEOAPI_CONFIG.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := config.LoadRuntimeParameters()
		if err != nil {
			return err
		}

		logger := newLogger()
		dispatcher := entrypoint.NewDispatcher(params, logger)
		if err := dispatcher.Dispatch(cmd.Context(), args); err != nil {
			// Child exit codes (a failing test suite, a crashed server)
			// pass through as this process's own exit status.
			if code, ok := system.ExitCode(err); ok {
				return &ExitError{Code: code, Err: err}
			}
			return err
		}
		return nil
	},
}
