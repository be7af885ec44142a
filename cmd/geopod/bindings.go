// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"geopod-cli/internal/bindings"
	"geopod-cli/internal/system"

	"github.com/spf13/cobra"
)

// bindingsCmd installs the GDAL native library and version-matched bindings.
var bindingsCmd = &cobra.Command{
	Use:   "bindings",
	Short: "Install the GDAL native library and version-matched Python bindings",
	Long: `Register the ` + bindings.Repository + ` repository, install the GDAL
native library and its development headers, then install Python bindings
pinned to exactly the version the installed library reports.

The binding version is queried from gdal-config at install time, never
hardcoded, so bindings cannot skew against the native ABI. Requires root.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger()
		runner := system.NewRunner(system.WithEnv(map[string]string{
			"DEBIAN_FRONTEND": "noninteractive",
		}))

		installer := bindings.NewInstaller(runner, logger)
		if err := installer.Install(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("bindings installed"))
		return nil
	},
}
