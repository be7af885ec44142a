// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"geopod-cli/internal/config"
	"geopod-cli/internal/provision"

	"github.com/spf13/cobra"
)

var (
	// dockerfileOutput is the --output flag for the dockerfile subcommand.
	dockerfileOutput string

	// provisionCmd runs the full image provisioning pipeline in place.
	provisionCmd = &cobra.Command{
		Use:   "provision",
		Short: "Run the image provisioning pipeline",
		Long: `Run the provisioning sequence inside an image build: locale and
timezone configuration, system package installation, Python environment
construction, and schema cache fetching.

Steps run strictly in order and the first failure aborts the build.
Build parameters come from the environment: TIMEZONE, LOCALE,
ADD_DEB_PACKAGES, ADD_PIP_PACKAGES.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := config.LoadBuildParameters()
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("provisioning failed"))
				return err
			}

			logger := newLogger()
			pipeline := provision.BuildPipeline(params, logger)
			if err := pipeline.Run(cmd.Context()); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("provisioning failed"))
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("provisioning complete"))
			return nil
		},
	}

	// provisionDockerfileCmd renders the equivalent build recipe instead of
	// executing it, so the same parameters drive both paths.
	provisionDockerfileCmd = &cobra.Command{
		Use:   "dockerfile",
		Short: "Render the equivalent Dockerfile for the configured parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := config.LoadBuildParameters()
			if err != nil {
				return err
			}

			rendered := provision.RenderDockerfile(params)
			if dockerfileOutput == "" {
				fmt.Fprint(cmd.OutOrStdout(), rendered)
				return nil
			}
			if err := os.WriteFile(dockerfileOutput, []byte(rendered), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", dockerfileOutput, err)
			}
			return nil
		},
	}
)

func init() {
	provisionDockerfileCmd.Flags().StringVarP(&dockerfileOutput, "output", "o", "", "write the Dockerfile to a file instead of stdout")
	provisionCmd.AddCommand(provisionDockerfileCmd)
}
