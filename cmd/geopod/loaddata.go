// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"geopod-cli/internal/dataset"

	"github.com/spf13/cobra"
)

// loaddataCmd seeds a local test database with the fixed SQL fixture list.
var loaddataCmd = &cobra.Command{
	Use:   "loaddata [user] [password] [dbname]",
	Short: "Load SQL test fixtures into a local Postgres database",
	Long: fmt.Sprintf(`Apply the fixture scripts in order against
postgresql://<user>:<password>@localhost:5432/<dbname>.

Positional defaults: user %q, password %q, dbname %q.

Scripts are not transactionally linked: a failure stops the remaining
scripts but leaves earlier scripts' effects committed. This loader seeds
ephemeral test databases, not production schemas.`,
		dataset.DefaultUser, dataset.DefaultPassword, dataset.DefaultDatabase),
	Args: cobra.MaximumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		spec := dataset.NewLoadSpec(args)

		loader := dataset.NewLoader(spec, logger)
		if err := loader.Load(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("fixtures loaded"))
		return nil
	},
}
