// SPDX-License-Identifier: MPL-2.0

package main

import cmd "geopod-cli/cmd/geopod"

func main() {
	cmd.Execute()
}
