// SPDX-License-Identifier: MPL-2.0

package system

import (
	"errors"
	"os/exec"
)

// ExitCode extracts the process exit code from a command error chain.
// The second return is false when the error does not carry an exit status
// (e.g., the binary was not found or the command never started).
func ExitCode(err error) (int, bool) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), true
	}
	return 0, false
}
