// SPDX-License-Identifier: MPL-2.0

// Package provision implements the image-build provisioning sequence as an
// explicit pipeline of steps: locale/timezone configuration, system package
// installation, Python environment construction, and schema cache fetching.
//
// The sequence is fully sequential and fail-fast. Ordering is total because
// later steps depend on filesystem and package state left by earlier ones
// (the Python environment's system-site-packages visibility, for example,
// only matters once OS-level bindings are installed). A failed step aborts
// the entire build; there are no retries and no partial recovery.
package provision
