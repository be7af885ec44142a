// SPDX-License-Identifier: MPL-2.0

// Package bindings installs the GDAL native geospatial library from an
// external package repository and its Python bindings pinned to exactly the
// installed native version, so the bindings can never skew against the
// library ABI.
package bindings

import (
	"context"
	"errors"
	"fmt"
	"os"

	"geopod-cli/internal/system"

	"github.com/charmbracelet/log"
)

// Repository is the external apt repository providing a newer GDAL than the
// OS default.
const Repository = "ppa:ubuntugis/ppa"

// nativePackages are the native library and its development headers. The
// headers are required to compile the Python bindings.
var nativePackages = []string{"gdal-bin", "libgdal-dev"}

var (
	// ErrEmptyVersion is the sentinel error wrapped by EmptyVersionError.
	ErrEmptyVersion = errors.New("native library reported empty version")

	// ErrNotRoot is returned when the installer runs without elevated
	// privilege. Repository registration and package installation both
	// require it.
	ErrNotRoot = errors.New("bindings installer requires elevated privilege")
)

type (
	// InstallerOption configures an Installer.
	InstallerOption func(*Installer)

	// Installer drives the native library and bindings installation. The
	// bindings version is never hardcoded: it is queried from the installed
	// native library at install time and passed literally to pip.
	Installer struct {
		runner *system.Runner
		logger *log.Logger

		// euid is overridable for tests; defaults to os.Geteuid.
		euid func() int
	}

	// EmptyVersionError is returned when the native library's version query
	// produces no output, which would otherwise install unpinned bindings.
	EmptyVersionError struct {
		Command string
	}
)

// Error implements the error interface.
func (e *EmptyVersionError) Error() string {
	return fmt.Sprintf("%s returned no version string", e.Command)
}

// Unwrap returns ErrEmptyVersion for errors.Is compatibility.
func (e *EmptyVersionError) Unwrap() error { return ErrEmptyVersion }

// NewInstaller creates an Installer with production defaults.
func NewInstaller(runner *system.Runner, logger *log.Logger, opts ...InstallerOption) *Installer {
	if logger == nil {
		logger = log.Default()
	}
	inst := &Installer{
		runner: runner,
		logger: logger,
		euid:   os.Geteuid,
	}
	for _, opt := range opts {
		opt(inst)
	}
	return inst
}

// WithEUIDFunc overrides the effective-UID lookup for tests.
func WithEUIDFunc(fn func() int) InstallerOption {
	return func(i *Installer) { i.euid = fn }
}

// Install registers the repository, installs the native library and headers,
// queries the installed native version, and installs bindings pinned to that
// exact version. Every failure is fatal; there are no retries.
func (i *Installer) Install(ctx context.Context) error {
	if i.euid() != 0 {
		return ErrNotRoot
	}

	if err := i.runner.Run(ctx, "add-apt-repository", "-y", Repository); err != nil {
		return err
	}
	if err := i.runner.Run(ctx, "apt-get", "update"); err != nil {
		return err
	}

	installArgs := append([]string{"install", "-y"}, nativePackages...)
	if err := i.runner.Run(ctx, "apt-get", installArgs...); err != nil {
		return err
	}

	version, err := i.NativeVersion(ctx)
	if err != nil {
		return err
	}

	i.logger.Info("installing bindings pinned to native library", "version", version)
	return i.runner.Run(ctx, "pip3", "install", "GDAL=="+version)
}

// NativeVersion queries the installed native library for its version string.
// Empty output is fatal: installing unpinned bindings risks ABI skew.
func (i *Installer) NativeVersion(ctx context.Context) (string, error) {
	version, err := i.runner.Output(ctx, "gdal-config", "--version")
	if err != nil {
		return "", err
	}
	if version == "" {
		return "", &EmptyVersionError{Command: "gdal-config --version"}
	}
	return version, nil
}
