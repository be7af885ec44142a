// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"os"
	"slices"

	"geopod-cli/internal/system"
)

// baselineDebPackages is the fixed, non-overridable OS package set. Callers
// extend it through ADD_DEB_PACKAGES; they can never shrink it.
var baselineDebPackages = []string{
	"ca-certificates",
	"curl",
	"locales",
	"python3-pip",
	"python3-venv",
	"tzdata",
	"unzip",
}

type (
	// SysPackagesStepOption configures a SysPackagesStep.
	SysPackagesStepOption func(*SysPackagesStep)

	// SysPackagesStep refreshes the package index and installs the baseline
	// set plus caller-supplied extras in one transaction, then prunes
	// auto-installed leftovers and clears the index cache to shrink the
	// image. The prune is a size optimization, not a correctness step.
	SysPackagesStep struct {
		runner *system.Runner
		extras []string

		aptListsDir string
	}
)

// BaselineDebPackages returns a copy of the fixed baseline package set.
func BaselineDebPackages() []string {
	return slices.Clone(baselineDebPackages)
}

// MergePackageSets unions baseline and extra package lists, preserving order
// with first occurrence winning. Duplicates across the two lists are dropped
// rather than failing, so re-declaring a baseline package as an extra is a
// no-op. The baseline is never shrunk.
func MergePackageSets(baseline, extras []string) []string {
	merged := make([]string, 0, len(baseline)+len(extras))
	seen := make(map[string]bool, len(baseline)+len(extras))
	for _, pkg := range baseline {
		if !seen[pkg] {
			seen[pkg] = true
			merged = append(merged, pkg)
		}
	}
	for _, pkg := range extras {
		if !seen[pkg] {
			seen[pkg] = true
			merged = append(merged, pkg)
		}
	}
	return merged
}

// NewSysPackagesStep creates the system package installer step.
func NewSysPackagesStep(runner *system.Runner, extras []string, opts ...SysPackagesStepOption) *SysPackagesStep {
	s := &SysPackagesStep{
		runner:      runner,
		extras:      extras,
		aptListsDir: "/var/lib/apt/lists",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithAptListsDir overrides the package index cache directory.
func WithAptListsDir(dir string) SysPackagesStepOption {
	return func(s *SysPackagesStep) { s.aptListsDir = dir }
}

// Name implements Step.
func (s *SysPackagesStep) Name() string { return "syspackages" }

// Run refreshes the index, installs baseline ∪ extras, prunes and cleans.
// An empty extras list installs exactly the baseline; it is never an error.
func (s *SysPackagesStep) Run(ctx context.Context) error {
	if err := s.runner.Run(ctx, "apt-get", "update"); err != nil {
		return err
	}

	installArgs := []string{"install", "-y", "--no-install-recommends"}
	installArgs = append(installArgs, MergePackageSets(baselineDebPackages, s.extras)...)
	if err := s.runner.Run(ctx, "apt-get", installArgs...); err != nil {
		return err
	}

	// autoremove only drops auto-installed packages no longer depended on,
	// so explicitly requested baseline/extra packages are never removed.
	if err := s.runner.Run(ctx, "apt-get", "autoremove", "-y"); err != nil {
		return err
	}
	if err := s.runner.Run(ctx, "apt-get", "clean"); err != nil {
		return err
	}
	return s.clearIndexCache()
}

// clearIndexCache empties the apt lists directory while keeping the
// directory itself so later apt-get update calls still work.
func (s *SysPackagesStep) clearIndexCache() error {
	entries, err := os.ReadDir(s.aptListsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(s.aptListsDir + "/" + entry.Name()); err != nil {
			return err
		}
	}
	return nil
}
