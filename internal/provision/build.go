// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"geopod-cli/internal/config"
	"geopod-cli/internal/schema"
	"geopod-cli/internal/system"

	"github.com/charmbracelet/log"
)

// BuildPipeline assembles the standard provisioning pipeline for the given
// build parameters, in the fixed order the steps must run: locale →
// syspackages → pyenv → schemacache.
func BuildPipeline(params *config.BuildParameters, logger *log.Logger) *Pipeline {
	// Package tooling must never block on prompts during an image build.
	runner := system.NewRunner(system.WithEnv(map[string]string{
		"DEBIAN_FRONTEND": "noninteractive",
	}))

	return NewPipeline(logger,
		NewLocaleStep(runner, logger, params.Timezone, params.Locale),
		NewSysPackagesStep(runner, params.ExtraDebPackages),
		NewPyenvStep(runner, params.ExtraPipPackages),
		schema.NewFetcher(),
	)
}
