// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"strings"
	"testing"

	"geopod-cli/internal/config"
)

func TestRenderDockerfileContainsPipelineEquivalents(t *testing.T) {
	params := &config.BuildParameters{
		Timezone:         "Europe/London",
		Locale:           "en_US.UTF-8",
		ExtraDebPackages: []string{"curl", "jq"},
		ExtraPipPackages: []string{"shapely"},
	}

	rendered := RenderDockerfile(params)

	wantFragments := []string{
		"FROM " + BaseImage,
		`ARG TIMEZONE="Europe/London"`,
		`ARG ADD_DEB_PACKAGES="curl jq"`,
		"locale-gen",
		"apt-get install -y --no-install-recommends",
		"python3 -m venv --system-site-packages /venv",
		"poetry==" + PoetryVersion,
		"poetry check --lock",
		"poetry install --no-root --no-interaction",
		"COPY . /pygeoapi",
		`ENTRYPOINT ["geopod", "entrypoint"]`,
	}
	for _, fragment := range wantFragments {
		if !strings.Contains(rendered, fragment) {
			t.Errorf("rendered recipe missing %q:\n%s", fragment, rendered)
		}
	}

	// Every baseline package plus every extra must appear in the install line.
	for _, pkg := range MergePackageSets(BaselineDebPackages(), params.ExtraDebPackages) {
		if !strings.Contains(rendered, pkg) {
			t.Errorf("package %q missing from rendered recipe", pkg)
		}
	}
}

func TestRenderDockerfileTwoPassInstall(t *testing.T) {
	params := &config.BuildParameters{Timezone: "Europe/London", Locale: "en_US.UTF-8"}
	rendered := RenderDockerfile(params)

	prime := strings.Index(rendered, "poetry install --no-root")
	copySource := strings.Index(rendered, "COPY . /pygeoapi")
	register := strings.LastIndex(rendered, "poetry install --no-interaction")

	if prime == -1 || copySource == -1 || register == -1 {
		t.Fatalf("rendered recipe missing two-pass structure:\n%s", rendered)
	}
	if !(prime < copySource && copySource < register) {
		t.Errorf("install passes out of order: prime=%d copy=%d register=%d", prime, copySource, register)
	}
}

func TestRenderDockerfileStepOrder(t *testing.T) {
	params := &config.BuildParameters{Timezone: "Europe/London", Locale: "en_US.UTF-8"}
	rendered := RenderDockerfile(params)

	locale := strings.Index(rendered, "locale-gen")
	packages := strings.Index(rendered, "apt-get update")
	pyenv := strings.Index(rendered, "python3 -m venv")
	schemas := strings.Index(rendered, "SCHEMAS_OPENGIS_NET.zip")

	if !(locale < packages && packages < pyenv && pyenv < schemas) {
		t.Errorf("layer order does not match the provisioning sequence: locale=%d packages=%d pyenv=%d schemas=%d",
			locale, packages, pyenv, schemas)
	}
}
