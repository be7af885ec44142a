// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"fmt"
	"strings"

	"geopod-cli/internal/config"
	"geopod-cli/internal/schema"
)

// BaseImage is the OS base the rendered recipe starts from.
const BaseImage = "ubuntu:jammy"

// RenderDockerfile renders the container build recipe equivalent to the
// provisioning pipeline for the given build parameters. The same constants
// drive both paths (baseline package set, pinned dependency manager version,
// schema archive), so the recipe cannot drift from the in-place pipeline.
func RenderDockerfile(params *config.BuildParameters) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "FROM %s\n\n", BaseImage)

	fmt.Fprintf(&sb, "ARG TIMEZONE=%q\n", params.Timezone)
	fmt.Fprintf(&sb, "ARG LOCALE=%q\n", params.Locale)
	fmt.Fprintf(&sb, "ARG ADD_DEB_PACKAGES=%q\n", strings.Join(params.ExtraDebPackages, " "))
	fmt.Fprintf(&sb, "ARG ADD_PIP_PACKAGES=%q\n\n", strings.Join(params.ExtraPipPackages, " "))

	sb.WriteString("ENV DEBIAN_FRONTEND=noninteractive \\\n")
	fmt.Fprintf(&sb, "    TZ=${TIMEZONE} \\\n")
	fmt.Fprintf(&sb, "    LANG=${LOCALE}\n\n")

	// Timezone and locale come first; every later layer observes them.
	sb.WriteString("RUN ln -sf /usr/share/zoneinfo/${TIMEZONE} /etc/localtime \\\n")
	sb.WriteString("    && echo ${TIMEZONE} > /etc/timezone \\\n")
	sb.WriteString("    && sed -i -e \"s/# ${LOCALE} UTF-8/${LOCALE} UTF-8/\" /etc/locale.gen \\\n")
	sb.WriteString("    && locale-gen \\\n")
	sb.WriteString("    && update-locale LANG=${LOCALE} \\\n")
	sb.WriteString("    && date\n\n")

	// System packages: baseline plus extras, one transaction, pruned after.
	packages := MergePackageSets(baselineDebPackages, params.ExtraDebPackages)
	sb.WriteString("RUN apt-get update \\\n")
	fmt.Fprintf(&sb, "    && apt-get install -y --no-install-recommends %s \\\n", strings.Join(packages, " "))
	sb.WriteString("    && apt-get autoremove -y \\\n")
	sb.WriteString("    && apt-get clean \\\n")
	sb.WriteString("    && rm -rf /var/lib/apt/lists/*\n\n")

	// Dependency priming happens before the source copy so the layer is
	// reusable across source-only changes; application registration runs
	// after the copy once the package metadata is present.
	sb.WriteString("WORKDIR /pygeoapi\n")
	sb.WriteString("COPY pyproject.toml poetry.lock /pygeoapi/\n\n")

	fmt.Fprintf(&sb, "RUN python3 -m venv --system-site-packages /venv \\\n")
	fmt.Fprintf(&sb, "    && /venv/bin/pip install poetry==%s \\\n", PoetryVersion)
	sb.WriteString("    && /venv/bin/poetry check --lock --directory /pygeoapi \\\n")
	sb.WriteString("    && /venv/bin/poetry install --no-root --no-interaction --directory /pygeoapi \\\n")
	fmt.Fprintf(&sb, "    && /venv/bin/pip install %s ${ADD_PIP_PACKAGES}\n\n", strings.Join(runtimePipPackages, " "))

	// Schema cache for offline document validation.
	fmt.Fprintf(&sb, "RUN curl -fsSL -o /tmp/schemas.zip %s \\\n", schema.ArchiveURL)
	fmt.Fprintf(&sb, "    && unzip -q /tmp/schemas.zip \"%s/*\" -d /pygeoapi/%s \\\n", schema.ArchiveSubdir, schema.DefaultCacheDir)
	sb.WriteString("    && rm /tmp/schemas.zip\n\n")

	sb.WriteString("COPY . /pygeoapi\n")
	sb.WriteString("RUN /venv/bin/poetry install --no-interaction --directory /pygeoapi\n\n")

	sb.WriteString("COPY geopod /usr/local/bin/geopod\n")
	fmt.Fprintf(&sb, "EXPOSE %d\n", config.DefaultContainerPort)
	sb.WriteString("ENTRYPOINT [\"geopod\", \"entrypoint\"]\n")

	return sb.String()
}
