// SPDX-License-Identifier: MPL-2.0

// Package config loads build-time and run-time parameters from the
// environment using Viper, with the documented defaults applied when a
// variable is absent. Loading happens once at process entry; the returned
// structs are treated as immutable afterwards.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Build-time environment variables.
const (
	EnvTimezone       = "TIMEZONE"
	EnvLocale         = "LOCALE"
	EnvAddDebPackages = "ADD_DEB_PACKAGES"
	EnvAddPipPackages = "ADD_PIP_PACKAGES"
)

// Run-time environment variables.
const (
	EnvScriptName        = "SCRIPT_NAME"
	EnvContainerName     = "CONTAINER_NAME"
	EnvContainerHost     = "CONTAINER_HOST"
	EnvContainerPort     = "CONTAINER_PORT"
	EnvWSGIWorkers       = "WSGI_WORKERS"
	EnvWSGIWorkerTimeout = "WSGI_WORKER_TIMEOUT"
	EnvWSGIWorkerClass   = "WSGI_WORKER_CLASS"
	EnvServerConfig      = "PYGEOAPI_CONFIG"
	EnvServerOpenAPI     = "PYGEOAPI_OPENAPI"
)

// Documented defaults.
const (
	DefaultTimezone      = "Europe/London"
	DefaultLocale        = "en_US.UTF-8"
	DefaultScriptName    = "/"
	DefaultContainerName = "pygeoapi"
	DefaultContainerHost = "0.0.0.0"
	DefaultContainerPort = 80
	DefaultWorkerCount   = 4
	DefaultWorkerTimeout = 6000
	DefaultWorkerClass   = "gevent"
	DefaultConfigPath    = "/pygeoapi/local.config.yml"
	DefaultOpenAPIPath   = "/pygeoapi/local.openapi.yml"
)

// LoadBuildParameters reads the build-time parameters from the environment.
// Extra package lists are whitespace-separated; empty values yield empty
// slices, never an error.
func LoadBuildParameters() (*BuildParameters, error) {
	v := viper.New()
	v.SetDefault(EnvTimezone, DefaultTimezone)
	v.SetDefault(EnvLocale, DefaultLocale)
	v.SetDefault(EnvAddDebPackages, "")
	v.SetDefault(EnvAddPipPackages, "")
	bindBuildEnv(v)

	params := &BuildParameters{
		Timezone:         Timezone(v.GetString(EnvTimezone)),
		Locale:           Locale(v.GetString(EnvLocale)),
		ExtraDebPackages: strings.Fields(v.GetString(EnvAddDebPackages)),
		ExtraPipPackages: strings.Fields(v.GetString(EnvAddPipPackages)),
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid build parameters: %w", err)
	}
	return params, nil
}

// LoadRuntimeParameters reads the run-time parameters from the environment.
// This is the single read point for the entrypoint dispatcher; callers pass
// the returned struct around instead of consulting the environment again.
func LoadRuntimeParameters() (*RuntimeParameters, error) {
	v := viper.New()
	v.SetDefault(EnvScriptName, DefaultScriptName)
	v.SetDefault(EnvContainerName, DefaultContainerName)
	v.SetDefault(EnvContainerHost, DefaultContainerHost)
	v.SetDefault(EnvContainerPort, DefaultContainerPort)
	v.SetDefault(EnvWSGIWorkers, DefaultWorkerCount)
	v.SetDefault(EnvWSGIWorkerTimeout, DefaultWorkerTimeout)
	v.SetDefault(EnvWSGIWorkerClass, DefaultWorkerClass)
	v.SetDefault(EnvServerConfig, DefaultConfigPath)
	v.SetDefault(EnvServerOpenAPI, DefaultOpenAPIPath)
	bindRuntimeEnv(v)

	params := &RuntimeParameters{
		ScriptName:           v.GetString(EnvScriptName),
		ContainerName:        v.GetString(EnvContainerName),
		ContainerHost:        v.GetString(EnvContainerHost),
		ContainerPort:        NetworkPort(v.GetUint16(EnvContainerPort)),
		WorkerCount:          v.GetInt(EnvWSGIWorkers),
		WorkerTimeoutSeconds: v.GetInt(EnvWSGIWorkerTimeout),
		WorkerClass:          v.GetString(EnvWSGIWorkerClass),
		ConfigFilePath:       v.GetString(EnvServerConfig),
		OpenAPIFilePath:      v.GetString(EnvServerOpenAPI),
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid runtime parameters: %w", err)
	}
	return params, nil
}

// bindBuildEnv binds the build-time variables. Viper lowercases keys
// internally, so each variable is bound to its exact environment name.
func bindBuildEnv(v *viper.Viper) {
	for _, name := range []string{EnvTimezone, EnvLocale, EnvAddDebPackages, EnvAddPipPackages} {
		_ = v.BindEnv(name, name) // BindEnv only errors on empty input
	}
}

// bindRuntimeEnv binds the run-time variables.
func bindRuntimeEnv(v *viper.Viper) {
	for _, name := range []string{
		EnvScriptName, EnvContainerName, EnvContainerHost, EnvContainerPort,
		EnvWSGIWorkers, EnvWSGIWorkerTimeout, EnvWSGIWorkerClass,
		EnvServerConfig, EnvServerOpenAPI,
	} {
		_ = v.BindEnv(name, name)
	}
}
