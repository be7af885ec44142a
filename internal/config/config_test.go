// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"slices"
	"testing"
)

func TestLoadBuildParametersDefaults(t *testing.T) {
	params, err := LoadBuildParameters()
	if err != nil {
		t.Fatalf("LoadBuildParameters() error = %v", err)
	}

	if params.Timezone != DefaultTimezone {
		t.Errorf("Timezone = %q, want %q", params.Timezone, DefaultTimezone)
	}
	if params.Locale != DefaultLocale {
		t.Errorf("Locale = %q, want %q", params.Locale, DefaultLocale)
	}
	if len(params.ExtraDebPackages) != 0 {
		t.Errorf("ExtraDebPackages = %v, want empty", params.ExtraDebPackages)
	}
	if len(params.ExtraPipPackages) != 0 {
		t.Errorf("ExtraPipPackages = %v, want empty", params.ExtraPipPackages)
	}
}

func TestLoadBuildParametersFromEnvironment(t *testing.T) {
	t.Setenv(EnvTimezone, "America/New_York")
	t.Setenv(EnvLocale, "de_DE.UTF-8")
	t.Setenv(EnvAddDebPackages, "  curl   jq ")
	t.Setenv(EnvAddPipPackages, "shapely")

	params, err := LoadBuildParameters()
	if err != nil {
		t.Fatalf("LoadBuildParameters() error = %v", err)
	}

	if params.Timezone != "America/New_York" {
		t.Errorf("Timezone = %q, want America/New_York", params.Timezone)
	}
	if params.Locale != "de_DE.UTF-8" {
		t.Errorf("Locale = %q, want de_DE.UTF-8", params.Locale)
	}
	if want := []string{"curl", "jq"}; !slices.Equal(params.ExtraDebPackages, want) {
		t.Errorf("ExtraDebPackages = %v, want %v", params.ExtraDebPackages, want)
	}
	if want := []string{"shapely"}; !slices.Equal(params.ExtraPipPackages, want) {
		t.Errorf("ExtraPipPackages = %v, want %v", params.ExtraPipPackages, want)
	}
}

func TestLoadBuildParametersRejectsMalformedTimezone(t *testing.T) {
	t.Setenv(EnvTimezone, "Europe London")

	_, err := LoadBuildParameters()
	if !errors.Is(err, ErrInvalidTimezone) {
		t.Errorf("LoadBuildParameters() error = %v, want ErrInvalidTimezone", err)
	}
}

func TestLoadRuntimeParametersDefaults(t *testing.T) {
	params, err := LoadRuntimeParameters()
	if err != nil {
		t.Fatalf("LoadRuntimeParameters() error = %v", err)
	}

	if params.ScriptName != DefaultScriptName {
		t.Errorf("ScriptName = %q, want %q", params.ScriptName, DefaultScriptName)
	}
	if params.ContainerName != DefaultContainerName {
		t.Errorf("ContainerName = %q, want %q", params.ContainerName, DefaultContainerName)
	}
	if params.ContainerHost != DefaultContainerHost {
		t.Errorf("ContainerHost = %q, want %q", params.ContainerHost, DefaultContainerHost)
	}
	if params.ContainerPort != DefaultContainerPort {
		t.Errorf("ContainerPort = %d, want %d", params.ContainerPort, DefaultContainerPort)
	}
	if params.WorkerCount != DefaultWorkerCount {
		t.Errorf("WorkerCount = %d, want %d", params.WorkerCount, DefaultWorkerCount)
	}
	if params.WorkerTimeoutSeconds != DefaultWorkerTimeout {
		t.Errorf("WorkerTimeoutSeconds = %d, want %d", params.WorkerTimeoutSeconds, DefaultWorkerTimeout)
	}
	if params.WorkerClass != DefaultWorkerClass {
		t.Errorf("WorkerClass = %q, want %q", params.WorkerClass, DefaultWorkerClass)
	}
	if params.ConfigFilePath != DefaultConfigPath {
		t.Errorf("ConfigFilePath = %q, want %q", params.ConfigFilePath, DefaultConfigPath)
	}
}

func TestLoadRuntimeParametersFromEnvironment(t *testing.T) {
	t.Setenv(EnvContainerPort, "5000")
	t.Setenv(EnvWSGIWorkers, "8")
	t.Setenv(EnvWSGIWorkerClass, "sync")

	params, err := LoadRuntimeParameters()
	if err != nil {
		t.Fatalf("LoadRuntimeParameters() error = %v", err)
	}

	if params.ContainerPort != 5000 {
		t.Errorf("ContainerPort = %d, want 5000", params.ContainerPort)
	}
	if params.WorkerCount != 8 {
		t.Errorf("WorkerCount = %d, want 8", params.WorkerCount)
	}
	if params.WorkerClass != "sync" {
		t.Errorf("WorkerClass = %q, want sync", params.WorkerClass)
	}
}

func TestLoadRuntimeParametersRejectsZeroPort(t *testing.T) {
	t.Setenv(EnvContainerPort, "0")

	_, err := LoadRuntimeParameters()
	if !errors.Is(err, ErrInvalidPort) {
		t.Errorf("LoadRuntimeParameters() error = %v, want ErrInvalidPort", err)
	}
}

func TestLoadRuntimeParametersRejectsNonPositiveWorkers(t *testing.T) {
	t.Setenv(EnvWSGIWorkers, "0")

	_, err := LoadRuntimeParameters()
	if !errors.Is(err, ErrInvalidWorkerCount) {
		t.Errorf("LoadRuntimeParameters() error = %v, want ErrInvalidWorkerCount", err)
	}
}

func TestWSGIScriptName(t *testing.T) {
	tests := []struct {
		name       string
		scriptName string
		want       string
	}{
		{name: "root maps to empty prefix", scriptName: "/", want: ""},
		{name: "subpath passes through", scriptName: "/geoapi", want: "/geoapi"},
		{name: "empty stays empty", scriptName: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := &RuntimeParameters{ScriptName: tt.scriptName}
			if got := params.WSGIScriptName(); got != tt.want {
				t.Errorf("WSGIScriptName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTimezoneValidate(t *testing.T) {
	tests := []struct {
		name    string
		zone    Timezone
		wantErr bool
	}{
		{name: "valid zone", zone: "Europe/London", wantErr: false},
		{name: "empty", zone: "", wantErr: true},
		{name: "whitespace only", zone: "   ", wantErr: true},
		{name: "embedded space", zone: "Europe London", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.zone.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
