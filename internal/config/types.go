// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidPort is the sentinel error wrapped by InvalidPortError.
	ErrInvalidPort = errors.New("invalid port")

	// ErrInvalidWorkerCount is the sentinel error wrapped by InvalidWorkerCountError.
	ErrInvalidWorkerCount = errors.New("invalid worker count")

	// ErrInvalidTimezone is the sentinel error wrapped by InvalidTimezoneError.
	ErrInvalidTimezone = errors.New("invalid timezone")

	// ErrInvalidLocale is the sentinel error wrapped by InvalidLocaleError.
	ErrInvalidLocale = errors.New("invalid locale")
)

type (
	// Timezone is an IANA zone identifier (e.g., "Europe/London").
	Timezone string

	// Locale is a locale identifier (e.g., "en_US.UTF-8").
	Locale string

	// NetworkPort is a TCP port number. A valid port must be greater than zero.
	NetworkPort uint16

	// BuildParameters are the image-build inputs. They are supplied once at
	// build time and are immutable for the lifetime of the built image.
	BuildParameters struct {
		// Timezone is the IANA zone to activate in the image.
		Timezone Timezone
		// Locale is the locale to generate and activate.
		Locale Locale
		// ExtraDebPackages are caller-supplied OS packages installed on top
		// of the baseline set. Order-preserving, may be empty.
		ExtraDebPackages []string
		// ExtraPipPackages are caller-supplied Python packages installed on
		// top of the fixed runtime set. Order-preserving, may be empty.
		ExtraPipPackages []string
	}

	// RuntimeParameters are the container-start inputs consumed by the
	// entrypoint dispatcher. They are read once from the environment at
	// process entry; no ambient lookups happen afterwards.
	RuntimeParameters struct {
		// ScriptName is the WSGI mount prefix. "/" maps to the empty prefix.
		ScriptName string
		// ContainerName is the gunicorn process name.
		ContainerName string
		// ContainerHost is the listen address.
		ContainerHost string
		// ContainerPort is the listen port.
		ContainerPort NetworkPort
		// WorkerCount is the number of WSGI worker processes.
		WorkerCount int
		// WorkerTimeoutSeconds is the per-worker timeout.
		WorkerTimeoutSeconds int
		// WorkerClass is the gunicorn worker concurrency model.
		WorkerClass string
		// ConfigFilePath is where the server configuration is mounted.
		ConfigFilePath string
		// OpenAPIFilePath is where the generated OpenAPI document is written.
		OpenAPIFilePath string
	}

	// InvalidPortError is returned when a NetworkPort value is zero.
	InvalidPortError struct {
		Value NetworkPort
	}

	// InvalidWorkerCountError is returned when the worker count is not positive.
	InvalidWorkerCountError struct {
		Value int
	}

	// InvalidTimezoneError is returned when a Timezone is empty or contains
	// whitespace.
	InvalidTimezoneError struct {
		Value Timezone
	}

	// InvalidLocaleError is returned when a Locale is empty.
	InvalidLocaleError struct {
		Value Locale
	}
)

// String returns the string representation of the Timezone.
func (t Timezone) String() string { return string(t) }

// Validate returns an error if the Timezone is empty or contains whitespace.
// Existence of the zone on the target filesystem is checked by the locale
// step, not here; this catches malformed build arguments early.
func (t Timezone) Validate() error {
	s := string(t)
	if strings.TrimSpace(s) == "" || strings.ContainsAny(s, " \t") {
		return &InvalidTimezoneError{Value: t}
	}
	return nil
}

// String returns the string representation of the Locale.
func (l Locale) String() string { return string(l) }

// Validate returns an error if the Locale is empty or whitespace-only.
func (l Locale) Validate() error {
	if strings.TrimSpace(string(l)) == "" {
		return &InvalidLocaleError{Value: l}
	}
	return nil
}

// String returns the string representation of the NetworkPort.
func (p NetworkPort) String() string { return fmt.Sprintf("%d", p) }

// Validate returns an error if the NetworkPort is zero.
func (p NetworkPort) Validate() error {
	if p == 0 {
		return &InvalidPortError{Value: p}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidPortError) Error() string {
	return fmt.Sprintf("invalid port %d: must be greater than zero", e.Value)
}

// Unwrap returns ErrInvalidPort for errors.Is compatibility.
func (e *InvalidPortError) Unwrap() error { return ErrInvalidPort }

// Error implements the error interface.
func (e *InvalidWorkerCountError) Error() string {
	return fmt.Sprintf("invalid worker count %d: must be greater than zero", e.Value)
}

// Unwrap returns ErrInvalidWorkerCount for errors.Is compatibility.
func (e *InvalidWorkerCountError) Unwrap() error { return ErrInvalidWorkerCount }

// Error implements the error interface.
func (e *InvalidTimezoneError) Error() string {
	return fmt.Sprintf("invalid timezone %q: must be a non-empty IANA zone id", e.Value)
}

// Unwrap returns ErrInvalidTimezone for errors.Is compatibility.
func (e *InvalidTimezoneError) Unwrap() error { return ErrInvalidTimezone }

// Error implements the error interface.
func (e *InvalidLocaleError) Error() string {
	return fmt.Sprintf("invalid locale %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidLocale for errors.Is compatibility.
func (e *InvalidLocaleError) Unwrap() error { return ErrInvalidLocale }

// Validate checks all typed fields of the BuildParameters.
func (p *BuildParameters) Validate() error {
	var errs []error
	if err := p.Timezone.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := p.Locale.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks all typed fields of the RuntimeParameters.
func (p *RuntimeParameters) Validate() error {
	var errs []error
	if err := p.ContainerPort.Validate(); err != nil {
		errs = append(errs, err)
	}
	if p.WorkerCount <= 0 {
		errs = append(errs, &InvalidWorkerCountError{Value: p.WorkerCount})
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// WSGIScriptName returns the SCRIPT_NAME value to export to the WSGI server.
// The documented default "/" means "mounted at root", which the WSGI
// environment expects as an empty prefix.
func (p *RuntimeParameters) WSGIScriptName() string {
	if p.ScriptName == "/" {
		return ""
	}
	return p.ScriptName
}
