// SPDX-License-Identifier: MPL-2.0

// Package entrypoint is the container's single process-entry decision point:
// run the packaged server, or run its test suite, based on one invocation
// argument.
package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"geopod-cli/internal/config"
	"geopod-cli/internal/system"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// TestMode is the literal argument selecting the test-suite run. Any other
// value, including none, starts the server.
const TestMode = "test"

var (
	// ErrConfigMissing is the sentinel error wrapped by ConfigMissingError.
	ErrConfigMissing = errors.New("server configuration missing")
)

type (
	// DispatcherOption configures a Dispatcher.
	DispatcherOption func(*Dispatcher)

	// Dispatcher starts the WSGI server or the test suite. It is constructed
	// with RuntimeParameters read once at process entry; it never consults
	// the environment afterwards.
	Dispatcher struct {
		params *config.RuntimeParameters
		runner *system.Runner
		logger *log.Logger

		venvDir string
		appDir  string
	}

	// ConfigMissingError is returned when the mounted server configuration
	// file does not exist. The server must not start without it.
	ConfigMissingError struct {
		Path string
	}

	// serverConfig is the subset of the server's YAML configuration the
	// dispatcher sanity-checks before starting.
	serverConfig struct {
		Server struct {
			Bind struct {
				Host string `yaml:"host"`
				Port int    `yaml:"port"`
			} `yaml:"bind"`
		} `yaml:"server"`
	}
)

// Error implements the error interface.
func (e *ConfigMissingError) Error() string {
	return fmt.Sprintf("server configuration not found at %s (mount one or set %s)", e.Path, config.EnvServerConfig)
}

// Unwrap returns ErrConfigMissing for errors.Is compatibility.
func (e *ConfigMissingError) Unwrap() error { return ErrConfigMissing }

// NewDispatcher creates a Dispatcher. The default runner exports the WSGI
// environment (SCRIPT_NAME and the configuration paths) to every child
// process it starts.
func NewDispatcher(params *config.RuntimeParameters, logger *log.Logger, opts ...DispatcherOption) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	d := &Dispatcher{
		params:  params,
		logger:  logger,
		venvDir: "/venv",
		appDir:  "/pygeoapi",
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.runner == nil {
		d.runner = system.NewRunner(system.WithEnv(map[string]string{
			config.EnvScriptName:    params.WSGIScriptName(),
			config.EnvServerConfig:  params.ConfigFilePath,
			config.EnvServerOpenAPI: params.OpenAPIFilePath,
		}))
	}
	return d
}

// WithRunner overrides the command runner (used by tests).
func WithRunner(r *system.Runner) DispatcherOption {
	return func(d *Dispatcher) { d.runner = r }
}

// WithVenvDir overrides the virtual environment directory.
func WithVenvDir(dir string) DispatcherOption {
	return func(d *Dispatcher) { d.venvDir = dir }
}

// WithAppDir overrides the application source directory.
func WithAppDir(dir string) DispatcherOption {
	return func(d *Dispatcher) { d.appDir = dir }
}

// Dispatch selects between server start and test run based on the invocation
// argument and blocks until the chosen process exits. The child's exit code
// travels up through the returned error (see system.ExitCode).
func (d *Dispatcher) Dispatch(ctx context.Context, args []string) error {
	if len(args) > 0 && args[0] == TestMode {
		return d.runTests(ctx)
	}
	return d.serve(ctx)
}

// runTests runs the packaged test suite. A failing suite surfaces as the
// process's own non-zero exit.
func (d *Dispatcher) runTests(ctx context.Context) error {
	d.logger.Info("running packaged test suite", "dir", d.appDir)
	return d.runner.Run(ctx, d.venvBin("python3"), "-m", "pytest", filepath.Join(d.appDir, "tests"))
}

// serve validates the mounted configuration, regenerates the OpenAPI
// document, and starts the WSGI server with the configured worker model.
func (d *Dispatcher) serve(ctx context.Context) error {
	if _, err := os.Stat(d.params.ConfigFilePath); err != nil {
		return &ConfigMissingError{Path: d.params.ConfigFilePath}
	}
	d.checkBind()

	if err := d.runner.Run(ctx, d.venvBin("pygeoapi"),
		"openapi", "generate", d.params.ConfigFilePath,
		"--output-file", d.params.OpenAPIFilePath); err != nil {
		return err
	}

	d.logger.Info("starting server",
		"bind", fmt.Sprintf("%s:%s", d.params.ContainerHost, d.params.ContainerPort),
		"workers", d.params.WorkerCount, "workerClass", d.params.WorkerClass)
	return d.runner.Run(ctx, d.venvBin("gunicorn"), d.GunicornArgs()...)
}

// GunicornArgs builds the server argv from the runtime parameters. Worker
// count, class, and timeout are pass-through configuration for the external
// server; this layer implements none of that concurrency itself.
func (d *Dispatcher) GunicornArgs() []string {
	return []string{
		"--workers", fmt.Sprintf("%d", d.params.WorkerCount),
		"--worker-class", d.params.WorkerClass,
		"--timeout", fmt.Sprintf("%d", d.params.WorkerTimeoutSeconds),
		"--name", d.params.ContainerName,
		"--bind", fmt.Sprintf("%s:%s", d.params.ContainerHost, d.params.ContainerPort),
		"pygeoapi.flask_app:APP",
	}
}

// checkBind warns when the mounted configuration binds a different address
// than the container advertises. The server config wins at runtime; the
// mismatch usually means a stale mounted file.
func (d *Dispatcher) checkBind() {
	content, err := os.ReadFile(d.params.ConfigFilePath)
	if err != nil {
		return
	}
	var cfg serverConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		d.logger.Warn("server configuration is not valid YAML", "path", d.params.ConfigFilePath, "error", err)
		return
	}
	if cfg.Server.Bind.Port != 0 && cfg.Server.Bind.Port != int(d.params.ContainerPort) {
		d.logger.Warn("configured bind port differs from container port",
			"config", cfg.Server.Bind.Port, "container", d.params.ContainerPort)
	}
}

// venvBin returns the path of a binary inside the virtual environment.
func (d *Dispatcher) venvBin(name string) string {
	return filepath.Join(d.venvDir, "bin", name)
}
