// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"geopod-cli/internal/system"
)

// PoetryVersion is the pinned dependency manager version. Installs always
// pin it so builds do not drift with upstream releases.
const PoetryVersion = "2.1.3"

// runtimePipPackages is the fixed runtime package set installed into the
// environment after the locked application dependencies: the WSGI server,
// its cooperative worker library, and the wheel build tool.
var runtimePipPackages = []string{"gunicorn", "gevent", "wheel"}

type (
	// Phase is the explicit marker for the two-pass dependency install
	// protocol. The first pass can only prime third-party dependencies
	// because the application's own manifest registration requires its
	// source to be present; the second pass registers the application.
	Phase int

	// PyenvStepOption configures a PyenvStep.
	PyenvStepOption func(*PyenvStep)

	// PyenvStep builds the isolated Python environment: a venv with
	// system-site-packages visibility (so natively installed bindings stay
	// importable), a pinned dependency manager, the locked third-party
	// dependency set, and the fixed runtime extras.
	PyenvStep struct {
		runner *system.Runner
		extras []string

		venvDir string
		appDir  string
		phase   Phase
	}
)

// Phases of the two-pass install protocol, in order.
const (
	// PhaseUninitialized means no install pass has run yet.
	PhaseUninitialized Phase = iota
	// PhaseDependenciesPrimed means the locked third-party dependencies are
	// installed but the application package itself is not yet registered.
	PhaseDependenciesPrimed
	// PhaseApplicationRegistered means the full install ran with the
	// application source present; the environment is complete.
	PhaseApplicationRegistered
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseDependenciesPrimed:
		return "dependenciesPrimed"
	case PhaseApplicationRegistered:
		return "applicationRegistered"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// RuntimePipPackages returns a copy of the fixed runtime package set.
func RuntimePipPackages() []string {
	return slices.Clone(runtimePipPackages)
}

// NewPyenvStep creates the Python environment builder step.
func NewPyenvStep(runner *system.Runner, extras []string, opts ...PyenvStepOption) *PyenvStep {
	s := &PyenvStep{
		runner:  runner,
		extras:  extras,
		venvDir: "/venv",
		appDir:  "/pygeoapi",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithVenvDir overrides the virtual environment directory.
func WithVenvDir(dir string) PyenvStepOption {
	return func(s *PyenvStep) { s.venvDir = dir }
}

// WithAppDir overrides the application source directory.
func WithAppDir(dir string) PyenvStepOption {
	return func(s *PyenvStep) { s.appDir = dir }
}

// Name implements Step.
func (s *PyenvStep) Name() string { return "pyenv" }

// CurrentPhase reports how far the two-pass install protocol has progressed.
func (s *PyenvStep) CurrentPhase() Phase { return s.phase }

// Run executes the full ordering invariant: venv creation → dependency
// manager install → locked dependency install (priming) → runtime extras →
// application registration. Each stage is fatal on failure.
func (s *PyenvStep) Run(ctx context.Context) error {
	if err := s.createVenv(ctx); err != nil {
		return err
	}
	if err := s.installManager(ctx); err != nil {
		return err
	}
	if err := s.PrimeDependencies(ctx); err != nil {
		return err
	}
	if err := s.installRuntimeExtras(ctx); err != nil {
		return err
	}
	return s.RegisterApplication(ctx)
}

// createVenv creates the isolated interpreter environment. System site
// packages stay visible so native library bindings installed at the OS level
// remain importable from inside the venv.
func (s *PyenvStep) createVenv(ctx context.Context) error {
	return s.runner.Run(ctx, "python3", "-m", "venv", "--system-site-packages", s.venvDir)
}

// installManager installs the dependency manager at its pinned version.
func (s *PyenvStep) installManager(ctx context.Context) error {
	return s.runner.Run(ctx, s.venvBin("pip"), "install", "poetry=="+PoetryVersion)
}

// PrimeDependencies runs the first install pass: verify the lock file is in
// sync with the manifest (fail closed rather than silently re-resolving),
// then install the locked third-party dependencies without registering the
// application package itself.
func (s *PyenvStep) PrimeDependencies(ctx context.Context) error {
	if err := s.runner.Run(ctx, s.venvBin("poetry"),
		"check", "--lock", "--directory", s.appDir); err != nil {
		return err
	}
	if err := s.runner.Run(ctx, s.venvBin("poetry"),
		"install", "--no-root", "--no-interaction", "--directory", s.appDir); err != nil {
		return err
	}
	s.phase = PhaseDependenciesPrimed
	return nil
}

// installRuntimeExtras installs the fixed runtime set plus caller extras.
// Duplicates against the fixed set are deduped the same way the OS package
// union works.
func (s *PyenvStep) installRuntimeExtras(ctx context.Context) error {
	args := []string{"install"}
	args = append(args, MergePackageSets(runtimePipPackages, s.extras)...)
	return s.runner.Run(ctx, s.venvBin("pip"), args...)
}

// RegisterApplication runs the second install pass with the application
// source present, registering the application's own package metadata.
func (s *PyenvStep) RegisterApplication(ctx context.Context) error {
	if err := s.runner.Run(ctx, s.venvBin("poetry"),
		"install", "--no-interaction", "--directory", s.appDir); err != nil {
		return err
	}
	s.phase = PhaseApplicationRegistered
	return nil
}

// venvBin returns the path of a binary inside the virtual environment.
func (s *PyenvStep) venvBin(name string) string {
	return filepath.Join(s.venvDir, "bin", name)
}
