// SPDX-License-Identifier: MPL-2.0

// Package system executes host commands (apt-get, pip, gunicorn, ...) behind
// an injectable command factory so provisioning logic stays testable without
// touching the host.
package system

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

var (
	// ErrCommandFailed is the sentinel error wrapped by CommandError.
	ErrCommandFailed = errors.New("command failed")
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// RunnerOption configures a Runner.
	RunnerOption func(*Runner)

	// Runner executes external commands with a fixed set of environment
	// overrides. Stdout/stderr are inherited by default so the underlying
	// tool's native error text reaches the user unmodified.
	Runner struct {
		execCommand ExecCommandFunc
		env         map[string]string
		stdout      io.Writer
		stderr      io.Writer
	}

	// CommandError is returned when an external command exits non-zero or
	// cannot be started. It wraps ErrCommandFailed for errors.Is detection.
	CommandError struct {
		Name string
		Args []string
		Err  error
	}
)

// Error implements the error interface.
func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s %s failed: %v", e.Name, strings.Join(e.Args, " "), e.Err)
}

// Unwrap returns ErrCommandFailed plus the underlying error for errors.Is chains.
func (e *CommandError) Unwrap() []error { return []error{ErrCommandFailed, e.Err} }

// NewRunner creates a Runner with production defaults: real exec.CommandContext,
// inherited stdout/stderr, no environment overrides.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		execCommand: exec.CommandContext,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithExecCommand sets a custom exec command factory for testing.
func WithExecCommand(fn ExecCommandFunc) RunnerOption {
	return func(r *Runner) {
		r.execCommand = fn
	}
}

// WithEnv sets per-command environment variable overrides (e.g.,
// DEBIAN_FRONTEND=noninteractive). The process environment is inherited and
// the overrides are appended, so later entries win.
func WithEnv(env map[string]string) RunnerOption {
	return func(r *Runner) {
		r.env = env
	}
}

// WithStdout redirects command stdout.
func WithStdout(w io.Writer) RunnerOption {
	return func(r *Runner) {
		r.stdout = w
	}
}

// WithStderr redirects command stderr.
func WithStderr(w io.Writer) RunnerOption {
	return func(r *Runner) {
		r.stderr = w
	}
}

// Run executes a command with inherited stdout/stderr and returns its error
// status. Failure surfaces the tool's own stderr; no output is captured.
func (r *Runner) Run(ctx context.Context, name string, args ...string) error {
	cmd := r.createCommand(ctx, name, args...)
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr
	if err := cmd.Run(); err != nil {
		return &CommandError{Name: name, Args: args, Err: err}
	}
	return nil
}

// Output executes a command and returns its trimmed stdout. Stderr is
// passed through so diagnostic text stays visible.
func (r *Runner) Output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := r.createCommand(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = r.stderr
	if err := cmd.Run(); err != nil {
		return "", &CommandError{Name: name, Args: args, Err: err}
	}
	return strings.TrimSpace(out.String()), nil
}

// createCommand builds the exec.Cmd and applies environment overrides.
func (r *Runner) createCommand(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := r.execCommand(ctx, name, args...)
	if len(r.env) > 0 {
		// Preserve any environment the factory already set (mocks set their
		// own); otherwise inherit the process environment. Later entries win.
		base := cmd.Env
		if base == nil {
			base = os.Environ()
		}
		for k, v := range r.env {
			base = append(base, k+"="+v)
		}
		cmd.Env = base
	}
	return cmd
}
