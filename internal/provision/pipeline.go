// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
)

var (
	// ErrStepFailed is the sentinel error wrapped by StepError.
	ErrStepFailed = errors.New("provisioning step failed")
)

type (
	// Step is one stage of the provisioning sequence. Steps own their
	// external resources (package database, filesystem paths) exclusively
	// for the duration of Run; the pipeline never runs two steps at once.
	Step interface {
		// Name identifies the step in logs and errors.
		Name() string
		// Run executes the step. Any error is fatal to the whole build.
		Run(ctx context.Context) error
	}

	// StepError is returned when a pipeline step fails. It wraps
	// ErrStepFailed for errors.Is detection and carries the failing step's
	// name for diagnostics.
	StepError struct {
		Step string
		Err  error
	}

	// Pipeline executes steps strictly in order and stops at the first
	// failure. There is no retry, no recovery, and no partial continuation:
	// a silently degraded image is worse than a failed build.
	Pipeline struct {
		steps  []Step
		logger *log.Logger
	}
)

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
}

// Unwrap returns ErrStepFailed plus the underlying error for errors.Is chains.
func (e *StepError) Unwrap() []error { return []error{ErrStepFailed, e.Err} }

// NewPipeline creates a Pipeline over the given steps. A nil logger is
// replaced with the package default.
func NewPipeline(logger *log.Logger, steps ...Step) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{steps: steps, logger: logger}
}

// Run executes every step in order. It returns the first StepError
// encountered, or nil when all steps complete. Context cancellation is
// checked between steps; a canceled context aborts like any other failure.
func (p *Pipeline) Run(ctx context.Context) error {
	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return &StepError{Step: step.Name(), Err: err}
		}
		p.logger.Info("running provisioning step",
			"step", step.Name(), "position", fmt.Sprintf("%d/%d", i+1, len(p.steps)))
		if err := step.Run(ctx); err != nil {
			p.logger.Error("provisioning step failed", "step", step.Name(), "error", err)
			return &StepError{Step: step.Name(), Err: err}
		}
	}
	return nil
}
