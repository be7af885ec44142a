// SPDX-License-Identifier: MPL-2.0

// Package testutil provides shared test helpers: a command recorder built on
// the TestHelperProcess pattern so packages can assert on the exact argv
// sequences the provisioning code would execute, without running anything.
package testutil

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"testing"
)

type (
	// MockCommandRecorder captures arguments passed to the exec command
	// factory for verification. It uses the TestHelperProcess pattern to
	// simulate command execution.
	MockCommandRecorder struct {
		// Invocations records each call to the mock exec factory.
		Invocations []MockInvocation
		// ExitCode is the default exit code to return (0 = success).
		ExitCode int
		// Stdout is the default output to write to stdout.
		Stdout string
		// Stderr is the default output to write to stderr.
		Stderr string
		// Responses overrides the default behavior for commands whose joined
		// "name arg arg..." string contains the map key. First match wins in
		// insertion-independent longest-key order.
		Responses map[string]MockResponse
	}

	// MockResponse is the scripted outcome for a matched command.
	MockResponse struct {
		Stdout   string
		Stderr   string
		ExitCode int
	}

	// MockInvocation represents a single invocation of the exec factory.
	MockInvocation struct {
		Name string
		Args []string
	}
)

// NewMockCommandRecorder creates a recorder with default settings (success, no output).
func NewMockCommandRecorder() *MockCommandRecorder {
	return &MockCommandRecorder{
		Invocations: make([]MockInvocation, 0),
	}
}

// CommandFunc returns a factory that records invocations and returns a command
// running the calling package's TestHelperProcess with the scripted outcome.
func (m *MockCommandRecorder) CommandFunc(t *testing.T) func(ctx context.Context, name string, arg ...string) *exec.Cmd {
	t.Helper()
	return func(_ context.Context, name string, arg ...string) *exec.Cmd {
		m.Invocations = append(m.Invocations, MockInvocation{Name: name, Args: arg})

		stdout := m.Stdout
		stderr := m.Stderr
		exitCode := m.ExitCode
		joined := strings.Join(append([]string{name}, arg...), " ")
		key := m.longestMatch(joined)
		if key != "" {
			resp := m.Responses[key]
			stdout = resp.Stdout
			stderr = resp.Stderr
			exitCode = resp.ExitCode
		}

		cs := []string{"-test.run=TestHelperProcess", "--", name}
		cs = append(cs, arg...)
		cmd := exec.Command(os.Args[0], cs...) //nolint:gosec,noctx // test helper pattern
		cmd.Env = []string{
			"GO_WANT_HELPER_PROCESS=1",
			fmt.Sprintf("GO_HELPER_EXIT_CODE=%d", exitCode),
			fmt.Sprintf("GO_HELPER_STDOUT=%s", stdout),
			fmt.Sprintf("GO_HELPER_STDERR=%s", stderr),
		}
		return cmd
	}
}

// longestMatch returns the longest Responses key contained in joined, or "".
// Longest wins so "apt-get install" can override a broader "apt-get" script.
func (m *MockCommandRecorder) longestMatch(joined string) string {
	best := ""
	for key := range m.Responses {
		if strings.Contains(joined, key) && len(key) > len(best) {
			best = key
		}
	}
	return best
}

// LastInvocation returns the most recent invocation, or nil if none.
func (m *MockCommandRecorder) LastInvocation() *MockInvocation {
	if len(m.Invocations) == 0 {
		return nil
	}
	return &m.Invocations[len(m.Invocations)-1]
}

// CommandLines renders each recorded invocation as a "name arg arg..." line,
// in execution order. Convenient for ordering assertions.
func (m *MockCommandRecorder) CommandLines() []string {
	lines := make([]string, 0, len(m.Invocations))
	for _, inv := range m.Invocations {
		lines = append(lines, strings.Join(append([]string{inv.Name}, inv.Args...), " "))
	}
	return lines
}

// RunHelperProcess is the body for each package's TestHelperProcess test.
// It writes the scripted stdout and exits with the scripted code. Packages
// using MockCommandRecorder must declare:
//
//	func TestHelperProcess(t *testing.T) { testutil.RunHelperProcess(t) }
func RunHelperProcess(t *testing.T) {
	t.Helper()
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	if out := os.Getenv("GO_HELPER_STDOUT"); out != "" {
		fmt.Fprintln(os.Stdout, out)
	}
	if out := os.Getenv("GO_HELPER_STDERR"); out != "" {
		fmt.Fprintln(os.Stderr, out)
	}
	code, _ := strconv.Atoi(os.Getenv("GO_HELPER_EXIT_CODE"))
	os.Exit(code)
}
