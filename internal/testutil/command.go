// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strconv"
	"sync"
	"testing"
)

const helperProcessEnv = "CONDARUN_WANT_HELPER_PROCESS"

type (
	// CommandRecorder captures the commands a package creates and replaces them with
	// the test binary re-executing itself in TestHelperProcess.
	//
	// The package under test must declare:
	//
	//	func TestHelperProcess(t *testing.T) { testutil.RunHelperProcess() }
	CommandRecorder struct {
		// ExitCode is the exit code every helper process returns.
		ExitCode int
		// Stdout is written to the helper's stdout.
		Stdout string
		// Stderr is written to the helper's stderr.
		Stderr string
		// FailOnArg makes commands whose first argument equals it exit with status 1.
		FailOnArg string

		mu          sync.Mutex
		invocations []Invocation
	}

	// Invocation is one recorded command creation.
	Invocation struct {
		Name string
		Args []string
	}
)

// CommandFunc returns a replacement for exec.CommandContext.
func (m *CommandRecorder) CommandFunc(t testing.TB) func(ctx context.Context, name string, args ...string) *exec.Cmd {
	t.Helper()
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		m.mu.Lock()
		m.invocations = append(m.invocations, Invocation{Name: name, Args: slices.Clone(args)})
		m.mu.Unlock()

		exitCode := m.ExitCode
		if m.FailOnArg != "" && len(args) > 0 && args[0] == m.FailOnArg {
			exitCode = 1
		}

		cs := append([]string{"-test.run=^TestHelperProcess$", "--", name}, args...)
		//nolint:gosec // the helper process is the test binary itself
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = []string{
			helperProcessEnv + "=1",
			"CONDARUN_HELPER_EXIT_CODE=" + strconv.Itoa(exitCode),
			"CONDARUN_HELPER_STDOUT=" + m.Stdout,
			"CONDARUN_HELPER_STDERR=" + m.Stderr,
		}
		return cmd
	}
}

// Invocations returns a copy of every recorded invocation.
func (m *CommandRecorder) Invocations() []Invocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.invocations)
}

// LastInvocation returns the most recent invocation, or nil if none.
func (m *CommandRecorder) LastInvocation() *Invocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.invocations) == 0 {
		return nil
	}
	inv := m.invocations[len(m.invocations)-1]
	return &inv
}

// AssertInvocationCount verifies the number of created commands.
func (m *CommandRecorder) AssertInvocationCount(t testing.TB, expected int) {
	t.Helper()
	if got := len(m.Invocations()); got != expected {
		t.Errorf("expected %d invocations, got %d", expected, got)
	}
}

// RunHelperProcess emulates a command when the test binary was started by a
// CommandRecorder and returns immediately otherwise.
func RunHelperProcess() {
	if os.Getenv(helperProcessEnv) != "1" {
		return
	}
	if stdout := os.Getenv("CONDARUN_HELPER_STDOUT"); stdout != "" {
		fmt.Fprint(os.Stdout, stdout)
	}
	if stderr := os.Getenv("CONDARUN_HELPER_STDERR"); stderr != "" {
		fmt.Fprint(os.Stderr, stderr)
	}
	code, _ := strconv.Atoi(os.Getenv("CONDARUN_HELPER_EXIT_CODE"))
	os.Exit(code)
}
