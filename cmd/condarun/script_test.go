// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/condarun/condarun/internal/runner"
	"github.com/condarun/condarun/internal/script"
	"github.com/condarun/condarun/internal/testutil"
)

func skipWithoutBash(t *testing.T) {
	t.Helper()
	testutil.SkipWithoutShell(t)
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("skipping: bash not found on PATH")
	}
}

func TestScript_RunsWithEnvAndSecrets(t *testing.T) {
	t.Parallel()
	skipWithoutBash(t)

	workDir := t.TempDir()
	scriptPath := filepath.Join(t.TempDir(), "build.sh")
	testutil.MustWriteFile(t, scriptPath, "echo \"building $PKG_NAME\"\necho \"token=$API_TOKEN\"\n")

	res := runCLI(t, nil, nil,
		"script", "--work-dir", workDir,
		"--env", "PKG_NAME=zlib",
		"--env", "API_TOKEN=s3cr3t",
		"--secret", "API_TOKEN",
		scriptPath)
	if res.err != nil {
		t.Fatalf("script error = %v\nstderr:\n%s", res.err, res.stderr)
	}

	want := "building zlib\ntoken=" + script.RedactedValue + "\n"
	if res.stdout != want {
		t.Errorf("stdout = %q, want %q", res.stdout, want)
	}

	if log := buildLog(t, workDir); strings.Contains(log, "s3cr3t") {
		t.Errorf("build log leaks the secret:\n%s", log)
	}
	for _, name := range []string{script.EnvFileName, script.BuildFileName} {
		testutil.MustReadFile(t, filepath.Join(workDir, name))
	}
}

func TestScript_FailureMirrorsExitCode(t *testing.T) {
	t.Parallel()
	skipWithoutBash(t)

	scriptPath := filepath.Join(t.TempDir(), "build.sh")
	testutil.MustWriteFile(t, scriptPath, "echo before\nfalse\necho after\n")

	res := runCLI(t, nil, nil, "script", "--work-dir", t.TempDir(), scriptPath)

	var exitErr *ExitError
	if !errors.As(res.err, &exitErr) {
		t.Fatalf("script error = %v, want *ExitError", res.err)
	}
	if exitErr.Code != 1 {
		t.Errorf("exit code = %d, want 1", exitErr.Code)
	}
	if res.stdout != "before\n" {
		t.Errorf("stdout = %q, want bash -e to stop after the failing line", res.stdout)
	}
	if !strings.Contains(res.stderr, runner.BuildLogFileName) || !strings.Contains(res.stderr, "log_size=7B") {
		t.Errorf("stderr = %q, want the build log path and size", res.stderr)
	}
}

func TestScript_InvalidSyntax(t *testing.T) {
	t.Parallel()

	scriptPath := filepath.Join(t.TempDir(), "build.sh")
	testutil.MustWriteFile(t, scriptPath, "if then fi (\n")

	res := runCLI(t, nil, nil, "script", "--work-dir", t.TempDir(), scriptPath)
	if !errors.Is(res.err, script.ErrInvalidScript) {
		t.Errorf("script error = %v, want ErrInvalidScript", res.err)
	}
}

func TestScript_MissingFile(t *testing.T) {
	t.Parallel()

	res := runCLI(t, nil, nil, "script", filepath.Join(t.TempDir(), "nope.sh"))
	if res.err == nil {
		t.Fatal("script succeeded for a missing file")
	}
}
