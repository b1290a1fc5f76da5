// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"

	"github.com/condarun/condarun/internal/testutil"
)

const integrationImage = "docker.io/library/alpine:3.20"

// checkTestcontainersAvailable safely checks if a container daemon is reachable.
func checkTestcontainersAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return true
}

// TestContainerRunner_Integration runs real containers through the docker CLI.
func TestContainerRunner_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if !checkTestcontainersAvailable() {
		t.Skip("skipping container integration tests: no container provider available")
	}

	t.Run("WorkDirIsWritable", testContainerWorkDirWritable)
	t.Run("ReadOnlyMount", testContainerReadOnlyMount)
	t.Run("ExitCode", testContainerExitCode)
}

func runInContainer(t *testing.T, workDir string, extra []VolumeMount, args ...string) *Result {
	t.Helper()

	sem := testutil.ContainerSemaphore()
	sem <- struct{}{}
	defer func() { <-sem }()

	cfg, err := ContainerConfiguration(ContainerConfig{Image: integrationImage}, workDir, extra)
	if err != nil {
		t.Fatalf("ContainerConfiguration() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	res, err := cfg.Prepare().ExecuteCommand(ctx, args, workDir, nil, nil, quiet)
	if err != nil {
		t.Fatalf("ExecuteCommand() error = %v", err)
	}
	return res
}

func testContainerWorkDirWritable(t *testing.T) {
	workDir := t.TempDir()

	res := runInContainer(t, workDir, nil, "sh", "-c", "echo hello > out.txt && cat out.txt && pwd")
	if !res.Success() {
		t.Fatalf("exit code %d, stderr %q", res.ExitCode, res.Stderr)
	}
	if got := string(res.Stdout); got != "hello\n"+workDir+"\n" {
		t.Errorf("Stdout = %q", got)
	}
	if got := testutil.MustReadFile(t, filepath.Join(workDir, "out.txt")); got != "hello\n" {
		t.Errorf("out.txt = %q", got)
	}
	if log := testutil.MustReadFile(t, filepath.Join(workDir, BuildLogFileName)); !strings.Contains(log, "hello\n") {
		t.Errorf("build log missing output: %q", log)
	}
}

func testContainerReadOnlyMount(t *testing.T) {
	workDir := t.TempDir()
	dataDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dataDir, "input.txt"), []byte("data\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	script := "cat " + filepath.Join(dataDir, "input.txt") + " && touch " + filepath.Join(dataDir, "new.txt")
	res := runInContainer(t, workDir, []VolumeMount{ReadOnlyMount(dataDir)}, "sh", "-c", script)
	if res.Success() {
		t.Fatal("writing to a read-only mount must fail")
	}
	if !strings.HasPrefix(string(res.Stdout), "data\n") {
		t.Errorf("Stdout = %q, want mounted file content", res.Stdout)
	}
}

func testContainerExitCode(t *testing.T) {
	res := runInContainer(t, t.TempDir(), nil, "sh", "-c", "exit 7")
	if res.ExitCode != 7 {
		t.Errorf("ExitCode = %d, want 7", res.ExitCode)
	}
}
