// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
)

// MustSetenv sets the environment variable key to value.
// It returns a cleanup function that restores the original value (or unsets it).
// The test fails immediately if the operation fails.
func MustSetenv(t testing.TB, key, value string) func() {
	t.Helper()
	originalValue, hadValue := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	return func() {
		if hadValue {
			if err := os.Setenv(key, originalValue); err != nil {
				t.Errorf("failed to restore env %s: %v", key, err)
			}
			return
		}
		if err := os.Unsetenv(key); err != nil {
			t.Errorf("failed to unset env %s: %v", key, err)
		}
	}
}

// MustWriteFile writes content to path, creating parent directories.
func MustWriteFile(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// MustReadFile returns the content of path.
func MustReadFile(t testing.TB, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

// WriteExecutable writes a POSIX shell script named name into dir and returns its path.
// The test is skipped on Windows.
func WriteExecutable(t testing.TB, dir, name, body string) string {
	t.Helper()
	SkipWithoutShell(t)
	path := filepath.Join(dir, name)
	//nolint:gosec // test fixtures must be executable
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("failed to write executable %s: %v", path, err)
	}
	return path
}

// SkipWithoutShell skips tests that need /bin/sh.
func SkipWithoutShell(t testing.TB) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping: requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("skipping: sh not found on PATH")
	}
}

// LookPathIn returns a lookup function that only finds executables in dir.
func LookPathIn(dir string) func(string) (string, error) {
	return func(file string) (string, error) {
		path := filepath.Join(dir, file)
		info, err := os.Stat(path)
		if err != nil {
			return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
		}
		if info.IsDir() || info.Mode()&0o111 == 0 {
			return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
		}
		return path, nil
	}
}

// LookPathNotFound is a lookup function that never finds anything.
func LookPathNotFound(file string) (string, error) {
	return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
}
