// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version takes priority", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2026-06-15T10:00:00Z"

		got := getVersionString()
		want := "v1.2.3 (commit: abc1234, built: 2026-06-15T10:00:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("dev build", func(t *testing.T) {
		origVersion := Version
		t.Cleanup(func() { Version = origVersion })

		Version = "dev"
		if got, want := getVersionString(), "dev (built from source)"; got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})
}

func TestNewRootCommand_Tree(t *testing.T) {
	t.Parallel()

	root := NewRootCommand(NewApp(Dependencies{}))

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	slices.Sort(names)

	for _, want := range []string{"config", "run", "script"} {
		if !slices.Contains(names, want) {
			t.Errorf("root command is missing %q (have %v)", want, names)
		}
	}

	cfgCmd, _, err := root.Find([]string{"config"})
	if err != nil {
		t.Fatalf("Find(config) error = %v", err)
	}
	var sub []string
	for _, c := range cfgCmd.Commands() {
		sub = append(sub, c.Name())
	}
	slices.Sort(sub)
	if diff := cmp.Diff([]string{"dump", "init", "path", "show"}, sub); diff != "" {
		t.Errorf("config subcommands mismatch (-want +got):\n%s", diff)
	}
}
