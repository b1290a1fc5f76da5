// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSupportsLinuxContainers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		goos string
		want bool
	}{
		{Linux, true},
		{Darwin, true},
		{"freebsd", true},
		{Windows, false},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			t.Parallel()
			if got := SupportsLinuxContainers(tt.goos); got != tt.want {
				t.Errorf("SupportsLinuxContainers(%q) = %v, want %v", tt.goos, got, tt.want)
			}
			if got := IsPOSIX(tt.goos); got != tt.want {
				t.Errorf("IsPOSIX(%q) = %v, want %v", tt.goos, got, tt.want)
			}
		})
	}
}

func TestDetectConfinementFrom(t *testing.T) {
	t.Parallel()

	notExist := func(string) error { return errors.New("not found") }
	exists := func(string) error { return nil }

	tests := []struct {
		name string
		env  map[string]string
		stat func(string) error
		want Confinement
	}{
		{"unconfined", nil, notExist, ConfinementNone},
		{"snap", map[string]string{"SNAP_NAME": "condarun"}, notExist, ConfinementSnap},
		{"flatpak", nil, exists, ConfinementFlatpak},
		{"flatpak wins over snap", map[string]string{"SNAP_NAME": "condarun"}, exists, ConfinementFlatpak},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			lookup := func(k string) string { return tt.env[k] }
			if got := detectConfinementFrom(lookup, tt.stat); got != tt.want {
				t.Errorf("detectConfinementFrom() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfinement_WrapArgv(t *testing.T) {
	t.Parallel()

	argv := []string{"docker", "run", "--rm", "img"}

	tests := []struct {
		c    Confinement
		want []string
	}{
		{ConfinementNone, []string{"docker", "run", "--rm", "img"}},
		{ConfinementFlatpak, []string{"flatpak-spawn", "--host", "docker", "run", "--rm", "img"}},
		{ConfinementSnap, []string{"snap", "run", "--shell", "docker", "run", "--rm", "img"}},
	}

	for _, tt := range tests {
		t.Run("confinement="+tt.c.String(), func(t *testing.T) {
			t.Parallel()
			got := tt.c.WrapArgv(argv)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("WrapArgv() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	got := ConfinementNone.WrapArgv(argv)
	got[0] = "mutated"
	if argv[0] != "docker" {
		t.Error("WrapArgv must not alias its input")
	}
}
