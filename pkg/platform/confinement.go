// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"os"
	"sync"
)

// Confinement type constants.
const (
	// ConfinementNone indicates the process runs unconfined on the host.
	ConfinementNone Confinement = ""
	// ConfinementFlatpak indicates a Flatpak application sandbox.
	ConfinementFlatpak Confinement = "flatpak"
	// ConfinementSnap indicates a Snap application sandbox.
	ConfinementSnap Confinement = "snap"
)

// Confinement identifies the application sandbox the current process runs in.
// A confined process sees its own filesystem namespace, so external engines
// that bind-mount host paths must be started on the host through a spawn helper.
type Confinement string

// detectOnce caches the confinement for the process lifetime.
//
// INVARIANT: detectConfinementFrom MUST NOT panic. sync.OnceValue re-panics on
// every call after a panic.
var detectOnce = sync.OnceValue(func() Confinement {
	return detectConfinementFrom(os.Getenv, statFile)
})

// DetectConfinement returns the application sandbox of the current process.
//
// Detection methods:
//   - Flatpak: /.flatpak-info exists
//   - Snap: SNAP_NAME is set
func DetectConfinement() Confinement {
	return detectOnce()
}

// String returns the confinement name.
func (c Confinement) String() string { return string(c) }

// SpawnCommand returns the helper used to run a program on the host,
// or "" when no helper is needed.
func (c Confinement) SpawnCommand() string {
	switch c {
	case ConfinementFlatpak:
		return "flatpak-spawn"
	case ConfinementSnap:
		return "snap"
	default:
		return ""
	}
}

// SpawnArgs returns the helper arguments that precede the host program.
func (c Confinement) SpawnArgs() []string {
	switch c {
	case ConfinementFlatpak:
		return []string{"--host"}
	case ConfinementSnap:
		return []string{"run", "--shell"}
	default:
		return nil
	}
}

// WrapArgv prefixes argv with the host spawn helper when confined.
// The returned slice is always a fresh copy.
func (c Confinement) WrapArgv(argv []string) []string {
	spawn := c.SpawnCommand()
	if spawn == "" {
		return append([]string(nil), argv...)
	}
	out := make([]string, 0, len(argv)+3)
	out = append(out, spawn)
	out = append(out, c.SpawnArgs()...)
	return append(out, argv...)
}

// detectConfinementFrom performs detection using injected lookups so tests
// do not mutate process-wide state.
func detectConfinementFrom(lookupEnv func(string) string, statFile func(string) error) Confinement {
	// Flatpak takes precedence; /.flatpak-info is always present inside it.
	if err := statFile("/.flatpak-info"); err == nil {
		return ConfinementFlatpak
	}
	if lookupEnv("SNAP_NAME") != "" {
		return ConfinementSnap
	}
	return ConfinementNone
}

func statFile(path string) error {
	_, err := os.Stat(path)
	return err
}
