// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"runtime"
	"testing"
)

// SetConfigHome points the user configuration directory at dir and returns a
// cleanup function restoring the original value.
//
// Platform handling:
//   - Windows: Sets APPDATA
//   - macOS: Sets HOME (os.UserConfigDir uses ~/Library/Application Support)
//   - Linux and other Unix: Sets XDG_CONFIG_HOME
//
// Usage:
//
//	t.Cleanup(testutil.SetConfigHome(t, t.TempDir()))
func SetConfigHome(t testing.TB, dir string) func() {
	t.Helper()

	switch runtime.GOOS {
	case "windows":
		return MustSetenv(t, "APPDATA", dir)
	case "darwin":
		return MustSetenv(t, "HOME", dir)
	default:
		return MustSetenv(t, "XDG_CONFIG_HOME", dir)
	}
}
