// SPDX-License-Identifier: MPL-2.0

package platform

import "runtime"

// OS name constants for runtime.GOOS comparisons.
// Centralizes the string literals to avoid scattered magic strings.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// SupportsLinuxContainers reports whether a host running goos can execute
// Linux-target containers through a local engine. Windows hosts are refused:
// their engines either run Windows images or route through a VM whose path
// and permission semantics do not match the bind-mount layout used for builds.
func SupportsLinuxContainers(goos string) bool {
	return goos != Windows
}

// IsPOSIX reports whether goos has POSIX user and group ids.
func IsPOSIX(goos string) bool {
	return goos != Windows
}

// Current returns runtime.GOOS. It exists so callers read the host OS
// through one place that tests can shadow with an explicit goos value.
func Current() string {
	return runtime.GOOS
}
