// SPDX-License-Identifier: MPL-2.0

// Package platform provides cross-platform compatibility utilities.
//
// It centralizes GOOS names, reports whether the host can run Linux-target
// containers natively, and detects application confinement (Flatpak, Snap)
// that requires external engines to be started through a host spawn helper.
package platform
