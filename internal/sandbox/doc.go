// SPDX-License-Identifier: MPL-2.0

// Package sandbox describes the filesystem and network policy handed to rattler-sandbox.
//
// A Configuration lists paths that may be read, read and executed, or read and written,
// plus whether network access is allowed. It implements runner.SandboxPolicy: the runner
// binds it to the build's working directory and renders it into launcher flags.
// Policies start from per-platform defaults and may be extended by flags or replaced by
// a JSON, JSONC, TOML or YAML policy file.
package sandbox
