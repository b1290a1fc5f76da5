// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for condarun.
//
// The root command wires configuration loading and logging; subcommands run a
// single command (run) or a build script (script) through the configured
// execution backend, and inspect configuration (config).
package cmd
