// SPDX-License-Identifier: MPL-2.0

// Package runner executes build commands in one of three interchangeable environments.
//
// Three backends implement the Runner interface:
//   - host: spawns the command directly with the parent environment
//   - sandbox: prefixes the command with rattler-sandbox and the policy arguments
//   - container: runs the command in a throwaway docker or podman container
//
// A backend only builds an unstarted *exec.Cmd. Every backend funnels through Execute,
// which drains stdout and stderr concurrently, redacts each line, appends it to
// <work_dir>/conda_build.log and returns the captured output with the exit code.
//
// Configuration is chosen once per build and turned into a PreparedRunner, which
// binds the resolved container mounts and runs any number of commands.
package runner
