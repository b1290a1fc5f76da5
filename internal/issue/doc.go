// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// remediation suggestions. The issue catalog holds longer Markdown guidance
// for the failures a build most often hits (missing sandbox tool, missing
// container engine, unsupported host), rendered with glamour in verbose mode.
package issue
