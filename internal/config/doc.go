// SPDX-License-Identifier: MPL-2.0

// Package config handles condarun configuration using Viper with CUE as the file format.
//
// Configuration is loaded from config.cue in the condarun configuration directory
// ($XDG_CONFIG_HOME/condarun on Linux, ~/Library/Application Support/condarun on macOS,
// %APPDATA%\condarun on Windows), falling back to ./config.cue. Files are validated
// against the embedded #Config schema (config_schema.cue) and CONDARUN_* environment
// variables override file values, e.g. CONDARUN_RUNNER_CONTAINER_IMAGE.
//
// RunnerConfiguration turns the runner section into a runner.Configuration.
package config
