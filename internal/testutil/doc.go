// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers include environment management (MustSetenv, SetConfigHome),
// file fixtures (MustWriteFile, WriteExecutable), command mocking through the
// helper-process pattern (CommandRecorder, RunHelperProcess) and a semaphore
// limiting concurrent container tests.
package testutil
