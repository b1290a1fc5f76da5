// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"errors"
	"fmt"
)

var (
	// ErrToolMissing is returned when an external tool required by a backend is not usable.
	ErrToolMissing = errors.New("required tool is missing")

	// ErrUnsupportedPlatform is returned when a backend cannot run on the current OS.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrSpawnFailed is returned when the operating system refuses to start a command.
	ErrSpawnFailed = errors.New("failed to spawn command")

	// ErrBuildLogUnavailable is returned when the build log cannot be opened.
	ErrBuildLogUnavailable = errors.New("build log unavailable")

	// ErrEmptyCommand is returned when an execution context carries no command arguments.
	ErrEmptyCommand = errors.New("command arguments must not be empty")

	// ErrContainerImageRequired is returned for a container configuration without an image.
	ErrContainerImageRequired = errors.New("container image is required")

	// ErrConflictingRunners is returned when both sandbox and container backends are requested.
	ErrConflictingRunners = errors.New("sandbox and container backends are mutually exclusive")

	// ErrInvalidAccessMode is returned for an access mode other than ro or rw.
	ErrInvalidAccessMode = errors.New("invalid access mode")

	// ErrEmptyMountPath is returned for a volume mount without a path.
	ErrEmptyMountPath = errors.New("volume mount path must not be empty")

	// ErrInvalidEngineType is returned for a container engine other than docker or podman.
	ErrInvalidEngineType = errors.New("invalid container engine")

	// ErrSandboxPolicyRequired is returned for a sandbox configuration without a policy.
	ErrSandboxPolicyRequired = errors.New("sandbox policy is required")
)

type (
	// ToolMissingError reports an external tool that could not be found or did not respond.
	ToolMissingError struct {
		// Tool is the executable name that was looked up.
		Tool string
		// Remediation tells the user how to install the tool.
		Remediation string
		// Cause is the lookup or probe failure, if any.
		Cause error
	}

	// UnsupportedPlatformError reports a backend that refuses to run on the current OS.
	UnsupportedPlatformError struct {
		GOOS   string
		Reason string
	}

	// BuildLogError reports a build log that could not be opened.
	BuildLogError struct {
		Path  string
		Cause error
	}
)

func (e *ToolMissingError) Error() string {
	msg := fmt.Sprintf("%s is not available; %s", e.Tool, e.Remediation)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both ErrToolMissing and the underlying cause to errors.Is and errors.As.
func (e *ToolMissingError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrToolMissing}
	}
	return []error{ErrToolMissing, e.Cause}
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("%s is not supported on %s", e.Reason, e.GOOS)
}

func (e *UnsupportedPlatformError) Unwrap() error { return ErrUnsupportedPlatform }

func (e *BuildLogError) Error() string {
	return fmt.Sprintf("failed to open build log %s: %v", e.Path, e.Cause)
}

func (e *BuildLogError) Unwrap() []error { return []error{ErrBuildLogUnavailable, e.Cause} }
