// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	// probeAttempts bounds how often a transient engine probe failure is retried.
	probeAttempts = 3
	// probeBackoff is the delay before the first retry; it doubles per attempt.
	probeBackoff = 250 * time.Millisecond
)

// retryWithBackoff retries op up to maxAttempts times with exponential backoff.
// op returns (retry, err): a nil err ends the loop, and so does retry == false.
// On exhaustion the last error is returned.
func retryWithBackoff(ctx context.Context, maxAttempts int, baseBackoff time.Duration, op func(attempt int) (retry bool, err error)) error {
	var lastErr error
	for attempt := range maxAttempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry aborted: %w", ctx.Err())
			case <-time.After(baseBackoff * time.Duration(1<<(attempt-1))):
			}
		}

		retry, err := op(attempt)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// isTransientEngineError reports whether a failed engine invocation may succeed
// on retry: exit code 125 (generic engine failure), rootless Podman races and
// storage driver glitches. Context errors are never transient.
func isTransientEngineError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 125 {
		return true
	}

	msg := err.Error()
	for _, marker := range []string{
		"ping_group_range",
		"OCI runtime error",
		"error creating overlay mount",
		"error mounting layer",
		"connection timed out",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
