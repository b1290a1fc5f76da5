// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"testing"
	"time"
)

func TestRetryWithBackoff(t *testing.T) {
	t.Parallel()

	errTransient := errors.New("transient")
	errPermanent := errors.New("permanent")

	tests := []struct {
		name      string
		results   []error
		retryable func(error) bool
		wantCalls int
		wantErr   error
	}{
		{name: "first try succeeds", results: []error{nil}, wantCalls: 1},
		{name: "succeeds after retries", results: []error{errTransient, errTransient, nil}, wantCalls: 3},
		{name: "permanent error stops", results: []error{errPermanent}, wantCalls: 1, wantErr: errPermanent},
		{name: "exhaustion returns last error", results: []error{errTransient, errTransient, errTransient}, wantCalls: 3, wantErr: errTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			calls := 0
			err := retryWithBackoff(context.Background(), 3, time.Millisecond, func(attempt int) (bool, error) {
				if attempt != calls {
					t.Errorf("attempt = %d, want %d", attempt, calls)
				}
				res := tt.results[calls]
				calls++
				return errors.Is(res, errTransient), res
			})
			if !errors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Errorf("retryWithBackoff() error = %v, want %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryWithBackoff_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retryWithBackoff(ctx, 3, time.Hour, func(int) (bool, error) {
		calls++
		cancel()
		return true, errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("retryWithBackoff() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestIsTransientEngineError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil},
		{name: "daemon down", err: errors.New("Cannot connect to the Docker daemon")},
		{name: "oci runtime", err: errors.New("exit status 1: OCI runtime error"), want: true},
		{name: "rootless race", err: errors.New("write /proc/sys/net/ipv4/ping_group_range: invalid argument"), want: true},
		{name: "overlay", err: errors.New("error creating overlay mount to /var/lib"), want: true},
		{name: "canceled", err: fmt.Errorf("OCI runtime error: %w", context.Canceled)},
		{name: "deadline", err: context.DeadlineExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isTransientEngineError(tt.err); got != tt.want {
				t.Errorf("isTransientEngineError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}

	t.Run("exit code 125", func(t *testing.T) {
		t.Parallel()
		if _, err := exec.LookPath("sh"); err != nil {
			t.Skip("skipping: sh not found on PATH")
		}
		err := exec.Command("sh", "-c", "exit 125").Run()
		if !isTransientEngineError(err) {
			t.Errorf("isTransientEngineError(%v) = false, want true", err)
		}
	})
}
