// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"os/exec"
)

// HostRunner spawns commands directly on the host.
type HostRunner struct {
	deps
}

// NewHostRunner creates a host backend.
func NewHostRunner(opts ...Option) *HostRunner {
	return &HostRunner{deps: newDeps(opts)}
}

// Name returns "host".
func (r *HostRunner) Name() string { return string(KindHost) }

// BuildCommand runs CommandArgs[0] in WorkDir with the parent environment, PWD
// and the context variables.
func (r *HostRunner) BuildCommand(ctx context.Context, ec *ExecutionContext) (*exec.Cmd, error) {
	if err := ec.Validate(); err != nil {
		return nil, err
	}
	cmd := r.command(ctx, ec.CommandArgs[0], ec.CommandArgs[1:]...)
	cmd.Dir = ec.WorkDir
	cmd.Env = commandEnv(ec)
	return cmd, nil
}
