// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"os/exec"
	"slices"
)

const (
	// SandboxExecutable is the OS-level sandbox launcher looked up on PATH.
	SandboxExecutable = "rattler-sandbox"

	sandboxRemediation = "install it with `pixi global install rattler-sandbox`"
)

type (
	// SandboxPolicy is an opaque sandbox policy. The runner binds it to the working
	// directory and renders it into launcher arguments without inspecting it.
	SandboxPolicy interface {
		WithWorkDir(dir string) SandboxPolicy
		Args() []string
	}

	// SandboxRunner prefixes commands with rattler-sandbox and the policy arguments.
	SandboxRunner struct {
		deps
		policy SandboxPolicy
	}
)

// NewSandboxRunner creates a sandbox backend for policy.
func NewSandboxRunner(policy SandboxPolicy, opts ...Option) *SandboxRunner {
	return &SandboxRunner{deps: newDeps(opts), policy: policy}
}

// Name returns "sandbox".
func (r *SandboxRunner) Name() string { return string(KindSandbox) }

// Policy returns the unbound policy the runner was created with.
func (r *SandboxRunner) Policy() SandboxPolicy { return r.policy }

// BuildCommand resolves rattler-sandbox before touching the policy. The resulting
// argv is the launcher, the policy bound to WorkDir, then CommandArgs verbatim.
func (r *SandboxRunner) BuildCommand(ctx context.Context, ec *ExecutionContext) (*exec.Cmd, error) {
	if err := ec.Validate(); err != nil {
		return nil, err
	}
	if r.policy == nil {
		return nil, ErrSandboxPolicyRequired
	}

	launcher, err := r.lookPath(SandboxExecutable)
	if err != nil {
		return nil, &ToolMissingError{Tool: SandboxExecutable, Remediation: sandboxRemediation, Cause: err}
	}

	policyArgs := r.policy.WithWorkDir(ec.WorkDir).Args()
	args := slices.Concat(policyArgs, ec.CommandArgs)

	cmd := r.command(ctx, launcher, args...)
	cmd.Dir = ec.WorkDir
	cmd.Env = commandEnv(ec)
	return cmd, nil
}
