// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"

	"github.com/condarun/condarun/internal/runner"
	"github.com/condarun/condarun/internal/sandbox"
)

// RunnerConfiguration converts rc into a runner configuration for a build in workDir.
// Sandbox defaults are taken for goos.
func RunnerConfiguration(rc RunnerConfig, workDir, goos string) (runner.Configuration, error) {
	if valid, errs := rc.Backend.IsValid(); !valid {
		return runner.Configuration{}, errs[0]
	}

	switch rc.Backend {
	case BackendSandbox:
		policy, err := SandboxPolicy(rc.Sandbox, goos)
		if err != nil {
			return runner.Configuration{}, err
		}
		return runner.SandboxConfiguration(policy)
	case BackendContainer:
		extra := make([]runner.VolumeMount, 0, len(rc.Container.Mounts))
		for _, spec := range rc.Container.Mounts {
			m, err := runner.ParseVolumeMount(spec)
			if err != nil {
				return runner.Configuration{}, fmt.Errorf("runner.container.mounts: %w", err)
			}
			extra = append(extra, m)
		}
		return runner.ContainerConfiguration(runner.ContainerConfig{
			Engine:       runner.EngineType(rc.Container.Engine),
			Image:        rc.Container.Image,
			AllowNetwork: rc.Container.AllowNetwork,
		}, workDir, extra)
	default:
		return runner.HostConfiguration(), nil
	}
}

// SandboxPolicy builds the sandbox policy described by sc. A policy file replaces
// the inline fields entirely.
func SandboxPolicy(sc SandboxConfig, goos string) (*sandbox.Configuration, error) {
	if sc.PolicyFile != "" {
		policy, err := sandbox.LoadFile(sc.PolicyFile)
		if err != nil {
			return nil, fmt.Errorf("runner.sandbox.policy_file: %w", err)
		}
		return policy, nil
	}

	policy := sandbox.New(goos, sandbox.Overrides{
		AllowNetwork:      sc.AllowNetwork,
		Read:              sc.Read,
		ReadExecute:       sc.ReadExecute,
		ReadWrite:         sc.ReadWrite,
		OverwriteDefaults: sc.OverwriteDefaults,
	})
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("runner.sandbox: %w", err)
	}
	return policy, nil
}
