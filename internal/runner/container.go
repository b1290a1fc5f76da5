// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/condarun/condarun/pkg/platform"
)

const (
	// EngineDocker selects the docker CLI.
	EngineDocker EngineType = "docker"
	// EnginePodman selects the podman CLI.
	EnginePodman EngineType = "podman"
)

type (
	// EngineType names the container CLI used to run commands.
	EngineType string

	// ContainerConfig selects the image and isolation of the container backend.
	ContainerConfig struct {
		// Engine defaults to docker when empty.
		Engine EngineType
		Image  string
		// AllowNetwork keeps the container on the engine's default network.
		// When false the container runs with --network=none.
		AllowNetwork bool
	}

	// ContainerRunner runs commands in a throwaway container via the engine CLI.
	ContainerRunner struct {
		deps
		config ContainerConfig
	}
)

// String returns the engine binary name.
func (e EngineType) String() string { return string(e) }

// Validate returns an error wrapping ErrInvalidEngineType for unknown engines.
func (e EngineType) Validate() error {
	switch e {
	case EngineDocker, EnginePodman:
		return nil
	default:
		return fmt.Errorf("%w: %q (must be %q or %q)", ErrInvalidEngineType, string(e), EngineDocker, EnginePodman)
	}
}

func (e EngineType) remediation() string {
	switch e {
	case EnginePodman:
		return "install Podman (https://podman.io/docs/installation) and make sure `podman version` succeeds"
	default:
		return "install Docker (https://docs.docker.com/get-docker/) and make sure the daemon is running"
	}
}

// EngineOrDefault returns the configured engine, or docker when unset.
func (c ContainerConfig) EngineOrDefault() EngineType {
	if c.Engine == "" {
		return EngineDocker
	}
	return c.Engine
}

// Validate checks the image and engine.
func (c ContainerConfig) Validate() error {
	if strings.TrimSpace(c.Image) == "" {
		return ErrContainerImageRequired
	}
	return c.EngineOrDefault().Validate()
}

// NewContainerRunner creates a container backend for cfg.
func NewContainerRunner(cfg ContainerConfig, opts ...Option) *ContainerRunner {
	return &ContainerRunner{deps: newDeps(opts), config: cfg}
}

// Name returns "container".
func (r *ContainerRunner) Name() string { return string(KindContainer) }

// Config returns the container configuration.
func (r *ContainerRunner) Config() ContainerConfig { return r.config }

// BuildCommand refuses unsupported platforms, verifies the engine responds and
// returns the engine's run invocation. Environment variables are not forwarded
// into the container.
func (r *ContainerRunner) BuildCommand(ctx context.Context, ec *ExecutionContext) (*exec.Cmd, error) {
	if !platform.SupportsLinuxContainers(r.goos) {
		return nil, &UnsupportedPlatformError{GOOS: r.goos, Reason: "running Linux containers natively"}
	}
	if err := ec.Validate(); err != nil {
		return nil, err
	}
	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	engine, err := r.probeEngine(ctx)
	if err != nil {
		return nil, err
	}

	argv := r.confinement.WrapArgv(append([]string{engine}, r.RunArgs(ec)...))
	cmd := r.command(ctx, argv[0], argv[1:]...)
	cmd.Dir = ec.WorkDir
	return cmd, nil
}

// RunArgs returns the engine arguments for ec, without the engine binary:
//
//	run --rm [--user uid:gid] [--network=none] (-v p:p[:ro])* -w <work_dir> <image> <args...>
func (r *ContainerRunner) RunArgs(ec *ExecutionContext) []string {
	args := make([]string, 0, 8+2*len(ec.Mounts)+len(ec.CommandArgs))
	args = append(args, "run", "--rm")
	if platform.IsPOSIX(r.goos) {
		uid, gid := r.userIDs()
		args = append(args, "--user", strconv.Itoa(uid)+":"+strconv.Itoa(gid))
	}
	if !r.config.AllowNetwork {
		args = append(args, "--network=none")
	}
	for _, m := range ec.Mounts {
		args = append(args, "-v", m.Spec())
	}
	args = append(args, "-w", ec.WorkDir, r.config.Image)
	return append(args, ec.CommandArgs...)
}

// probeEngine locates the engine binary and checks that it answers a version query.
func (r *ContainerRunner) probeEngine(ctx context.Context) (string, error) {
	engine := r.config.EngineOrDefault()
	path, err := r.lookPath(engine.String())
	if err != nil {
		return "", &ToolMissingError{Tool: engine.String(), Remediation: engine.remediation(), Cause: err}
	}

	argv := r.confinement.WrapArgv([]string{path, "version", "--format", "{{.Server.Version}}"})
	err = retryWithBackoff(ctx, probeAttempts, r.probeBackoff, func(attempt int) (bool, error) {
		probe := r.command(ctx, argv[0], argv[1:]...)
		out, err := probe.CombinedOutput()
		if err == nil {
			return false, nil
		}
		if detail := strings.TrimSpace(string(out)); detail != "" {
			err = fmt.Errorf("%w: %s", err, detail)
		}
		if transient := isTransientEngineError(err); transient && ctx.Err() == nil {
			slog.Debug("container engine probe failed, retrying", "engine", engine.String(), "attempt", attempt+1, "error", err)
			return true, err
		}
		return false, err
	})
	if err != nil {
		return "", &ToolMissingError{Tool: engine.String(), Remediation: engine.remediation(), Cause: err}
	}
	return path, nil
}
