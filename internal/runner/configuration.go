// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	// KindHost runs commands directly on the host.
	KindHost Kind = "host"
	// KindSandbox runs commands under rattler-sandbox.
	KindSandbox Kind = "sandbox"
	// KindContainer runs commands in a docker or podman container.
	KindContainer Kind = "container"
)

type (
	// Kind names a backend.
	Kind string

	// Configuration is the backend selection for one build. The zero value selects the host.
	Configuration struct {
		kind      Kind
		policy    SandboxPolicy
		container ContainerConfig
		mounts    []VolumeMount
	}

	// Options is the raw backend selection, typically from flags or a config file.
	Options struct {
		// Sandbox selects the sandbox backend when non-nil.
		Sandbox SandboxPolicy
		// Container selects the container backend when non-nil.
		Container *ContainerConfig
		// WorkDir is mounted read-write into the container.
		WorkDir string
		// ExtraMounts are additional container mounts.
		ExtraMounts []VolumeMount
	}

	// PreparedRunner is an instantiated backend with its bound mounts.
	PreparedRunner struct {
		config Configuration
		runner Runner
	}
)

// HostConfiguration selects the host backend.
func HostConfiguration() Configuration {
	return Configuration{kind: KindHost}
}

// SandboxConfiguration selects the sandbox backend with policy.
func SandboxConfiguration(policy SandboxPolicy) (Configuration, error) {
	if policy == nil {
		return Configuration{}, ErrSandboxPolicyRequired
	}
	return Configuration{kind: KindSandbox, policy: policy}, nil
}

// ContainerConfiguration selects the container backend and resolves its mounts from
// the work directory and extra mounts.
func ContainerConfiguration(cfg ContainerConfig, workDir string, extra []VolumeMount) (Configuration, error) {
	if err := cfg.Validate(); err != nil {
		return Configuration{}, err
	}
	for _, m := range extra {
		if err := m.Validate(); err != nil {
			return Configuration{}, fmt.Errorf("invalid mount %q: %w", m.Path, err)
		}
	}
	cfg.Engine = cfg.EngineOrDefault()
	return Configuration{
		kind:      KindContainer,
		container: cfg,
		mounts:    ResolveMounts(workDir, extra),
	}, nil
}

// NewConfiguration selects a backend from opts. Requesting both sandbox and container
// is an error; requesting neither selects the host.
func NewConfiguration(opts Options) (Configuration, error) {
	switch {
	case opts.Sandbox != nil && opts.Container != nil:
		return Configuration{}, ErrConflictingRunners
	case opts.Container != nil:
		return ContainerConfiguration(*opts.Container, opts.WorkDir, opts.ExtraMounts)
	case opts.Sandbox != nil:
		return SandboxConfiguration(opts.Sandbox)
	default:
		return HostConfiguration(), nil
	}
}

// Kind returns the selected backend.
func (c Configuration) Kind() Kind {
	if c.kind == "" {
		return KindHost
	}
	return c.kind
}

// IsHost reports whether the host backend is selected.
func (c Configuration) IsHost() bool { return c.Kind() == KindHost }

// IsSandbox reports whether the sandbox backend is selected.
func (c Configuration) IsSandbox() bool { return c.Kind() == KindSandbox }

// IsContainer reports whether the container backend is selected.
func (c Configuration) IsContainer() bool { return c.Kind() == KindContainer }

// SandboxPolicy returns the sandbox policy, or nil for other backends.
func (c Configuration) SandboxPolicy() SandboxPolicy { return c.policy }

// Container returns the container configuration and whether the container backend is selected.
func (c Configuration) Container() (ContainerConfig, bool) {
	return c.container, c.IsContainer()
}

// Mounts returns a copy of the resolved container mounts.
func (c Configuration) Mounts() []VolumeMount {
	return slices.Clone(c.mounts)
}

// Prepare instantiates the backend once for the build.
func (c Configuration) Prepare(opts ...Option) *PreparedRunner {
	var r Runner
	switch c.Kind() {
	case KindSandbox:
		r = NewSandboxRunner(c.policy, opts...)
	case KindContainer:
		r = NewContainerRunner(c.container, opts...)
	default:
		r = NewHostRunner(opts...)
	}
	return &PreparedRunner{config: c, runner: r}
}

// Runner returns the instantiated backend.
func (p *PreparedRunner) Runner() Runner { return p.runner }

// Configuration returns the configuration the runner was prepared from.
func (p *PreparedRunner) Configuration() Configuration { return p.config }

// ExecuteCommand builds the command for args and runs it with Execute. Pre-flight
// failures are returned before anything is spawned.
func (p *PreparedRunner) ExecuteCommand(
	ctx context.Context,
	args []string,
	workDir string,
	env *orderedmap.OrderedMap[string, string],
	redactor *Redactor,
	opts ...ExecuteOption,
) (*Result, error) {
	ec := &ExecutionContext{
		CommandArgs: args,
		WorkDir:     workDir,
		EnvVars:     env,
		Mounts:      p.config.Mounts(),
	}
	cmd, err := p.runner.BuildCommand(ctx, ec)
	if err != nil {
		return nil, err
	}
	slog.Debug("executing command", "runner", p.runner.Name(), "args", args, "work_dir", workDir)
	return Execute(ctx, cmd, workDir, redactor, opts...)
}
