// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"os"
	"os/exec"
	"slices"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/condarun/condarun/pkg/platform"
)

type (
	// Runner builds the operating system command for one execution context.
	//
	// BuildCommand returns a configured, unstarted command. Pre-flight checks such as
	// tool lookup may run synchronously, but the target command is never spawned.
	Runner interface {
		Name() string
		BuildCommand(ctx context.Context, ec *ExecutionContext) (*exec.Cmd, error)
	}

	// ExecutionContext describes a single command invocation.
	ExecutionContext struct {
		// CommandArgs is the program followed by its arguments.
		CommandArgs []string
		// WorkDir is the working directory of the command and the home of the build log.
		WorkDir string
		// EnvVars are exported to the command in insertion order.
		EnvVars *orderedmap.OrderedMap[string, string]
		// Mounts are the container volumes; ignored by the host and sandbox backends.
		Mounts []VolumeMount
	}

	// Result is the outcome of a finished command.
	Result struct {
		// ExitCode is the process exit status, or -1 when the process was killed by a signal.
		ExitCode int
		// Stdout holds every redacted stdout line, each terminated by "\n".
		Stdout []byte
		// Stderr holds every redacted stderr line, each terminated by "\n".
		Stderr []byte
		// LogPath is the build log the output was appended to.
		LogPath string
		// LogSize is the size of the build log after the run, or 0 when it could not be read.
		LogSize int64
	}

	// LookPathFunc resolves an executable name to a path.
	LookPathFunc func(file string) (string, error)

	// CommandFunc creates an unstarted command. exec.CommandContext satisfies it.
	CommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

	// Option customizes how a backend discovers tools and creates commands.
	Option func(*deps)

	deps struct {
		lookPath     LookPathFunc
		command      CommandFunc
		goos         string
		userIDs      func() (uid, gid int)
		confinement  platform.Confinement
		probeBackoff time.Duration
	}
)

// Success reports whether the command exited with status 0.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Validate checks the invariants every backend relies on.
func (ec *ExecutionContext) Validate() error {
	if ec == nil || len(ec.CommandArgs) == 0 || ec.CommandArgs[0] == "" {
		return ErrEmptyCommand
	}
	return nil
}

// WithLookPath overrides executable discovery, which defaults to exec.LookPath.
func WithLookPath(fn LookPathFunc) Option {
	return func(d *deps) { d.lookPath = fn }
}

// WithCommandFunc overrides command creation, which defaults to exec.CommandContext.
func WithCommandFunc(fn CommandFunc) Option {
	return func(d *deps) { d.command = fn }
}

// WithGOOS overrides the operating system the backend believes it runs on.
func WithGOOS(goos string) Option {
	return func(d *deps) { d.goos = goos }
}

// WithUserIDs overrides the uid and gid passed to the container engine.
func WithUserIDs(fn func() (uid, gid int)) Option {
	return func(d *deps) { d.userIDs = fn }
}

// WithConfinement overrides the detected Flatpak or Snap confinement.
func WithConfinement(c platform.Confinement) Option {
	return func(d *deps) { d.confinement = c }
}

// WithProbeBackoff overrides the delay before retrying a transient container
// engine probe failure.
func WithProbeBackoff(d time.Duration) Option {
	return func(o *deps) { o.probeBackoff = d }
}

func newDeps(opts []Option) deps {
	d := deps{
		lookPath:     exec.LookPath,
		command:      exec.CommandContext,
		goos:         platform.Current(),
		userIDs:      currentUserIDs,
		confinement:  platform.DetectConfinement(),
		probeBackoff: probeBackoff,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// commandEnv returns the parent environment followed by PWD and the context variables.
// Later entries win when the child process reads its environment.
func commandEnv(ec *ExecutionContext) []string {
	env := slices.Clone(os.Environ())
	env = append(env, "PWD="+ec.WorkDir)
	if ec.EnvVars == nil {
		return env
	}
	for pair := ec.EnvVars.Oldest(); pair != nil; pair = pair.Next() {
		env = append(env, pair.Key+"="+pair.Value)
	}
	return env
}
