// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/condarun/condarun/internal/config"
	"github.com/condarun/condarun/internal/runner"
	"github.com/condarun/condarun/internal/script"

	"github.com/spf13/cobra"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrInvalidKeyValue is returned for KEY=VALUE flags without a key or "=".
var ErrInvalidKeyValue = errors.New("expected KEY=VALUE")

type (
	// backendFlags are the command line overrides of the runner configuration.
	backendFlags struct {
		sandbox            bool
		allowNetwork       bool
		allowRead          []string
		allowReadExecute   []string
		allowReadWrite     []string
		overwriteDefaults  bool
		sandboxPolicy      string
		docker             bool
		dockerImage        string
		dockerAllowNetwork bool
		containerEngine    string
		mounts             []string
	}

	// buildFlags are shared by the commands that execute something.
	buildFlags struct {
		workDir string
		env     []string
		skip    []string
		backend backendFlags
	}
)

func (f *buildFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.workDir, "work-dir", "w", "", "directory to run in; conda_build.log is written here (default is the current directory)")
	fs.StringArrayVarP(&f.env, "env", "e", nil, "set an environment variable (KEY=VALUE, repeatable)")
	fs.StringArrayVar(&f.skip, "skip", nil, "skip when this CUE condition is true, e.g. 'win || osx' (repeatable)")

	b := &f.backend
	fs.BoolVar(&b.sandbox, "sandbox", false, "run under rattler-sandbox")
	fs.BoolVar(&b.allowNetwork, "allow-network", false, "allow network access inside the sandbox")
	fs.StringArrayVar(&b.allowRead, "allow-read", nil, "allow reading this path inside the sandbox (repeatable)")
	fs.StringArrayVar(&b.allowReadExecute, "allow-read-execute", nil, "allow reading and executing this path inside the sandbox (repeatable)")
	fs.StringArrayVar(&b.allowReadWrite, "allow-read-write", nil, "allow reading and writing this path inside the sandbox (repeatable)")
	fs.BoolVar(&b.overwriteDefaults, "overwrite-default-sandbox-config", false, "start from an empty sandbox policy instead of the platform defaults")
	fs.StringVar(&b.sandboxPolicy, "sandbox-policy", "", "read the sandbox policy from a JSON, JSONC, TOML or YAML file")
	fs.BoolVar(&b.docker, "docker", false, "run inside a container")
	fs.StringVar(&b.dockerImage, "docker-image", "", "container image to run in")
	fs.BoolVar(&b.dockerAllowNetwork, "docker-allow-network", false, "allow network access inside the container")
	fs.StringVar(&b.containerEngine, "container-engine", "", "container engine: docker or podman")
	fs.StringArrayVar(&b.mounts, "mount", nil, "mount this path into the container (PATH[:ro|:rw], repeatable)")

	cmd.MarkFlagsMutuallyExclusive("sandbox", "docker")
	cmd.MarkFlagsMutuallyExclusive("sandbox-policy", "docker")
}

// apply layers the flags over rc. Sandbox and container flags refine their section
// even when the backend itself comes from the config file.
func (b backendFlags) apply(rc config.RunnerConfig) (config.RunnerConfig, error) {
	if b.sandbox && b.docker {
		return rc, runner.ErrConflictingRunners
	}

	switch {
	case b.sandbox:
		rc.Backend = config.BackendSandbox
	case b.docker:
		rc.Backend = config.BackendContainer
	}

	sc := &rc.Sandbox
	sc.AllowNetwork = sc.AllowNetwork || b.allowNetwork
	sc.OverwriteDefaults = sc.OverwriteDefaults || b.overwriteDefaults
	sc.Read = append(sc.Read, b.allowRead...)
	sc.ReadExecute = append(sc.ReadExecute, b.allowReadExecute...)
	sc.ReadWrite = append(sc.ReadWrite, b.allowReadWrite...)
	if b.sandboxPolicy != "" {
		sc.PolicyFile = b.sandboxPolicy
	}

	cc := &rc.Container
	if b.dockerImage != "" {
		cc.Image = b.dockerImage
	}
	if b.containerEngine != "" {
		cc.Engine = b.containerEngine
	}
	cc.AllowNetwork = cc.AllowNetwork || b.dockerAllowNetwork
	cc.Mounts = append(cc.Mounts, b.mounts...)

	return rc, nil
}

// resolveWorkDir returns the absolute work directory, defaulting to the current one.
func (f *buildFlags) resolveWorkDir() (string, error) {
	dir := f.workDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve work directory %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("work directory %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("work directory %s is not a directory", abs)
	}
	return abs, nil
}

// parseKeyValues parses KEY=VALUE pairs in order. A repeated key keeps its first
// position and takes the last value.
func parseKeyValues(flag string, values []string) (*orderedmap.OrderedMap[string, string], error) {
	out := orderedmap.New[string, string]()
	for _, kv := range values {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("--%s %q: %w", flag, kv, ErrInvalidKeyValue)
		}
		out.Set(key, value)
	}
	return out, nil
}

// parseRedactions builds the redaction mapping of the run command. --redact
// values split at their last '=' so the source may itself contain '='; every
// --mask value is replaced with script.RedactedValue.
func parseRedactions(redact, mask []string) (map[string]string, error) {
	mapping := make(map[string]string, len(redact)+len(mask))
	for _, kv := range redact {
		idx := strings.LastIndex(kv, "=")
		if idx <= 0 {
			return nil, fmt.Errorf("--redact %q: %w", kv, ErrInvalidKeyValue)
		}
		mapping[kv[:idx]] = kv[idx+1:]
	}
	for _, value := range mask {
		if value == "" {
			return nil, fmt.Errorf("--mask: %w", ErrInvalidKeyValue)
		}
		mapping[value] = script.RedactedValue
	}
	return mapping, nil
}
