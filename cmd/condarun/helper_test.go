// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/condarun/condarun/internal/config"
	"github.com/condarun/condarun/internal/runner"
	"github.com/condarun/condarun/pkg/platform"
)

type staticConfig struct {
	cfg *config.Config
	err error
}

func (s staticConfig) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	if s.err != nil {
		return nil, s.err
	}
	cfg := *s.cfg
	return &cfg, nil
}

type cliResult struct {
	stdout string
	stderr string
	err    error
}

// runCLI executes the command tree in-process with cfg as the loaded configuration.
func runCLI(t *testing.T, cfg *config.Config, runnerOpts []runner.Option, args ...string) cliResult {
	t.Helper()

	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	var stdout, stderr bytes.Buffer
	app := NewApp(Dependencies{
		Config:        staticConfig{cfg: cfg},
		RunnerOptions: runnerOpts,
		GOOS:          platform.Linux,
		GOARCH:        "amd64",
		Stdout:        &stdout,
		Stderr:        &stderr,
	})

	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(t.Context())

	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}
