// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/condarun/condarun/internal/config"
	"github.com/condarun/condarun/internal/runner"
	"github.com/condarun/condarun/internal/skip"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"
)

// build is a prepared execution: the backend, where it runs and how output is shown.
type build struct {
	prepared *runner.PreparedRunner
	workDir  string
	options  []runner.ExecuteOption
}

func newRunCommand(app *App) *cobra.Command {
	var (
		flags  buildFlags
		redact []string
		mask   []string
	)

	runCmd := &cobra.Command{
		Use:   "run [flags] -- <command> [args...]",
		Short: "Run a command through the configured backend",
		Long: `Run a single command on the host, under rattler-sandbox or in a container.

Stdout and stderr are streamed line by line, redacted and appended to
conda_build.log in the work directory. The exit code of condarun mirrors
the exit code of the command.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mapping, err := parseRedactions(redact, mask)
			if err != nil {
				return err
			}
			return app.runCommand(cmd.Context(), &flags, args, runner.NewRedactor(mapping))
		},
	}

	flags.register(runCmd)
	runCmd.Flags().StringArrayVar(&redact, "redact", nil, "replace FROM with TO in all output (FROM=TO, split at the last '=', repeatable)")
	runCmd.Flags().StringArrayVar(&mask, "mask", nil, "replace VALUE with ******** in all output (repeatable)")

	return runCmd
}

func (a *App) runCommand(ctx context.Context, flags *buildFlags, args []string, redactor *runner.Redactor) error {
	env, err := parseKeyValues("env", flags.env)
	if err != nil {
		return err
	}

	b, skipped, err := a.prepareBuild(ctx, flags)
	if err != nil || skipped {
		return err
	}

	res, err := b.prepared.ExecuteCommand(ctx, args, b.workDir, env, redactor, b.options...)
	if err != nil {
		return actionable("run command", err)
	}
	if !res.Success() {
		a.reportFailure("command failed", res)
	}
	return exitFor(res)
}

// prepareBuild loads configuration, evaluates skip conditions and instantiates the
// backend. skipped is true when a skip condition matched.
func (a *App) prepareBuild(ctx context.Context, flags *buildFlags) (b *build, skipped bool, err error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, false, err
	}

	if skipped, err := a.shouldSkip(flags.skip); err != nil || skipped {
		return nil, skipped, err
	}

	workDir, err := flags.resolveWorkDir()
	if err != nil {
		return nil, false, err
	}

	rc, err := flags.backend.apply(cfg.Runner)
	if err != nil {
		return nil, false, actionable("select backend", err)
	}
	runnerConfig, err := config.RunnerConfiguration(rc, workDir, a.GOOS)
	if err != nil {
		return nil, false, actionable("select backend", err)
	}

	prepared := runnerConfig.Prepare(a.RunnerOptions...)
	fmt.Fprintln(a.stderr, prepared.Summary())

	return &build{
		prepared: prepared,
		workDir:  workDir,
		options: []runner.ExecuteOption{
			runner.WithLogger(a.logger),
			runner.WithLineHandler(a.printLine),
		},
	}, false, nil
}

func (a *App) shouldSkip(conditions []string) (bool, error) {
	s := skip.New(conditions...)
	if s.IsEmpty() {
		return false, nil
	}

	ev, err := skip.NewEvaluator(a.GOOS, a.GOARCH, nil)
	if err != nil {
		return false, err
	}
	s, err = s.WithEval(ev)
	if err != nil {
		return false, actionable("evaluate skip conditions", err)
	}
	if s.Eval() {
		a.logger.Info("skipping build", "conditions", s.Conditions(), "target_platform", skip.Subdir(a.GOOS, a.GOARCH))
		return true, nil
	}
	return false, nil
}

func (a *App) printLine(stream runner.Stream, line string) {
	var w io.Writer = a.stdout
	if stream == runner.Stderr {
		w = a.stderr
	}
	fmt.Fprintln(w, line)
}

// reportFailure logs the exit code and where the output was recorded.
func (a *App) reportFailure(msg string, res *runner.Result) {
	a.logger.Error(msg, "exit_code", res.ExitCode, "log", res.LogPath, "log_size", units.HumanSize(float64(res.LogSize)))
}

// exitFor mirrors a non-zero child exit code. Children killed by a signal report
// -1 and exit with 1.
func exitFor(res *runner.Result) error {
	if res.Success() {
		return nil
	}
	code := res.ExitCode
	if code <= 0 {
		code = 1
	}
	return &ExitError{Code: code}
}
