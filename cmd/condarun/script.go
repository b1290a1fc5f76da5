// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"github.com/condarun/condarun/internal/script"

	"github.com/spf13/cobra"
)

func newScriptCommand(app *App) *cobra.Command {
	var (
		flags       buildFlags
		secrets     []string
		interpreter string
	)

	scriptCmd := &cobra.Command{
		Use:   "script [flags] <file>",
		Short: "Run a bash build script through the configured backend",
		Long: `Run a bash build script the way conda-build does.

The environment is written to build_env.sh and the script, prefixed with a
preamble sourcing it, to conda_build.sh in the work directory. The script
then runs as 'bash -e conda_build.sh'. Values of --secret variables are
replaced with ******** in all output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read build script: %w", err)
			}
			env, err := parseKeyValues("env", flags.env)
			if err != nil {
				return err
			}

			b, skipped, err := app.prepareBuild(cmd.Context(), &flags)
			if err != nil || skipped {
				return err
			}

			s := &script.Script{
				Content:     string(content),
				Env:         env,
				Secrets:     secrets,
				Interpreter: interpreter,
			}
			res, err := s.Run(cmd.Context(), b.prepared, b.workDir, b.options...)

			var failed *script.FailedError
			if errors.As(err, &failed) {
				app.reportFailure("build script failed", res)
				return exitFor(res)
			}
			return actionable("run build script", err)
		},
	}

	flags.register(scriptCmd)
	scriptCmd.Flags().StringArrayVar(&secrets, "secret", nil, "name of an --env variable whose value is redacted (repeatable)")
	scriptCmd.Flags().StringVar(&interpreter, "interpreter", "", "interpreter running the script (default is bash)")

	return scriptCmd
}
