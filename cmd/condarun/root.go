// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// NewRootCommand builds the command tree for app.
func NewRootCommand(app *App) *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "condarun",
		Short: "Run conda build steps on the host, in a sandbox or in a container",
		Long: TitleStyle.Render("condarun") + SubtitleStyle.Render(" - conda build step runner") + `

condarun runs build commands and scripts through one of three backends:
the host itself, rattler-sandbox, or a Docker/Podman container. Output is
streamed line by line, secrets are redacted and everything is appended to
conda_build.log in the work directory.

` + SubtitleStyle.Render("Examples:") + `
  condarun run -- make install           Run on the host
  condarun run --sandbox -- make test    Run under rattler-sandbox
  condarun run --docker --docker-image ubuntu:24.04 -- ./build.sh
  condarun script --work-dir build build.sh
  condarun config show                   Show current configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.setVerbose(verbose)
			cmd.SetOut(app.stdout)
			cmd.SetErr(app.stderr)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/condarun/config.cue)")

	rootCmd.AddCommand(newRunCommand(app))
	rootCmd.AddCommand(newScriptCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	return rootCmd
}

// Execute runs the CLI. This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	slog.SetDefault(app.Logger())

	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			if !renderError(w, err, app.verbose, app.colorScheme.GlamourStyle()) {
				fang.DefaultErrorHandler(w, styles, err)
			}
		}),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
